package chat

import (
	"slices"
	"sync"
)

// InitialGreeting - 새 세션/리셋 시 첫 메시지
const InitialGreeting = "안녕하세요! 저는 웨어리예요. '설정'에서 지역, 성별, 말투를 선택하시거나, 위치 정보 제공에 동의하시면 날씨에 딱 맞는 코디를 추천해드릴게요!"

// store - 세션 대화 상태. 모든 접근은 mu로 보호
// epoch는 Reset마다 증가하고, 이전 epoch에서 시작한 턴의 변경은 버려짐
type store struct {
	mu    sync.RWMutex
	state State
	epoch uint64
}

func newStore() *store {
	s := &store{}
	s.resetLocked()
	return s
}

// resetLocked - 인사말 하나만 남김. id는 이전 최대값 이후로 계속 증가
func (s *store) resetLocked() {
	s.state = State{
		Messages:     []Message{},
		QuickReplies: []string{},
		LastID:       s.state.LastID,
	}
	s.appendLocked(Message{Role: RoleAssistant, Text: InitialGreeting})
	s.epoch++
}

func (s *store) snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.state)
}

func (s *store) restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st = cloneState(st)
	for _, m := range st.Messages {
		if m.ID > st.LastID {
			st.LastID = m.ID
		}
	}
	// 복원된 상태에는 진행 중인 턴이 없음
	st.Loading = false
	for i := range st.Messages {
		if st.Messages[i].Pending {
			st.Messages[i].Pending = false
			st.Messages[i].LoadingImage = false
		}
	}
	if st.QuickReplies == nil {
		st.QuickReplies = []string{}
	}
	s.state = st
	s.epoch++
}

func (s *store) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// appendLocked - 새 id 발급 후 추가
func (s *store) appendLocked(m Message) Message {
	s.state.LastID++
	m.ID = s.state.LastID
	s.state.Messages = append(s.state.Messages, m)
	return m
}

func (s *store) indexLocked(id int64) int {
	return slices.IndexFunc(s.state.Messages, func(m Message) bool { return m.ID == id })
}

func cloneState(st State) State {
	st.Messages = slices.Clone(st.Messages)
	st.QuickReplies = slices.Clone(st.QuickReplies)
	st.Settings = st.Settings.clone()
	return st
}
