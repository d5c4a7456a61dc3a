package chat

import (
	"log"
	"slices"
)

// turn - 진행 중인 액션 하나의 상태 변경 창구
// 시작 이후 Reset이 일어나면 모든 변경이 무시됨
type turn struct {
	c     *Controller
	epoch uint64
}

func (c *Controller) begin() *turn {
	return &turn{c: c, epoch: c.st.currentEpoch()}
}

// mutate - epoch가 유효할 때만 fn 실행 후 이벤트 발행
func (t *turn) mutate(fn func(s *store) []Event) bool {
	s := t.c.st
	s.mu.Lock()
	if s.epoch != t.epoch {
		s.mu.Unlock()
		return false
	}
	events := fn(s)
	s.mu.Unlock()

	for _, ev := range events {
		t.c.publish(ev)
	}
	return true
}

// add - 메시지 추가 후 발급된 id 반환 (무시된 경우 0)
func (t *turn) add(m Message) int64 {
	var id int64
	t.mutate(func(s *store) []Event {
		added := s.appendLocked(m)
		id = added.ID
		return []Event{{Type: EventMessageAdded, Message: &added}}
	})
	return id
}

// progress - 확정 전 placeholder의 문구만 교체
func (t *turn) progress(id int64, text string) {
	t.mutate(func(s *store) []Event {
		idx := s.indexLocked(id)
		if idx < 0 || !s.state.Messages[idx].Pending {
			return nil
		}
		s.state.Messages[idx].Text = text
		m := s.state.Messages[idx]
		return []Event{{Type: EventMessageUpdated, Message: &m}}
	})
}

// resolve - placeholder를 최종 내용으로 한 번만 확정
func (t *turn) resolve(id int64, patch func(m *Message)) {
	var err error
	t.mutate(func(s *store) []Event {
		idx := s.indexLocked(id)
		if idx < 0 {
			err = ErrMessageNotFound
			return nil
		}
		m := &s.state.Messages[idx]
		if !m.Pending {
			err = ErrAlreadyResolved
			return nil
		}
		patch(m)
		m.Pending = false
		m.LoadingImage = false
		resolved := *m
		return []Event{{Type: EventMessageUpdated, Message: &resolved}}
	})
	if err != nil {
		log.Printf("⚠️  [Chat] Skipped resolving message %d: %v", id, err)
	}
}

func (t *turn) setQuickReplies(replies []string) {
	replies = slices.Clone(replies)
	if replies == nil {
		replies = []string{}
	}
	t.mutate(func(s *store) []Event {
		s.state.QuickReplies = replies
		return []Event{{Type: EventQuickReplies, QuickReplies: slices.Clone(replies)}}
	})
}

func (t *turn) setLoading(loading bool) {
	t.mutate(func(s *store) []Event {
		if s.state.Loading == loading {
			return nil
		}
		s.state.Loading = loading
		return []Event{{Type: EventLoading, Loading: &loading}}
	})
}

func (t *turn) setPendingSuggestion(suggestion string) {
	t.mutate(func(s *store) []Event {
		s.state.PendingSuggestion = suggestion
		return nil
	})
}

func (t *turn) commitSettings(next Settings) {
	t.mutate(func(s *store) []Event {
		s.state.Settings = next.clone()
		committed := next.clone()
		return []Event{{Type: EventSettingsUpdated, Settings: &committed}}
	})
}
