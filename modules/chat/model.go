package chat

import (
	"errors"
	"slices"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderUnisex Gender = "unisex"
)

type Tone string

const (
	ToneUnset    Tone = ""
	ToneFriendly Tone = "friendly"
	ToneWitty    Tone = "witty"
	ToneCritical Tone = "critical"
)

type Feedback string

const (
	FeedbackNone    Feedback = ""
	FeedbackLike    Feedback = "like"
	FeedbackDislike Feedback = "dislike"
)

var (
	// ErrSettingsRequired - 지역/성별/말투가 모두 설정되지 않음
	ErrSettingsRequired = errors.New("settings required")
	// ErrMessageNotFound - 해당 id의 메시지가 없음
	ErrMessageNotFound = errors.New("message not found")
	// ErrAlreadyResolved - placeholder가 이미 확정됨
	ErrAlreadyResolved = errors.New("placeholder already resolved")
	// ErrUnknownAction - 지원하지 않는 액션
	ErrUnknownAction = errors.New("unknown action")
)

// Message - 채팅 말풍선 하나
type Message struct {
	ID             int64    `json:"id"`
	Role           Role     `json:"role"`
	Text           string   `json:"text"`
	UserImage      string   `json:"userImage,omitempty"`
	GeneratedImage string   `json:"generatedImage,omitempty"`
	ImagePrompt    string   `json:"imagePrompt,omitempty"`
	LoadingImage   bool     `json:"loadingImage,omitempty"`
	Feedback       Feedback `json:"feedback,omitempty"`
	HistoryOnly    bool     `json:"historyOnly,omitempty"`
	Pending        bool     `json:"pending,omitempty"`
}

// Liked - 내코디 목록에 들어가는 메시지인지
func (m Message) Liked() bool {
	return m.Feedback == FeedbackLike && (m.UserImage != "" || m.GeneratedImage != "")
}

// Image - 메시지가 가진 이미지 (생성 이미지 우선)
func (m Message) Image() string {
	if m.GeneratedImage != "" {
		return m.GeneratedImage
	}
	return m.UserImage
}

// Settings - 사용자 프로필. ApplySettings로만 통째로 교체됨
type Settings struct {
	Region          string   `json:"region" validate:"max=40"`
	Gender          Gender   `json:"gender" validate:"omitempty,oneof=male female unisex"`
	Tone            Tone     `json:"tone" validate:"omitempty,oneof=friendly witty critical"`
	PreferredColors []string `json:"preferredColors" validate:"max=23,dive,max=20"`
	Height          string   `json:"height" validate:"max=10"`
	Weight          string   `json:"weight" validate:"max=10"`
	ProfileImage    string   `json:"profileImage,omitempty"`
}

// Complete - 대화를 시작할 수 있는지 (지역, 성별, 말투 필수)
func (s Settings) Complete() bool {
	return s.Region != "" && s.Gender != GenderUnset && s.Tone != ToneUnset
}

// Equal - 모든 필드 비교 (선호색은 순서 무시)
func (s Settings) Equal(o Settings) bool {
	return s.Region == o.Region &&
		s.Gender == o.Gender &&
		s.Tone == o.Tone &&
		s.Height == o.Height &&
		s.Weight == o.Weight &&
		s.ProfileImage == o.ProfileImage &&
		slices.Equal(sortedCopy(s.PreferredColors), sortedCopy(o.PreferredColors))
}

func (s Settings) clone() Settings {
	s.PreferredColors = slices.Clone(s.PreferredColors)
	return s
}

func sortedCopy(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

// State - 세션 하나의 대화 상태 스냅샷 (Redis 저장 단위)
type State struct {
	Messages          []Message `json:"messages"`
	Settings          Settings  `json:"settings"`
	PendingSuggestion string    `json:"pendingSuggestion,omitempty"`
	QuickReplies      []string  `json:"quickReplies"`
	Loading           bool      `json:"loading"`
	LastID            int64     `json:"lastId"`
}

// LikedMessages - 좋아요 + 이미지가 있는 메시지들
func (s State) LikedMessages() []Message {
	liked := []Message{}
	for _, m := range s.Messages {
		if m.Liked() {
			liked = append(liked, m)
		}
	}
	return liked
}
