package chat

// Action - Dispatch가 처리하는 사용자 액션
type Action interface {
	Name() string
}

// ApplySettings - 설정 적용
type ApplySettings struct {
	Settings Settings
}

// Send - 텍스트/빠른답장 전송, Image는 data URL (선택)
type Send struct {
	Text  string
	Image string
}

// SetFeedback - 좋아요/싫어요 토글. FeedbackNone은 해제
type SetFeedback struct {
	MessageID int64
	Feedback  Feedback
}

// RecommendFromHistory - 내코디 이미지로 새 코디 생성. MessageIDs가 비면 전체
type RecommendFromHistory struct {
	MessageIDs []int64
}

// AddImageToHistory - 이미지를 좋아요 상태로 내코디에 추가 (네트워크 호출 없음)
type AddImageToHistory struct {
	Image string
}

// DeleteLiked - 내코디에서 제거 (좋아요 해제)
type DeleteLiked struct {
	MessageID int64
}

// Reset - 대화 초기화
type Reset struct{}

func (ApplySettings) Name() string        { return "apply_settings" }
func (Send) Name() string                 { return "send" }
func (SetFeedback) Name() string          { return "feedback" }
func (RecommendFromHistory) Name() string { return "recommend_from_history" }
func (AddImageToHistory) Name() string    { return "add_image_to_history" }
func (DeleteLiked) Name() string          { return "delete_liked" }
func (Reset) Name() string                { return "reset" }
