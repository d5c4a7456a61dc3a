package chat

type EventType string

const (
	EventMessageAdded     EventType = "message_added"
	EventMessageUpdated   EventType = "message_updated"
	EventQuickReplies     EventType = "quick_replies"
	EventLoading          EventType = "loading"
	EventSettingsUpdated  EventType = "settings_updated"
	EventSettingsRequired EventType = "settings_required"
	EventReset            EventType = "reset"
)

// Event - 클라이언트로 push되는 상태 변경
type Event struct {
	Type         EventType `json:"type"`
	SessionID    string    `json:"sessionId"`
	Message      *Message  `json:"message,omitempty"`
	QuickReplies []string  `json:"quickReplies,omitempty"`
	Loading      *bool     `json:"loading,omitempty"`
	Settings     *Settings `json:"settings,omitempty"`
	State        *State    `json:"state,omitempty"`
}

// Publisher - 이벤트 전달 (WebSocket hub 등)
type Publisher interface {
	Publish(ev Event)
}

type PublisherFunc func(ev Event)

func (f PublisherFunc) Publish(ev Event) { f(ev) }

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
