package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"wearly-server/modules/chat"
)

// ErrInvalidPayload - WebSocket 액션 payload 파싱/검증 실패
var ErrInvalidPayload = errors.New("invalid payload")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("palette", func(fl validator.FieldLevel) bool {
		return isPaletteColor(fl.Field().String())
	})
	return v
}

// SettingsRequest - POST /api/sessions/{id}/settings, WS "apply_settings"
type SettingsRequest struct {
	Region          string      `json:"region" validate:"required,max=40"`
	Gender          chat.Gender `json:"gender" validate:"required,oneof=male female unisex"`
	Tone            chat.Tone   `json:"tone" validate:"required,oneof=friendly witty critical"`
	PreferredColors []string    `json:"preferredColors" validate:"max=23,unique,dive,palette"`
	Height          string      `json:"height" validate:"omitempty,max=10"`
	Weight          string      `json:"weight" validate:"omitempty,max=10"`
	ProfileImage    string      `json:"profileImage" validate:"omitempty,startswith=data:image/"`
}

func (r SettingsRequest) Action() chat.Action {
	return chat.ApplySettings{Settings: chat.Settings{
		Region:          strings.TrimSpace(r.Region),
		Gender:          r.Gender,
		Tone:            r.Tone,
		PreferredColors: r.PreferredColors,
		Height:          strings.TrimSpace(r.Height),
		Weight:          strings.TrimSpace(r.Weight),
		ProfileImage:    r.ProfileImage,
	}}
}

// SendRequest - 텍스트/빠른답장, 이미지는 data URL
type SendRequest struct {
	Text  string `json:"text" validate:"max=2000"`
	Image string `json:"image" validate:"omitempty,startswith=data:image/"`
}

func (r SendRequest) Action() chat.Action {
	return chat.Send{Text: r.Text, Image: r.Image}
}

// FeedbackRequest - feedback이 비어있으면 해제
type FeedbackRequest struct {
	MessageID int64         `json:"messageId" validate:"gt=0"`
	Feedback  chat.Feedback `json:"feedback" validate:"omitempty,oneof=like dislike"`
}

func (r FeedbackRequest) Action() chat.Action {
	return chat.SetFeedback{MessageID: r.MessageID, Feedback: r.Feedback}
}

// RecommendRequest - messageIds가 비면 내코디 전체
type RecommendRequest struct {
	MessageIDs []int64 `json:"messageIds" validate:"max=20,dive,gt=0"`
}

func (r RecommendRequest) Action() chat.Action {
	return chat.RecommendFromHistory{MessageIDs: r.MessageIDs}
}

type HistoryRequest struct {
	Image string `json:"image" validate:"required,startswith=data:image/"`
}

func (r HistoryRequest) Action() chat.Action {
	return chat.AddImageToHistory{Image: r.Image}
}

type DeleteLikedRequest struct {
	MessageID int64 `json:"messageId" validate:"gt=0"`
}

func (r DeleteLikedRequest) Action() chat.Action {
	return chat.DeleteLiked{MessageID: r.MessageID}
}

type ResetRequest struct{}

func (ResetRequest) Action() chat.Action { return chat.Reset{} }

type actionRequest interface {
	Action() chat.Action
}

// InboundMessage - WebSocket으로 들어오는 액션 {type, payload}
type InboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// decodeInbound - WS 메시지를 검증된 액션으로 변환
func decodeInbound(msg InboundMessage) (chat.Action, error) {
	var req actionRequest
	switch msg.Type {
	case chat.ApplySettings{}.Name():
		req = &SettingsRequest{}
	case chat.Send{}.Name():
		req = &SendRequest{}
	case chat.SetFeedback{}.Name():
		req = &FeedbackRequest{}
	case chat.RecommendFromHistory{}.Name():
		req = &RecommendRequest{}
	case chat.AddImageToHistory{}.Name():
		req = &HistoryRequest{}
	case chat.DeleteLiked{}.Name():
		req = &DeleteLikedRequest{}
	case chat.Reset{}.Name():
		return chat.Reset{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", chat.ErrUnknownAction, msg.Type)
	}

	if len(msg.Payload) > 0 && string(msg.Payload) != "null" {
		if err := json.Unmarshal(msg.Payload, req); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return req.Action(), nil
}
