package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wearly-server/modules/chat"
)

func inbound(t *testing.T, typ string, payload any) InboundMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return InboundMessage{Type: typ, Payload: raw}
}

func TestDecodeInbound(t *testing.T) {
	action, err := decodeInbound(inbound(t, "apply_settings", map[string]any{
		"region": " 서울 ", "gender": "unisex", "tone": "critical", "preferredColors": []string{"블랙"}, "weight": " 60kg ",
	}))
	require.NoError(t, err)
	assert.Equal(t, chat.ApplySettings{Settings: chat.Settings{
		Region: "서울", Gender: chat.GenderUnisex, Tone: chat.ToneCritical, PreferredColors: []string{"블랙"}, Weight: "60kg",
	}}, action)

	action, err = decodeInbound(inbound(t, "send", map[string]any{"text": "출근룩"}))
	require.NoError(t, err)
	assert.Equal(t, chat.Send{Text: "출근룩"}, action)

	action, err = decodeInbound(inbound(t, "feedback", map[string]any{"messageId": 3}))
	require.NoError(t, err)
	assert.Equal(t, chat.SetFeedback{MessageID: 3, Feedback: chat.FeedbackNone}, action)

	action, err = decodeInbound(inbound(t, "recommend_from_history", map[string]any{"messageIds": []int64{2, 5}}))
	require.NoError(t, err)
	assert.Equal(t, chat.RecommendFromHistory{MessageIDs: []int64{2, 5}}, action)

	action, err = decodeInbound(inbound(t, "delete_liked", map[string]any{"messageId": 4}))
	require.NoError(t, err)
	assert.Equal(t, chat.DeleteLiked{MessageID: 4}, action)

	action, err = decodeInbound(InboundMessage{Type: "reset"})
	require.NoError(t, err)
	assert.Equal(t, chat.Reset{}, action)
}

func TestDecodeInboundRejects(t *testing.T) {
	cases := map[string]InboundMessage{
		"unknown type":    {Type: "dance"},
		"malformed":       {Type: "send", Payload: json.RawMessage(`{"text":`)},
		"duplicate color": inbound(t, "apply_settings", map[string]any{"region": "서울", "gender": "male", "tone": "witty", "preferredColors": []string{"블랙", "블랙"}}),
		"history url":     inbound(t, "add_image_to_history", map[string]any{"image": "https://cdn/x.webp"}),
		"negative id":     inbound(t, "recommend_from_history", map[string]any{"messageIds": []int64{-1}}),
		"missing id":      inbound(t, "delete_liked", map[string]any{}),
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeInbound(msg)
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidRequest, errorCode(err))
		})
	}
}

func TestCatalogPalette(t *testing.T) {
	assert.True(t, isPaletteColor("머스타드"))
	assert.False(t, isPaletteColor("mustard"))

	catalog := DefaultCatalog()
	catalog.Colors[0].Name = "changed"
	assert.Equal(t, "블랙", DefaultCatalog().Colors[0].Name)
}
