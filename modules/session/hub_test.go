package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wearly-server/modules/chat"
)

const testSessionID = "0b4f7a52-9a51-4c7e-b1f4-2f6a0d7e8c11"

type wsEvent struct {
	Type         chat.EventType `json:"type"`
	SessionID    string         `json:"sessionId"`
	Message      *chat.Message  `json:"message"`
	QuickReplies []string       `json:"quickReplies"`
	State        *chat.State    `json:"state"`
	Action       string         `json:"action"`
	Error        string         `json:"error"`
	Code         string         `json:"code"`
}

func newWSServer(t *testing.T) (*httptest.Server, *Manager) {
	t.Helper()
	m, _ := newTestManager(t, nil)
	srv := httptest.NewServer(http.HandlerFunc(NewHub(m).HandleWebSocket))
	t.Cleanup(srv.Close)
	return srv, m
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev wsEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

// readUntil - 조건을 만족하는 이벤트가 올 때까지 읽음
func readUntil(t *testing.T, conn *websocket.Conn, match func(wsEvent) bool) wsEvent {
	t.Helper()
	for i := 0; i < 50; i++ {
		ev := readEvent(t, conn)
		if match(ev) {
			return ev
		}
	}
	t.Fatal("expected event not received")
	return wsEvent{}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(InboundMessage{Type: typ, Payload: raw}))
}

func TestWebSocketRequiresParameters(t *testing.T) {
	srv, _ := newWSServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=" + testSessionID
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestWebSocketSnapshotOnConnect(t *testing.T) {
	srv, m := newWSServer(t)
	conn := dial(t, srv, "session="+testSessionID+"&user=u1")

	ev := readEvent(t, conn)
	assert.Equal(t, EventSnapshot, ev.Type)
	assert.Equal(t, testSessionID, ev.SessionID)
	require.NotNil(t, ev.State)
	require.Len(t, ev.State.Messages, 1)
	assert.Equal(t, chat.InitialGreeting, ev.State.Messages[0].Text)

	assert.Equal(t, 1, m.Summary().Server.TotalConnections)
}

func TestWebSocketDispatchBroadcastsToAllClients(t *testing.T) {
	srv, _ := newWSServer(t)
	a := dial(t, srv, "session="+testSessionID+"&user=a")
	readEvent(t, a)
	b := dial(t, srv, "session="+testSessionID+"&user=b")
	readEvent(t, b)

	send(t, a, "apply_settings", map[string]any{"region": "부산", "gender": "female", "tone": "witty"})

	isReport := func(ev wsEvent) bool {
		return ev.Type == chat.EventMessageUpdated && ev.Message != nil && !ev.Message.Pending &&
			strings.Contains(ev.Message.Text, "가벼운 트렌치코트를 추천해요.")
	}
	for _, conn := range []*websocket.Conn{a, b} {
		ev := readUntil(t, conn, isReport)
		assert.Equal(t, testSessionID, ev.SessionID)
		assert.Contains(t, ev.Message.Text, "오늘 부산 날씨는")
	}
}

func TestWebSocketErrorsGoToSender(t *testing.T) {
	srv, _ := newWSServer(t)
	conn := dial(t, srv, "session="+testSessionID+"&user=u1")
	readEvent(t, conn)

	send(t, conn, "dance", nil)
	ev := readEvent(t, conn)
	assert.Equal(t, EventError, ev.Type)
	assert.Equal(t, ErrCodeInvalidRequest, ev.Code)

	send(t, conn, "feedback", map[string]any{"messageId": 0, "feedback": "like"})
	ev = readEvent(t, conn)
	assert.Equal(t, EventError, ev.Type)
	assert.Equal(t, ErrCodeInvalidRequest, ev.Code)

	send(t, conn, "send", map[string]any{"text": "안녕"})
	ev = readUntil(t, conn, func(ev wsEvent) bool { return ev.Type == EventError })
	assert.Equal(t, ErrCodeSettingsRequired, ev.Code)
	assert.Equal(t, "send", ev.Action)
}

func TestWebSocketReconnectReplacesClient(t *testing.T) {
	srv, m := newWSServer(t)
	first := dial(t, srv, "session="+testSessionID+"&user=u1")
	readEvent(t, first)
	second := dial(t, srv, "session="+testSessionID+"&user=u1")
	readEvent(t, second)

	// 이전 연결은 서버가 닫음
	require.NoError(t, first.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}

	s, err := m.Get(context.Background(), testSessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.ClientCount())
}
