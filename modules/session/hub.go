package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"wearly-server/modules/chat"
	"wearly-server/modules/common/metrics"
)

const (
	// EventSnapshot - 접속 직후 현재 상태 전체
	EventSnapshot chat.EventType = "snapshot"
	// EventError - 보낸 클라이언트에게만 전달되는 액션 실패
	EventError chat.EventType = "error"

	sendBuffer = 256
	// 프로필/첨부 이미지가 data URL로 들어오므로 넉넉하게
	maxInboundBytes = 12 << 20
	writeTimeout    = 10 * time.Second
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// 개발용 - 모든 origin 허용
		return true
	},
}

// 연결된 클라이언트 정보
type Client struct {
	conn      *websocket.Conn
	sessionID string
	userID    string
	send      chan []byte
}

// Session - 대화 컨트롤러 + 접속 중인 클라이언트
type Session struct {
	id          string
	controller  *chat.Controller
	clients     map[string]*Client
	mutex       sync.RWMutex
	activeTurns atomic.Int32

	createdAt    time.Time
	lastActivity time.Time
}

var _ chat.Publisher = (*Session)(nil)

func (s *Session) ID() string { return s.id }

func (s *Session) Snapshot() chat.State { return s.controller.Snapshot() }

func (s *Session) CreatedAt() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.createdAt
}

func (s *Session) LastActivity() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActivity
}

func (s *Session) ClientCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.clients)
}

func (s *Session) touch(now time.Time) {
	s.mutex.Lock()
	s.lastActivity = now
	s.mutex.Unlock()
}

// Publish - 컨트롤러 이벤트를 모든 클라이언트에게 전달
func (s *Session) Publish(ev chat.Event) {
	s.broadcastToAll(ev)
}

// 클라이언트를 세션에 추가하고 현재 상태를 첫 메시지로 보냄
// 같은 userID로 재접속하면 이전 연결을 닫음
func (s *Session) addClient(client *Client) {
	s.mutex.Lock()
	if old, exists := s.clients[client.userID]; exists {
		close(old.send)
		log.Printf("🔁 Client %s reconnected to session %s, closing previous connection", client.userID, s.id)
	}
	s.clients[client.userID] = client
	s.lastActivity = time.Now()
	clientCount := len(s.clients)

	// 스냅샷과 등록을 같은 락 안에서 처리해야 이후 이벤트가 스냅샷보다 먼저 가지 않음
	state := s.controller.Snapshot()
	if data, err := json.Marshal(chat.Event{Type: EventSnapshot, SessionID: s.id, State: &state}); err == nil {
		client.send <- data
	}
	s.mutex.Unlock()

	metrics.WebsocketConnections.Inc()
	log.Printf("👤 Client %s joined session %s (Clients: %d)", client.userID, s.id, clientCount)
}

// 클라이언트를 세션에서 제거 (이미 교체/정리된 연결이면 무시)
func (s *Session) removeClient(client *Client) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if current, exists := s.clients[client.userID]; exists && current == client {
		close(client.send)
		delete(s.clients, client.userID)
		s.lastActivity = time.Now()
		log.Printf("👋 Client %s left session %s (Remaining: %d)", client.userID, s.id, len(s.clients))

		if len(s.clients) == 0 {
			log.Printf("🗑️  Session %s is now empty, will be cleaned up", s.id)
		}
	}
	metrics.WebsocketConnections.Dec()
}

// 모든 클라이언트에게 메시지 브로드캐스트. 버퍼가 찬 클라이언트는 끊음
func (s *Session) broadcastToAll(message any) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for userID, client := range s.clients {
		select {
		case client.send <- messageBytes:
		default:
			log.Printf("⚠️  Client %s in session %s is too slow, disconnecting", userID, s.id)
			close(client.send)
			delete(s.clients, userID)
		}
	}
}

// sendTo - 특정 연결에만 전송
func (s *Session) sendTo(client *Client, message any) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if current, exists := s.clients[client.userID]; !exists || current != client {
		return
	}
	select {
	case client.send <- messageBytes:
	default:
		close(client.send)
		delete(s.clients, client.userID)
	}
}

// disconnectAll - 세션 삭제 시 모든 연결 종료
func (s *Session) disconnectAll() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for userID, client := range s.clients {
		close(client.send)
		delete(s.clients, userID)
		log.Printf("🔌 Disconnecting client %s from session %s", userID, s.id)
	}
}

// ErrorEvent - 액션 실패 알림
type ErrorEvent struct {
	Type      chat.EventType `json:"type"`
	SessionID string         `json:"sessionId"`
	Action    string         `json:"action,omitempty"`
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
}

// Hub - /ws 엔드포인트
type Hub struct {
	manager *Manager
}

func NewHub(manager *Manager) *Hub {
	return &Hub{manager: manager}
}

// HandleWebSocket - GET /ws?session=&user=
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	userID := r.URL.Query().Get("user")
	if sessionID == "" || userID == "" {
		log.Printf("⚠️  Missing session or user parameter")
		http.Error(w, "session and user parameters are required", http.StatusBadRequest)
		return
	}

	session, err := h.manager.GetOrCreate(r.Context(), sessionID)
	if err != nil {
		log.Printf("❌ WebSocket session lookup failed: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(maxInboundBytes)

	client := &Client{
		conn:      conn,
		sessionID: sessionID,
		userID:    userID,
		send:      make(chan []byte, sendBuffer),
	}
	total := h.manager.recordConnection()
	log.Printf("🔍 New WebSocket connection - Session: %s, User: %s (Total Connections: %d)", sessionID, userID, total)

	session.addClient(client)

	// 고루틴으로 읽기/쓰기 처리
	go client.writePump()
	go h.readPump(client, session)
}

// 클라이언트로부터 액션 읽기
func (h *Hub) readPump(c *Client, session *Session) {
	defer func() {
		session.removeClient(c)
		c.conn.Close()
	}()

	for {
		var msg InboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️  WebSocket error: %v", err)
			}
			return
		}

		action, err := decodeInbound(msg)
		if err != nil {
			session.sendTo(c, ErrorEvent{Type: EventError, SessionID: session.id, Action: msg.Type, Error: err.Error(), Code: errorCode(err)})
			continue
		}

		log.Printf("📨 User %s sent %s to session %s", c.userID, action.Name(), session.id)
		// 턴은 직렬화되므로 읽기 루프를 막지 않도록 분리 (reset은 진행 중인 턴을 기다리지 않음)
		go func() {
			if err := h.manager.Dispatch(context.Background(), session.id, action); err != nil {
				session.sendTo(c, ErrorEvent{Type: EventError, SessionID: session.id, Action: action.Name(), Error: err.Error(), Code: errorCode(err)})
			}
		}()
	}
}

// 클라이언트로 메시지 쓰기
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
		// removeClient가 채널을 닫을 때까지 남은 메시지 버림
		for range c.send {
		}
	}()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("⚠️  WebSocket write error: %v", err)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// errorCode - 클라이언트가 분기할 수 있는 에러 코드
func errorCode(err error) string {
	switch {
	case errors.Is(err, chat.ErrSettingsRequired):
		return ErrCodeSettingsRequired
	case errors.Is(err, chat.ErrMessageNotFound):
		return ErrCodeMessageNotFound
	case errors.Is(err, ErrSessionNotFound):
		return ErrCodeSessionNotFound
	case errors.Is(err, ErrShuttingDown):
		return ErrCodeShuttingDown
	case errors.Is(err, chat.ErrUnknownAction), errors.Is(err, ErrInvalidPayload):
		return ErrCodeInvalidRequest
	default:
		return ErrCodeInternalError
	}
}
