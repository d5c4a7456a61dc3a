package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"wearly-server/modules/chat"
	"wearly-server/modules/common/metrics"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrShuttingDown    = errors.New("session manager is shutting down")
)

const (
	snapshotKeyPrefix = "wearly:session:"
	// emptyGrace - 클라이언트가 없는 세션을 메모리에서 내리기 전 대기 시간
	emptyGrace   = 5 * time.Minute
	redisTimeout = 3 * time.Second
)

// Options - 세션 수명/턴 제한
type Options struct {
	SessionTTL  time.Duration
	InactiveTTL time.Duration
	TurnTimeout time.Duration
	// Sleep - 진행 메시지 딜레이 (테스트에서 0으로 교체)
	Sleep chat.SleepFunc
}

func (o *Options) withDefaults() {
	if o.SessionTTL <= 0 {
		o.SessionTTL = 24 * time.Hour
	}
	if o.InactiveTTL <= 0 {
		o.InactiveTTL = 2 * time.Hour
	}
	if o.TurnTimeout <= 0 {
		o.TurnTimeout = 2 * time.Minute
	}
}

// 서버 통계
type ServerStats struct {
	TotalSessions    int       `json:"totalSessions"`
	TotalConnections int       `json:"totalConnections"`
	StartTime        time.Time `json:"startTime"`
	mutex            sync.RWMutex
}

// Manager - 세션 생성/조회/정리, 턴 디스패치
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
	closed   bool

	recommender chat.Recommender
	images      chat.ImageGenerator
	rdb         *redis.Client
	opts        Options
	stats       *ServerStats
	turns       sync.WaitGroup
	now         func() time.Time
}

// NewManager - rdb가 nil이면 세션은 메모리에만 존재
func NewManager(recommender chat.Recommender, images chat.ImageGenerator, rdb *redis.Client, opts Options) *Manager {
	opts.withDefaults()
	return &Manager{
		sessions:    make(map[string]*Session),
		recommender: recommender,
		images:      images,
		rdb:         rdb,
		opts:        opts,
		stats:       &ServerStats{StartTime: time.Now()},
		now:         time.Now,
	}
}

// snapshot - Redis에 저장되는 세션 단위
type snapshot struct {
	State     chat.State `json:"state"`
	CreatedAt time.Time  `json:"createdAt"`
}

func snapshotKey(id string) string {
	return snapshotKeyPrefix + id
}

// newSessionLocked - m.mutex 보유 상태에서 호출
func (m *Manager) newSessionLocked(id string, createdAt time.Time, state *chat.State) *Session {
	now := m.now()
	s := &Session{
		id:           id,
		clients:      make(map[string]*Client),
		createdAt:    createdAt,
		lastActivity: now,
	}
	opts := []chat.Option{chat.WithPublisher(s)}
	if m.opts.Sleep != nil {
		opts = append(opts, chat.WithSleep(m.opts.Sleep))
	}
	if state != nil {
		opts = append(opts, chat.WithState(*state))
	}
	s.controller = chat.NewController(id, m.recommender, m.images, opts...)
	m.sessions[id] = s

	m.stats.mutex.Lock()
	m.stats.TotalSessions++
	total := m.stats.TotalSessions
	m.stats.mutex.Unlock()
	metrics.ActiveSessions.Set(float64(len(m.sessions)))

	log.Printf("✅ Created session: %s (Total: %d, Active: %d)", id, total, len(m.sessions))
	return s
}

// Create - 새 세션 (인사말만 있는 상태)
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	m.mutex.Lock()
	if m.closed {
		m.mutex.Unlock()
		return nil, ErrShuttingDown
	}
	s := m.newSessionLocked(uuid.NewString(), m.now(), nil)
	m.mutex.Unlock()

	m.save(ctx, s)
	return s, nil
}

// Get - 메모리에 없으면 Redis 스냅샷에서 복원
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mutex.RLock()
	s, ok := m.sessions[id]
	m.mutex.RUnlock()
	if ok {
		return s, nil
	}

	snap, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	// 동시에 복원된 경우 먼저 들어온 세션 사용
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	log.Printf("♻️  Restoring session %s from Redis (%d messages)", id, len(snap.State.Messages))
	return m.newSessionLocked(id, snap.CreatedAt, &snap.State), nil
}

// GetOrCreate - WebSocket 접속용. 없는 id면 해당 id로 새로 만듦
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", id, err)
	}
	s, err := m.Get(ctx, id)
	if err == nil || !errors.Is(err, ErrSessionNotFound) {
		return s, err
	}

	m.mutex.Lock()
	if m.closed {
		m.mutex.Unlock()
		return nil, ErrShuttingDown
	}
	s, ok := m.sessions[id]
	if !ok {
		s = m.newSessionLocked(id, m.now(), nil)
	}
	m.mutex.Unlock()

	m.save(ctx, s)
	return s, nil
}

// Dispatch - 세션의 컨트롤러로 액션 전달
// 요청 컨텍스트가 끊겨도 턴은 TurnTimeout까지 계속 진행
func (m *Manager) Dispatch(ctx context.Context, id string, action chat.Action) error {
	s, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer m.turns.Done()

	turnCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.TurnTimeout)
	defer cancel()

	s.touch(m.now())
	startTime := time.Now()

	err = s.controller.Dispatch(turnCtx, action)

	s.activeTurns.Add(-1)
	s.touch(m.now())
	metrics.TurnDuration.WithLabelValues(action.Name()).Observe(time.Since(startTime).Seconds())
	metrics.TurnsTotal.WithLabelValues(action.Name(), outcome(err)).Inc()

	m.save(turnCtx, s)

	if err != nil && !errors.Is(err, chat.ErrSettingsRequired) {
		log.Printf("⚠️  [Session] %s on %s failed: %v", action.Name(), id, err)
	}
	return err
}

// acquire - 등록된 세션을 찾아 턴 시작을 기록
// 정리 루틴과 같은 락 안에서 activeTurns를 올리므로, 조회 직후 축출된 세션으로는 턴을 돌리지 않음
func (m *Manager) acquire(ctx context.Context, id string) (*Session, error) {
	for {
		s, err := m.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		m.mutex.RLock()
		if m.closed {
			m.mutex.RUnlock()
			return nil, ErrShuttingDown
		}
		if m.sessions[id] != s {
			// Get 이후 축출됨. 스냅샷에서 다시 복원
			m.mutex.RUnlock()
			continue
		}
		m.turns.Add(1)
		s.activeTurns.Add(1)
		m.mutex.RUnlock()
		return s, nil
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, chat.ErrSettingsRequired):
		return "settings_required"
	default:
		return "error"
	}
}

// save - 스냅샷을 Redis에 저장 (세션 TTL 남은 시간만큼)
func (m *Manager) save(ctx context.Context, s *Session) {
	if m.rdb == nil {
		return
	}

	createdAt := s.CreatedAt()
	ttl := m.opts.SessionTTL - m.now().Sub(createdAt)
	if ttl < time.Minute {
		ttl = time.Minute
	}

	data, err := json.Marshal(snapshot{State: s.controller.Snapshot(), CreatedAt: createdAt})
	if err != nil {
		log.Printf("❌ [Session] Failed to marshal snapshot %s: %v", s.id, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisTimeout)
	defer cancel()
	if err := m.rdb.Set(ctx, snapshotKey(s.id), data, ttl).Err(); err != nil {
		log.Printf("⚠️  [Session] Failed to save snapshot %s: %v", s.id, err)
	}
}

func (m *Manager) load(ctx context.Context, id string) (*snapshot, error) {
	if m.rdb == nil {
		return nil, ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := m.rdb.Get(ctx, snapshotKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupt session snapshot %s: %w", id, err)
	}
	if m.now().Sub(snap.CreatedAt) > m.opts.SessionTTL {
		return nil, ErrSessionNotFound
	}
	return &snap, nil
}

func (m *Manager) deleteSnapshot(id string) {
	if m.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := m.rdb.Del(ctx, snapshotKey(id)).Err(); err != nil {
		log.Printf("⚠️  [Session] Failed to delete snapshot %s: %v", id, err)
	}
}

// CleanupEmptySessions - 클라이언트 없이 방치된 세션을 메모리에서 내림
// 스냅샷은 Redis에 남아 다음 요청 때 복원됨. Redis가 없으면 대화가 사라지므로 내리지 않음
func (m *Manager) CleanupEmptySessions() int {
	if m.rdb == nil {
		return 0
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	cleaned := 0
	for id, s := range m.sessions {
		if s.ClientCount() > 0 || s.activeTurns.Load() > 0 || now.Sub(s.LastActivity()) < emptyGrace {
			continue
		}
		delete(m.sessions, id)
		cleaned++
		log.Printf("🧹 Evicted empty session: %s", id)
	}

	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	if cleaned > 0 {
		log.Printf("🗑️  Evicted %d empty sessions (Active: %d)", cleaned, len(m.sessions))
	}
	return cleaned
}

// CleanupExpiredSessions - 생성 후 SessionTTL이 지났거나, 클라이언트 없이 InactiveTTL 동안 활동이 없던 세션 삭제
func (m *Manager) CleanupExpiredSessions() int {
	m.mutex.Lock()
	now := m.now()
	removed := []string{}
	for id, s := range m.sessions {
		isExpired := now.Sub(s.CreatedAt()) > m.opts.SessionTTL
		isInactive := now.Sub(s.LastActivity()) > m.opts.InactiveTTL && s.ClientCount() == 0 && s.activeTurns.Load() == 0
		if !isExpired && !isInactive {
			continue
		}

		s.disconnectAll()
		delete(m.sessions, id)
		removed = append(removed, id)

		reason := "expired"
		if !isExpired {
			reason = "inactive"
		}
		log.Printf("⏰ Cleaned up %s session: %s (Age: %v, Inactive: %v)",
			reason, id, now.Sub(s.CreatedAt()), now.Sub(s.LastActivity()))
	}
	active := len(m.sessions)
	m.mutex.Unlock()

	metrics.ActiveSessions.Set(float64(active))
	for _, id := range removed {
		m.deleteSnapshot(id)
	}
	if len(removed) > 0 {
		log.Printf("🧼 Cleaned up %d expired/inactive sessions (Active: %d)", len(removed), active)
	}
	return len(removed)
}

// Close - 새 턴을 막고 진행 중인 턴이 끝날 때까지 대기
func (m *Manager) Close(ctx context.Context) error {
	m.mutex.Lock()
	m.closed = true
	m.mutex.Unlock()

	done := make(chan struct{})
	go func() {
		m.turns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight turns: %w", ctx.Err())
	}
}

func (m *Manager) recordConnection() int {
	m.stats.mutex.Lock()
	defer m.stats.mutex.Unlock()
	m.stats.TotalConnections++
	return m.stats.TotalConnections
}

// SessionInfo - /metrics 세션 상세
type SessionInfo struct {
	SessionID    string    `json:"sessionId"`
	ClientCount  int       `json:"clientCount"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	Age          string    `json:"age"`
	Inactive     string    `json:"inactive"`
}

type ServerSummary struct {
	Uptime           string    `json:"uptime"`
	StartTime        time.Time `json:"startTime"`
	TotalSessions    int       `json:"totalSessions"`
	ActiveSessions   int       `json:"activeSessions"`
	TotalConnections int       `json:"totalConnections"`
	CurrentClients   int       `json:"currentClients"`
}

type Summary struct {
	Server   ServerSummary `json:"server"`
	Sessions []SessionInfo `json:"sessions"`
}

// Summary - 서버 메트릭 (JSON)
func (m *Manager) Summary() Summary {
	m.stats.mutex.RLock()
	server := ServerSummary{
		StartTime:        m.stats.StartTime,
		TotalSessions:    m.stats.TotalSessions,
		TotalConnections: m.stats.TotalConnections,
	}
	m.stats.mutex.RUnlock()

	now := m.now()
	server.Uptime = now.Sub(server.StartTime).String()

	m.mutex.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mutex.RUnlock()

	details := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		clients := s.ClientCount()
		server.CurrentClients += clients
		details = append(details, SessionInfo{
			SessionID:    s.id,
			ClientCount:  clients,
			MessageCount: len(s.controller.Snapshot().Messages),
			CreatedAt:    s.CreatedAt(),
			LastActivity: s.LastActivity(),
			Age:          now.Sub(s.CreatedAt()).String(),
			Inactive:     now.Sub(s.LastActivity()).String(),
		})
	}
	server.ActiveSessions = len(sessions)

	return Summary{Server: server, Sessions: details}
}
