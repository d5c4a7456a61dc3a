package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wearly-server/modules/chat"
)

func TestCreateAndGet(t *testing.T) {
	m, _ := newTestManager(t, nil)

	s, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, s.ID())

	got, err := m.Get(context.Background(), s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	st := got.Snapshot()
	require.Len(t, st.Messages, 1)
	assert.Equal(t, chat.InitialGreeting, st.Messages[0].Text)

	_, err = m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetOrCreateRequiresUUID(t *testing.T) {
	m, _ := newTestManager(t, nil)

	_, err := m.GetOrCreate(context.Background(), "not-a-uuid")
	require.Error(t, err)

	id := "6f1c2b9e-3d4a-4c55-8a9e-0b1c2d3e4f50"
	s, err := m.GetOrCreate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, s.ID())

	again, err := m.GetOrCreate(context.Background(), id)
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestDispatchSettingsRequired(t *testing.T) {
	m, rec := newTestManager(t, nil)
	s, err := m.Create(context.Background())
	require.NoError(t, err)

	err = m.Dispatch(context.Background(), s.ID(), chat.Send{Text: "오늘 뭐 입지?"})
	assert.ErrorIs(t, err, chat.ErrSettingsRequired)
	assert.Empty(t, rec.textCalls)

	err = m.Dispatch(context.Background(), "missing", chat.Send{Text: "hi"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDispatchOutlivesRequestContext(t *testing.T) {
	m, rec := newTestManager(t, nil)
	s, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Dispatch(context.Background(), s.ID(), chat.ApplySettings{Settings: seoul}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, m.Dispatch(ctx, s.ID(), chat.Send{Text: "출근룩 추천해줘"}))

	require.Equal(t, []string{"출근룩 추천해줘"}, rec.textCalls)
	assert.NoError(t, rec.ctxErrs[0])

	st := s.Snapshot()
	last := st.Messages[len(st.Messages)-1]
	assert.Equal(t, "셔츠에 니트 베스트를 걸쳐보세요.", last.Text)
	assert.False(t, last.Pending)
}

func TestSnapshotPersistsAndRestores(t *testing.T) {
	mr, rdb := newTestRedis(t)
	m, _ := newTestManager(t, rdb)

	s, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Dispatch(context.Background(), s.ID(), chat.ApplySettings{Settings: seoul}))

	key := snapshotKey(s.ID())
	require.True(t, mr.Exists(key))
	ttl := mr.TTL(key)
	assert.Greater(t, ttl, 23*time.Hour)
	assert.LessOrEqual(t, ttl, 24*time.Hour)

	var snap snapshot
	require.NoError(t, json.Unmarshal([]byte(mustGet(t, mr, key)), &snap))
	assert.Equal(t, seoul, snap.State.Settings)

	// 재시작 후 다른 매니저가 복원
	restarted, _ := newTestManager(t, rdb)
	restored, err := restarted.Get(context.Background(), s.ID())
	require.NoError(t, err)

	want := s.Snapshot()
	got := restored.Snapshot()
	assert.Equal(t, want.Settings, got.Settings)
	assert.Equal(t, want.PendingSuggestion, got.PendingSuggestion)
	assert.Equal(t, len(want.Messages), len(got.Messages))
	assert.Equal(t, want.LastID, got.LastID)
	assert.WithinDuration(t, s.CreatedAt(), restored.CreatedAt(), time.Second)
}

func mustGet(t *testing.T, mr interface{ Get(string) (string, error) }, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestCleanupEmptySessionsKeepsConversationWithoutRedis(t *testing.T) {
	m, _ := newTestManager(t, nil)
	s, err := m.Create(context.Background())
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Equal(t, 0, m.CleanupEmptySessions())

	_, err = m.Get(context.Background(), s.ID())
	assert.NoError(t, err)
}

func TestCleanupEmptySessionsEvictsToRedis(t *testing.T) {
	_, rdb := newTestRedis(t)
	m, _ := newTestManager(t, rdb)

	s, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Dispatch(context.Background(), s.ID(), chat.ApplySettings{Settings: seoul}))

	// 유예 시간 전에는 유지
	assert.Equal(t, 0, m.CleanupEmptySessions())

	m.now = func() time.Time { return time.Now().Add(emptyGrace + time.Minute) }
	assert.Equal(t, 1, m.CleanupEmptySessions())
	assert.Equal(t, 0, m.Summary().Server.ActiveSessions)

	restored, err := m.Get(context.Background(), s.ID())
	require.NoError(t, err)
	assert.NotSame(t, s, restored)
	assert.Equal(t, seoul, restored.Snapshot().Settings)
}

func TestAcquireSkipsEvictedSession(t *testing.T) {
	_, rdb := newTestRedis(t)
	m, _ := newTestManager(t, rdb)

	stale, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Dispatch(context.Background(), stale.ID(), chat.ApplySettings{Settings: seoul}))

	// 조회한 세션이 턴 시작 전에 축출된 경우
	m.now = func() time.Time { return time.Now().Add(emptyGrace + time.Minute) }
	require.Equal(t, 1, m.CleanupEmptySessions())

	s, err := m.acquire(context.Background(), stale.ID())
	require.NoError(t, err)
	released := false
	release := func() {
		if !released {
			released = true
			s.activeTurns.Add(-1)
			m.turns.Done()
		}
	}
	t.Cleanup(release)
	assert.NotSame(t, stale, s)
	assert.Equal(t, seoul, s.Snapshot().Settings)

	// 턴이 진행 중인 세션은 유예 시간이 지나도 축출되지 않음
	m.now = func() time.Time { return time.Now().Add(2 * (emptyGrace + time.Minute)) }
	assert.Equal(t, 0, m.CleanupEmptySessions())
	current, err := m.Get(context.Background(), stale.ID())
	require.NoError(t, err)
	assert.Same(t, s, current)

	release()
	assert.Equal(t, 1, m.CleanupEmptySessions())
}

func TestCleanupExpiredSessions(t *testing.T) {
	mr, rdb := newTestRedis(t)
	m, _ := newTestManager(t, rdb)

	fresh, err := m.Create(context.Background())
	require.NoError(t, err)
	old, err := m.Create(context.Background())
	require.NoError(t, err)
	old.createdAt = time.Now().Add(-25 * time.Hour)

	assert.Equal(t, 1, m.CleanupExpiredSessions())
	assert.False(t, mr.Exists(snapshotKey(old.ID())))
	assert.True(t, mr.Exists(snapshotKey(fresh.ID())))

	_, err = m.Get(context.Background(), old.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// 클라이언트 없이 2시간 넘게 활동이 없으면 inactive로 정리
	m.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	assert.Equal(t, 1, m.CleanupExpiredSessions())
	assert.Equal(t, 0, m.Summary().Server.ActiveSessions)
}

func TestCloseRejectsNewWork(t *testing.T) {
	m, _ := newTestManager(t, nil)
	s, err := m.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Close(context.Background()))

	err = m.Dispatch(context.Background(), s.ID(), chat.Reset{})
	assert.ErrorIs(t, err, ErrShuttingDown)
	_, err = m.Create(context.Background())
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestSummary(t *testing.T) {
	m, _ := newTestManager(t, nil)
	_, err := m.Create(context.Background())
	require.NoError(t, err)
	_, err = m.Create(context.Background())
	require.NoError(t, err)

	sum := m.Summary()
	assert.Equal(t, 2, sum.Server.TotalSessions)
	assert.Equal(t, 2, sum.Server.ActiveSessions)
	assert.Equal(t, 0, sum.Server.CurrentClients)
	require.Len(t, sum.Sessions, 2)
	assert.Equal(t, 1, sum.Sessions[0].MessageCount)
}
