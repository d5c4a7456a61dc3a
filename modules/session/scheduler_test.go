package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsCleanupJobs(t *testing.T) {
	m, _ := newTestManager(t, nil)
	s, err := m.Create(context.Background())
	require.NoError(t, err)
	m.mutex.Lock()
	m.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	m.mutex.Unlock()

	sched, err := newScheduler(m, time.Hour, 20*time.Millisecond)
	require.NoError(t, err)
	sched.Start()
	defer func() { require.NoError(t, sched.Shutdown()) }()

	assert.Eventually(t, func() bool {
		_, err := m.Get(context.Background(), s.ID())
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
}
