package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/reviewsync"
)

type countingSyncer struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSyncer) SyncAll(ctx context.Context) (reviewsync.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return reviewsync.Summary{Success: true, Synced: 1}, nil
}

func (s *countingSyncer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestManagerRunsPeriodicPasses(t *testing.T) {
	syncer := &countingSyncer{}
	m := NewManager(syncer, 10*time.Millisecond)

	m.Start()
	assert.True(t, m.IsRunning())

	require.Eventually(t, func() bool {
		return syncer.count() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestManagerStartIsIdempotent(t *testing.T) {
	syncer := &countingSyncer{}
	m := NewManager(syncer, time.Hour)

	m.Start()
	m.Start()
	assert.True(t, m.IsRunning())

	m.Stop()
	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestManagerRestart(t *testing.T) {
	syncer := &countingSyncer{}
	m := NewManager(syncer, 10*time.Millisecond)

	m.Start()
	require.Eventually(t, func() bool { return syncer.count() >= 1 }, 2*time.Second, 5*time.Millisecond)
	m.Stop()

	before := syncer.count()
	m.Start()
	require.Eventually(t, func() bool { return syncer.count() > before }, 2*time.Second, 5*time.Millisecond)
	m.Stop()
}

func TestRunSyncOnce(t *testing.T) {
	syncer := &countingSyncer{}
	m := NewManager(syncer, time.Hour)

	summary, err := m.RunSyncOnce()
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 1, syncer.count())
}
