package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/env"
	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/reviewsync"
)

// Syncer is the slice of the reconciliation engine the scheduler drives.
type Syncer interface {
	SyncAll(ctx context.Context) (reviewsync.Summary, error)
}

// Manager runs periodic full sync passes in-process. It is the in-binary
// equivalent of the external cron trigger and drives the same engine.
type Manager struct {
	syncer   Syncer
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// Initialize wires the global manager once. The interval comes from
// SYNC_INTERVAL_MINUTES, defaulting to hourly.
func Initialize(syncer Syncer) *Manager {
	managerOnce.Do(func() {
		interval := 60
		if v, err := strconv.Atoi(env.GetEnv("SYNC_INTERVAL_MINUTES", "60")); err == nil && v > 0 {
			interval = v
		}
		globalManager = NewManager(syncer, time.Duration(interval)*time.Minute)
	})
	return globalManager
}

// GetManager returns the global scheduler manager, or nil before Initialize.
func GetManager() *Manager {
	return globalManager
}

func NewManager(syncer Syncer, interval time.Duration) *Manager {
	return &Manager{
		syncer:   syncer,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sync loop. Calling Start on a running manager is
// a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so the manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true

	m.ticker = time.NewTicker(m.interval)
	m.wg.Add(1)
	go m.syncWorker()

	log.Infof("[Scheduler] Started review sync loop (interval: %s)", m.interval)
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Scheduler] Stopping review sync loop...")

	if m.ticker != nil {
		m.ticker.Stop()
	}

	close(m.stopCh)
	m.running = false

	m.wg.Wait()

	log.Info("[Scheduler] Stopped")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) syncWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Scheduler] Sync worker stopping")
			return
		case <-m.ticker.C:
			m.runOnce()
		}
	}
}

func (m *Manager) runOnce() {
	log.Debug("[Scheduler] Running scheduled review sync pass")
	summary, err := m.syncer.SyncAll(context.Background())
	if err != nil {
		log.Errorf("[Scheduler] Sync pass failed: %v", err)
		return
	}
	log.Infof("[Scheduler] Sync pass done: %d organizations synced", summary.Synced)
}

// RunSyncOnce exposes a manual trigger for a single pass (admin use).
func (m *Manager) RunSyncOnce() (reviewsync.Summary, error) {
	return m.syncer.SyncAll(context.Background())
}
