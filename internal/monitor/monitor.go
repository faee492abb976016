// Package monitor keeps the download workspace free of abandoned files.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper removes files older than a given age
type Sweeper interface {
	Sweep(maxAge time.Duration) (int, error)
}

// Monitor periodically sweeps the workspace for files left behind by
// requests that never finished (crashes, killed clients)
type Monitor struct {
	mu sync.Mutex

	sweeper  Sweeper
	interval time.Duration
	maxAge   time.Duration
	log      *zap.SugaredLogger

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewMonitor creates a new monitor instance
func NewMonitor(sweeper Sweeper, interval, maxAge time.Duration, log *zap.SugaredLogger) *Monitor {
	return &Monitor{
		sweeper:  sweeper,
		interval: interval,
		maxAge:   maxAge,
		log:      log,
	}
}

// Start sweeps once, then starts the sweeping loop. A zero interval only
// performs the initial sweep; a zero max age disables sweeping.
func (m *Monitor) Start(ctx context.Context) {
	if m.maxAge <= 0 {
		return
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}

	m.sweep()
	if m.interval <= 0 {
		m.mu.Unlock()
		return
	}

	monitorCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(monitorCtx)
	}()
}

// Stop stops the sweeping loop
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}

	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
}

// IsRunning returns whether the monitor is running
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Infof("[Monitor] Started with sweep interval %v (max age %v)", m.interval, m.maxAge)

	for {
		select {
		case <-ctx.Done():
			m.log.Infof("[Monitor] Stopping...")
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Monitor) sweep() {
	n, err := m.sweeper.Sweep(m.maxAge)
	if err != nil {
		m.log.Warnf("[Monitor] sweep failed: %v", err)
		return
	}
	if n > 0 {
		m.log.Infof("[Monitor] removed %d stale files", n)
	}
}
