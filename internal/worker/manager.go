package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Worker is the contract for background processes owned by the manager
type Worker interface {
	Start(ctx context.Context) error
	Stop()
	Name() string
}

// Manager starts and stops registered workers as a group. Startup is
// all-or-nothing: when one worker fails to start, the ones already running
// are stopped again before the error is returned.
type Manager struct {
	mu      sync.Mutex
	workers []Worker
	logger  *zap.Logger
}

// NewManager creates a new worker manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// Register adds a worker to be managed
func (m *Manager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = append(m.workers, w)
}

// StartAll starts every registered worker in registration order
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, w := range m.workers {
		if err := w.Start(ctx); err != nil {
			m.logger.Error("Failed to start worker",
				zap.String("name", w.Name()),
				zap.Error(err))
			m.stopLocked(i)
			return fmt.Errorf("start worker %s: %w", w.Name(), err)
		}
		m.logger.Info("Worker started", zap.String("name", w.Name()))
	}

	return nil
}

// StopAll stops every registered worker, most recently started first
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked(len(m.workers))
}

// stopLocked stops workers[0:n] in reverse order; callers hold the mutex
func (m *Manager) stopLocked(n int) {
	for i := n - 1; i >= 0; i-- {
		w := m.workers[i]
		w.Stop()
		m.logger.Info("Worker stopped", zap.String("name", w.Name()))
	}
}

// Count returns the number of registered workers
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}
