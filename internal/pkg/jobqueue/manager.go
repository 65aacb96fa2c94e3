package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Auditor runs a periodic consistency check.
type Auditor func(ctx context.Context) error

// Manager owns the job queue workers and the scheduled background tasks
type Manager struct {
	queue         *Queue
	audit         Auditor
	auditInterval time.Duration
	scheduler     gocron.Scheduler
	mu            sync.Mutex
	running       bool
}

// NewManager creates a manager. A nil audit or non-positive interval disables
// the scheduled audit.
func NewManager(queue *Queue, audit Auditor, auditInterval time.Duration) *Manager {
	return &Manager{queue: queue, audit: audit, auditInterval: auditInterval}
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	if m.audit != nil && m.auditInterval > 0 {
		sched, err := gocron.NewScheduler()
		if err != nil {
			return err
		}
		_, err = sched.NewJob(
			gocron.DurationJob(m.auditInterval),
			gocron.NewTask(m.RunAuditOnce),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return err
		}
		sched.Start()
		m.scheduler = sched
		log.Infof("[JobQueue Manager] Capacity audit scheduled every %s", m.auditInterval)
	}

	m.queue.Start()
	m.running = true
	log.Info("[JobQueue Manager] Started successfully")
	return nil
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.scheduler != nil {
		if err := m.scheduler.Shutdown(); err != nil {
			log.Errorf("[JobQueue Manager] Scheduler shutdown error: %v", err)
		}
		m.scheduler = nil
	}
	m.queue.Stop()
	m.running = false
	log.Info("[JobQueue Manager] Stopped successfully")
}

// RunAuditOnce runs the audit immediately (admin trigger and scheduler task).
func (m *Manager) RunAuditOnce() {
	if m.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := m.audit(ctx); err != nil {
		log.Errorf("[JobQueue Manager] Audit error: %v", err)
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
