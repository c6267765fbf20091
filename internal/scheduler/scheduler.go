// Package scheduler runs the periodic background jobs: publishing
// scheduled posts whose publish time has arrived.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Manager owns the cron engine and the registered jobs.
type Manager struct {
	engine     *cron.Cron
	publishJob *PublishJob
	interval   time.Duration
}

// NewManager creates a scheduler running the publish job at the given
// interval.
func NewManager(publishJob *PublishJob, interval time.Duration) *Manager {
	return &Manager{
		engine:     cron.New(),
		publishJob: publishJob,
		interval:   interval,
	}
}

// RegisterJobs wires every job into the cron engine.
func (m *Manager) RegisterJobs() error {
	spec := fmt.Sprintf("@every %s", m.interval)
	if _, err := m.engine.AddJob(spec, m.publishJob); err != nil {
		return fmt.Errorf("register publish job: %w", err)
	}
	return nil
}

// Start launches the cron engine.
func (m *Manager) Start() {
	slog.Info("scheduler started", "publish_interval", m.interval)
	m.engine.Start()
}

// Stop stops the cron engine and waits for running jobs to finish.
func (m *Manager) Stop() {
	ctx := m.engine.Stop()
	<-ctx.Done()
	slog.Info("scheduler stopped")
}
