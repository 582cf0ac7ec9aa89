package maintain

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a maintenance job on a cron schedule. Accepts the
// standard 5-field cron syntax plus descriptors like "@every 6h".
type Scheduler struct {
	c *cron.Cron
}

// NewScheduler validates spec and registers job. The job does not run
// until Start is called.
func NewScheduler(spec string, job func()) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Scheduler{c: c}, nil
}

// Start begins scheduling in its own goroutine.
func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop stops scheduling new runs. A run already in flight finishes.
func (s *Scheduler) Stop() {
	s.c.Stop()
}
