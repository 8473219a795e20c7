// Package scheduler wires up the cron job that periodically closes OPEN
// jobs whose application deadline has passed, keeping discoverable
// inventory honest without admin intervention.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"internsync/discovery-service/internal/store"
)

// Scheduler wraps robfig/cron and manages the deadline sweep loop.
type Scheduler struct {
	cron *cron.Cron
	jobs *store.Jobs
	spec string // cron spec, e.g. "@every 6h"
}

// New creates a Scheduler that fires every intervalHours hours.
func New(jobs *store.Jobs, intervalHours int) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cron.DefaultLogger)),
		jobs: jobs,
		spec: fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so expired inventory is cleared without waiting for the
// first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runSweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// runSweep closes every OPEN job whose deadline has passed.
func (s *Scheduler) runSweep(ctx context.Context) {
	log.Println("[scheduler] Deadline sweep started")

	closed, err := s.jobs.CloseExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("[scheduler] Deadline sweep error: %v", err)
		return
	}

	if closed > 0 {
		log.Printf("[scheduler] Deadline sweep closed %d job(s)", closed)
	} else {
		log.Println("[scheduler] Deadline sweep complete — nothing to close")
	}
}
