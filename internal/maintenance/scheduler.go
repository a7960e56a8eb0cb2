package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// runTimeout bounds a single maintenance run
const runTimeout = 10 * time.Minute

// Task names a maintenance job
type Task string

const (
	TaskOptimize Task = "optimize"
	TaskVacuum   Task = "vacuum"
)

// Maintainer is the database surface the scheduler drives
type Maintainer interface {
	Optimize(ctx context.Context) error
	Vacuum(ctx context.Context) error
}

// Schedules holds a cron spec per task. An empty spec disables that task.
type Schedules struct {
	Optimize string
	Vacuum   string
}

type runRecord struct {
	at  time.Time
	err error
}

// Scheduler runs database maintenance on cron schedules
type Scheduler struct {
	db        Maintainer
	schedules Schedules
	cron      *cron.Cron
	entries   map[Task]cron.EntryID
	mu        sync.RWMutex
	running   bool
	lastRuns  map[Task]runRecord
}

// NewScheduler creates a scheduler for db
func NewScheduler(db Maintainer, schedules Schedules) *Scheduler {
	return &Scheduler{
		db:        db,
		schedules: schedules,
		cron:      cron.New(),
		entries:   make(map[Task]cron.EntryID),
		lastRuns:  make(map[Task]runRecord),
	}
}

// Start registers the scheduled tasks and starts the cron loop.
// Nothing starts when every task is disabled.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	specs := map[Task]string{
		TaskOptimize: s.schedules.Optimize,
		TaskVacuum:   s.schedules.Vacuum,
	}
	for task, spec := range specs {
		if spec == "" {
			log.Info().Str("task", string(task)).Msg("Database maintenance task disabled")
			continue
		}

		id, err := s.cron.AddFunc(spec, func() { s.scheduledRun(task) })
		if err != nil {
			s.removeEntries()
			return fmt.Errorf("invalid %s schedule %q: %w", task, spec, err)
		}
		s.entries[task] = id
	}

	if len(s.entries) == 0 {
		return nil
	}

	s.cron.Start()
	s.running = true

	log.Info().
		Str("optimize", s.schedules.Optimize).
		Str("vacuum", s.schedules.Vacuum).
		Msg("Database maintenance scheduler started")
	return nil
}

// Stop stops the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.removeEntries()
	s.running = false
	log.Info().Msg("Database maintenance scheduler stopped")
}

func (s *Scheduler) removeEntries() {
	for task, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, task)
	}
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// NextRun returns the next scheduled run of task, or the zero time when not scheduled
func (s *Scheduler) NextRun(task Task) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.entries[task]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// LastRun returns when task last ran and its error
func (s *Scheduler) LastRun(task Task) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.lastRuns[task]
	return rec.at, rec.err
}

// RunNow runs task immediately
func (s *Scheduler) RunNow(ctx context.Context, task Task) error {
	var run func(context.Context) error
	switch task {
	case TaskOptimize:
		run = s.db.Optimize
	case TaskVacuum:
		run = s.db.Vacuum
	default:
		return fmt.Errorf("unknown maintenance task %q", task)
	}

	start := time.Now()
	err := run(ctx)

	s.mu.Lock()
	s.lastRuns[task] = runRecord{at: start, err: err}
	s.mu.Unlock()

	if err != nil {
		return err
	}

	log.Debug().Str("task", string(task)).Dur("duration", time.Since(start)).Msg("Database maintenance finished")
	return nil
}

func (s *Scheduler) scheduledRun(task Task) {
	log.Info().Str("task", string(task)).Msg("Running scheduled database maintenance")

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.RunNow(ctx, task); err != nil {
		log.Error().Err(err).Str("task", string(task)).Msg("Scheduled database maintenance failed")
	}
}
