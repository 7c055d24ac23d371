package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"directory-backend/internal/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TaskFunc is one pass of a batch job.
type TaskFunc func(ctx context.Context) error

// Scheduler runs named tasks on cron expressions with seconds precision.
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
	tasks   map[string]cron.EntryID
	mu      sync.RWMutex
	running bool
}

func NewScheduler(log *zap.Logger, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		log:     log.Named("scheduler"),
		timeout: timeout,
		tasks:   make(map[string]cron.EntryID),
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.log.Info("scheduler started", zap.Int("tasks", len(s.tasks)))
}

// Stop waits for running tasks until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	select {
	case <-s.cron.Stop().Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
	s.running = false
}

// AddCronTask registers task under name, replacing an existing entry.
// Cron format: "second minute hour day-of-month month day-of-week".
func (s *Scheduler) AddCronTask(name, schedule string, task TaskFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.tasks[name]; ok {
		s.cron.Remove(id)
		delete(s.tasks, name)
	}

	id, err := s.cron.AddFunc(schedule, func() {
		_ = s.Run(context.Background(), name, task)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	s.tasks[name] = id
	s.log.Info("cron task added", zap.String("name", name), zap.String("schedule", schedule))
	return nil
}

// Run executes task once under the scheduler timeout and records the outcome.
func (s *Scheduler) Run(ctx context.Context, name string, task TaskFunc) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := task(ctx)
	metrics.JobRuns.WithLabelValues(name, metrics.Result(err)).Inc()
	if err != nil {
		s.log.Error("task failed",
			zap.String("name", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return err
	}

	s.log.Info("task completed", zap.String("name", name), zap.Duration("duration", time.Since(start)))
	return nil
}

func (s *Scheduler) ListTasks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
