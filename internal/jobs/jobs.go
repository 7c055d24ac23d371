package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"directory-backend/internal/config"
	"directory-backend/internal/currency"
	"directory-backend/internal/user"
)

const (
	BlockInactiveUsers = "block-inactive-users"
	SyncCurrencies     = "sync-currencies"
)

type Job struct {
	Name     string
	Schedule string
	Task     TaskFunc
}

// Registry builds the batch jobs from their services.
func Registry(cfg *config.Config, users *user.Service, currencies *currency.Service) map[string]Job {
	return map[string]Job{
		BlockInactiveUsers: {
			Name:     BlockInactiveUsers,
			Schedule: cfg.BlockUsersCron,
			Task: func(ctx context.Context) error {
				_, err := users.BlockInactive(ctx, time.Now(), cfg.BlockAfter)
				return err
			},
		},
		SyncCurrencies: {
			Name:     SyncCurrencies,
			Schedule: cfg.CurrencySyncCron,
			Task: func(ctx context.Context) error {
				_, err := currencies.Sync(ctx)
				return err
			},
		},
	}
}

// Register schedules every job with a non-empty schedule.
func Register(s *Scheduler, jobs map[string]Job) error {
	for _, name := range Names(jobs) {
		job := jobs[name]
		if job.Schedule == "" {
			continue
		}
		if err := s.AddCronTask(job.Name, job.Schedule, job.Task); err != nil {
			return err
		}
	}
	return nil
}

// RunOnce executes a single job by name outside the cron loop.
func RunOnce(ctx context.Context, s *Scheduler, jobs map[string]Job, name string) error {
	job, ok := jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.Run(ctx, job.Name, job.Task)
}

func Names(jobs map[string]Job) []string {
	names := make([]string, 0, len(jobs))
	for name := range jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
