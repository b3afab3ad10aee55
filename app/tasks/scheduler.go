package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	task     TaskInterface
	interval time.Duration
}

// NewScheduler returns a scheduler for task. A zero interval runs the task once.
func NewScheduler(task TaskInterface, interval time.Duration) *Scheduler {
	return &Scheduler{
		task:     task,
		interval: interval,
	}
}

// Run executes the task. In one-shot mode the task error is returned. In interval
// mode failed runs are logged and Run only returns when ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	err := s.executeTask(ctx)
	if s.interval <= 0 {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	slog.Info("Scheduler started", "type", string(s.task.GetType()), "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped", "type", string(s.task.GetType()))
			return ctx.Err()
		case <-ticker.C:
			s.executeTask(ctx)
		}
	}
}

func (s *Scheduler) executeTask(ctx context.Context) error {
	s.task.Start()

	err := s.task.Execute(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		slog.Error("Task execution failed", "type", string(s.task.GetType()), "id", s.task.GetID(), "duration", s.task.GetDuration().String(), "error", err)
		return err
	}

	slog.Info("Task completed", "type", string(s.task.GetType()), "id", s.task.GetID(), "duration", s.task.GetDuration().String())
	return nil
}
