package tasks

import (
	"context"
)

// TaskSchedulerInterface runs a task once or on a fixed interval in the calling goroutine.
// Example usage:
//
//	scheduler := NewScheduler(NewExtractFactsTask(config, validator, writer, nil, nil, m), config.Interval)
//	err := scheduler.Run(ctx)
type TaskSchedulerInterface interface {
	Run(ctx context.Context) error
}
