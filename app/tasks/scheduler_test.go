package tasks

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeTask struct {
	Task
	errs  []error
	calls int
	onRun func(calls int)
}

func (f *fakeTask) Execute(ctx context.Context) error {
	f.calls++
	if f.onRun != nil {
		f.onRun(f.calls)
	}
	if f.calls <= len(f.errs) {
		return f.errs[f.calls-1]
	}
	return nil
}

func TestSchedulerRunOnce(t *testing.T) {
	task := &fakeTask{Task: NewTask(TaskTypeExtractFacts)}

	if err := NewScheduler(task, 0).Run(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if task.calls != 1 {
		t.Errorf("Expected 1 execution, got %d", task.calls)
	}
	if task.StartedAt == nil {
		t.Error("Expected task to be started")
	}
}

func TestSchedulerRunOnceReturnsError(t *testing.T) {
	failure := errors.New("disk full")
	task := &fakeTask{Task: NewTask(TaskTypeExtractFacts), errs: []error{failure}}

	err := NewScheduler(task, 0).Run(context.Background())
	if !errors.Is(err, failure) {
		t.Errorf("Expected task error, got %v", err)
	}
}

func TestSchedulerIntervalContinuesAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	task := &fakeTask{
		Task: NewTask(TaskTypeExtractFacts),
		errs: []error{errors.New("first run failed")},
		onRun: func(calls int) {
			if calls == 3 {
				cancel()
			}
		},
	}

	err := NewScheduler(task, 5*time.Millisecond).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if task.calls < 3 {
		t.Errorf("Expected at least 3 executions, got %d", task.calls)
	}
}

func TestSchedulerFreshIDPerRun(t *testing.T) {
	task := &fakeTask{Task: NewTask(TaskTypeExtractFacts)}
	scheduler := NewScheduler(task, 0)

	scheduler.Run(context.Background())
	first := task.GetID()
	scheduler.Run(context.Background())

	if first == task.GetID() {
		t.Error("Expected a new id for every execution")
	}
}
