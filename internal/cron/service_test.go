package cron

import (
	"context"
	"fmt"
	"testing"

	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
)

type recordingJob struct {
	name string
	runs int
	err  error
}

func (j *recordingJob) Name() string { return j.name }

func (j *recordingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

type fakeLock struct {
	available bool
	acquired  int
	released  int
}

func (l *fakeLock) Acquire(context.Context) (bool, error) {
	l.acquired++
	return l.available, nil
}

func (l *fakeLock) Release(context.Context) error {
	l.released++
	return nil
}

func TestRunCycleExecutesJobsInOrder(t *testing.T) {
	first := &recordingJob{name: "first"}
	second := &recordingJob{name: "second", err: fmt.Errorf("boom")}
	third := &recordingJob{name: "third"}
	lock := &fakeLock{available: true}

	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Registry: NewRegistry(first, second, third),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	// A failing job must not stop the jobs after it.
	for _, job := range []*recordingJob{first, second, third} {
		if job.runs != 1 {
			t.Fatalf("job %s ran %d times", job.name, job.runs)
		}
	}
	if lock.released != 1 {
		t.Fatalf("lock released %d times", lock.released)
	}
}

func TestRunCycleSkipsWhenLockTaken(t *testing.T) {
	job := &recordingJob{name: "solo"}
	lock := &fakeLock{available: false}

	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("jobs must not run without the lock")
	}
	if lock.released != 0 {
		t.Fatal("an unheld lock must not be released")
	}
}

func TestNewRegistryIgnoresNilJobs(t *testing.T) {
	registry := NewRegistry(nil, &recordingJob{name: "only"})
	if got := len(registry.Jobs()); got != 1 {
		t.Fatalf("expected 1 job, got %d", got)
	}
}
