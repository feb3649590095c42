package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingPurger struct {
	mu        sync.Mutex
	calls     int
	retention time.Duration
	err       error
	ran       chan struct{}
}

func (p *countingPurger) PurgeRead(ctx context.Context, retention time.Duration) (int64, error) {
	p.mu.Lock()
	p.calls++
	p.retention = retention
	p.mu.Unlock()

	select {
	case p.ran <- struct{}{}:
	default:
	}
	return 3, p.err
}

func (p *countingPurger) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestCleanupJobRunsOnStartAndOnTick(t *testing.T) {
	purger := &countingPurger{ran: make(chan struct{}, 8)}
	job := newNotificationCleanupJob(purger, 72*time.Hour, 20*time.Millisecond)

	job.Start()
	for i := 0; i < 2; i++ {
		select {
		case <-purger.ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected run %d", i+1)
		}
	}
	job.Stop()

	if purger.callCount() < 2 {
		t.Fatalf("expected at least 2 runs, got %d", purger.callCount())
	}
	if purger.retention != 72*time.Hour {
		t.Fatalf("expected retention to be passed through, got %s", purger.retention)
	}

	after := purger.callCount()
	time.Sleep(60 * time.Millisecond)
	if purger.callCount() != after {
		t.Fatal("job kept running after Stop")
	}
}

func TestCleanupJobSurvivesPurgeErrors(t *testing.T) {
	purger := &countingPurger{ran: make(chan struct{}, 8), err: errors.New("db down")}
	job := newNotificationCleanupJob(purger, time.Hour, 10*time.Millisecond)

	job.Start()
	for i := 0; i < 3; i++ {
		select {
		case <-purger.ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("job stopped after a failed run (run %d missing)", i+1)
		}
	}
	job.Stop()
}
