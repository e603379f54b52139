package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeResult struct {
	err error
}

func (r *fakeResult) GetError() error {
	return r.err
}

type fakeJob struct {
	duration  time.Duration
	shouldErr bool
	executed  *int32
}

func (j *fakeJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &fakeResult{err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &fakeResult{err: errors.New("job error")}
	}
	return &fakeResult{err: nil}
}

func TestNewPool_WorkerFloor(t *testing.T) {
	p := NewPool(context.Background(), 0)
	if p.workers != 1 {
		t.Errorf("expected 1 worker for 0 input, got %d", p.workers)
	}

	p = NewPool(context.Background(), -3)
	if p.workers != 1 {
		t.Errorf("expected 1 worker for negative input, got %d", p.workers)
	}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	var executed int32
	p := NewPool(context.Background(), 4)
	p.Start()

	for i := 0; i < 10; i++ {
		p.Submit(&fakeJob{executed: &executed})
	}

	results := p.Wait()

	if len(results) != 10 {
		t.Errorf("expected 10 results, got %d", len(results))
	}
	if atomic.LoadInt32(&executed) != 10 {
		t.Errorf("expected 10 executions, got %d", executed)
	}
	for _, r := range results {
		if r.GetError() != nil {
			t.Errorf("unexpected job error: %v", r.GetError())
		}
	}
}

func TestPool_CollectsErrors(t *testing.T) {
	p := NewPool(context.Background(), 2)
	p.Start()

	p.Submit(&fakeJob{shouldErr: true})
	p.Submit(&fakeJob{})

	results := p.Wait()

	errCount := 0
	for _, r := range results {
		if r.GetError() != nil {
			errCount++
		}
	}
	if errCount != 1 {
		t.Errorf("expected 1 error result, got %d", errCount)
	}
}

func TestPool_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, 2)
	p.Start()

	p.Submit(&fakeJob{duration: 5 * time.Second})
	p.Submit(&fakeJob{duration: 5 * time.Second})

	// Cancel while jobs are in flight; they must observe it and return
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("pool did not shut down after context cancellation")
	}
}
