package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForRemote_SucceedsAfterRetries(t *testing.T) {
	p := &flakyPinger{failures: 2}
	logger := &recordingLogger{}

	if err := WaitForRemote(context.Background(), p, 5, time.Millisecond, logger); err != nil {
		t.Fatalf("WaitForRemote() error = %v", err)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
	if len(logger.warns) != 2 {
		t.Errorf("warnings = %d, want one per failed attempt", len(logger.warns))
	}
}

func TestWaitForRemote_Exhausted(t *testing.T) {
	p := &flakyPinger{failures: 100}

	err := WaitForRemote(context.Background(), p, 3, time.Millisecond, nil)
	if !errors.Is(err, ErrRemoteUnreachable) {
		t.Fatalf("WaitForRemote() error = %v, want ErrRemoteUnreachable", err)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want exactly 3", p.calls)
	}
}

func TestWaitForRemote_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &flakyPinger{failures: 100}
	if err := WaitForRemote(ctx, p, 30, time.Hour, nil); err == nil {
		t.Fatal("WaitForRemote() should fail on a cancelled context")
	}
	if p.calls > 1 {
		t.Errorf("calls = %d, want at most 1", p.calls)
	}
}
