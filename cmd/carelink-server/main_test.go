package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeStaleExpirer struct {
	mu    sync.Mutex
	calls int
	ages  []time.Duration
	err   error
}

func (f *fakeStaleExpirer) ExpireStale(_ context.Context, age time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ages = append(f.ages, age)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func (f *fakeStaleExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunStaleSweeper_ExpiresOnEachTick(t *testing.T) {
	svc := &fakeStaleExpirer{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		runStaleSweeper(ctx, svc, 24*time.Hour, 5*time.Millisecond, zerolog.Nop())
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for svc.callCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not run on ticks")
		}
		time.Sleep(2 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, age := range svc.ages {
		if age != 24*time.Hour {
			t.Errorf("expected sweep age 24h, got %s", age)
		}
	}
}

func TestRunStaleSweeper_ContinuesAfterError(t *testing.T) {
	svc := &fakeStaleExpirer{err: errors.New("db unavailable")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runStaleSweeper(ctx, svc, time.Hour, 5*time.Millisecond, zerolog.Nop())

	deadline := time.Now().Add(time.Second)
	for svc.callCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper stopped after a sweep error")
		}
		time.Sleep(2 * time.Millisecond)
	}
}
