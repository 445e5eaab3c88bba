package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRenderLimiter_AcquireRelease(t *testing.T) {
	l := NewRenderLimiter(2, time.Second)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if got := l.Status(); got.Active != 2 || got.MaxConcurrent != 2 {
		t.Errorf("Status = %+v, want 2 of 2", got)
	}

	l.Release()
	l.Release()
	if got := l.Status().Active; got != 0 {
		t.Errorf("Active after Release = %d, want 0", got)
	}
}

func TestRenderLimiter_TimesOutWhenFull(t *testing.T) {
	l := NewRenderLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	start := time.Now()
	err := l.Acquire(ctx)
	if !errors.Is(err, ErrTooManyRenders) {
		t.Fatalf("Acquire on full limiter = %v, want ErrTooManyRenders", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("gave up after %v, want about 50ms", elapsed)
	}
	if got := MapError(err).Code; got != "RATE002" {
		t.Errorf("MapError code = %q, want RATE002", got)
	}
}

func TestRenderLimiter_ContextCancelled(t *testing.T) {
	l := NewRenderLimiter(1, time.Minute)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire with cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestRenderLimiter_BoundsConcurrency(t *testing.T) {
	const limit = 3
	l := NewRenderLimiter(limit, time.Second)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		current int
		peak    int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Do(context.Background(), func() error {
				mu.Lock()
				current++
				if current > peak {
					peak = current
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				current--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("Do: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak > limit {
		t.Errorf("peak concurrency = %d, want <= %d", peak, limit)
	}
}

func TestRenderLimiter_WaitForDrain(t *testing.T) {
	l := NewRenderLimiter(1, time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain = %v", err)
	}
}

func TestNewRenderLimiter_Defaults(t *testing.T) {
	l := NewRenderLimiter(0, 0)
	if got := l.Status().MaxConcurrent; got != DefaultMaxConcurrentRenders {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentRenders)
	}
	if l.maxWait != DefaultRenderWait {
		t.Errorf("maxWait = %v, want %v", l.maxWait, DefaultRenderWait)
	}
}
