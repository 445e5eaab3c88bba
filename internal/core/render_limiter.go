package core

// render_limiter.go bounds how many dashboard pages and charts are rendered
// at once. Chart rendering is CPU bound, so a burst of requests queues for a
// slot instead of starving the process; a request that waits longer than
// maxWait fails with ErrTooManyRenders.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyRenders is returned when no render slot frees up in time.
var ErrTooManyRenders = errors.New("too many concurrent renders")

const (
	// DefaultMaxConcurrentRenders is used when the configured limit is not positive.
	DefaultMaxConcurrentRenders = 4

	// DefaultRenderWait is used when the configured wait is not positive.
	DefaultRenderWait = 10 * time.Second
)

// RenderLimiter is a counting semaphore for render work.
type RenderLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
}

// NewRenderLimiter allows maxConcurrent renders at once.
func NewRenderLimiter(maxConcurrent int, maxWait time.Duration) *RenderLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRenders
	}
	if maxWait <= 0 {
		maxWait = DefaultRenderWait
	}
	return &RenderLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. Every successful Acquire must be paired with
// one Release.
func (l *RenderLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyRenders
	}
}

// Release frees a slot taken by Acquire.
func (l *RenderLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// Do runs fn while holding a slot.
func (l *RenderLimiter) Do(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

// RenderStatus is a snapshot of the limiter, reported by /healthz.
type RenderStatus struct {
	Active        int `json:"active"`
	MaxConcurrent int `json:"max_concurrent"`
}

func (l *RenderLimiter) Status() RenderStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return RenderStatus{Active: l.active, MaxConcurrent: cap(l.slots)}
}

// WaitForDrain blocks until no render is in flight or ctx ends. The server
// calls it during graceful shutdown.
func (l *RenderLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.Status().Active == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
