package core

// import_limiter.go bounds how many bulk imports run at once.
//
// Imports hold a write transaction for the whole batch, so a burst of large
// documents would otherwise queue on the database. A caller that cannot get
// a slot within maxWait fails with ErrBusy; on shutdown the server drains
// running imports with WaitForImports.

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Import concurrency defaults used when no config section is supplied.
const (
	DefaultMaxConcurrentImports = 4
	DefaultImportMaxWait        = 10 * time.Second
)

type importLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int32
}

func newImportLimiter(maxConcurrent int, maxWait time.Duration) *importLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultImportMaxWait
	}
	return &importLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// acquire takes a slot. The caller must call release exactly once after a
// nil return.
func (l *importLimiter) acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return &Error{
			Kind:    KindUnavailable,
			Code:    CodeBusy,
			Message: fmt.Sprintf("all %d import slots busy for %s", cap(l.slots), l.maxWait),
		}
	}
}

func (l *importLimiter) release() {
	l.active.Add(-1)
	<-l.slots
}

// drain blocks until no import is running or ctx is done.
func (l *importLimiter) drain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.active.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// ActiveImports returns the number of imports currently running.
func (s *Service) ActiveImports() int {
	return int(s.imports.active.Load())
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.imports.drain(ctx)
}
