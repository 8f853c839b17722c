package entity

import (
	"context"
	"time"
)

// fixedTime is a deterministic TimeProvider for entity tests
type fixedTime struct {
	now time.Time
}

func (f *fixedTime) Now() time.Time {
	return f.now
}

func (f *fixedTime) Since(t time.Time) time.Duration {
	return f.now.Sub(t)
}

func (f *fixedTime) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}
