// Package ratelimit provides a client-side, weight-aware rate limiter.
// It is best-effort pacing against the documented exchange budgets; the
// server remains the authority and can still answer 429.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces requests against a request-weight budget plus named
// per-bucket budgets (order placement has its own budget).
type Limiter struct {
	global  *rate.Limiter
	buckets sync.Map
	weight  int
	period  time.Duration
	metrics *Metrics
}

// Metrics tracks statistics about limiter usage.
type Metrics struct {
	totalWaits   atomic.Int64
	allowedWaits atomic.Int64
	deniedWaits  atomic.Int64
	bucketCount  atomic.Int32
}

// New creates a Limiter with the given weight budget per period.
// Burst equals the full budget so an idle client can spend it immediately.
func New(weightPerPeriod int, period time.Duration) *Limiter {
	rps := float64(weightPerPeriod) / period.Seconds()
	return &Limiter{
		global:  rate.NewLimiter(rate.Limit(rps), weightPerPeriod),
		weight:  weightPerPeriod,
		period:  period,
		metrics: &Metrics{},
	}
}

// WaitN blocks until the global budget can cover a request of the given
// weight, or the context is cancelled.
func (l *Limiter) WaitN(ctx context.Context, weight int) error {
	l.metrics.totalWaits.Add(1)
	if err := l.global.WaitN(ctx, weight); err != nil {
		l.metrics.deniedWaits.Add(1)
		return err
	}
	l.metrics.allowedWaits.Add(1)
	return nil
}

// WaitBucket blocks until the named bucket allows one event. Buckets are
// created on demand with the rate configured via SetBucketLimit, or the
// global budget when never configured.
func (l *Limiter) WaitBucket(ctx context.Context, bucket string) error {
	l.metrics.totalWaits.Add(1)
	if err := l.getBucket(bucket).Wait(ctx); err != nil {
		l.metrics.deniedWaits.Add(1)
		return err
	}
	l.metrics.allowedWaits.Add(1)
	return nil
}

// AllowN reports whether the global budget can cover the weight right now.
func (l *Limiter) AllowN(weight int) bool {
	l.metrics.totalWaits.Add(1)
	allowed := l.global.AllowN(time.Now(), weight)
	if allowed {
		l.metrics.allowedWaits.Add(1)
	} else {
		l.metrics.deniedWaits.Add(1)
	}
	return allowed
}

func (l *Limiter) getBucket(bucket string) *rate.Limiter {
	if v, ok := l.buckets.Load(bucket); ok {
		return v.(*rate.Limiter)
	}
	rps := float64(l.weight) / l.period.Seconds()
	limiter := rate.NewLimiter(rate.Limit(rps), l.weight)
	actual, loaded := l.buckets.LoadOrStore(bucket, limiter)
	if !loaded {
		l.metrics.bucketCount.Add(1)
	}
	return actual.(*rate.Limiter)
}

// SetLimit updates the global weight budget.
func (l *Limiter) SetLimit(weightPerPeriod int, period time.Duration) {
	l.weight = weightPerPeriod
	l.period = period
	rps := float64(weightPerPeriod) / period.Seconds()
	l.global.SetLimit(rate.Limit(rps))
	l.global.SetBurst(weightPerPeriod)
}

// SetBucketLimit updates the budget for a named bucket, creating it if needed.
func (l *Limiter) SetBucketLimit(bucket string, events int, period time.Duration) {
	rps := float64(events) / period.Seconds()
	limiter := l.getBucket(bucket)
	limiter.SetLimit(rate.Limit(rps))
	limiter.SetBurst(events)
}

// Snapshot returns a point-in-time capture of limiter statistics.
func (l *Limiter) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalWaits:   l.metrics.totalWaits.Load(),
		AllowedWaits: l.metrics.allowedWaits.Load(),
		DeniedWaits:  l.metrics.deniedWaits.Load(),
		BucketCount:  l.metrics.bucketCount.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of limiter statistics.
type MetricsSnapshot struct {
	TotalWaits   int64
	AllowedWaits int64
	DeniedWaits  int64
	BucketCount  int32
}
