// Package ratelimit counts requests per client identifier inside a fixed
// window. A Limiter owns its Store; the in-memory store is per process and
// the Redis store shares counts between instances.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

var (
	ErrStoreRequired = errors.New("ratelimit: store is required")
	ErrInvalidLimit  = errors.New("ratelimit: limit must be positive")
	ErrInvalidWindow = errors.New("ratelimit: window must be positive")
)

// Store records one hit for key and reports whether it is within limit.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error)
}

type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithKeyPrefix namespaces keys, so several limiters can share one store.
func WithKeyPrefix(prefix string) Option {
	return func(l *Limiter) {
		l.prefix = prefix
	}
}

func New(store Store, limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	l := &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow records a request from clientID and reports whether it may proceed.
func (l *Limiter) Allow(ctx context.Context, clientID string) (bool, error) {
	return l.store.Hit(ctx, l.prefix+clientID, l.limit, l.window, l.now())
}

func (l *Limiter) Limit() int {
	return l.limit
}

func (l *Limiter) Window() time.Duration {
	return l.window
}
