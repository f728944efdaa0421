// Copyright 2026 The LinkSpace Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ratelimit provides keyed request limiters. Window and Redis
// count attempts in fixed windows; TokenBucket smooths traffic with
// golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, at least 1.
func (d Decision) RetryAfterSeconds() int {
	s := int(math.Ceil(d.RetryAfter.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// Limiter admits or rejects a request identified by key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// Window is an in-memory fixed window limiter: at most limit hits per key
// per period, counted from the first hit.
type Window struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	now     func() time.Time
	windows map[string]*window
}

// WindowOption configures a Window
type WindowOption func(*Window)

// WithClock sets the time source.
func WithClock(now func() time.Time) WindowOption {
	return func(w *Window) { w.now = now }
}

// NewWindow creates a limiter allowing limit hits per period.
func NewWindow(limit int, period time.Duration, opts ...WindowOption) *Window {
	w := &Window{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Window) Allow(_ context.Context, key string) (Decision, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	win, ok := w.windows[key]
	if !ok || !now.Before(win.resetAt) {
		win = &window{resetAt: now.Add(w.period)}
		w.windows[key] = win
	}
	return decide(w.limit, win.count+1, win.resetAt, now, func() { win.count++ }), nil
}

// Sweep drops windows that have elapsed and returns how many were removed.
func (w *Window) Sweep() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	n := 0
	for k, win := range w.windows {
		if !now.Before(win.resetAt) {
			delete(w.windows, k)
			n++
		}
	}
	return n
}

// decide builds a Decision for the hit-th request of a window. admit is
// called only when the request is allowed.
func decide(limit, hit int, resetAt, now time.Time, admit func()) Decision {
	d := Decision{Limit: limit, ResetAt: resetAt}
	if hit > limit {
		d.RetryAfter = resetAt.Sub(now)
		return d
	}
	if admit != nil {
		admit()
	}
	d.Allowed = true
	d.Remaining = limit - hit
	return d
}
