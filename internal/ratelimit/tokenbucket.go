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

package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenBucket keeps one rate.Limiter per key
type TokenBucket struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
	buckets map[string]*bucket
}

// NewTokenBucket creates a limiter refilling rps tokens per second up to
// burst. Keys unused for idle are dropped by Sweep.
func NewTokenBucket(rps float64, burst int, idle time.Duration) *TokenBucket {
	return &TokenBucket{
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (tb *TokenBucket) get(key string, now time.Time) *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(tb.rps, tb.burst)}
		tb.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

func (tb *TokenBucket) Allow(_ context.Context, key string) (Decision, error) {
	now := tb.now()
	lim := tb.get(key, now)

	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)
	d := Decision{
		Allowed:   allowed,
		Limit:     tb.burst,
		Remaining: max(0, int(math.Floor(tokens))),
		ResetAt:   now.Add(tb.refill(float64(tb.burst) - tokens)),
	}
	if !allowed {
		d.RetryAfter = tb.refill(1 - tokens)
	}
	return d, nil
}

// refill returns how long it takes to gain n tokens.
func (tb *TokenBucket) refill(n float64) time.Duration {
	if n <= 0 || tb.rps <= 0 {
		return 0
	}
	return time.Duration(n / float64(tb.rps) * float64(time.Second))
}

// Sweep drops keys idle for longer than the configured idle duration.
func (tb *TokenBucket) Sweep() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	cutoff := tb.now().Add(-tb.idle)
	n := 0
	for k, b := range tb.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(tb.buckets, k)
			n++
		}
	}
	return n
}
