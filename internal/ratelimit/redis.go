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
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// INCR the window counter, arm its expiry on the first hit and report the
// remaining lifetime.
var windowScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {n, ttl}
`)

// Redis is a fixed window limiter shared by every replica using the same
// Redis instance.
type Redis struct {
	client redis.Scripter
	prefix string
	limit  int
	period time.Duration
	now    func() time.Time
}

// NewRedis creates a limiter allowing limit hits per period. Keys are
// stored under prefix.
func NewRedis(client redis.Scripter, prefix string, limit int, period time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, limit: limit, period: period, now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := windowScript.Run(ctx, r.client, []string{r.prefix + key}, r.period.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply: %v", res)
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = r.period
	}
	now := r.now()
	return decide(r.limit, int(res[0]), now.Add(ttl), now, nil), nil
}
