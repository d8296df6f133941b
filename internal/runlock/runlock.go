// Copyright (c) 2026 John Earle
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

// Package runlock ensures at most one notification run executes at a time.
// A Redis key with TTL guards runs across replicas; without Redis an
// in-process lock is used.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL bounds how long a crashed holder can block new runs.
	DefaultTTL = 2 * time.Hour

	// DefaultKey is the Redis key guarding runs.
	DefaultKey = "certmailer:run"
)

// ErrHeld is returned when another run holds the lock.
var ErrHeld = errors.New("run already in progress")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires the run lock.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// RedisLock is a Locker backed by SET NX with a TTL.
type RedisLock struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisLock creates a Redis-backed lock. Zero ttl uses DefaultTTL.
func NewRedisLock(rdb *redis.Client, key string, ttl time.Duration) *RedisLock {
	if key == "" {
		key = DefaultKey
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &RedisLock{rdb: rdb, key: key, ttl: ttl}
}

// Acquire takes the lock or returns ErrHeld.
func (l *RedisLock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.New().String()

	// SET NX = set only if key does not exist. Returns true if the key was set.
	set, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("run lock SETNX: %w", err)
	}
	if !set {
		return nil, ErrHeld
	}

	return func() {
		// Release must succeed even if the run's context was cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		releaseScript.Run(ctx, l.rdb, []string{l.key}, token)
	}, nil
}

// LocalLock is an in-process Locker.
type LocalLock struct {
	mu   sync.Mutex
	held bool
}

// Acquire takes the lock or returns ErrHeld.
func (l *LocalLock) Acquire(_ context.Context) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, ErrHeld
	}
	l.held = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.held = false
			l.mu.Unlock()
		})
	}, nil
}
