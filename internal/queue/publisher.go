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

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dataschool/certmailer/internal/models"
)

// RedisPublisher pushes email jobs onto a Redis list. Workers consume with
// BRPOP, so jobs are handled in the order they were pushed.
type RedisPublisher struct {
	rdb       *redis.Client
	queueName string
	appTag    string
}

// NewRedisPublisher creates a publisher targeting the named list.
func NewRedisPublisher(rdb *redis.Client, queueName, appTag string) *RedisPublisher {
	return &RedisPublisher{
		rdb:       rdb,
		queueName: queueName,
		appTag:    appTag,
	}
}

// Send enqueues msg as an email job.
func (p *RedisPublisher) Send(ctx context.Context, msg *models.Message) error {
	job := NewEmailJob(ctx, msg, p.appTag)

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	if err := p.rdb.LPush(ctx, p.queueName, data).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Info("queued email job",
		"job_id", job.ID,
		"email", msg.To,
		"queue", p.queueName,
		"attachments", len(job.Attachments),
	)
	return nil
}

// Ping checks the Redis connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
