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

	"github.com/nats-io/nats.go"

	"github.com/dataschool/certmailer/internal/models"
)

// JetStream stream and subject the mail worker consumes.
const (
	StreamName    = "EMAILS"
	StreamSubject = "EMAILS.*"
	SendSubject   = "EMAILS.send"
)

// jetStreamPublisher is the part of nats.JetStreamContext used here.
type jetStreamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// ConnectJetStream connects to NATS and ensures the EMAILS stream exists.
func ConnectJetStream(natsURL string) (*nats.Conn, nats.JetStreamContext, error) {
	nc, err := nats.Connect(natsURL, nats.Name("certmailer"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if _, err := js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{StreamSubject},
	}); err != nil {
		// The worker usually creates the stream first.
		slog.Warn("could not create stream", "stream", StreamName, "error", err)
	}

	return nc, js, nil
}

// NATSPublisher publishes email jobs to the EMAILS JetStream stream.
type NATSPublisher struct {
	js     jetStreamPublisher
	appTag string
}

// NewNATSPublisher creates a publisher using js. appTag selects the sender
// mailbox on the worker side.
func NewNATSPublisher(js nats.JetStreamContext, appTag string) *NATSPublisher {
	return &NATSPublisher{js: js, appTag: appTag}
}

// Send publishes msg and waits for the stream acknowledgement.
func (p *NATSPublisher) Send(ctx context.Context, msg *models.Message) error {
	job := NewEmailJob(ctx, msg, p.appTag)

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	ack, err := p.js.Publish(SendSubject, data, nats.Context(ctx), nats.MsgId(job.ID))
	if err != nil {
		return fmt.Errorf("publish to %s: %w", SendSubject, err)
	}

	slog.Info("published email job",
		"job_id", job.ID,
		"email", msg.To,
		"stream", ack.Stream,
		"sequence", ack.Sequence,
	)
	return nil
}
