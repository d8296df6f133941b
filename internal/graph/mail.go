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

package graph

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dataschool/certmailer/internal/models"
)

// Mailer sends mail from a single mailbox through /sendMail.
//
// The message is posted in MIME format so that the plain and HTML bodies
// travel together as multipart/alternative.
type Mailer struct {
	client *Client
	sender string
}

// NewMailer creates a mailer sending as sender, a mailbox address.
func NewMailer(client *Client, sender string) *Mailer {
	return &Mailer{client: client, sender: sender}
}

// Send delivers msg. Graph answers 202 Accepted on success.
func (m *Mailer) Send(ctx context.Context, msg *models.Message) error {
	raw, err := buildMIME(m.sender, msg)
	if err != nil {
		return fmt.Errorf("build MIME message: %w", err)
	}

	path := fmt.Sprintf("/users/%s/sendMail", url.PathEscape(m.sender))
	body := strings.NewReader(base64.StdEncoding.EncodeToString(raw))

	if _, err := m.client.do(ctx, http.MethodPost, path, body, "text/plain"); err != nil {
		return fmt.Errorf("sendMail to %s: %w", msg.To, err)
	}
	return nil
}
