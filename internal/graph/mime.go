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
	"bytes"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/dataschool/certmailer/internal/models"
)

// buildMIME encodes msg as a multipart/mixed message whose first part is a
// multipart/alternative of the plain and HTML bodies, followed by one part
// per attachment in order. Addresses are parsed, so a recipient carrying
// extra header lines is rejected.
func buildMIME(from string, msg *models.Message) ([]byte, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()

	m.SetBodyString(mail.TypeTextPlain, msg.PlainBody)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)

	for _, att := range msg.Attachments {
		err := m.AttachReader(att.Name, bytes.NewReader(att.Content),
			mail.WithFileContentType(mail.ContentType(att.ContentType)))
		if err != nil {
			return nil, fmt.Errorf("attach %q: %w", att.Name, err)
		}
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write message: %w", err)
	}
	return buf.Bytes(), nil
}
