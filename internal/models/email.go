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

// Package models defines the data structures shared across the notifier.
package models

// ContentTypePDF is the MIME type of every generated or fetched attachment.
const ContentTypePDF = "application/pdf"

// Attachment is a named file sent with a notification email.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
}

// Message is a fully rendered notification ready for a mail transport.
//
// PlainBody and HTMLBody carry the same text; transports that support
// multipart/alternative send both.
type Message struct {
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	PlainBody   string       `json:"plain_body"`
	HTMLBody    string       `json:"html_body"`
	Attachments []Attachment `json:"attachments"`
}
