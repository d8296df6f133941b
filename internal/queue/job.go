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

// Package queue hands rendered notifications to a downstream mail service
// instead of sending them directly. Jobs use the JSON shape the O365 mail
// worker consumes.
package queue

import (
	"context"
	"encoding/base64"

	"github.com/google/uuid"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/dataschool/certmailer/internal/models"
)

const fileAttachmentType = "#microsoft.graph.fileAttachment"

// JobAttachment is an attachment in Graph fileAttachment form.
type JobAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentBytes string `json:"contentBytes"`
	ContentType  string `json:"contentType"`
}

// EmailJob is one email for the mail worker to send.
type EmailJob struct {
	ID              string            `json:"id"`
	Recipients      []string          `json:"recipients"`
	Subject         string            `json:"subject"`
	BodyContent     string            `json:"body_content,omitempty"`
	HtmlBodyContent string            `json:"html_body_content,omitempty"`
	Attachments     []JobAttachment   `json:"attachments,omitempty"`
	AppTag          string            `json:"app_tag"`
	TraceContext    map[string]string `json:"trace_context,omitempty"`
}

// NewEmailJob converts msg into a job tagged with appTag. When ctx carries a
// trace span its context is propagated so the worker can continue the trace.
func NewEmailJob(ctx context.Context, msg *models.Message, appTag string) EmailJob {
	job := EmailJob{
		ID:              uuid.New().String(),
		Recipients:      []string{msg.To},
		Subject:         msg.Subject,
		BodyContent:     msg.PlainBody,
		HtmlBodyContent: msg.HTMLBody,
		AppTag:          appTag,
	}

	for _, a := range msg.Attachments {
		job.Attachments = append(job.Attachments, JobAttachment{
			ODataType:    fileAttachmentType,
			Name:         a.Name,
			ContentBytes: base64.StdEncoding.EncodeToString(a.Content),
			ContentType:  a.ContentType,
		})
	}

	if span, ok := tracer.SpanFromContext(ctx); ok {
		carrier := tracer.TextMapCarrier{}
		if err := tracer.Inject(span.Context(), carrier); err == nil {
			job.TraceContext = carrier
		}
	}

	return job
}
