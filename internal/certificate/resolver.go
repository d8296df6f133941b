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

// Package certificate resolves certificate references in a roster row into
// PDF attachments fetched from an external file store.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/dataschool/certmailer/internal/models"
)

// ErrNoFileID is returned when a reference contains no recognisable file token.
var ErrNoFileID = errors.New("no file id in certificate reference")

// fileIDPattern matches the opaque token that storage links embed.
// Share links look like https://drive.example.com/file/d/<token>/view.
var fileIDPattern = regexp.MustCompile(`[-\w]{25,}`)

// Kind names a certificate type.
type Kind string

const (
	Attendance  Kind = "attendance"
	Proficiency Kind = "proficiency"
)

// FileStore fetches a stored file by its identifier.
type FileStore interface {
	GetFile(ctx context.Context, fileID string) ([]byte, error)
}

// ExtractFileID returns the first file token found in ref.
func ExtractFileID(ref string) (string, bool) {
	id := fileIDPattern.FindString(ref)
	if id == "" {
		return "", false
	}
	return id, true
}

// AttachmentName returns the attachment filename for a certificate kind.
func AttachmentName(name string, kind Kind) string {
	switch kind {
	case Attendance:
		return name + " - Data School Program Attendance Certificate.pdf"
	default:
		return name + " - Data School Program Proficiency Certificate.pdf"
	}
}

// Resolver turns certificate references into attachments.
type Resolver struct {
	store FileStore
}

// NewResolver creates a resolver backed by the given file store.
func NewResolver(store FileStore) *Resolver {
	return &Resolver{store: store}
}

// Fetch resolves a single reference into an attachment.
func (r *Resolver) Fetch(ctx context.Context, name string, kind Kind, ref string) (models.Attachment, error) {
	id, ok := ExtractFileID(ref)
	if !ok {
		return models.Attachment{}, ErrNoFileID
	}

	data, err := r.store.GetFile(ctx, id)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("get %s certificate %s: %w", kind, id, err)
	}

	return models.Attachment{
		Name:        AttachmentName(name, kind),
		ContentType: models.ContentTypePDF,
		Content:     data,
	}, nil
}

// Resolve appends the row's certificate attachments to attachments, attendance
// before proficiency. A reference that cannot be fetched is logged and skipped.
func (r *Resolver) Resolve(ctx context.Context, row models.RosterRow, attachments []models.Attachment) []models.Attachment {
	refs := []struct {
		kind    Kind
		ref     string
		present bool
	}{
		{Attendance, row.AttendanceCertRef, row.HasAttendanceCert()},
		{Proficiency, row.ProficiencyCertRef, row.HasProficiencyCert()},
	}

	for _, c := range refs {
		if !c.present {
			continue
		}

		att, err := r.Fetch(ctx, row.Name, c.kind, c.ref)
		if err != nil {
			slog.Warn("certificate unavailable, sending without it",
				"row", row.Row,
				"name", row.Name,
				"kind", c.kind,
				"reference", c.ref,
				"error", err,
			)
			continue
		}

		attachments = append(attachments, att)
	}

	return attachments
}
