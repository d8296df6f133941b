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

// Package feedback builds the per-student feedback PDF from a roster row's
// scores.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dataschool/certmailer/internal/document"
	"github.com/dataschool/certmailer/internal/models"
)

// DefaultDate is the date printed under the student's name.
const DefaultDate = "July 27, 2025"

const notAvailable = "N/A"

// deleteTimeout bounds cleanup of the scratch document once the run's
// context is gone.
const deleteTimeout = 30 * time.Second

const (
	remarkExcellent = "You have demonstrated excellent performance throughout the program. Your strong engagement, quality submissions, and collaborative efforts have been exemplary."
	remarkVeryGood  = "You have shown very good performance throughout the program. Your consistent engagement and quality work have been noted."
	remarkGood      = "You have performed well throughout the program. With additional practice and engagement, you can further enhance your skills."
	remarkDefault   = "Thank you for your participation in the program. We recommend continued practice and engagement with the material to strengthen your skills."
)

const recommendations = "Recommendations for further growth:\n" +
	"1. Continue to apply the data analysis techniques learned in real-world scenarios\n" +
	"2. Join industry communities to stay updated with the latest trends\n" +
	"3. Consider pursuing advanced certifications to build on your current knowledge"

const signature = "The Data School Program Team\nMay 2025 Cohort"

// Builder produces feedback attachments through a document service.
type Builder struct {
	docs document.Service
	date string
}

// NewBuilder creates a feedback builder. An empty date uses DefaultDate.
func NewBuilder(docs document.Service, date string) *Builder {
	if strings.TrimSpace(date) == "" {
		date = DefaultDate
	}
	return &Builder{docs: docs, date: date}
}

// Title returns the document title for a student.
func Title(name string) string {
	return name + " - Data School Program Feedback"
}

// Remark selects the summary paragraph for an overall percentage.
// NaN falls through to the default remark.
func Remark(pct float64) string {
	switch {
	case pct >= 80:
		return remarkExcellent
	case pct >= 70:
		return remarkVeryGood
	case pct >= 60:
		return remarkGood
	default:
		return remarkDefault
	}
}

// FormatPercentage renders the overall percentage with one decimal and a
// percent sign. Blank values render as N/A; non-numeric values are shown as
// entered.
func FormatPercentage(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return notAvailable
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "%")), 64)
	if err != nil {
		return v
	}
	return strconv.FormatFloat(f, 'f', 1, 64) + "%"
}

func display(raw string) string {
	if v := strings.TrimSpace(raw); v != "" {
		return v
	}
	return notAvailable
}

// Content returns the document body for a row.
func Content(row models.RosterRow, date string) []document.Block {
	s := row.Scores
	return []document.Block{
		document.H1("DATA SCHOOL PROGRAM - STUDENT FEEDBACK"),
		document.H2("Name: " + row.Name),
		document.P("Date: " + date),
		document.HR(),
		document.H2("PERFORMANCE METRICS"),
		document.T(
			[]string{"Metric", "Score"},
			[]string{"Attendance", display(s.Attendance)},
			[]string{"Punctuality", display(s.Punctuality)},
			[]string{"Assessment Score", display(s.Assessment)},
			[]string{"Individual Classwork", display(s.IndividualClasswork)},
			[]string{"Presentation Score", display(s.Presentation)},
			[]string{"Overall Percentage", FormatPercentage(s.Percentage)},
		),
		document.HR(),
		document.H2("FEEDBACK SUMMARY"),
		document.P(Remark(s.PercentageValue())),
		document.P(recommendations),
		document.HR(),
		document.P(signature),
	}
}

// Build renders the feedback document for a row and returns it as a PDF
// attachment. The backing document is deleted before Build returns.
func (b *Builder) Build(ctx context.Context, row models.RosterRow) (models.Attachment, error) {
	title := Title(row.Name)

	h, err := b.docs.Create(ctx, title)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("create feedback document: %w", err)
	}
	defer func() {
		delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
		defer cancel()
		if err := b.docs.Delete(delCtx, h); err != nil {
			slog.Warn("failed to delete feedback document",
				"row", row.Row,
				"document_id", h.ID,
				"error", err,
			)
		}
	}()

	if err := b.docs.Append(ctx, h, Content(row, b.date)); err != nil {
		return models.Attachment{}, fmt.Errorf("write feedback document: %w", err)
	}

	pdf, err := b.docs.Export(ctx, h)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("export feedback document: %w", err)
	}

	slog.Debug("feedback document built",
		"row", row.Row,
		"name", row.Name,
		"bytes", len(pdf),
	)

	return models.Attachment{
		Name:        title + ".pdf",
		ContentType: models.ContentTypePDF,
		Content:     pdf,
	}, nil
}
