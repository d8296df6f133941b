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

package feedback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/dataschool/certmailer/internal/document"
	"github.com/dataschool/certmailer/internal/models"
)

// --- Mock document service ---

type mockDocs struct {
	created   []string
	deleted   []string
	blocks    map[string][]document.Block
	exportErr error
	appendErr error

	onExport   func()  // runs before Export returns
	deleteErrs []error // ctx.Err() seen by each Delete
}

func newMockDocs() *mockDocs {
	return &mockDocs{blocks: make(map[string][]document.Block)}
}

func (m *mockDocs) Create(_ context.Context, title string) (document.Handle, error) {
	id := fmt.Sprintf("doc-%d", len(m.created)+1)
	m.created = append(m.created, id)
	return document.Handle{ID: id, Title: title}, nil
}

func (m *mockDocs) Append(_ context.Context, h document.Handle, blocks []document.Block) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.blocks[h.ID] = append(m.blocks[h.ID], blocks...)
	return nil
}

func (m *mockDocs) Export(ctx context.Context, h document.Handle) ([]byte, error) {
	if m.onExport != nil {
		m.onExport()
		return nil, ctx.Err()
	}
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	return document.RenderHTML(h.Title, m.blocks[h.ID])
}

func (m *mockDocs) Delete(ctx context.Context, h document.Handle) error {
	m.deleted = append(m.deleted, h.ID)
	m.deleteErrs = append(m.deleteErrs, ctx.Err())
	return nil
}

func TestRemark_Thresholds(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{85, remarkExcellent},
		{80, remarkExcellent},
		{75, remarkVeryGood},
		{70, remarkVeryGood},
		{65, remarkGood},
		{60, remarkGood},
		{59.9, remarkDefault},
		{50, remarkDefault},
		{math.NaN(), remarkDefault},
	}
	for _, tt := range tests {
		if got := Remark(tt.pct); got != tt.want {
			t.Errorf("Remark(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestFormatPercentage(t *testing.T) {
	tests := map[string]string{
		"85":     "85.0%",
		"72.46":  "72.5%",
		"85%":    "85.0%",
		"":       "N/A",
		"  ":     "N/A",
		"0":      "0.0%",
		"absent": "absent",
	}
	for in, want := range tests {
		if got := FormatPercentage(in); got != want {
			t.Errorf("FormatPercentage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContent_MissingScoresShowNA(t *testing.T) {
	row := models.RosterRow{Name: "Ada", Scores: models.Scores{Attendance: "95", Presentation: "0"}}
	blocks := Content(row, DefaultDate)

	var table document.Block
	for _, b := range blocks {
		if b.Kind == document.Table {
			table = b
		}
	}
	if len(table.Rows) != 7 {
		t.Fatalf("expected header plus 6 metric rows, got %d", len(table.Rows))
	}

	want := map[string]string{
		"Attendance":           "95",
		"Punctuality":          "N/A",
		"Assessment Score":     "N/A",
		"Individual Classwork": "N/A",
		"Presentation Score":   "0",
		"Overall Percentage":   "N/A",
	}
	for _, r := range table.Rows[1:] {
		if want[r[0]] != r[1] {
			t.Errorf("%s = %q, want %q", r[0], r[1], want[r[0]])
		}
	}
}

func TestContent_SingleRemarkAndFixedSections(t *testing.T) {
	row := models.RosterRow{Name: "Bo", Scores: models.Scores{Percentage: "75"}}
	var text strings.Builder
	for _, b := range Content(row, "June 1, 2025") {
		text.WriteString(b.Text)
		text.WriteString("\n")
	}
	out := text.String()

	remarks := 0
	for _, r := range []string{remarkExcellent, remarkVeryGood, remarkGood, remarkDefault} {
		if strings.Contains(out, r) {
			remarks++
		}
	}
	if remarks != 1 || !strings.Contains(out, remarkVeryGood) {
		t.Errorf("expected exactly the very-good remark, found %d remarks", remarks)
	}
	for _, want := range []string{
		"Name: Bo",
		"Date: June 1, 2025",
		"Recommendations for further growth:",
		"3. Consider pursuing advanced certifications to build on your current knowledge",
		"The Data School Program Team\nMay 2025 Cohort",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("content missing %q", want)
		}
	}
}

func TestContent_RemarkAndRecommendationsAreSeparateParagraphs(t *testing.T) {
	row := models.RosterRow{Name: "Bo", Scores: models.Scores{Percentage: "91"}}

	var paragraphs []string
	for _, b := range Content(row, DefaultDate) {
		if b.Kind == document.Paragraph {
			paragraphs = append(paragraphs, b.Text)
		}
	}

	remarkAt := -1
	for i, p := range paragraphs {
		if p == remarkExcellent {
			remarkAt = i
		}
	}
	if remarkAt < 0 {
		t.Fatalf("no paragraph holds only the remark: %q", paragraphs)
	}
	if remarkAt+1 >= len(paragraphs) || !strings.HasPrefix(paragraphs[remarkAt+1], "Recommendations for further growth:") {
		t.Errorf("recommendations do not follow the remark as their own paragraph: %q", paragraphs)
	}
}

func TestBuild_DeletesAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs := newMockDocs()
	docs.onExport = cancel
	b := NewBuilder(docs, "")

	_, err := b.Build(ctx, models.RosterRow{Row: 2, Name: "Fi"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if len(docs.deleted) != 1 {
		t.Fatalf("expected one delete, got %d", len(docs.deleted))
	}
	if docs.deleteErrs[0] != nil {
		t.Errorf("delete ran with a dead context: %v", docs.deleteErrs[0])
	}
}

func TestBuild_ProducesAttachmentAndDeletes(t *testing.T) {
	docs := newMockDocs()
	b := NewBuilder(docs, "")

	row := models.RosterRow{Row: 2, Name: "Ada", Scores: models.Scores{Percentage: "85"}}
	att, err := b.Build(context.Background(), row)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if att.Name != "Ada - Data School Program Feedback.pdf" {
		t.Errorf("unexpected name %q", att.Name)
	}
	if att.ContentType != models.ContentTypePDF {
		t.Errorf("unexpected content type %q", att.ContentType)
	}
	if !strings.Contains(string(att.Content), "85.0%") {
		t.Error("exported content missing formatted percentage")
	}
	if !strings.Contains(string(att.Content), DefaultDate) {
		t.Error("exported content missing default date")
	}
	if !reflect.DeepEqual(docs.deleted, docs.created) {
		t.Errorf("created %v but deleted %v", docs.created, docs.deleted)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	docs := newMockDocs()
	b := NewBuilder(docs, DefaultDate)
	row := models.RosterRow{Name: "Cy", Scores: models.Scores{Attendance: "80", Percentage: "66.66"}}

	first, err := b.Build(context.Background(), row)
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Build(context.Background(), row)
	if err != nil {
		t.Fatal(err)
	}
	if string(first.Content) != string(second.Content) {
		t.Error("two builds of the same row differ")
	}
}

func TestBuild_DeletesOnExportFailure(t *testing.T) {
	docs := newMockDocs()
	docs.exportErr = errors.New("conversion unavailable")
	b := NewBuilder(docs, "")

	_, err := b.Build(context.Background(), models.RosterRow{Name: "Di"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, docs.exportErr) {
		t.Errorf("expected wrapped export error, got %v", err)
	}
	if len(docs.deleted) != 1 || docs.deleted[0] != docs.created[0] {
		t.Errorf("document not deleted after failed export: created %v deleted %v", docs.created, docs.deleted)
	}
}

func TestBuild_DeletesOnAppendFailure(t *testing.T) {
	docs := newMockDocs()
	docs.appendErr = errors.New("quota")
	b := NewBuilder(docs, "")

	if _, err := b.Build(context.Background(), models.RosterRow{Name: "Ed"}); err == nil {
		t.Fatal("expected error")
	}
	if len(docs.deleted) != 1 {
		t.Errorf("expected one delete, got %d", len(docs.deleted))
	}
}
