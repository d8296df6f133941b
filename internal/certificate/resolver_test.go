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

package certificate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dataschool/certmailer/internal/models"
)

const (
	tokenA = "1AbCdEfGhIjKlMnOpQrStUvWxYz0"
	tokenP = "1PpQqRrSsTtUuVvWwXxYyZz-_09"
)

// --- Mock file store ---

type mockStore struct {
	mu    sync.Mutex
	files map[string][]byte
	calls []string
}

func (m *mockStore) GetFile(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
	data, ok := m.files[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func TestExtractFileID(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
		ok   bool
	}{
		{"share link", "https://drive.google.com/file/d/" + tokenA + "/view?usp=sharing", tokenA, true},
		{"open link", "https://drive.google.com/open?id=" + tokenP, tokenP, true},
		{"bare token", tokenA, tokenA, true},
		{"too short", "https://example.com/file/d/short-id/view", "", false},
		{"no token", "see attached", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFileID(tt.ref)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractFileID(%q) = (%q, %v), want (%q, %v)", tt.ref, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolve_FetchesWithExtractedToken(t *testing.T) {
	store := &mockStore{files: map[string][]byte{tokenA: []byte("att-pdf")}}
	r := NewResolver(store)

	row := models.RosterRow{
		Row:               2,
		Name:              "Ada",
		AttendanceCertRef: "https://drive.google.com/file/d/" + tokenA + "/view",
	}

	got := r.Resolve(context.Background(), row, nil)

	if len(store.calls) != 1 || store.calls[0] != tokenA {
		t.Fatalf("expected one fetch for %s, got %v", tokenA, store.calls)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(got))
	}
	if got[0].Name != "Ada - Data School Program Attendance Certificate.pdf" {
		t.Errorf("unexpected name %q", got[0].Name)
	}
	if got[0].ContentType != models.ContentTypePDF {
		t.Errorf("unexpected content type %q", got[0].ContentType)
	}
	if string(got[0].Content) != "att-pdf" {
		t.Errorf("unexpected content %q", got[0].Content)
	}
}

func TestResolve_MalformedReferenceSkipsFetch(t *testing.T) {
	store := &mockStore{files: map[string][]byte{}}
	r := NewResolver(store)

	row := models.RosterRow{Row: 3, Name: "Bo", ProficiencyCertRef: "pending"}
	got := r.Resolve(context.Background(), row, nil)

	if len(store.calls) != 0 {
		t.Errorf("expected no fetch, got %v", store.calls)
	}
	if len(got) != 0 {
		t.Errorf("expected no attachments, got %d", len(got))
	}
}

func TestResolve_OrderAndPartialFailure(t *testing.T) {
	store := &mockStore{files: map[string][]byte{tokenP: []byte("prof")}}
	r := NewResolver(store)

	feedback := models.Attachment{Name: "feedback.pdf"}
	row := models.RosterRow{
		Name:               "Cy",
		AttendanceCertRef:  tokenA, // not in store
		ProficiencyCertRef: tokenP,
	}

	got := r.Resolve(context.Background(), row, []models.Attachment{feedback})

	if len(got) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(got))
	}
	if got[0].Name != "feedback.pdf" {
		t.Errorf("feedback must stay first, got %q", got[0].Name)
	}
	if got[1].Name != "Cy - Data School Program Proficiency Certificate.pdf" {
		t.Errorf("unexpected second attachment %q", got[1].Name)
	}
	if len(store.calls) != 2 || store.calls[0] != tokenA || store.calls[1] != tokenP {
		t.Errorf("expected attendance then proficiency fetch, got %v", store.calls)
	}
}

func TestFetch_NoFileID(t *testing.T) {
	r := NewResolver(&mockStore{})
	_, err := r.Fetch(context.Background(), "Di", Attendance, "n/a")
	if !errors.Is(err, ErrNoFileID) {
		t.Errorf("expected ErrNoFileID, got %v", err)
	}
}
