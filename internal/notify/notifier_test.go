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

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dataschool/certmailer/internal/models"
)

// --- Mock mailer ---

type mockMailer struct {
	sent []*models.Message
	err  error
}

func (m *mockMailer) Send(_ context.Context, msg *models.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestClassify_Total(t *testing.T) {
	tests := []struct {
		att, prof bool
		want      models.Variant
	}{
		{true, true, models.VariantBothCerts},
		{true, false, models.VariantAttendanceOnly},
		{false, true, models.VariantProficiencyOnly},
		{false, false, models.VariantFeedbackOnly},
	}
	for _, tt := range tests {
		if got := Classify(tt.att, tt.prof); got != tt.want {
			t.Errorf("Classify(%v, %v) = %s, want %s", tt.att, tt.prof, got, tt.want)
		}
	}
}

func TestRender_AllVariants(t *testing.T) {
	subjects := map[models.Variant]string{
		models.VariantAttendanceOnly:  "Your Data School Program Attendance Certificate and Feedback",
		models.VariantProficiencyOnly: "Congratulations on Your Data School Program Proficiency Achievement",
		models.VariantBothCerts:       "Congratulations on Completing the Data School Program - Your Certificates",
		models.VariantFeedbackOnly:    "Your Data School Program Feedback",
	}

	for v, want := range subjects {
		subject, plain, html, err := Render(v, "Ada")
		if err != nil {
			t.Fatalf("Render(%s): %v", v, err)
		}
		if subject != want {
			t.Errorf("%s subject = %q, want %q", v, subject, want)
		}
		if !strings.HasPrefix(plain, "Dear Ada,\n\n") {
			t.Errorf("%s plain body has wrong greeting: %q", v, plain[:20])
		}
		if !strings.HasSuffix(plain, "Best regards,\nThe Data School Program Team") {
			t.Errorf("%s plain body missing signature", v)
		}
		if !strings.Contains(html, "<p>Dear Ada,</p>") {
			t.Errorf("%s html body missing greeting", v)
		}
		if !strings.Contains(html, "The Data School Program Team</p>") {
			t.Errorf("%s html body missing signature", v)
		}

		// Both bodies carry the same paragraphs.
		for _, para := range templates[v].Paragraphs {
			if !strings.Contains(plain, para) || !strings.Contains(html, para) {
				t.Errorf("%s paragraph missing from a body: %q", v, para)
			}
		}
	}
}

func TestRender_EscapesNameInHTML(t *testing.T) {
	_, plain, html, err := Render(models.VariantFeedbackOnly, `<b>Eve & "Mal"</b>`)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<b>Eve") {
		t.Error("name was not escaped in html body")
	}
	if !strings.Contains(html, "&lt;b&gt;Eve &amp; &#34;Mal&#34;&lt;/b&gt;") {
		t.Errorf("unexpected escaping: %s", html)
	}
	if !strings.Contains(plain, `Dear <b>Eve & "Mal"</b>,`) {
		t.Error("plain body should carry the name verbatim")
	}
}

func TestRender_UnknownVariant(t *testing.T) {
	if _, _, _, err := Render(models.Variant("OTHER"), "x"); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestNotify_SendsOneMessage(t *testing.T) {
	m := &mockMailer{}
	n := NewNotifier(m)

	atts := []models.Attachment{{Name: "a.pdf"}, {Name: "b.pdf"}}
	if err := n.Notify(context.Background(), models.VariantBothCerts, "ada@example.com", "Ada", atts); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(m.sent))
	}
	msg := m.sent[0]
	if msg.To != "ada@example.com" || len(msg.Attachments) != 2 || msg.Attachments[0].Name != "a.pdf" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestNotify_ReturnsSendError(t *testing.T) {
	sendErr := errors.New("mailbox full")
	n := NewNotifier(&mockMailer{err: sendErr})

	err := n.Notify(context.Background(), models.VariantFeedbackOnly, "bo@example.com", "Bo", nil)
	if !errors.Is(err, sendErr) {
		t.Errorf("expected wrapped send error, got %v", err)
	}
}

func TestNotify_RejectsRecipientWithLineBreak(t *testing.T) {
	m := &mockMailer{}
	n := NewNotifier(m)

	for _, to := range []string{"ada@example.com\nBcc: eve@example.com", "ada@example.com\r"} {
		err := n.Notify(context.Background(), models.VariantFeedbackOnly, to, "Ada", nil)
		if !errors.Is(err, ErrInvalidRecipient) {
			t.Errorf("Notify(%q) = %v, want ErrInvalidRecipient", to, err)
		}
	}
	if len(m.sent) != 0 {
		t.Errorf("expected no messages, got %d", len(m.sent))
	}
}
