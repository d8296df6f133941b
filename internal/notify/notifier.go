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

// Package notify classifies roster rows into notification variants and
// dispatches the matching templated email.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dataschool/certmailer/internal/models"
)

// ErrInvalidRecipient is returned for an address that would break the
// message headers.
var ErrInvalidRecipient = errors.New("invalid recipient address")

// Mailer delivers a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg *models.Message) error
}

// Classify maps certificate presence to a variant. Every combination maps to
// exactly one variant.
func Classify(hasAttendance, hasProficiency bool) models.Variant {
	switch {
	case hasAttendance && hasProficiency:
		return models.VariantBothCerts
	case hasAttendance:
		return models.VariantAttendanceOnly
	case hasProficiency:
		return models.VariantProficiencyOnly
	default:
		return models.VariantFeedbackOnly
	}
}

// Notifier renders variant templates and hands them to a Mailer.
type Notifier struct {
	mailer Mailer
}

// NewNotifier creates a notifier that sends through mailer.
func NewNotifier(mailer Mailer) *Notifier {
	return &Notifier{mailer: mailer}
}

// Compose builds the message for a recipient without sending it.
func Compose(v models.Variant, to, name string, attachments []models.Attachment) (*models.Message, error) {
	if strings.ContainsAny(to, "\r\n") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecipient, to)
	}
	subject, plain, htmlBody, err := Render(v, name)
	if err != nil {
		return nil, err
	}
	return &models.Message{
		To:          to,
		Subject:     subject,
		PlainBody:   plain,
		HTMLBody:    htmlBody,
		Attachments: attachments,
	}, nil
}

// Notify sends one email of the given variant. Send failures are logged and
// returned; there is no retry.
func (n *Notifier) Notify(ctx context.Context, v models.Variant, to, name string, attachments []models.Attachment) error {
	msg, err := Compose(v, to, name, attachments)
	if err != nil {
		slog.Error("error composing email",
			"email", to,
			"variant", v,
			"error", err,
		)
		return err
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		slog.Error("error sending email",
			"email", to,
			"variant", v,
			"error", err,
		)
		return fmt.Errorf("send %s email to %s: %w", v, to, err)
	}

	slog.Info("email sent successfully",
		"email", to,
		"variant", v,
		"attachments", len(attachments),
	)
	return nil
}
