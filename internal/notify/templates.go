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
	"fmt"
	"html"
	"strings"

	"github.com/dataschool/certmailer/internal/models"
)

// wording holds the wording of one notification variant.
type wording struct {
	Subject    string
	Paragraphs []string
}

const feedbackInsights = "Additionally, we've included your personalized feedback document, which provides insights into your performance metrics and areas where you've excelled, as well as recommendations for future growth."

var templates = map[models.Variant]wording{
	models.VariantAttendanceOnly: {
		Subject: "Your Data School Program Attendance Certificate and Feedback",
		Paragraphs: []string{
			"Thank you for your participation in the May 2025 Data School Program! We appreciate your dedication and engagement throughout the program.",
			"We are pleased to provide you with your Certificate of Attendance, recognizing your commitment to professional development and active participation in the program.",
			feedbackInsights,
			"Your certificate and feedback are attached to this email. We encourage you to share your certificate on your professional profiles.",
			"We hope the insights and knowledge you've gained during the program will be valuable in your professional journey.",
		},
	},
	models.VariantProficiencyOnly: {
		Subject: "Congratulations on Your Data School Program Proficiency Achievement",
		Paragraphs: []string{
			"Congratulations on achieving proficiency in the May 2025 Data School Program! Your performance has been exceptional.",
			"We are pleased to provide you with your Certificate of Proficiency, which recognizes your mastery of the program content and successful demonstration of the required skills.",
			feedbackInsights,
			"Your certificate and feedback are attached to this email. We encourage you to showcase your certificate on your professional profiles as a testament to your expertise.",
			"We hope the specialized skills you've developed will enhance your professional capabilities and open new opportunities for you.",
		},
	},
	models.VariantBothCerts: {
		Subject: "Congratulations on Completing the Data School Program - Your Certificates",
		Paragraphs: []string{
			"Congratulations on your outstanding achievement in the May 2025 Data School Program! We are thrilled to recognize your commitment and excellence throughout the program.",
			"We are pleased to provide you with both your Certificate of Attendance and Certificate of Proficiency, which recognize your full participation and mastery of the program content. These certificates reflect your dedication to professional growth and the skills you've developed during the program.",
			feedbackInsights,
			"Your certificates and feedback are attached to this email. Feel free to share your certificates on your professional profiles and with your network.",
			"Thank you for your active participation and remarkable performance. We hope the knowledge and skills you've gained will contribute significantly to your professional journey.",
		},
	},
	models.VariantFeedbackOnly: {
		Subject: "Your Data School Program Feedback",
		Paragraphs: []string{
			"Thank you for your participation in the May 2025 Data School Program.",
			"We've prepared a personalized feedback document for you, which provides insights into your performance metrics throughout the program, as well as recommendations for future growth.",
			"Your feedback document is attached to this email. We hope you find the assessment helpful as you continue your professional development journey.",
			"We appreciate your engagement with the program and wish you success in your future endeavors.",
		},
	},
}

// Render produces the subject and both bodies of a variant for a recipient.
func Render(v models.Variant, name string) (subject, plain, htmlBody string, err error) {
	tpl, ok := templates[v]
	if !ok {
		return "", "", "", fmt.Errorf("no template for variant %q", v)
	}

	var p strings.Builder
	fmt.Fprintf(&p, "Dear %s,\n\n", name)
	for _, para := range tpl.Paragraphs {
		p.WriteString(para)
		p.WriteString("\n\n")
	}
	p.WriteString("Best regards,\nThe Data School Program Team")

	var h strings.Builder
	h.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	h.WriteString("\n")
	fmt.Fprintf(&h, "    <p>Dear %s,</p>\n", html.EscapeString(name))
	for _, para := range tpl.Paragraphs {
		fmt.Fprintf(&h, "    <p>%s</p>\n", para)
	}
	h.WriteString("    <p>Best regards,<br>\n    The Data School Program Team</p>\n</div>")

	return tpl.Subject, p.String(), h.String(), nil
}
