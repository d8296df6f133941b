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

package models

import (
	"math"
	"strconv"
	"strings"
)

// Variant identifies which of the four notification emails a row receives.
type Variant string

const (
	VariantBothCerts       Variant = "BOTH_CERTS"
	VariantAttendanceOnly  Variant = "ATTENDANCE_ONLY"
	VariantProficiencyOnly Variant = "PROFICIENCY_ONLY"
	VariantFeedbackOnly    Variant = "FEEDBACK_ONLY"
)

// Scores holds the six metric values of a row as they appear in the sheet.
// An empty string means the cell was blank.
type Scores struct {
	Attendance          string `json:"attendance"`
	Punctuality         string `json:"punctuality"`
	Assessment          string `json:"assessment"`
	IndividualClasswork string `json:"individual_classwork"`
	Presentation        string `json:"presentation"`
	Percentage          string `json:"percentage"`
}

// RosterRow is one recipient record from the roster.
type RosterRow struct {
	Row                int    `json:"row"` // 1-based sheet row; the header is row 1
	Name               string `json:"name"`
	Email              string `json:"email"`
	AttendanceCertRef  string `json:"attendance_cert_ref"`
	ProficiencyCertRef string `json:"proficiency_cert_ref"`
	Scores             Scores `json:"scores"`
}

// HasEmail reports whether the row has a recipient address.
func (r RosterRow) HasEmail() bool {
	return strings.TrimSpace(r.Email) != ""
}

// HasAttendanceCert reports whether an attendance certificate reference is present.
func (r RosterRow) HasAttendanceCert() bool {
	return strings.TrimSpace(r.AttendanceCertRef) != ""
}

// HasProficiencyCert reports whether a proficiency certificate reference is present.
func (r RosterRow) HasProficiencyCert() bool {
	return strings.TrimSpace(r.ProficiencyCertRef) != ""
}

// PercentageValue parses the overall percentage. A blank or non-numeric
// value yields NaN, which compares false against every threshold.
// A trailing "%" is accepted.
func (s Scores) PercentageValue() float64 {
	v := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s.Percentage), "%"))
	if v == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
