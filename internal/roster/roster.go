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

// Package roster reads the recipient table and maps its named columns onto
// RosterRow values.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dataschool/certmailer/internal/models"
)

// Column headers of the roster sheet.
const (
	ColName         = "NAME"
	ColEmail        = "EMAIL ADDRESS"
	ColAttendance   = "Certificate of Attendance"
	ColProficiency  = "Certificate of Proficiency"
	ColAttendanceSc = "Attendance Score"
	ColPunctuality  = "Punctuality Score"
	ColAssessment   = "Assessment Score"
	ColClasswork    = "Individual Classwork"
	ColPresentation = "Presentation Score"
	ColPercentage   = "Percentage %"
)

// requiredColumns must be present in the header row.
var requiredColumns = []string{ColName, ColEmail}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("roster missing required column")

// Source supplies the roster as a header row followed by data rows.
type Source interface {
	ReadAll(ctx context.Context) ([][]string, error)
}

// Load reads every row from src and maps it onto RosterRows in input order.
func Load(ctx context.Context, src Source) ([]models.RosterRow, error) {
	table, err := src.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(table)
}

// Parse maps a table whose first row is the header onto RosterRows. Headers
// are matched exactly after trimming whitespace; column order does not
// matter. Short rows are padded with blanks.
func Parse(table [][]string) ([]models.RosterRow, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrMissingColumn)
	}

	index := make(map[string]int, len(table[0]))
	for i, h := range table[0] {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rows := make([]models.RosterRow, 0, len(table)-1)
	for n, r := range table[1:] {
		rows = append(rows, models.RosterRow{
			Row:                n + 2,
			Name:               cell(r, ColName),
			Email:              cell(r, ColEmail),
			AttendanceCertRef:  cell(r, ColAttendance),
			ProficiencyCertRef: cell(r, ColProficiency),
			Scores: models.Scores{
				Attendance:          cell(r, ColAttendanceSc),
				Punctuality:         cell(r, ColPunctuality),
				Assessment:          cell(r, ColAssessment),
				IndividualClasswork: cell(r, ColClasswork),
				Presentation:        cell(r, ColPresentation),
				Percentage:          cell(r, ColPercentage),
			},
		})
	}

	return rows, nil
}
