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

package roster

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"
)

// ExcelSource reads the roster from an .xlsx workbook.
type ExcelSource struct {
	open  func() (io.ReadCloser, error)
	sheet string
}

// NewExcelFile reads the roster from a workbook on disk. An empty sheet
// selects the first sheet.
func NewExcelFile(path, sheet string) *ExcelSource {
	return &ExcelSource{
		open:  func() (io.ReadCloser, error) { return os.Open(path) },
		sheet: sheet,
	}
}

// NewExcelBytes reads the roster from an in-memory workbook.
func NewExcelBytes(data []byte, sheet string) *ExcelSource {
	return &ExcelSource{
		open:  func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		sheet: sheet,
	}
}

// ReadAll returns every row of the selected sheet, header first.
func (s *ExcelSource) ReadAll(_ context.Context) ([][]string, error) {
	r, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer r.Close()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	slog.Info("roster loaded from workbook", "sheet", sheet, "rows", len(rows))
	return rows, nil
}
