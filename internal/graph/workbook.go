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

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// worksheetsResponse is a page of /workbook/worksheets.
type worksheetsResponse struct {
	Value []struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	} `json:"value"`
}

// rangeResponse is the subset of a workbookRange we read. Text holds each
// cell as displayed, which keeps number formatting consistent with the sheet.
type rangeResponse struct {
	Address string     `json:"address"`
	Text    [][]string `json:"text"`
}

// Workbook reads the roster from an Excel workbook stored on a drive.
type Workbook struct {
	client *Client
	drive  string
	itemID string
	sheet  string
}

// NewWorkbook creates a roster source for the workbook item on the drive at
// drivePath. An empty sheet selects the first worksheet.
func NewWorkbook(client *Client, drivePath, itemID, sheet string) *Workbook {
	return &Workbook{client: client, drive: drivePath, itemID: itemID, sheet: sheet}
}

// ReadAll returns the used range of the worksheet, header first.
func (w *Workbook) ReadAll(ctx context.Context) ([][]string, error) {
	base := fmt.Sprintf("%s/items/%s/workbook", w.drive, url.PathEscape(w.itemID))

	sheet := w.sheet
	if sheet == "" {
		var ws worksheetsResponse
		if err := w.client.getJSON(ctx, base+"/worksheets", &ws); err != nil {
			return nil, fmt.Errorf("list worksheets: %w", err)
		}
		if len(ws.Value) == 0 {
			return nil, fmt.Errorf("workbook %s has no worksheets", w.itemID)
		}
		first := ws.Value[0]
		for _, s := range ws.Value[1:] {
			if s.Position < first.Position {
				first = s
			}
		}
		sheet = first.Name
	}

	// Worksheet names are quoted OData keys; a single quote is doubled.
	key := url.PathEscape("'" + strings.ReplaceAll(sheet, "'", "''") + "'")
	path := fmt.Sprintf("%s/worksheets(%s)/usedRange(valuesOnly=true)", base, key)

	var rng rangeResponse
	if err := w.client.getJSON(ctx, path, &rng); err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", sheet, err)
	}

	slog.Info("roster loaded from workbook",
		"item_id", w.itemID,
		"sheet", sheet,
		"address", rng.Address,
		"rows", len(rng.Text),
	)
	return rng.Text, nil
}
