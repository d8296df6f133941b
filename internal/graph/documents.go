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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dataschool/certmailer/internal/document"
)

// driveItem is the subset of a Graph driveItem we read.
type driveItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Documents renders documents as HTML drive items in a scratch folder and
// exports them through the drive's PDF conversion.
type Documents struct {
	client *Client
	drive  string
	folder string

	mu     sync.Mutex
	blocks map[string][]document.Block // item ID -> content written so far
}

// NewDocuments creates a document service writing into folder on the drive
// at drivePath.
func NewDocuments(client *Client, drivePath, folder string) *Documents {
	return &Documents{
		client: client,
		drive:  drivePath,
		folder: strings.Trim(folder, "/"),
		blocks: make(map[string][]document.Block),
	}
}

// Create uploads an empty document and returns its handle.
func (d *Documents) Create(ctx context.Context, title string) (document.Handle, error) {
	name := uuid.New().String() + ".html"
	if d.folder != "" {
		name = d.folder + "/" + name
	}

	body, err := document.RenderHTML(title, nil)
	if err != nil {
		return document.Handle{}, err
	}

	path := fmt.Sprintf("%s/root:/%s:/content", d.drive, escapeItemPath(name))
	data, err := d.client.do(ctx, http.MethodPut, path, bytes.NewReader(body), "text/html")
	if err != nil {
		return document.Handle{}, fmt.Errorf("create document %q: %w", title, err)
	}

	var item driveItem
	if err := json.Unmarshal(data, &item); err != nil {
		return document.Handle{}, fmt.Errorf("decode created drive item: %w", err)
	}

	d.mu.Lock()
	d.blocks[item.ID] = nil
	d.mu.Unlock()

	slog.Debug("document created", "item_id", item.ID, "title", title)
	return document.Handle{ID: item.ID, Title: title}, nil
}

// Append adds blocks to the document and re-uploads its content.
func (d *Documents) Append(ctx context.Context, h document.Handle, blocks []document.Block) error {
	d.mu.Lock()
	all := append(append([]document.Block(nil), d.blocks[h.ID]...), blocks...)
	d.mu.Unlock()

	body, err := document.RenderHTML(h.Title, all)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("%s/items/%s/content", d.drive, url.PathEscape(h.ID))
	if _, err := d.client.do(ctx, http.MethodPut, path, bytes.NewReader(body), "text/html"); err != nil {
		return fmt.Errorf("update document %s: %w", h.ID, err)
	}

	d.mu.Lock()
	d.blocks[h.ID] = all
	d.mu.Unlock()
	return nil
}

// Export converts the document to PDF.
func (d *Documents) Export(ctx context.Context, h document.Handle) ([]byte, error) {
	path := fmt.Sprintf("%s/items/%s/content?format=pdf", d.drive, url.PathEscape(h.ID))
	data, err := d.client.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, fmt.Errorf("export document %s: %w", h.ID, err)
	}
	return data, nil
}

// Delete removes the document from the drive.
func (d *Documents) Delete(ctx context.Context, h document.Handle) error {
	d.mu.Lock()
	delete(d.blocks, h.ID)
	d.mu.Unlock()

	path := fmt.Sprintf("%s/items/%s", d.drive, url.PathEscape(h.ID))
	if _, err := d.client.do(ctx, http.MethodDelete, path, nil, ""); err != nil {
		return fmt.Errorf("delete document %s: %w", h.ID, err)
	}
	return nil
}

// escapeItemPath escapes each segment of a drive-relative path.
func escapeItemPath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
