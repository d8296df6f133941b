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
	"net/http"
	"net/url"
)

// DrivePath returns the Graph path prefix of a drive. A non-empty driveID
// addresses a shared drive; otherwise the user's OneDrive is used.
func DrivePath(user, driveID string) string {
	if driveID != "" {
		return "/drives/" + url.PathEscape(driveID)
	}
	return "/users/" + url.PathEscape(user) + "/drive"
}

// DriveStore fetches certificate files stored as drive items.
type DriveStore struct {
	client *Client
	drive  string
}

// NewDriveStore creates a file store for the drive at drivePath.
func NewDriveStore(client *Client, drivePath string) *DriveStore {
	return &DriveStore{client: client, drive: drivePath}
}

// GetFile downloads the content of a drive item. A missing item yields
// ErrNotFound.
func (s *DriveStore) GetFile(ctx context.Context, fileID string) ([]byte, error) {
	path := fmt.Sprintf("%s/items/%s/content", s.drive, url.PathEscape(fileID))

	data, err := s.client.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, fmt.Errorf("download drive item %s: %w", fileID, err)
	}

	slog.Debug("drive item downloaded", "item_id", fileID, "bytes", len(data))
	return data, nil
}
