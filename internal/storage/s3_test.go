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

package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestStore(t *testing.T, h http.HandlerFunc) *S3Store {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	store, err := NewS3Store(S3Config{
		Bucket:    "certs",
		Prefix:    "may-2025/",
		Region:    "us-east-1",
		Endpoint:  server.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	return store
}

func TestS3Store_GetFile(t *testing.T) {
	var gotPath string
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 certificate"))
	})

	data, err := store.GetFile(context.Background(), "1AbCdEfGhIjKlMnOpQrStUvWxYz")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if string(data) != "%PDF-1.4 certificate" {
		t.Errorf("unexpected content %q", data)
	}
	if gotPath != "/certs/may-2025/1AbCdEfGhIjKlMnOpQrStUvWxYz" {
		t.Errorf("unexpected request path %q", gotPath)
	}
}

func TestS3Store_NotFound(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
	})

	_, err := store.GetFile(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestS3Store_Key(t *testing.T) {
	s := &S3Store{prefix: "certs/"}
	if got := s.Key("abc"); got != "certs/abc" {
		t.Errorf("Key = %q", got)
	}
}
