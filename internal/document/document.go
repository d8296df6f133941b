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

// Package document defines the structured content model for generated
// documents and the service contract that turns it into a PDF.
package document

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
)

// Kind is the type of a content block.
type Kind int

const (
	Heading Kind = iota
	Paragraph
	Rule
	Table
)

// Block is one element of a document body.
type Block struct {
	Kind  Kind
	Level int        // heading level, 1 or 2
	Text  string     // heading or paragraph text; newlines are line breaks
	Rows  [][]string // table rows, the first row is the header
}

// H1 returns a level one heading.
func H1(text string) Block { return Block{Kind: Heading, Level: 1, Text: text} }

// H2 returns a level two heading.
func H2(text string) Block { return Block{Kind: Heading, Level: 2, Text: text} }

// P returns a paragraph.
func P(text string) Block { return Block{Kind: Paragraph, Text: text} }

// HR returns a horizontal rule.
func HR() Block { return Block{Kind: Rule} }

// T returns a table whose first row is the header.
func T(rows ...[]string) Block { return Block{Kind: Table, Rows: rows} }

// Handle identifies a document held by a Service.
type Handle struct {
	ID    string
	Title string
}

// Service creates, fills, exports, and deletes documents in a rendering
// backend. Export returns PDF bytes.
type Service interface {
	Create(ctx context.Context, title string) (Handle, error)
	Append(ctx context.Context, h Handle, blocks []Block) error
	Export(ctx context.Context, h Handle) ([]byte, error)
	Delete(ctx context.Context, h Handle) error
}

var page = template.Must(template.New("doc").Funcs(template.FuncMap{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: Arial, sans-serif;">
{{- range .Blocks}}
{{- if eq .Kind 0}}
{{- if eq .Level 1}}
<h1>{{.Text}}</h1>
{{- else}}
<h2>{{.Text}}</h2>
{{- end}}
{{- else if eq .Kind 1}}
<p>{{range $i, $l := lines .Text}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>
{{- else if eq .Kind 2}}
<hr>
{{- else if eq .Kind 3}}
<table border="1" cellpadding="4" cellspacing="0">
{{- range $i, $r := .Rows}}
<tr>{{range $r}}{{if eq $i 0}}<th>{{.}}</th>{{else}}<td>{{.}}</td>{{end}}{{end}}</tr>
{{- end}}
</table>
{{- end}}
{{- end}}
</body>
</html>
`))

// RenderHTML renders blocks into a standalone HTML page. The output depends
// only on its inputs.
func RenderHTML(title string, blocks []Block) ([]byte, error) {
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Title  string
		Blocks []Block
	}{title, blocks})
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}
