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
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads the roster from a table whose column names match the
// sheet headers, e.g. a CSV import of the roster.
type PostgresSource struct {
	pool    *pgxpool.Pool
	table   string
	orderBy string
}

// NewPostgresSource creates a source reading table ordered by orderBy.
func NewPostgresSource(pool *pgxpool.Pool, table, orderBy string) *PostgresSource {
	return &PostgresSource{pool: pool, table: table, orderBy: orderBy}
}

// Query returns the SELECT statement used to read the roster.
func (s *PostgresSource) Query() string {
	q := "SELECT * FROM " + pgx.Identifier{s.table}.Sanitize()
	if s.orderBy != "" {
		q += " ORDER BY " + pgx.Identifier{s.orderBy}.Sanitize()
	}
	return q
}

// ReadAll returns the column names followed by every row rendered as text.
// NULL becomes a blank cell.
func (s *PostgresSource) ReadAll(ctx context.Context) ([][]string, error) {
	rows, err := s.pool.Query(ctx, s.Query())
	if err != nil {
		return nil, fmt.Errorf("query roster table %s: %w", s.table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	table := [][]string{header}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		table = append(table, textRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster rows: %w", err)
	}

	slog.Info("roster loaded from postgres", "table", s.table, "rows", len(table)-1)
	return table, nil
}

func textRow(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		switch t := v.(type) {
		case nil:
		case pgtype.Numeric:
			if f, err := t.Float64Value(); err == nil && f.Valid {
				out[i] = strconv.FormatFloat(f.Float64, 'f', -1, 64)
			}
		default:
			out[i] = fmt.Sprint(t)
		}
	}
	return out
}
