// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extractors

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
)

// ColumnStore holds the rows accepted by one extractor, column by column.
// Every column always has the same number of values.
type ColumnStore struct {
	columns []string
	values  map[string][]any
	rows    int
}

// NewColumnStore creates an empty store with the given columns in declared order.
func NewColumnStore(columns ...string) *ColumnStore {
	values := make(map[string][]any, len(columns))
	for _, c := range columns {
		values[c] = make([]any, 0)
	}
	return &ColumnStore{columns: columns, values: values}
}

// Append adds one row. The row must have exactly the store's columns; a
// partial or oversized row is rejected and the store is left unchanged.
func (s *ColumnStore) Append(row map[string]any) error {
	if len(row) != len(s.columns) {
		return fmt.Errorf("row has %d values, store has %d columns", len(row), len(s.columns))
	}
	for _, c := range s.columns {
		if _, ok := row[c]; !ok {
			return fmt.Errorf("row is missing column %q", c)
		}
	}
	for _, c := range s.columns {
		s.values[c] = append(s.values[c], row[c])
	}
	s.rows++
	return nil
}

// Len returns the number of rows.
func (s *ColumnStore) Len() int {
	return s.rows
}

// Columns returns a copy of the declared column names.
func (s *ColumnStore) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Column returns the values of one column, or nil for an unknown column.
func (s *ColumnStore) Column(name string) []any {
	return s.values[name]
}

// WriteCSV writes the store as CSV: a header row made of an unnamed index
// column followed by the declared columns, then one line per row prefixed
// with its zero-based index.
func (s *ColumnStore) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{""}, s.columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	line := make([]string, len(header))
	for i := 0; i < s.rows; i++ {
		line[0] = strconv.Itoa(i)
		for j, c := range s.columns {
			cell, err := FormatCell(s.values[c][i])
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", i, c, err)
			}
			line[j+1] = cell
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatCell renders one value as CSV cell text. Strings are written as is,
// numbers keep their literal JSON text, null is empty and lists or objects
// are written as compact JSON, e.g. ["Tom Hanks","Meg Ryan"].
func FormatCell(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case []any, []string, map[string]any, model.Record:
		return model.JSON.MarshalToString(t)
	}
	return fmt.Sprint(v), nil
}
