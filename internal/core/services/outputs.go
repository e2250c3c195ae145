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

package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// OutputService previews the task CSVs in a local output directory.
type OutputService struct {
	Dir string // The directory the pipeline flushed to.
}

// Preview reads the header and the first limit rows of <Dir>/<task>.csv.
// Cells are returned as the strings written to the file.
//
// Inputs:
//   - ctx: Unused; present to satisfy Previewer.
//   - task: A known task name.
//   - limit: Maximum rows; zero or less means DefaultPreviewLimit, above
//     MaxPreviewLimit is ErrLimitTooLarge.
//
// Outputs:
//   - *TaskPreview: The preview; Columns holds the header row as written.
//   - error: ErrUnknownTask, ErrLimitTooLarge, os.ErrNotExist when the task was never flushed,
//     or a CSV parse error.
func (s *OutputService) Preview(_ context.Context, task string, limit int) (*TaskPreview, error) {
	if err := checkTask(task); err != nil {
		return nil, err
	}
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	p := filepath.Join(s.Dir, task+".csv")
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", p, err)
	}
	out := &TaskPreview{Task: task, Source: p, Columns: header, Rows: make([]map[string]any, 0)}
	for len(out.Rows) < limit {
		line, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(line) {
				row[col] = line[i]
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
