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
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-media-transform/internal/core/extractors"
)

var (
	// ErrUnknownTask is returned for a task name no extractor produces.
	ErrUnknownTask = errors.New("unknown task")
	// ErrLimitTooLarge is returned when more than MaxPreviewLimit rows are asked for.
	ErrLimitTooLarge = errors.New("preview limit too large")
)

const (
	// DefaultPreviewLimit is used when a caller asks for zero or fewer rows.
	DefaultPreviewLimit = 10
	// MaxPreviewLimit bounds the rows a single preview returns.
	MaxPreviewLimit = 1000
)

// TaskPreview is the first rows of one task table.
type TaskPreview struct {
	Task    string           `json:"task"`    // Task name, e.g. "task_1".
	Source  string           `json:"source"`  // Where the rows were read: a file path or a BigQuery table.
	Columns []string         `json:"columns"` // Column names, index column first.
	Rows    []map[string]any `json:"rows"`    // At most the requested number of rows.
}

// Previewer returns the first rows of a task table.
type Previewer interface {
	Preview(ctx context.Context, task string, limit int) (*TaskPreview, error)
}

// KnownTasks returns every task name in pipeline order.
func KnownTasks() []string {
	return []string{extractors.Task1Name, extractors.Task2Name, extractors.Task3Name, extractors.Task4Name, extractors.Task5Name}
}

// checkTask returns ErrUnknownTask unless task is a known task name.
func checkTask(task string) error {
	for _, known := range KnownTasks() {
		if task == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTask, task)
}

func normalizeLimit(limit int) (int, error) {
	if limit <= 0 {
		return DefaultPreviewLimit, nil
	}
	if limit > MaxPreviewLimit {
		return 0, fmt.Errorf("%w: %d > %d", ErrLimitTooLarge, limit, MaxPreviewLimit)
	}
	return limit, nil
}
