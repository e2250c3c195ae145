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

// Package extractors implements the per-analysis extractors. Each extractor
// consumes repaired media records one at a time, keeps the ones relevant to
// its analysis task as rows in its own column store, and finally flushes the
// store to `<task>.csv`.
//
// An extractor has two states. It starts ACCEPTING; Flush moves it to FLUSHED
// for good, after which Consume and Flush both return ErrExtractorFlushed.
// Extractors are not safe for concurrent use: each one is owned by the single
// task group that created it.
package extractors

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
)

// ErrExtractorFlushed is returned by Consume and Flush once an extractor has been flushed.
var ErrExtractorFlushed = errors.New("extractor already flushed")

// Extractor is the consume/flush protocol shared by all analysis tasks.
type Extractor interface {
	// Consume offers one record (plus the group's per-file metadata). It
	// returns true if a row was appended. A filtered or duplicate record is
	// not an error; a record lacking a field the task needs is.
	Consume(record model.Record, meta model.Metadata) (bool, error)
	// Flush writes the accepted rows to <targetDir>/<task>.csv and returns
	// the path written.
	Flush(ctx context.Context, targetDir string) (string, error)
	// WhichTask returns the immutable task name, e.g. "task_1".
	WhichTask() string
	// Columns returns the declared column order of the output.
	Columns() []string
	// Rows returns the number of rows accepted so far.
	Rows() int
}

// rowMapper builds one complete row from a record. keep is false when the
// task's own guard skips the record.
type rowMapper func(record model.Record, meta model.Metadata) (row map[string]any, keep bool, err error)

// baseExtractor implements the filtering, deduplication and flushing that
// every task shares; the tasks only differ in their columns and rowMapper.
type baseExtractor struct {
	name       string
	moviesOnly bool
	titleKey   string
	store      *ColumnStore
	seen       map[string]struct{}
	mapRow     rowMapper
	flushed    bool
}

func newBaseExtractor(name string, moviesOnly bool, titleKey string, mapRow rowMapper, columns ...string) *baseExtractor {
	return &baseExtractor{
		name:       name,
		moviesOnly: moviesOnly,
		titleKey:   titleKey,
		store:      NewColumnStore(columns...),
		seen:       make(map[string]struct{}),
		mapRow:     mapRow,
	}
}

func (e *baseExtractor) WhichTask() string {
	return e.name
}

func (e *baseExtractor) Columns() []string {
	return e.store.Columns()
}

func (e *baseExtractor) Rows() int {
	return e.store.Len()
}

// Consume applies the shared filters and then the task's row mapping.
//
// Logic Flow:
//  1. Movie-only tasks drop records whose media_type is not "MOVIE".
//  2. A title already seen by this extractor is dropped. Titles are compared
//     exactly, so "Big" and "Big " are different titles.
//  3. The task builds the whole row; a missing field fails the record before
//     anything is stored.
//  4. The row is appended and only then is the title registered as seen.
func (e *baseExtractor) Consume(record model.Record, meta model.Metadata) (bool, error) {
	if e.flushed {
		return false, ErrExtractorFlushed
	}
	if e.moviesOnly {
		mediaType, err := record.GetString("media_type")
		if err != nil {
			return false, fmt.Errorf("%s: %w", e.name, err)
		}
		if mediaType != model.MediaTypeMovie {
			return false, nil
		}
	}
	title, err := record.GetString(e.titleKey)
	if err != nil {
		return false, fmt.Errorf("%s: %w", e.name, err)
	}
	if _, dup := e.seen[title]; dup {
		return false, nil
	}
	row, keep, err := e.mapRow(record, meta)
	if err != nil {
		return false, fmt.Errorf("%s: %w", e.name, err)
	}
	if !keep {
		return false, nil
	}
	if err := e.store.Append(row); err != nil {
		return false, fmt.Errorf("%s: %w", e.name, err)
	}
	e.seen[title] = struct{}{}
	return true, nil
}

// Flush writes the store to <targetDir>/<task>.csv through a temporary file
// that is renamed into place, so a reader never sees a half-written CSV. The
// extractor is FLUSHED afterwards even if writing failed.
func (e *baseExtractor) Flush(ctx context.Context, targetDir string) (string, error) {
	if e.flushed {
		return "", ErrExtractorFlushed
	}
	e.flushed = true
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("%s: creating %s: %w", e.name, targetDir, err)
	}

	target := filepath.Join(targetDir, e.name+".csv")
	tmp, err := os.CreateTemp(targetDir, "."+e.name+"-*.csv.tmp")
	if err != nil {
		return "", fmt.Errorf("%s: %w", e.name, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = e.store.WriteCSV(w); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%s: writing csv: %w", e.name, err)
	}
	if err = w.Flush(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%s: writing csv: %w", e.name, err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("%s: closing csv: %w", e.name, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("%s: %w", e.name, err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("%s: %w", e.name, err)
	}
	return target, nil
}
