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

// Package test provides utility functions and sample data to support the
// application's test suite. It loads the test configuration and lays out raw
// data trees in temporary directories.
package test

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
)

// StateManager caches the test configuration so the files are decoded once
// per test binary.
type StateManager struct {
	once   sync.Once
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test if err is not nil.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// ConfigDir returns the absolute path of the repository's configs directory.
func ConfigDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "configs"
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "configs")
}

// SetupOS points the configuration loader at the repository's configs
// directory and the "test" runtime (configs/.env.test.toml).
//
// Returns:
//   - An error if setting any environment variable fails.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, ConfigDir())
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig returns the cached test configuration, loading it on first use.
// Tests that change the configuration must work on a copy (see CopyConfig).
func GetConfig() *cloud.Config {
	state.once.Do(func() {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		state.config = config
	})
	return state.config
}

// CopyConfig returns a shallow copy of the test configuration, safe to modify
// outside the maps and slices.
func CopyConfig() *cloud.Config {
	c := *GetConfig()
	return &c
}

// WriteRawFile writes content to <root>/<subdir>/<name>, creating the
// directories as needed, and returns the file path.
func WriteRawFile(t *testing.T, root string, subdir string, name string, content string) string {
	t.Helper()
	dir := filepath.Join(root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", p, err)
	}
	return p
}

// ReadCSV reads a task CSV and returns its header and data rows.
func ReadCSV(t *testing.T, path string) (header []string, rows [][]string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if len(all) == 0 {
		t.Fatalf("%s has no header", path)
	}
	return all[0], all[1:]
}

// Concat joins records the way the raw files store them: one JSON object
// after the other, separated by a newline, without commas or brackets.
func Concat(records ...string) string {
	return strings.Join(records, "\n") + "\n"
}

// Movie returns a raw movie record with a single director and two cast members.
func Movie(id int, title string) string {
	return fmt.Sprintf(`{
  "id": %d,
  "media_type": "MOVIE",
  "title": %q,
  "popularity": 12.5,
  "vote_count": 1200,
  "vote_average": 7.0,
  "budget": 18000000,
  "runtime": 104,
  "genre_ids": [14, 35],
  "reviews": [{"content": "A classic."}],
  "production_countries": [{"iso_3166_1": "US", "name": "United States of America"}],
  "production_companies": [{"id": 1, "name": "Gracie Films"}],
  "crew": [
    {"name": "Penny Marshall", "job": "Director"},
    {"name": "Gary Ross", "job": "Screenplay"}
  ],
  "cast": [
    {"name": "Tom Hanks", "order": 0},
    {"name": "Elizabeth Perkins", "order": 1}
  ]
}`, id, title)
}

// Show returns a raw TV show record with the given number of seasons.
func Show(id int, name string, seasons int) string {
	return fmt.Sprintf(`{
  "id": %d,
  "media_type": "TV",
  "name": %q,
  "title": %q,
  "number_of_seasons": %d,
  "status": "Ended",
  "popularity": 40.1,
  "vote_average": 8.5,
  "genre_ids": [18],
  "created_by": [{"name": "Vince Gilligan"}],
  "credits": {"cast": [{"name": "Bryan Cranston", "order": 0}, {"name": "Aaron Paul", "order": 1}]}
}`, id, name, name, seasons)
}
