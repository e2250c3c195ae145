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

package cloud

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideRoots is returned by Confine for a directory outside every allowed root.
var ErrOutsideRoots = errors.New("directory is outside the allowed roots")

// GetTransformTriggerName returns the context key under which the parsed
// TransformTrigger of a Pub/Sub message is stored.
func GetTransformTriggerName() string {
	return "__TRANSFORM__TRIGGER__"
}

// TransformTrigger is the payload of a message on the TransformTrigger
// subscription:
//
//	{"src_dir": "/mnt/raw_data", "dest_dir": "/mnt/transformed_data"}
//
// Blank fields fall back to the configured pipeline directories.
type TransformTrigger struct {
	SourceDir string `json:"src_dir"`  // Raw data directory for this run.
	DestDir   string `json:"dest_dir"` // Output directory for this run.
}

// WithDefaults returns a copy with blank directories replaced from p.
func (t TransformTrigger) WithDefaults(p Pipeline) TransformTrigger {
	if t.SourceDir == "" {
		t.SourceDir = p.SourceDir
	}
	if t.DestDir == "" {
		t.DestDir = p.DestDir
	}
	return t
}

// Confine resolves both directories to absolute paths, following symbolic
// links of the parts that exist, and checks that each lies inside one of
// roots. The returned trigger holds the resolved paths.
func (t TransformTrigger) Confine(roots []string) (TransformTrigger, error) {
	resolved := make([]string, 0, len(roots))
	for _, root := range roots {
		if root == "" {
			continue
		}
		r, err := resolvePath(root)
		if err != nil {
			return t, fmt.Errorf("resolving root %s: %w", root, err)
		}
		resolved = append(resolved, r)
	}

	src, err := confinePath(t.SourceDir, resolved)
	if err != nil {
		return t, fmt.Errorf("src_dir: %w", err)
	}
	dest, err := confinePath(t.DestDir, resolved)
	if err != nil {
		return t, fmt.Errorf("dest_dir: %w", err)
	}
	return TransformTrigger{SourceDir: src, DestDir: dest}, nil
}

func confinePath(dir string, roots []string) (string, error) {
	p, err := resolvePath(dir)
	if err != nil {
		return "", err
	}
	for _, root := range roots {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrOutsideRoots, dir)
}

// resolvePath makes p absolute and evaluates the symbolic links of its longest
// existing prefix. The missing remainder is appended unchanged.
func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	dir, rest := abs, ""
	for {
		if real, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(real, rest), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}
