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

package cloud_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformTriggerConfine(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "raw"), 0o755))

	got, err := cloud.TransformTrigger{
		SourceDir: filepath.Join(root, "raw"),
		DestDir:   filepath.Join(root, "out", "..", "out", "run1"),
	}.Confine([]string{root})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "raw"), got.SourceDir)
	assert.Equal(t, filepath.Join(root, "out", "run1"), got.DestDir)

	// The root itself is allowed.
	_, err = cloud.TransformTrigger{SourceDir: root, DestDir: root}.Confine([]string{root})
	assert.NoError(t, err)
}

func TestTransformTriggerConfineRejects(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	cases := []struct {
		name  string
		dest  string
		roots []string
	}{
		{"sibling", outside, []string{root}},
		{"dot-dot", filepath.Join(root, "..", filepath.Base(outside)), []string{root}},
		{"prefix only", root + "-other", []string{root}},
		{"through symlink", filepath.Join(root, "link", "out"), []string{root}},
		{"no roots", root, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := cloud.TransformTrigger{SourceDir: root, DestDir: tc.dest}.Confine(tc.roots)
			require.ErrorIs(t, err, cloud.ErrOutsideRoots)
		})
	}

	_, err := cloud.TransformTrigger{SourceDir: outside, DestDir: root}.Confine([]string{root})
	require.ErrorIs(t, err, cloud.ErrOutsideRoots)
	assert.Contains(t, err.Error(), "src_dir")
}

func TestRunRoots(t *testing.T) {
	c := cloud.NewConfig()
	assert.Equal(t, []string{"raw_data", "transformed_data"}, c.RunRoots())

	c.Server.AllowedRoots = []string{"/mnt/media"}
	assert.Equal(t, []string{"/mnt/media"}, c.RunRoots())
}
