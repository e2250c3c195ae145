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
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	test "github.com/jaycherian/gcp-go-media-transform/internal/testutil"
	"github.com/zeebo/assert"
)

func writeConfig(t *testing.T, dir string, name string, content string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestConfigDefaults(t *testing.T) {
	c := cloud.NewConfig()
	assert.Equal(t, c.Pipeline.SourceDir, "raw_data")
	assert.Equal(t, c.Pipeline.DestDir, "transformed_data")
	assert.Equal(t, c.Pipeline.MoviesSubdir, "tasks_1_2_5")
	assert.Equal(t, c.Pipeline.RegionsSubdir, "task_3")
	assert.Equal(t, c.Pipeline.ShowsSubdir, "task_4")
	assert.Equal(t, c.Pipeline.Task2CastLimit, 100)
	assert.Equal(t, c.Pipeline.Task4CastLimit, 20)
	assert.False(t, c.HasGCSExport())
	assert.False(t, c.HasBigQueryExport())
}

func TestLoadConfigLayersRuntimeOverBase(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".env.toml", `
[application]
google_project_id = "base-project"

[pipeline]
source_dir = "/data/raw"
task_4_cast_limit = 10

[storage]
output_bucket = "base-bucket"
`)
	writeConfig(t, dir, ".env.staging.toml", `
[pipeline]
source_dir = "/staging/raw"

[topic_subscriptions.TransformTrigger]
name = "staging-sub"
runs_per_minute = 3
`)

	c := cloud.NewConfig()
	assert.NoError(t, cloud.LoadConfigFrom(dir, "staging", c))

	assert.Equal(t, c.Application.GoogleProjectId, "base-project")
	assert.Equal(t, c.Pipeline.SourceDir, "/staging/raw")
	assert.Equal(t, c.Pipeline.Task4CastLimit, 10)
	// Untouched keys keep their defaults.
	assert.Equal(t, c.Pipeline.DestDir, "transformed_data")
	assert.Equal(t, c.Pipeline.Task2CastLimit, 100)
	assert.True(t, c.HasGCSExport())
	assert.Equal(t, c.TopicSubscriptions[cloud.TransformTriggerSubscription].Name, "staging-sub")
	assert.Equal(t, c.TopicSubscriptions[cloud.TransformTriggerSubscription].RunsPerMinute, 3)
}

func TestLoadConfigMissingFilesKeepDefaults(t *testing.T) {
	c := cloud.NewConfig()
	assert.NoError(t, cloud.LoadConfigFrom(t.TempDir(), "nowhere", c))
	assert.DeepEqual(t, c, cloud.NewConfig())
}

func TestLoadConfigReportsBadFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".env.toml", "[pipeline\nsource_dir = ")
	err := cloud.LoadConfigFrom(dir, "local", cloud.NewConfig())
	assert.Error(t, err)
	assert.That(t, strings.Contains(err.Error(), filepath.Join(dir, ".env.toml")))
}

func TestConfigFilesUseEnvironment(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, "conf")
	t.Setenv(cloud.EnvConfigRuntime, "")
	base, env := cloud.ConfigFiles("", "")
	assert.Equal(t, base, filepath.Join("conf", ".env.toml"))
	assert.Equal(t, env, filepath.Join("conf", ".env.local.toml"))
}

func TestRepositoryTestConfig(t *testing.T) {
	c := test.GetConfig()
	assert.Equal(t, c.Application.Name, "media-transform-test")
	assert.False(t, c.HasGCSExport())
	assert.False(t, c.HasBigQueryExport())
	assert.Equal(t, len(c.TopicSubscriptions), 0)
	assert.False(t, c.Telemetry.Enabled)
}
