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

// Package cloud holds the configuration model and the Google Cloud plumbing of
// the transformation service. This file defines the Go structs the TOML
// configuration files are decoded into (see LoadConfig).
//
// The structure mirrors the TOML layout:
//
//	[application]
//	name = "media-transform"
//	google_project_id = "my-project"
//
//	[pipeline]
//	source_dir = "raw_data"
//	dest_dir = "transformed_data"
//
//	[storage]
//	output_bucket = "my-transformed-data"
//
//	[topic_subscriptions.TransformTrigger]
//	name = "media-transform-trigger-sub"
package cloud

// TransformTriggerSubscription is the TopicSubscriptions key of the
// subscription that triggers pipeline runs.
const TransformTriggerSubscription = "TransformTrigger"

// Pipeline holds the settings of the transformation itself.
type Pipeline struct {
	SourceDir      string `toml:"source_dir"`        // Raw data directory, e.g. "raw_data".
	DestDir        string `toml:"dest_dir"`          // Output directory for the task CSVs.
	FileExtension  string `toml:"file_extension"`    // Only files with this extension are read.
	MoviesSubdir   string `toml:"movies_subdir"`     // Raw subdirectory of the movies group.
	RegionsSubdir  string `toml:"regions_subdir"`    // Raw subdirectory of the regions group.
	ShowsSubdir    string `toml:"shows_subdir"`      // Raw subdirectory of the TV shows group.
	Task2CastLimit int    `toml:"task_2_cast_limit"` // Cast entries with order below this are kept by task_2.
	Task4CastLimit int    `toml:"task_4_cast_limit"` // Cast entries with order below this are kept by task_4.
	ParallelGroups bool   `toml:"parallel_groups"`   // Run the task groups concurrently.
}

// Storage describes where flushed CSVs are copied. An empty bucket disables the upload.
type Storage struct {
	OutputBucket string `toml:"output_bucket"` // The name of the destination bucket.
	OutputPrefix string `toml:"output_prefix"` // Object name prefix inside the bucket.
}

// BigQueryDataSource describes where flushed CSVs are loaded. An empty
// dataset disables the load.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`      // The name of the BigQuery dataset.
	TablePrefix string `toml:"table_prefix"` // Prepended to the task name, e.g. "tmdb_" gives "tmdb_task_1".
}

// TopicSubscription holds the configuration for a single Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The timeout for the subscription in seconds.
	RunsPerMinute    int    `toml:"runs_per_minute"`    // Maximum pipeline runs started per minute; 0 means unlimited.
}

// Server holds the settings of the HTTP API.
type Server struct {
	Port           int      `toml:"port"`            // Listen port.
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins.
	RunsPerMinute  int      `toml:"runs_per_minute"` // Rate of accepted POST /runs requests.
	Burst          int      `toml:"burst"`           // Burst size of the run limiter.
	AllowedRoots   []string `toml:"allowed_roots"`   // Directories API runs may read from and write to; empty means the pipeline's source_dir and dest_dir.
}

// Telemetry switches the Google Cloud exporters on.
type Telemetry struct {
	Enabled bool `toml:"enabled"` // Export traces and metrics to Cloud Trace / Cloud Monitoring.
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location.
		CredentialsFile string `toml:"credentials_file"`  // Service account key; empty uses Application Default Credentials.
		MaxRetries      int    `toml:"max_retries"`       // Retries of a failed upload or load job.
	} `toml:"application"`
	Pipeline           Pipeline                     `toml:"pipeline"`              // Transformation settings.
	Storage            Storage                      `toml:"storage"`               // GCS export.
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"` // BigQuery export.
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`   // Pub/Sub subscriptions keyed by a logical name (e.g., "TransformTrigger").
	Server             Server                       `toml:"server"`                // HTTP API.
	Telemetry          Telemetry                    `toml:"telemetry"`             // OpenTelemetry exporters.
}

// NewConfig returns a Config holding the defaults; LoadConfig overlays the
// TOML files on top of it.
func NewConfig() *Config {
	c := &Config{
		Pipeline: Pipeline{
			SourceDir:      "raw_data",
			DestDir:        "transformed_data",
			FileExtension:  ".txt",
			MoviesSubdir:   "tasks_1_2_5",
			RegionsSubdir:  "task_3",
			ShowsSubdir:    "task_4",
			Task2CastLimit: 100,
			Task4CastLimit: 20,
		},
		TopicSubscriptions: make(map[string]TopicSubscription),
		Server: Server{
			Port:           8080,
			AllowedOrigins: []string{"*"},
			RunsPerMinute:  6,
			Burst:          1,
		},
	}
	c.Application.Name = "media-transform"
	c.Application.MaxRetries = 3
	return c
}

// RunRoots returns the directories that directories named in an API run
// request must lie under.
func (c *Config) RunRoots() []string {
	if len(c.Server.AllowedRoots) > 0 {
		return c.Server.AllowedRoots
	}
	return []string{c.Pipeline.SourceDir, c.Pipeline.DestDir}
}

// HasGCSExport reports whether flushed CSVs should be uploaded.
func (c *Config) HasGCSExport() bool {
	return c.Storage.OutputBucket != ""
}

// HasBigQueryExport reports whether flushed CSVs should be loaded into BigQuery.
func (c *Config) HasBigQueryExport() bool {
	return c.BigQueryDataSource.DatasetName != ""
}
