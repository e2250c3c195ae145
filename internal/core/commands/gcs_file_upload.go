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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines a
// command for copying the CSV files a task group flushed to a Google Cloud
// Storage (GCS) bucket.
//
// Logic Flow:
// This command follows ExtractorFlush in the export chain of a task group.
//
//  1. Take the artifact paths ExtractorFlush recorded on the context.
//  2. For each file, open it and stream it to gs://<bucket>/<prefix>/<file name>
//     with `io.Copy`.
//  3. Transient failures are retried with exponential backoff; a file that
//     cannot be opened is not retried.
//  4. Each failed upload is recorded on the context; the other files are
//     still uploaded. The local files are left in place.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cenkalti/backoff/v4"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
)

// GCSFileUpload is a command implementation responsible for uploading the
// flushed CSV files to a Google Cloud Storage bucket.
type GCSFileUpload struct {
	cor.BaseCommand                 // Embeds the BaseCommand for common functionality like naming and metrics.
	client          *storage.Client // The GCS client for interacting with the storage service.
	bucket          string          // The name of the destination GCS bucket.
	prefix          string          // Object name prefix, e.g. "transformed".
	maxRetries      uint64          // Retries per file after the first attempt.
}

// NewGCSFileUpload is the constructor for creating a new GCSFileUpload command.
//
// Inputs:
//   - name: A string name for this command instance, used for logging and telemetry.
//   - client: An initialized *storage.Client for communicating with GCS.
//   - bucket: The name of the target GCS bucket for the upload.
//   - prefix: The object name prefix; may be empty.
//   - maxRetries: How many times a failed upload is retried.
//
// Outputs:
//   - *GCSFileUpload: A pointer to the newly instantiated command.
func NewGCSFileUpload(name string, client *storage.Client, bucket string, prefix string, maxRetries uint64) *GCSFileUpload {
	return &GCSFileUpload{BaseCommand: *cor.NewBaseCommand(name), client: client, bucket: bucket, prefix: prefix, maxRetries: maxRetries}
}

// IsExecutable only needs a Go context; the files come from the artifacts.
func (c *GCSFileUpload) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// ObjectName returns the object a local file is uploaded to.
func (c *GCSFileUpload) ObjectName(localPath string) string {
	return strings.TrimPrefix(path.Join(c.prefix, filepath.Base(localPath)), "/")
}

// Execute uploads every artifact of the context.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *GCSFileUpload) Execute(context cor.Context) {
	failed := 0
	for _, local := range context.GetArtifacts() {
		objectName := c.ObjectName(local)
		obj := c.client.Bucket(c.bucket).Object(objectName)

		upload := func() error {
			dat, err := os.Open(local)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("failed to open file %s: %w", local, err))
			}
			defer dat.Close()

			// Closing the writer finalizes the object; an upload is only
			// complete once Close returns nil.
			writer := obj.NewWriter(context.GetContext())
			writer.ContentType = "text/csv"
			if written, err := io.Copy(writer, dat); err != nil {
				_ = writer.Close()
				return fmt.Errorf("failed to copy to GCS or partial write: %d total bytes: %w", written, err)
			}
			return writer.Close()
		}

		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), context.GetContext())
		if err := backoff.Retry(upload, policy); err != nil {
			failed++
			context.AddError(fmt.Sprintf("%s/%s", c.GetName(), filepath.Base(local)), fmt.Errorf("upload of %s failed: %w", local, err))
			continue
		}
		slog.Info("uploaded task output", "file", local, "uri", fmt.Sprintf("gs://%s/%s", c.bucket, objectName))
	}

	if failed > 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
