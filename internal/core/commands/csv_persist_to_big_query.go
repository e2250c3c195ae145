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
// Responsibility (COR) pattern's Command interface. This file defines the
// command that loads the flushed task CSVs into BigQuery.
//
// Logic Flow:
//  1. Take the artifact paths ExtractorFlush recorded on the context.
//  2. For each `<task>.csv`, start a load job into `<dataset>.<prefix><task>`
//     reading the local file through a bigquery.ReaderSource. The header row
//     is skipped, the schema is auto detected, quoted newlines (review text)
//     are allowed and the table is truncated so a run replaces the previous one.
//  3. Wait for the job; both a failed start and a failed job status are
//     retried with exponential backoff.
//  4. Failures are recorded per file; the other files are still loaded.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
)

// CSVPersistToBigQuery is a command that loads CSV files into BigQuery tables.
type CSVPersistToBigQuery struct {
	cor.BaseCommand
	client      *bigquery.Client // The client for interacting with the BigQuery service.
	dataset     string           // The name of the BigQuery dataset.
	tablePrefix string           // Prepended to the task name to form the table name.
	maxRetries  uint64           // Retries per file after the first attempt.
}

// NewCSVPersistToBigQuery is the constructor for the CSVPersistToBigQuery command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - client: An initialized *bigquery.Client.
//   - dataset: The name of the BigQuery dataset.
//   - tablePrefix: Prefix of the target table names; may be empty.
//   - maxRetries: How many times a failed load is retried.
//
// Outputs:
//   - *CSVPersistToBigQuery: A pointer to the newly instantiated command.
func NewCSVPersistToBigQuery(name string, client *bigquery.Client, dataset string, tablePrefix string, maxRetries uint64) *CSVPersistToBigQuery {
	return &CSVPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), client: client, dataset: dataset, tablePrefix: tablePrefix, maxRetries: maxRetries}
}

// IsExecutable only needs a Go context; the files come from the artifacts.
func (s *CSVPersistToBigQuery) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// TableName returns the table a local CSV file is loaded into.
func (s *CSVPersistToBigQuery) TableName(localPath string) string {
	return s.tablePrefix + strings.TrimSuffix(filepath.Base(localPath), filepath.Ext(localPath))
}

// Execute contains the core logic for loading the data into BigQuery.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (s *CSVPersistToBigQuery) Execute(context cor.Context) {
	ctx := context.GetContext()
	failed := 0
	for _, local := range context.GetArtifacts() {
		table := s.TableName(local)

		load := func() error {
			f, err := os.Open(local)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("failed to open file %s: %w", local, err))
			}
			defer f.Close()

			src := bigquery.NewReaderSource(f)
			src.SourceFormat = bigquery.CSV
			src.SkipLeadingRows = 1
			src.AutoDetect = true
			src.AllowQuotedNewlines = true

			loader := s.client.Dataset(s.dataset).Table(table).LoaderFrom(src)
			loader.CreateDisposition = bigquery.CreateIfNeeded
			loader.WriteDisposition = bigquery.WriteTruncate

			job, err := loader.Run(ctx)
			if err != nil {
				return err
			}
			status, err := job.Wait(ctx)
			if err != nil {
				return err
			}
			return status.Err()
		}

		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
		if err := backoff.Retry(load, policy); err != nil {
			failed++
			context.AddError(fmt.Sprintf("%s/%s", s.GetName(), table), fmt.Errorf("bigquery load of %s into %s.%s failed: %w", local, s.dataset, table, err))
			continue
		}
		slog.Info("loaded task output into bigquery", "file", local, "dataset", s.dataset, "table", table)
	}

	if failed > 0 {
		s.GetErrorCounter().Add(ctx, 1)
		return
	}
	s.GetSuccessCounter().Add(ctx, 1)
}
