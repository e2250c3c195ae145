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

// Package services contains the read side of the service. This file defines
// TableService, which previews the task tables CSVPersistToBigQuery loaded.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// TableService reads task tables from BigQuery.
type TableService struct {
	BigqueryClient *bigquery.Client // Client for interacting with Google BigQuery.
	DatasetName    string           // The dataset the task tables are loaded into.
	TablePrefix    string           // Prepended to the task name to form the table name.
}

// TableName returns the table a task is loaded into, e.g. "tmdb_task_1".
func (s *TableService) TableName(task string) string {
	return s.TablePrefix + task
}

// GetFQN returns the fully qualified, query-ready name of a task table,
// e.g. `my-project.media_transform.tmdb_task_1`.
func (s *TableService) GetFQN(task string) string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.TableName(task)).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// Preview queries the first limit rows of a task table.
//
// Inputs:
//   - ctx: The context for the request, used for cancellation and tracing.
//   - task: A known task name.
//   - limit: Maximum rows; zero or less means DefaultPreviewLimit, above
//     MaxPreviewLimit is ErrLimitTooLarge.
//
// Outputs:
//   - *TaskPreview: Columns come from the result schema.
//   - error: ErrUnknownTask, ErrLimitTooLarge or the query error.
func (s *TableService) Preview(ctx context.Context, task string, limit int) (*TaskPreview, error) {
	if err := checkTask(task); err != nil {
		return nil, err
	}
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	fqn := s.GetFQN(task)
	itr, err := s.BigqueryClient.Query(fmt.Sprintf(QryPreviewTable, fqn, limit)).Read(ctx)
	if err != nil {
		return nil, err
	}
	out := &TaskPreview{Task: task, Source: fqn, Rows: make([]map[string]any, 0)}
	for {
		var row map[string]bigquery.Value
		err := itr.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		if out.Columns == nil {
			for _, f := range itr.Schema {
				out.Columns = append(out.Columns, f.Name)
			}
		}
		converted := make(map[string]any, len(row))
		for k, v := range row {
			converted[k] = v
		}
		out.Rows = append(out.Rows, converted)
	}
	return out, nil
}

// Count returns the number of rows in a task table.
func (s *TableService) Count(ctx context.Context, task string) (int64, error) {
	if err := checkTask(task); err != nil {
		return 0, err
	}
	itr, err := s.BigqueryClient.Query(fmt.Sprintf(QryCountTable, s.GetFQN(task))).Read(ctx)
	if err != nil {
		return 0, err
	}
	var row struct {
		RowCount int64 `bigquery:"row_count"`
	}
	if err := itr.Next(&row); err != nil {
		return 0, err
	}
	return row.RowCount, nil
}
