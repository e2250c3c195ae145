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

// Package services contains the read side of the service: looking at the task
// tables a run produced. This file holds the BigQuery SQL used by
// TableService. The placeholders are filled with fmt.Sprintf; table names are
// only ever built from known task names, never from request input.
package services

const (
	// QryPreviewTable reads the first rows of a task table in CSV order. The
	// unnamed index column of the CSV is loaded by autodetect as the first
	// column; it is used to order the rows.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the task table.
	// - `%d`: The maximum number of rows.
	QryPreviewTable = "SELECT * FROM `%s` ORDER BY 1 LIMIT %d"

	// QryCountTable counts the rows of a task table.
	QryCountTable = "SELECT COUNT(*) AS row_count FROM `%s`"
)
