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
// Responsibility (COR) pattern's Command interface used by the task groups.
//
// A task group runs two kinds of chains:
//   - per file: RawDocumentReader -> DocumentRepair -> RecordDispatcher
//   - once, after all files: ExtractorFlush -> GCSFileUpload -> CSVPersistToBigQuery
//
// Besides CtxIn/CtxOut the commands share the well-known context keys below.
package commands

// Well-known context keys.
const (
	// SourceFileParam holds the path of the raw file being processed.
	SourceFileParam = "__SOURCE_FILE__"
	// MetadataParam holds the model.Metadata derived from the file name.
	MetadataParam = "__METADATA__"
	// DispatchedParam holds the number of records dispatched to every
	// extractor so far; set even when dispatch stops on a bad record.
	DispatchedParam = "__DISPATCHED__"
	// OutputsParam holds the []model.TaskOutput written by ExtractorFlush.
	OutputsParam = "__OUTPUTS__"
)
