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

// Package model defines the data structures shared by the repair, extraction
// and workflow packages. This file, `transient.go`, contains the structures
// that only live while a single raw file is being processed: the repaired
// document and the metadata a task group derives from the file name. Neither
// is kept once the file's records have been dispatched.
package model

// These objects are used in memory by the per-file chain and discarded afterwards.

// RepairedDocument is the parseable form of one raw file: a single object
// holding the file's records in source order.
type RepairedDocument struct {
	Contents []Record `json:"contents"` // Records in the order their object literals appeared in the raw text.
}

// Len returns the number of records in the document.
func (d *RepairedDocument) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Contents)
}

// Metadata is the small per-file mapping a task group supplies alongside each
// record, e.g. {"region": "US"}. It is empty for groups that do not need it.
type Metadata map[string]string

// MetadataRegion is the metadata key holding the two-letter region code.
const MetadataRegion = "region"

// Lookup returns the value stored under key, or a MissingFieldError.
func (m Metadata) Lookup(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", &MissingFieldError{Key: "metadata." + key}
	}
	return v, nil
}
