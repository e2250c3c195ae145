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
// and workflow packages. This file holds the error kinds of the pipeline.
//
// Scopes:
//   - MissingFieldError / FieldTypeError: one record; surfaced by extractors.
//   - MalformedInputError: one raw file; the task group skips the file.
//   - GroupFailure: one task group; the pipeline logs it and moves on.
package model

import (
	"fmt"
)

// MissingFieldError reports a required key that is absent from a record.
type MissingFieldError struct {
	Key string // Dotted path of the missing key, e.g. "credits.cast".
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Key)
}

// FieldTypeError reports a key whose value does not have the expected JSON type.
type FieldTypeError struct {
	Key  string // Dotted path of the offending key.
	Want string // Expected JSON type ("string", "number", "list", "object").
	Got  any    // The value that was found.
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %q: expected %s, got %T", e.Key, e.Want, e.Got)
}

// MalformedInputError is raised when a raw document cannot be turned into
// records: the repaired text is not valid JSON, the bytes are not text, or a
// record inside it lacks a field an extractor requires.
type MalformedInputError struct {
	Source string // The file (or other source) the text came from; may be empty.
	Err    error  // The underlying cause.
}

func (e *MalformedInputError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("malformed input: %v", e.Err)
	}
	return fmt.Sprintf("malformed input %s: %v", e.Source, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// GroupFailure wraps any error that stopped a task group from completing.
type GroupFailure struct {
	Group string // Task group name, e.g. "movies".
	Err   error  // The underlying cause.
}

func (e *GroupFailure) Error() string {
	return fmt.Sprintf("task group %s failed: %v", e.Group, e.Err)
}

func (e *GroupFailure) Unwrap() error {
	return e.Err
}
