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
// and workflow packages. This file defines Record, one movie or TV show as
// returned by the media metadata source, and its typed accessors.
//
// Accessors never panic: an absent key yields a MissingFieldError and a value
// of the wrong JSON type yields a FieldTypeError.
package model

import (
	"encoding/json"
)

// MediaTypeMovie is the media_type value of movie records.
const MediaTypeMovie = "MOVIE"

// Record is a decoded JSON object. Numbers are json.Number (see JSON).
type Record map[string]any

// Get returns the raw value under key. A present key with a null value is
// returned as (nil, nil).
func (r Record) Get(key string) (any, error) {
	v, ok := r[key]
	if !ok {
		return nil, &MissingFieldError{Key: key}
	}
	return v, nil
}

// GetString returns the string value under key.
func (r Record) GetString(key string) (string, error) {
	v, err := r.Get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", &FieldTypeError{Key: key, Want: "string", Got: v}
	}
	return s, nil
}

// GetList returns the list value under key. null is not a list.
func (r Record) GetList(key string) ([]any, error) {
	v, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	l, ok := v.([]any)
	if !ok {
		return nil, &FieldTypeError{Key: key, Want: "list", Got: v}
	}
	return l, nil
}

// GetRecord returns the nested object under key.
func (r Record) GetRecord(key string) (Record, error) {
	v, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	return AsRecord(key, v)
}

// GetNumber returns the numeric value under key. The boolean result is false
// when the value is null.
func (r Record) GetNumber(key string) (float64, bool, error) {
	v, err := r.Get(key)
	if err != nil {
		return 0, false, err
	}
	if v == nil {
		return 0, false, nil
	}
	f, err := AsNumber(key, v)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}

// AsRecord converts a list element or nested value into a Record. key is only
// used for error reporting.
func AsRecord(key string, v any) (Record, error) {
	switch m := v.(type) {
	case Record:
		return m, nil
	case map[string]any:
		return Record(m), nil
	}
	return nil, &FieldTypeError{Key: key, Want: "object", Got: v}
}

// AsNumber converts a decoded JSON number into a float64.
func AsNumber(key string, v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, &FieldTypeError{Key: key, Want: "number", Got: v}
		}
		return f, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		if err != nil {
			return 0, &FieldTypeError{Key: key, Want: "number", Got: v}
		}
		return f, nil
	}
	return 0, &FieldTypeError{Key: key, Want: "number", Got: v}
}
