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

// Package repair turns the raw media documents into parseable JSON.
//
// The raw files are produced by a generator that writes one pretty-printed
// JSON object per record with no separators between them and no enclosing
// array, and which sometimes leaves a stray comma or an unfinished fragment
// after the final record:
//
//	{
//	  "title": "Big",
//	  ...
//	}
//	{
//	  "title": "Splash",
//	  ...
//	}
//	,
//
// Repair fixes that one structural defect in two passes over the text and
// wraps the result as {"contents": [ ... ]}. It is not a general purpose
// JSON repair tool: any other damage surfaces as a MalformedInputError.
package repair

import (
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
)

const (
	byteOrderMark = "\uFEFF"
	wrapPrefix    = `{"contents": [`
	wrapSuffix    = `]}`
)

// scanner tracks just enough JSON lexical state to tell structural braces and
// commas apart from the same characters inside string literals.
type scanner struct {
	depth    int
	inString bool
	escaped  bool
}

// step advances the state over b and reports whether b is structural, i.e.
// outside any string literal.
func (s *scanner) step(b byte) bool {
	if s.inString {
		switch {
		case s.escaped:
			s.escaped = false
		case b == '\\':
			s.escaped = true
		case b == '"':
			s.inString = false
		}
		return false
	}
	switch b {
	case '"':
		s.inString = true
		return false
	case '{', '[':
		s.depth++
	case '}', ']':
		if s.depth > 0 {
			s.depth--
		}
	}
	return true
}

// InsertBoundaries is the first pass. Every '}' that closes a top-level object
// and is immediately followed by a line break ("\n" or "\r\n") or by the end
// of the text gets a ',' inserted directly after it. Braces that are part of
// string values, closing braces of nested objects, and a '}' that is already
// followed by a comma are left alone.
func InsertBoundaries(text string) string {
	var sb strings.Builder
	sb.Grow(len(text) + len(text)/64 + 1)

	s := scanner{}
	for i := 0; i < len(text); i++ {
		b := text[i]
		structural := s.step(b)
		sb.WriteByte(b)
		if !structural || b != '}' || s.depth != 0 {
			continue
		}
		rest := text[i+1:]
		if rest == "" || strings.HasPrefix(rest, "\n") || strings.HasPrefix(rest, "\r\n") {
			sb.WriteByte(',')
		}
	}
	return sb.String()
}

// TrimTrailing is the second pass. It cuts the text at its last top-level
// comma, dropping the comma and whatever follows it, then strips trailing
// whitespace and stray commas. After InsertBoundaries the last top-level comma
// follows the last complete object, so only garbage is removed.
//
// A text without any top-level comma has nothing to trim and is returned with
// only its trailing whitespace removed.
func TrimTrailing(text string) string {
	last := -1
	s := scanner{}
	for i := 0; i < len(text); i++ {
		b := text[i]
		if s.step(b) && b == ',' && s.depth == 0 {
			last = i
		}
	}
	if last >= 0 {
		text = text[:last]
	}
	return strings.TrimRight(text, " \t\r\n,")
}

// Repair converts one raw document into a RepairedDocument whose Contents hold
// the document's records in source order.
//
// Logic Flow:
//  1. Strip a leading UTF-8 byte order mark.
//  2. InsertBoundaries: separate adjacent top-level objects with commas.
//  3. TrimTrailing: drop everything after the last top-level comma.
//  4. Wrap the text as {"contents": [ ... ]} and decode it with model.JSON.
//
// An empty (or whitespace only) document yields zero records. Any decoding
// failure, including a list element that is not an object, is returned as a
// *model.MalformedInputError with an empty Source; callers that know the file
// name fill it in.
func Repair(text string) (*model.RepairedDocument, error) {
	text = strings.TrimPrefix(text, byteOrderMark)
	body := TrimTrailing(InsertBoundaries(text))

	doc := &model.RepairedDocument{Contents: make([]model.Record, 0)}
	if strings.TrimSpace(body) == "" {
		return doc, nil
	}

	wrapped := wrapPrefix + body + wrapSuffix
	if err := model.JSON.UnmarshalFromString(wrapped, doc); err != nil {
		return nil, &model.MalformedInputError{Err: fmt.Errorf("repaired document is not valid JSON: %w", err)}
	}
	for i, r := range doc.Contents {
		if r == nil {
			return nil, &model.MalformedInputError{Err: fmt.Errorf("element %d of contents is not an object", i)}
		}
	}
	return doc, nil
}
