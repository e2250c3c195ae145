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
// first command of the per-file chain.
//
// Logic Flow:
//  1. Read the whole file named by the input parameter.
//  2. Sniff the first bytes with h2non/filetype. A raw document is plain
//     text, so anything recognised as an image, archive, video and so on
//     is rejected as malformed input.
//  3. Reject content that is not valid UTF-8.
//  4. Put the text in the output parameter for DocumentRepair.
package commands

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
)

// sniffLength is the number of leading bytes filetype needs to match every
// type it knows.
const sniffLength = 262

// RawDocumentReader reads one raw document from the local filesystem.
type RawDocumentReader struct {
	cor.BaseCommand
}

// NewRawDocumentReader is the constructor for the RawDocumentReader command.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *RawDocumentReader: A pointer to the newly instantiated command.
func NewRawDocumentReader(name string) *RawDocumentReader {
	return &RawDocumentReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute reads the file and publishes its text.
//
// Inputs:
//   - context: The shared `cor.Context`; the input parameter holds the file path.
func (c *RawDocumentReader) Execute(context cor.Context) {
	path := context.Get(c.GetInputParam()).(string)

	data, err := os.ReadFile(path)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to read %s: %w", path, err))
		return
	}

	head := data
	if len(head) > sniffLength {
		head = head[:sniffLength]
	}
	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.MalformedInputError{
			Source: path,
			Err:    fmt.Errorf("content is %s (%s), not text", kind.MIME.Value, kind.Extension),
		})
		return
	}
	if !utf8.Valid(data) {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &model.MalformedInputError{Source: path, Err: fmt.Errorf("content is not valid UTF-8")})
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), string(data))
}
