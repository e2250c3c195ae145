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
// command that fans the records of one repaired document out to the
// extractors of a task group.
//
// Logic Flow:
//  1. Take the *model.RepairedDocument from the input parameter and the
//     file's model.Metadata from MetadataParam (empty if absent).
//  2. For every record, in document order, call Consume on every extractor,
//     in the group's list order.
//  3. Count accepted and rejected records per task.
//  4. The first record an extractor cannot map stops the file: the error is
//     recorded as a *model.MalformedInputError. Rows the earlier records
//     produced are kept.
//  5. The number of records dispatched is written to DispatchedParam and to
//     the output parameter.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/extractors"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RecordDispatcher routes records to a fixed list of extractors.
type RecordDispatcher struct {
	cor.BaseCommand
	extractors []extractors.Extractor // Extractors in dispatch order.
	accepted   metric.Int64Counter    // Records that produced a row, by task.
	rejected   metric.Int64Counter    // Records filtered or deduplicated, by task.
}

// NewRecordDispatcher is the constructor for the RecordDispatcher command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - targets: The extractors that receive every record, in order.
//
// Outputs:
//   - *RecordDispatcher: A pointer to the newly instantiated command.
func NewRecordDispatcher(name string, targets []extractors.Extractor) *RecordDispatcher {
	out := &RecordDispatcher{BaseCommand: *cor.NewBaseCommand(name), extractors: targets}
	var err error
	out.accepted, err = out.GetMeter().Int64Counter("records.accepted")
	if err != nil {
		slog.Warn("failed to create records.accepted counter", "command", name, "error", err)
	}
	out.rejected, err = out.GetMeter().Int64Counter("records.rejected")
	if err != nil {
		slog.Warn("failed to create records.rejected counter", "command", name, "error", err)
	}
	return out
}

// Extractors returns the extractors records are dispatched to.
func (c *RecordDispatcher) Extractors() []extractors.Extractor {
	return c.extractors
}

func (c *RecordDispatcher) Execute(context cor.Context) {
	doc := context.Get(c.GetInputParam()).(*model.RepairedDocument)
	meta, _ := context.Get(MetadataParam).(model.Metadata)
	if meta == nil {
		meta = model.Metadata{}
	}
	source, _ := context.Get(SourceFileParam).(string)

	dispatched := 0
	defer func() {
		context.Add(DispatchedParam, dispatched)
	}()

	for i, record := range doc.Contents {
		for _, ex := range c.extractors {
			ok, err := ex.Consume(record, meta)
			if err != nil {
				c.GetErrorCounter().Add(context.GetContext(), 1)
				context.AddError(c.GetName(), &model.MalformedInputError{
					Source: source,
					Err:    fmt.Errorf("record %d: %w", i, err),
				})
				return
			}
			attrs := metric.WithAttributes(attribute.String("task", ex.WhichTask()))
			if ok {
				if c.accepted != nil {
					c.accepted.Add(context.GetContext(), 1, attrs)
				}
			} else if c.rejected != nil {
				c.rejected.Add(context.GetContext(), 1, attrs)
			}
		}
		dispatched++
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), dispatched)
}
