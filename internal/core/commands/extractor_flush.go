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

package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/extractors"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
)

// ExtractorFlush flushes every extractor of a task group, in list order, to
// the output directory held in its input parameter. Each CSV written is
// recorded as an artifact for the export commands that follow; the
// []model.TaskOutput summary is stored under OutputsParam.
//
// A failing flush is recorded but does not stop the remaining extractors
// from flushing.
type ExtractorFlush struct {
	cor.BaseCommand
	extractors []extractors.Extractor
}

// NewExtractorFlush is the constructor for the ExtractorFlush command.
func NewExtractorFlush(name string, targets []extractors.Extractor) *ExtractorFlush {
	return &ExtractorFlush{BaseCommand: *cor.NewBaseCommand(name), extractors: targets}
}

func (c *ExtractorFlush) Execute(context cor.Context) {
	outDir := context.Get(c.GetInputParam()).(string)

	outputs := make([]model.TaskOutput, 0, len(c.extractors))
	failed := 0
	for _, ex := range c.extractors {
		out := model.TaskOutput{Task: ex.WhichTask(), Rows: ex.Rows()}
		path, err := ex.Flush(context.GetContext(), outDir)
		if err != nil {
			failed++
			context.AddError(fmt.Sprintf("%s/%s", c.GetName(), ex.WhichTask()), fmt.Errorf("failed to flush %s: %w", ex.WhichTask(), err))
		} else {
			out.Path = path
			context.AddArtifact(path)
			slog.Info("task output written", "task", ex.WhichTask(), "rows", out.Rows, "path", path)
		}
		outputs = append(outputs, out)
	}
	context.Add(OutputsParam, outputs)

	if failed > 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), outputs)
}
