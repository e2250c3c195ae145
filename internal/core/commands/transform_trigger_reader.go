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
// first command of the Pub/Sub triggered workflow.
//
// Logic Flow:
//  1. The command receives the raw Pub/Sub message data as a JSON string from the context.
//  2. It unmarshals the string into a `cloud.TransformTrigger`. An empty
//     message is a valid trigger for the configured directories.
//  3. Blank directories are filled in from the pipeline configuration.
//  4. The trigger is stored under its well-known key and in the output
//     parameter so the run command receives it as input.
package commands

import (
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
)

// TransformTriggerReader is a command that parses a trigger message into a
// *cloud.TransformTrigger.
type TransformTriggerReader struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality.
	defaults        cloud.Pipeline
}

// NewTransformTriggerReader is the constructor for the TransformTriggerReader command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - defaults: The pipeline configuration blank trigger fields fall back to.
//
// Outputs:
//   - *TransformTriggerReader: A pointer to the newly instantiated command.
func NewTransformTriggerReader(name string, defaults cloud.Pipeline) *TransformTriggerReader {
	return &TransformTriggerReader{BaseCommand: *cor.NewBaseCommand(name), defaults: defaults}
}

// Execute parses the message.
//
// Inputs:
//   - context: The shared `cor.Context`; the input parameter holds the message data.
func (c *TransformTriggerReader) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var out cloud.TransformTrigger
	if strings.TrimSpace(in) != "" {
		if err := model.JSON.UnmarshalFromString(in, &out); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal transform trigger: %w", err))
			return
		}
	}
	msg := out.WithDefaults(c.defaults)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cloud.GetTransformTriggerName(), &msg)
	context.Add(c.GetOutputParam(), &msg)
}
