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

// Package workflow defines the high-level orchestrations, combining the
// commands into task groups and the task groups into a pipeline. This file
// implements the workflow run for every trigger message.
package workflow

import (
	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
)

// TransformTriggerWorkflow turns a trigger message into a pipeline run. It is
// the command behind the Pub/Sub listener and the HTTP run endpoint.
//
// The chain is:
//  1. TransformTriggerReader: message JSON -> *cloud.TransformTrigger.
//  2. Pipeline, wrapped in a QuotaAwareCommand: trigger -> *model.RunReport.
type TransformTriggerWorkflow struct {
	cor.BaseCommand
	config   *cloud.Config
	pipeline *Pipeline
	quota    *cloud.QuotaAwareCommand
	chain    cor.Chain
}

// NewTransformTriggerWorkflow is the constructor for the TransformTriggerWorkflow.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: The initialized cloud clients; may be nil for local runs.
//   - runsPerMinute: How many runs may start per minute; zero or less is unlimited.
//
// Returns:
//   - A pointer to the fully initialized workflow.
func NewTransformTriggerWorkflow(config *cloud.Config, serviceClients *cloud.ServiceClients, runsPerMinute int) *TransformTriggerWorkflow {
	out := &TransformTriggerWorkflow{
		BaseCommand: *cor.NewBaseCommand("transform-trigger-workflow"),
		config:      config,
		pipeline:    NewPipeline(config, serviceClients),
	}
	out.quota = cloud.NewQuotaAwareCommand(out.pipeline, runsPerMinute, 1)
	out.initializeChain()
	return out
}

func (w *TransformTriggerWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewTransformTriggerReader("transform-trigger-reader", w.config.Pipeline))
	out.AddCommand(w.quota)
	w.chain = out
}

// Pipeline returns the pipeline the workflow runs.
func (w *TransformTriggerWorkflow) Pipeline() *Pipeline {
	return w.pipeline
}

// Execute runs the chain. The input parameter holds the trigger message; the
// run report is left under RunReportParam.
func (w *TransformTriggerWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
