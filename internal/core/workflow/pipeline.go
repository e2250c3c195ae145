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
// implements the pipeline driver.
//
// Every run builds fresh task groups (movies, regions, tv_shows) because an
// extractor cannot be used again once it has flushed. By default the groups
// are the commands of one cor.BaseChain with ContinueOnFailure(true), so a
// group that fails is logged and recorded while the following groups still
// run. In parallel mode each group runs in its own goroutine with its own
// chain context; extractors are never shared between groups, so row order and
// deduplication are the same as in a sequential run.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs the three task groups against one raw/output directory pair.
type Pipeline struct {
	cor.BaseCommand
	config         *cloud.Config
	serviceClients *cloud.ServiceClients
	parallel       bool
}

// NewPipeline is the constructor for the Pipeline.
//
// Inputs:
//   - config: The application configuration; [pipeline] parallel_groups
//     selects the parallel mode.
//   - serviceClients: The cloud clients used for exports; may be nil.
//
// Returns:
//   - A pointer to the new Pipeline.
func NewPipeline(config *cloud.Config, serviceClients *cloud.ServiceClients) *Pipeline {
	return &Pipeline{
		BaseCommand:    *cor.NewBaseCommand("transform-pipeline"),
		config:         config,
		serviceClients: serviceClients,
		parallel:       config.Pipeline.ParallelGroups,
	}
}

// SetParallel switches between sequential and parallel group execution.
func (p *Pipeline) SetParallel(parallel bool) *Pipeline {
	p.parallel = parallel
	return p
}

// Groups builds a fresh set of task groups in pipeline order.
func (p *Pipeline) Groups() []*TaskGroupWorkflow {
	return []*TaskGroupWorkflow{
		NewMoviesGroup(p.config, p.serviceClients),
		NewRegionsGroup(p.config, p.serviceClients),
		NewShowsGroup(p.config, p.serviceClients),
	}
}

// Run processes rawDir into outDir and returns the run report. Group
// failures are part of the report, never a returned error.
func (p *Pipeline) Run(ctx context.Context, rawDir string, outDir string) *model.RunReport {
	report := model.NewRunReport(rawDir, outDir)
	ctx, span := p.GetTracer().Start(ctx, "transform-run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", report.RunId),
		attribute.String("src_dir", rawDir),
		attribute.String("dest_dir", outDir),
		attribute.Bool("parallel", p.parallel),
	)
	slog.InfoContext(ctx, "starting transformation", "run_id", report.RunId, "src_dir", rawDir, "dest_dir", outDir, "parallel", p.parallel)

	groups := p.Groups()
	if p.parallel {
		p.runParallel(ctx, groups, rawDir, outDir, report)
	} else {
		p.runSequential(ctx, groups, rawDir, outDir, report)
	}
	report.Finish()

	if failed := report.FailedGroups(); len(failed) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("task groups failed: %v", failed))
	} else {
		span.SetStatus(codes.Ok, "all task groups completed")
	}
	slog.InfoContext(ctx, "transformation finished", "run_id", report.RunId, "failed_groups", report.FailedGroups())
	return report
}

func (p *Pipeline) newGroupContext(ctx context.Context, rawDir string, outDir string, report *model.RunReport) cor.Context {
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(RawDirParam, rawDir)
	chCtx.Add(OutDirParam, outDir)
	chCtx.Add(RunReportParam, report)
	return chCtx
}

func (p *Pipeline) runSequential(ctx context.Context, groups []*TaskGroupWorkflow, rawDir string, outDir string, report *model.RunReport) {
	chain := cor.NewBaseChain(p.GetName()).ContinueOnFailure(true)
	for _, g := range groups {
		chain.AddCommand(g)
	}
	chain.Execute(p.newGroupContext(ctx, rawDir, outDir, report))
}

func (p *Pipeline) runParallel(ctx context.Context, groups []*TaskGroupWorkflow, rawDir string, outDir string, report *model.RunReport) {
	var eg errgroup.Group
	for _, g := range groups {
		eg.Go(func() error {
			chCtx := p.newGroupContext(ctx, rawDir, outDir, report)
			groupCtx, span := p.GetTracer().Start(ctx, g.GetName())
			defer span.End()
			chCtx.SetContext(groupCtx)
			g.Execute(chCtx)
			if chCtx.HasErrors() {
				span.SetStatus(codes.Error, "task group failed")
			} else {
				span.SetStatus(codes.Ok, "task group completed")
			}
			// A failed group must not cancel its siblings.
			return nil
		})
	}
	_ = eg.Wait()
}

// IsExecutable requires a *cloud.TransformTrigger as input.
func (p *Pipeline) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, ok := context.Get(p.GetInputParam()).(*cloud.TransformTrigger)
	return ok
}

// Execute runs the pipeline for the *cloud.TransformTrigger in the input
// parameter and writes the *model.RunReport to the output parameter. Failed
// groups are recorded as an error so a triggering message is not acked.
func (p *Pipeline) Execute(context cor.Context) {
	trigger := context.Get(p.GetInputParam()).(*cloud.TransformTrigger)
	report := p.Run(context.GetContext(), trigger.SourceDir, trigger.DestDir)
	context.Add(RunReportParam, report)
	context.Add(p.GetOutputParam(), report)

	if failed := report.FailedGroups(); len(failed) > 0 {
		p.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(p.GetName(), fmt.Errorf("run %s: task groups failed: %v", report.RunId, failed))
		return
	}
	p.GetSuccessCounter().Add(context.GetContext(), 1)
}
