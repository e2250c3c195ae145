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
// implements TaskGroupWorkflow: one raw data subdirectory, one metadata rule
// and a fixed list of extractors.
//
// Logic Flow of Process:
//  1. Ensure the output directory exists.
//  2. List `<rawDir>/<subdirectory>` in lexical order. Directories and files
//     without the configured extension are skipped silently.
//  3. For each file, run the per-file chain
//     RawDocumentReader -> DocumentRepair -> RecordDispatcher with the
//     file's metadata. A failing file is logged, reported and skipped; the
//     rows of records dispatched before the failure stay.
//  4. After the last file run the export chain
//     ExtractorFlush -> [GCSFileUpload] -> [CSVPersistToBigQuery]. A failed
//     flush fails the group; a failed export is only reported.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/extractors"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
)

// Task group names.
const (
	GroupMovies  = "movies"
	GroupRegions = "regions"
	GroupShows   = "tv_shows"
)

// Context keys read by TaskGroupWorkflow.Execute.
const (
	RawDirParam    = "__RAW_DIR__"    // Raw data directory (string).
	OutDirParam    = "__OUT_DIR__"    // Output directory (string).
	RunReportParam = "__RUN_REPORT__" // *model.RunReport the group report is added to; optional.
)

// MetadataFunc derives the per-file metadata from a file name.
type MetadataFunc func(fileName string) model.Metadata

// NoMetadata is the MetadataFunc of groups that need no metadata.
func NoMetadata(string) model.Metadata {
	return model.Metadata{}
}

// RegionFromFileName returns a MetadataFunc mapping "US.txt" to {"region": "US"}.
func RegionFromFileName(extension string) MetadataFunc {
	return func(fileName string) model.Metadata {
		return model.Metadata{model.MetadataRegion: strings.TrimSuffix(fileName, extension)}
	}
}

// TaskGroupWorkflow drives the read, repair and dispatch loop of one task group.
type TaskGroupWorkflow struct {
	cor.BaseCommand
	order          int                    // Position in the pipeline, used to order reports.
	subdirectory   string                 // Raw data subdirectory scanned by the group.
	extension      string                 // Only files with this suffix are read.
	deriveMetadata MetadataFunc           // File name -> metadata.
	extractors     []extractors.Extractor // Extractors in dispatch and flush order.
	fileChain      cor.Chain              // Per-file chain.
	exportChain    cor.Chain              // Flush and export chain.
	flushName      string                 // Name of the flush command in exportChain.
}

// NewTaskGroupWorkflow builds a task group. Exports are added only when the
// configuration enables them and the matching client exists.
//
// Inputs:
//   - name: The group name, e.g. "movies".
//   - order: The group's position in the pipeline.
//   - subdirectory: The raw data subdirectory.
//   - deriveMetadata: The metadata rule; nil means NoMetadata.
//   - targets: The group's extractors, in order.
//   - config: The application configuration.
//   - serviceClients: The cloud clients; may be nil.
//
// Returns:
//   - A pointer to the fully initialized group.
func NewTaskGroupWorkflow(
	name string,
	order int,
	subdirectory string,
	deriveMetadata MetadataFunc,
	targets []extractors.Extractor,
	config *cloud.Config,
	serviceClients *cloud.ServiceClients) *TaskGroupWorkflow {

	if deriveMetadata == nil {
		deriveMetadata = NoMetadata
	}
	out := &TaskGroupWorkflow{
		BaseCommand:    *cor.NewBaseCommand(name),
		order:          order,
		subdirectory:   subdirectory,
		extension:      config.Pipeline.FileExtension,
		deriveMetadata: deriveMetadata,
		extractors:     targets,
		flushName:      name + "-flush",
	}
	out.initializeChains(config, serviceClients)
	return out
}

// initializeChains constructs the per-file and export chains.
func (t *TaskGroupWorkflow) initializeChains(config *cloud.Config, serviceClients *cloud.ServiceClients) {
	fileChain := cor.NewBaseChain(t.GetName() + "-file")
	fileChain.AddCommand(commands.NewRawDocumentReader(t.GetName() + "-read"))
	fileChain.AddCommand(commands.NewDocumentRepair(t.GetName() + "-repair"))
	fileChain.AddCommand(commands.NewRecordDispatcher(t.GetName()+"-dispatch", t.extractors))
	t.fileChain = fileChain

	exportChain := cor.NewBaseChain(t.GetName() + "-export").ContinueOnFailure(true)
	exportChain.AddCommand(commands.NewExtractorFlush(t.flushName, t.extractors))
	retries := uint64(0)
	if config.Application.MaxRetries > 0 {
		retries = uint64(config.Application.MaxRetries)
	}
	if serviceClients != nil && serviceClients.StorageClient != nil && config.HasGCSExport() {
		exportChain.AddCommand(commands.NewGCSFileUpload(t.GetName()+"-gcs-upload",
			serviceClients.StorageClient, config.Storage.OutputBucket, config.Storage.OutputPrefix, retries))
	}
	if serviceClients != nil && serviceClients.BigQueryClient != nil && config.HasBigQueryExport() {
		exportChain.AddCommand(commands.NewCSVPersistToBigQuery(t.GetName()+"-bigquery-load",
			serviceClients.BigQueryClient, config.BigQueryDataSource.DatasetName, config.BigQueryDataSource.TablePrefix, retries))
	}
	t.exportChain = exportChain
}

// Subdirectory returns the raw data subdirectory of the group.
func (t *TaskGroupWorkflow) Subdirectory() string {
	return t.subdirectory
}

// Extractors returns the group's extractors in order.
func (t *TaskGroupWorkflow) Extractors() []extractors.Extractor {
	return t.extractors
}

// DeriveMetadata applies the group's metadata rule to a file name.
func (t *TaskGroupWorkflow) DeriveMetadata(fileName string) model.Metadata {
	return t.deriveMetadata(fileName)
}

// Process runs the group over rawDir and writes its CSVs to outDir. The
// returned report is never nil. An error means the group as a whole failed
// (unreadable subdirectory, failed flush, canceled context); per-file
// failures are only reported.
func (t *TaskGroupWorkflow) Process(ctx context.Context, rawDir string, outDir string) (*model.GroupReport, error) {
	start := time.Now()
	report := &model.GroupReport{
		Group:        t.GetName(),
		Order:        t.order,
		Subdirectory: t.subdirectory,
		Outputs:      make([]model.TaskOutput, 0),
	}
	defer func() {
		report.Duration = time.Since(start)
	}()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return report, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	dir := filepath.Join(rawDir, t.subdirectory)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, fmt.Errorf("reading raw data directory: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.FilesSeen++
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, t.extension) {
			report.FilesSkipped++
			continue
		}
		t.processFile(ctx, filepath.Join(dir, name), name, report)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, t.export(ctx, outDir, report)
}

// processFile runs the per-file chain for one file and updates report.
func (t *TaskGroupWorkflow) processFile(ctx context.Context, filePath string, name string, report *model.GroupReport) {
	slog.InfoContext(ctx, "processing file", "group", t.GetName(), "file", name)

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(cor.CtxIn, filePath)
	chCtx.Add(commands.SourceFileParam, filePath)
	chCtx.Add(commands.MetadataParam, t.deriveMetadata(name))

	t.fileChain.Execute(chCtx)

	if dispatched, ok := chCtx.Get(commands.DispatchedParam).(int); ok {
		report.Records += dispatched
	}
	if chCtx.HasErrors() {
		err := joinErrors(chCtx.GetErrors())
		report.FailedFiles = append(report.FailedFiles, model.FileFailure{File: name, Error: err.Error()})
		slog.WarnContext(ctx, "skipping file", "group", t.GetName(), "file", name, "error", err)
		return
	}
	report.FilesProcessed++
	slog.InfoContext(ctx, "file has been processed", "group", t.GetName(), "file", name)
}

// export runs the flush and export chain and copies its results into report.
func (t *TaskGroupWorkflow) export(ctx context.Context, outDir string, report *model.GroupReport) error {
	exCtx := cor.NewBaseContext()
	exCtx.SetContext(ctx)
	exCtx.Add(cor.CtxIn, outDir)

	t.exportChain.Execute(exCtx)

	if outputs, ok := exCtx.Get(commands.OutputsParam).([]model.TaskOutput); ok {
		report.Outputs = outputs
	}
	flushErrors := make(map[string]error)
	for key, err := range exCtx.GetErrors() {
		if key == t.flushName || strings.HasPrefix(key, t.flushName+"/") {
			flushErrors[key] = err
			continue
		}
		report.ExportErrors = append(report.ExportErrors, err.Error())
		slog.WarnContext(ctx, "export failed", "group", t.GetName(), "error", err)
	}
	sort.Strings(report.ExportErrors)
	if len(flushErrors) > 0 {
		return joinErrors(flushErrors)
	}
	for _, out := range report.Outputs {
		slog.InfoContext(ctx, "data for the task has been prepared", "group", t.GetName(), "task", out.Task, "rows", out.Rows)
	}
	return nil
}

// IsExecutable requires the raw and output directories in the context.
func (t *TaskGroupWorkflow) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, okRaw := context.Get(RawDirParam).(string)
	_, okOut := context.Get(OutDirParam).(string)
	return okRaw && okOut
}

// Execute runs Process with the directories from the context. The group
// report is added to the *model.RunReport under RunReportParam, if present.
// A failure is recorded as a *model.GroupFailure and logged; it never panics.
//
// Inputs:
//   - context: The chain context shared by the pipeline's groups.
func (t *TaskGroupWorkflow) Execute(context cor.Context) {
	ctx := context.GetContext()
	rawDir := context.Get(RawDirParam).(string)
	outDir := context.Get(OutDirParam).(string)

	report, err := t.Process(ctx, rawDir, outDir)
	if err != nil {
		failure := &model.GroupFailure{Group: t.GetName(), Err: err}
		report.Error = failure.Error()
		t.GetErrorCounter().Add(ctx, 1)
		context.AddError(t.GetName(), failure)
		slog.ErrorContext(ctx, "task group failed", "group", t.GetName(), "error", err)
	} else {
		t.GetSuccessCounter().Add(ctx, 1)
		slog.InfoContext(ctx, "finished task group", "group", t.GetName(),
			"files", report.FilesProcessed, "failed_files", len(report.FailedFiles), "records", report.Records)
	}
	if runReport, ok := context.Get(RunReportParam).(*model.RunReport); ok && runReport != nil {
		runReport.AddGroup(report)
	}
}

// joinErrors joins the errors of a context in key order.
func joinErrors(errs map[string]error) error {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 1 {
		return errs[keys[0]]
	}
	joined := make([]error, 0, len(keys))
	for _, k := range keys {
		joined = append(joined, errs[k])
	}
	return errors.Join(joined...)
}
