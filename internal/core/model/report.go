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
// and workflow packages. This file defines the run report: what every task
// group did during one pipeline run. The report is what the CLI prints, what
// the HTTP API returns and what decides whether a Pub/Sub trigger is acked.
package model

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileFailure describes one raw file that was skipped because it failed.
type FileFailure struct {
	File  string `json:"file"`  // File name relative to the group's subdirectory.
	Error string `json:"error"` // The rendered error.
}

// TaskOutput describes the CSV one extractor flushed.
type TaskOutput struct {
	Task string `json:"task"` // Extractor name, e.g. "task_1".
	Rows int    `json:"rows"` // Number of data rows written.
	Path string `json:"path"` // Path of the CSV file; empty if the flush failed.
}

// GroupReport summarizes one task group's run.
type GroupReport struct {
	Group          string        `json:"group"`                   // Task group name.
	Order          int           `json:"-"`                       // Position of the group in the pipeline.
	Subdirectory   string        `json:"subdirectory"`            // Raw data subdirectory that was scanned.
	FilesSeen      int           `json:"files_seen"`              // Directory entries considered.
	FilesSkipped   int           `json:"files_skipped"`           // Entries ignored (wrong extension, directories).
	FilesProcessed int           `json:"files_processed"`         // Files fully dispatched.
	Records        int           `json:"records"`                 // Records dispatched across all files.
	FailedFiles    []FileFailure `json:"failed_files,omitempty"`  // Files skipped because of an error.
	Outputs        []TaskOutput  `json:"outputs"`                 // One entry per extractor, in list order.
	ExportErrors   []string      `json:"export_errors,omitempty"` // Errors from GCS/BigQuery exports.
	Error          string        `json:"error,omitempty"`         // Set when the group failed as a whole.
	Duration       time.Duration `json:"duration"`                // Wall time of the group.
}

// Failed reports whether the group as a whole failed.
func (g *GroupReport) Failed() bool {
	return g.Error != ""
}

// RunReport summarizes one pipeline run. AddGroup is safe for concurrent use
// so parallel task groups can report into the same run.
type RunReport struct {
	mu        sync.Mutex
	RunId     string         `json:"run_id"`      // Random UUID identifying the run.
	SourceDir string         `json:"source_dir"`  // Raw data directory.
	DestDir   string         `json:"dest_dir"`    // Output directory.
	StartTime time.Time      `json:"start_time"`  // When the run started.
	EndTime   time.Time      `json:"end_time"`    // When the run finished.
	Groups    []*GroupReport `json:"task_groups"` // Group reports in pipeline order.
}

// NewRunReport starts a report for a run over sourceDir and destDir.
func NewRunReport(sourceDir string, destDir string) *RunReport {
	return &RunReport{
		RunId:     uuid.NewString(),
		SourceDir: sourceDir,
		DestDir:   destDir,
		StartTime: time.Now(),
		Groups:    make([]*GroupReport, 0),
	}
}

// AddGroup records a group report, keeping the groups in pipeline order.
func (r *RunReport) AddGroup(group *GroupReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Groups = append(r.Groups, group)
	sort.SliceStable(r.Groups, func(i, j int) bool {
		return r.Groups[i].Order < r.Groups[j].Order
	})
}

// Finish stamps the end time.
func (r *RunReport) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.EndTime = time.Now()
}

// FailedGroups returns the names of the groups that failed as a whole.
func (r *RunReport) FailedGroups() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0)
	for _, g := range r.Groups {
		if g.Failed() {
			out = append(out, g.Group)
		}
	}
	return out
}

// Group returns the report of the named group, or nil.
func (r *RunReport) Group(name string) *GroupReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.Groups {
		if g.Group == name {
			return g
		}
	}
	return nil
}
