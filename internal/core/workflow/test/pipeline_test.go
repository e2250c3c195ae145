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

package workflow_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-media-transform/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// rawTree lays out a complete raw data directory and returns its path.
func rawTree(t *testing.T) string {
	root := t.TempDir()
	test.WriteRawFile(t, root, "tasks_1_2_5", "a.txt", test.Concat(test.Movie(1, "Big"), test.Movie(2, "Heat")))
	test.WriteRawFile(t, root, "tasks_1_2_5", "b.txt", test.Concat(test.Movie(3, "Big")))
	test.WriteRawFile(t, root, "tasks_1_2_5", "notes.json", test.Concat(test.Movie(4, "Ignored")))
	test.WriteRawFile(t, root, "task_3", "US.txt", test.Concat(test.Movie(1, "Big"), test.Show(10, "Dark", 3)))
	test.WriteRawFile(t, root, "task_3", "GB.txt", test.Concat(test.Movie(2, "Heat")))
	test.WriteRawFile(t, root, "task_4", "shows.txt", test.Concat(
		test.Show(10, "Dark", 3),
		test.Show(11, "Pilot", 0),
		test.Show(10, "Dark", 3),
	))
	return root
}

func column(t *testing.T, header []string, rows [][]string, name string) []string {
	t.Helper()
	idx := -1
	for i, h := range header {
		if h == name {
			idx = i
		}
	}
	require.NotEqual(t, -1, idx, "column %s not in %v", name, header)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r[idx])
	}
	return out
}

func TestPipelineEndToEnd(t *testing.T) {
	traceCtx, span := tracer.Start(ctx, "pipeline-end-to-end")
	defer span.End()

	raw := rawTree(t)
	out := filepath.Join(t.TempDir(), "transformed")

	report := workflow.NewPipeline(config, cloudClients).Run(traceCtx, raw, out)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.RunId)
	assert.Empty(t, report.FailedGroups())
	require.Len(t, report.Groups, 3)
	assert.Equal(t, workflow.GroupMovies, report.Groups[0].Group)
	assert.Equal(t, workflow.GroupRegions, report.Groups[1].Group)
	assert.Equal(t, workflow.GroupShows, report.Groups[2].Group)

	movies := report.Group(workflow.GroupMovies)
	assert.Equal(t, 3, movies.FilesSeen)
	assert.Equal(t, 1, movies.FilesSkipped)
	assert.Equal(t, 2, movies.FilesProcessed)
	assert.Equal(t, 3, movies.Records)

	for _, task := range []string{"task_1", "task_2", "task_5"} {
		header, rows := test.ReadCSV(t, filepath.Join(out, task+".csv"))
		assert.Equal(t, "", header[0])
		assert.Len(t, rows, 2, task)
	}

	header, rows := test.ReadCSV(t, filepath.Join(out, "task_1.csv"))
	assert.Equal(t, []string{"", "reviews", "rating", "film_title"}, header)
	assert.Equal(t, []string{"Big", "Heat"}, column(t, header, rows, "film_title"))
	assert.Equal(t, []string{"0", "1"}, column(t, header, rows, ""))
	assert.Equal(t, `["A classic."]`, rows[0][1])
	assert.Equal(t, "7.0", rows[0][2])

	header, rows = test.ReadCSV(t, filepath.Join(out, "task_2.csv"))
	assert.Equal(t, `["Penny Marshall"]`, column(t, header, rows, "directors")[0])
	assert.Equal(t, `["Tom Hanks","Elizabeth Perkins"]`, column(t, header, rows, "actors")[0])

	header, rows = test.ReadCSV(t, filepath.Join(out, "task_3.csv"))
	assert.Equal(t, []string{"", "region", "popularity", "media_type", "title", "genres"}, header)
	// GB.txt sorts before US.txt.
	assert.Equal(t, []string{"GB", "US", "US"}, column(t, header, rows, "region"))
	assert.Equal(t, []string{"Heat", "Big", "Dark"}, column(t, header, rows, "title"))
	assert.Equal(t, "[14,35]", column(t, header, rows, "genres")[0])

	header, rows = test.ReadCSV(t, filepath.Join(out, "task_4.csv"))
	assert.Equal(t, []string{"Dark"}, column(t, header, rows, "title"))
	assert.Equal(t, []string{"3"}, column(t, header, rows, "seasons"))
	assert.Equal(t, `["Vince Gilligan"]`, column(t, header, rows, "created_by")[0])

	shows := report.Group(workflow.GroupShows)
	require.Len(t, shows.Outputs, 1)
	assert.Equal(t, model.TaskOutput{Task: "task_4", Rows: 1, Path: filepath.Join(out, "task_4.csv")}, shows.Outputs[0])
}

func TestPipelineMissingSubdirectoryIsolated(t *testing.T) {
	raw := rawTree(t)
	require.NoError(t, os.RemoveAll(filepath.Join(raw, "task_3")))
	out := t.TempDir()

	report := workflow.NewPipeline(config, cloudClients).Run(ctx, raw, out)

	assert.Equal(t, []string{workflow.GroupRegions}, report.FailedGroups())
	regions := report.Group(workflow.GroupRegions)
	assert.Contains(t, regions.Error, "task group regions failed")

	assert.FileExists(t, filepath.Join(out, "task_1.csv"))
	assert.FileExists(t, filepath.Join(out, "task_4.csv"))
	assert.NoFileExists(t, filepath.Join(out, "task_3.csv"))
}

func TestPipelineSkipsMalformedFile(t *testing.T) {
	raw := rawTree(t)
	test.WriteRawFile(t, raw, "tasks_1_2_5", "broken.txt", `{"title": "Broken", "media_type": ]`+"\n")
	out := t.TempDir()

	report := workflow.NewPipeline(config, cloudClients).Run(ctx, raw, out)

	assert.Empty(t, report.FailedGroups())
	movies := report.Group(workflow.GroupMovies)
	require.Len(t, movies.FailedFiles, 1)
	assert.Equal(t, "broken.txt", movies.FailedFiles[0].File)
	assert.Equal(t, 2, movies.FilesProcessed)

	_, rows := test.ReadCSV(t, filepath.Join(out, "task_1.csv"))
	assert.Len(t, rows, 2)
}

func TestPipelineKeepsRowsBeforeBadRecord(t *testing.T) {
	raw := t.TempDir()
	// The second record has no "budget", so task_2 fails on it.
	bad := `{"title": "NoBudget", "media_type": "MOVIE", "popularity": 1, "vote_average": 5, "runtime": 90,
"reviews": [], "crew": [], "cast": [], "production_countries": [], "production_companies": []}`
	test.WriteRawFile(t, raw, "tasks_1_2_5", "a.txt", test.Concat(test.Movie(1, "Big"), bad, test.Movie(2, "Heat")))
	test.WriteRawFile(t, raw, "task_3", "US.txt", "")
	test.WriteRawFile(t, raw, "task_4", "shows.txt", "")
	out := t.TempDir()

	report := workflow.NewPipeline(config, cloudClients).Run(ctx, raw, out)

	movies := report.Group(workflow.GroupMovies)
	require.Len(t, movies.FailedFiles, 1)
	assert.Contains(t, movies.FailedFiles[0].Error, "budget")
	assert.Equal(t, 1, movies.Records)

	_, rows := test.ReadCSV(t, filepath.Join(out, "task_1.csv"))
	// task_1 runs before task_2 and accepted the bad record.
	assert.Len(t, rows, 2)
	_, rows = test.ReadCSV(t, filepath.Join(out, "task_2.csv"))
	assert.Len(t, rows, 1)
	_, rows = test.ReadCSV(t, filepath.Join(out, "task_5.csv"))
	assert.Len(t, rows, 1)

	_, rows = test.ReadCSV(t, filepath.Join(out, "task_3.csv"))
	assert.Empty(t, rows)
}

func TestPipelineParallelMatchesSequential(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	raw := rawTree(t)
	seqOut := t.TempDir()
	parOut := t.TempDir()

	seq := workflow.NewPipeline(config, cloudClients).SetParallel(false).Run(ctx, raw, seqOut)
	par := workflow.NewPipeline(config, cloudClients).SetParallel(true).Run(ctx, raw, parOut)

	assert.Empty(t, seq.FailedGroups())
	assert.Empty(t, par.FailedGroups())
	require.Len(t, par.Groups, 3)
	assert.Equal(t, workflow.GroupMovies, par.Groups[0].Group)
	for _, task := range []string{"task_1", "task_2", "task_3", "task_4", "task_5"} {
		seqData, err := os.ReadFile(filepath.Join(seqOut, task+".csv"))
		require.NoError(t, err)
		parData, err := os.ReadFile(filepath.Join(parOut, task+".csv"))
		require.NoError(t, err)
		assert.Equal(t, string(seqData), string(parData), task)
	}
}

func TestPipelineGroupsAreFresh(t *testing.T) {
	p := workflow.NewPipeline(config, cloudClients)
	first := p.Groups()
	second := p.Groups()
	require.Len(t, first, 3)
	assert.NotSame(t, first[0].Extractors()[0], second[0].Extractors()[0])

	assert.Equal(t, "tasks_1_2_5", first[0].Subdirectory())
	assert.Equal(t, "task_3", first[1].Subdirectory())
	assert.Equal(t, "task_4", first[2].Subdirectory())
	assert.Equal(t, model.Metadata{"region": "US"}, first[1].DeriveMetadata("US.txt"))
	assert.Equal(t, model.Metadata{}, first[0].DeriveMetadata("US.txt"))
}

func TestTaskGroupRequiresDirectories(t *testing.T) {
	g := workflow.NewMoviesGroup(config, cloudClients)
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	assert.False(t, g.IsExecutable(chCtx))
	chCtx.Add(workflow.RawDirParam, t.TempDir())
	chCtx.Add(workflow.OutDirParam, t.TempDir())
	assert.True(t, g.IsExecutable(chCtx))

	g.Execute(chCtx)
	require.True(t, chCtx.HasErrors())
	var failure *model.GroupFailure
	require.True(t, errors.As(chCtx.GetErrors()[workflow.GroupMovies], &failure))
	assert.Equal(t, workflow.GroupMovies, failure.Group)
}

func TestTransformTriggerWorkflow(t *testing.T) {
	raw := rawTree(t)
	out := t.TempDir()

	wf := workflow.NewTransformTriggerWorkflow(config, cloudClients, 0)
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(cor.CtxIn, `{"src_dir": "`+filepath.ToSlash(raw)+`", "dest_dir": "`+filepath.ToSlash(out)+`"}`)

	wf.Execute(chCtx)

	assert.False(t, chCtx.HasErrors(), "%v", chCtx.GetErrors())
	report, ok := chCtx.Get(workflow.RunReportParam).(*model.RunReport)
	require.True(t, ok)
	assert.Equal(t, filepath.ToSlash(raw), report.SourceDir)
	trigger, ok := chCtx.Get(cloud.GetTransformTriggerName()).(*cloud.TransformTrigger)
	require.True(t, ok)
	assert.Equal(t, filepath.ToSlash(out), trigger.DestDir)
	assert.FileExists(t, filepath.Join(out, "task_5.csv"))
}

func TestTransformTriggerWorkflowReportsFailedGroups(t *testing.T) {
	out := t.TempDir()

	wf := workflow.NewTransformTriggerWorkflow(config, cloudClients, 0)
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(cor.CtxIn, `{"src_dir": "`+filepath.ToSlash(filepath.Join(out, "missing"))+`", "dest_dir": "`+filepath.ToSlash(out)+`"}`)

	wf.Execute(chCtx)

	assert.True(t, chCtx.HasErrors())
	report, ok := chCtx.Get(workflow.RunReportParam).(*model.RunReport)
	require.True(t, ok)
	assert.Len(t, report.FailedGroups(), 3)
}

func TestTransformTriggerWorkflowRejectsBadMessage(t *testing.T) {
	wf := workflow.NewTransformTriggerWorkflow(config, cloudClients, 0)
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(cor.CtxIn, `{not json`)

	wf.Execute(chCtx)

	assert.True(t, chCtx.HasErrors())
	assert.Nil(t, chCtx.Get(workflow.RunReportParam))
}
