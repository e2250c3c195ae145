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

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jaycherian/gcp-go-media-transform/internal/api"
	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/workflow"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "transform",
		Short:         "Transform raw TMDB dumps into the task CSVs",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.srcDir, "src_dir", "i", "raw_data", "directory holding the raw data subdirectories")
	flags.StringVarP(&opts.destDir, "dest_dir", "o", "transformed_data", "directory the task CSVs are written to")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress and print a run summary")
	flags.StringVar(&opts.configDir, "config_dir", "", "configuration directory (default $"+cloud.EnvConfigFilePrefix+")")
	flags.StringVar(&opts.runtime, "runtime", "", "configuration runtime (default $"+cloud.EnvConfigRuntime+" or "+cloud.DefaultRuntime+")")
	flags.BoolVar(&opts.parallel, "parallel", false, "run the task groups concurrently")

	root.AddCommand(newServeCommand(opts), newListenCommand(opts))
	return root
}

// runOnce runs the pipeline a single time. Group failures do not change the
// exit status.
func runOnce(cmd *cobra.Command, opts *options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := InitState(ctx, opts, cmd.Flags().Changed)
	if err != nil {
		return err
	}
	defer state.Close(context.Background())

	report := workflow.NewPipeline(state.config, state.cloud).Run(ctx, state.config.Pipeline.SourceDir, state.config.Pipeline.DestDir)
	for _, g := range report.FailedGroups() {
		slog.Warn("task group did not complete", "group", g, "run_id", report.RunId)
	}
	if opts.verbose {
		printSummary(cmd.OutOrStdout(), report)
	}
	return nil
}

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API; also listens for Pub/Sub triggers when a subscription is configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			state, err := InitState(ctx, opts, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			defer state.Close(context.Background())

			if listener, sub, ok := triggerListener(state); ok {
				listener.SetCommand(workflow.NewTransformTriggerWorkflow(state.config, state.cloud, sub.RunsPerMinute))
				listener.Listen(ctx)
			}
			return api.NewServer(state.config, state.cloud).ListenAndServe(ctx)
		},
	}
}

func newListenCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Run the pipeline for every message on the TransformTrigger subscription",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			state, err := InitState(ctx, opts, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			defer state.Close(context.Background())

			listener, sub, ok := triggerListener(state)
			if !ok {
				return fmt.Errorf("no [topic_subscriptions.%s] configured", cloud.TransformTriggerSubscription)
			}
			listener.SetCommand(workflow.NewTransformTriggerWorkflow(state.config, state.cloud, sub.RunsPerMinute))
			return listener.Receive(ctx)
		},
	}
}

func triggerListener(state *StateManager) (*cloud.PubSubListener, cloud.TopicSubscription, bool) {
	sub, ok := state.config.TopicSubscriptions[cloud.TransformTriggerSubscription]
	if !ok {
		return nil, sub, false
	}
	listener, ok := state.cloud.PubSubListeners[cloud.TransformTriggerSubscription]
	return listener, sub, ok
}

// printSummary renders one table row per task group and one per task output.
func printSummary(w io.Writer, report *model.RunReport) {
	fmt.Fprintf(w, "run %s: %s -> %s (%s)\n", report.RunId, report.SourceDir, report.DestDir,
		report.EndTime.Sub(report.StartTime).Round(time.Millisecond))

	table := tablewriter.NewWriter(w)
	appendRow := func(cells ...string) {
		if err := table.Append(cells); err != nil {
			slog.Error("failed to append summary row", "error", err)
		}
	}
	appendRow("Group", "Files", "Skipped", "Failed", "Records", "Task", "Rows", "Status")
	for _, g := range report.Groups {
		status := "ok"
		if g.Failed() {
			status = g.Error
		} else if len(g.ExportErrors) > 0 {
			status = fmt.Sprintf("%d export errors", len(g.ExportErrors))
		}
		counts := []string{g.Group, strconv.Itoa(g.FilesProcessed), strconv.Itoa(g.FilesSkipped), strconv.Itoa(len(g.FailedFiles)), strconv.Itoa(g.Records)}
		if len(g.Outputs) == 0 {
			appendRow(append(counts, "-", "-", status)...)
			continue
		}
		for _, out := range g.Outputs {
			appendRow(append(append([]string{}, counts...), out.Task, strconv.Itoa(out.Rows), status)...)
		}
	}
	if err := table.Render(); err != nil {
		slog.Error("failed to render summary", "error", err)
	}
}
