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
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/jaycherian/gcp-go-media-transform/internal/telemetry"
)

// options are the global command line flags.
type options struct {
	srcDir    string
	destDir   string
	verbose   bool
	configDir string
	runtime   string
	parallel  bool
}

// StateManager holds the shared components of one invocation.
type StateManager struct {
	config   *cloud.Config
	cloud    *cloud.ServiceClients
	shutdown func(context.Context) error
}

// GetConfig loads the layered TOML configuration and applies the flags the
// user actually set.
func GetConfig(opts *options, changed func(string) bool) (*cloud.Config, error) {
	config := cloud.NewConfig()
	if err := cloud.LoadConfigFrom(opts.configDir, opts.runtime, config); err != nil {
		return nil, err
	}
	if changed("src_dir") {
		config.Pipeline.SourceDir = opts.srcDir
	}
	if changed("dest_dir") {
		config.Pipeline.DestDir = opts.destDir
	}
	if changed("parallel") {
		config.Pipeline.ParallelGroups = opts.parallel
	}
	return config, nil
}

// InitState sets up logging, configuration, telemetry and the cloud clients.
func InitState(ctx context.Context, opts *options, changed func(string) bool) (*StateManager, error) {
	telemetry.SetupLogging(os.Stderr, opts.verbose)

	config, err := GetConfig(opts, changed)
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to setup OpenTelemetry: %w", err)
	}

	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	slog.Info("initialized state", "runtime", opts.runtime, "src_dir", config.Pipeline.SourceDir, "dest_dir", config.Pipeline.DestDir)
	return &StateManager{config: config, cloud: clients, shutdown: shutdown}, nil
}

// Close releases the clients and flushes telemetry.
func (s *StateManager) Close(ctx context.Context) {
	s.cloud.Close()
	if err := s.shutdown(ctx); err != nil {
		slog.Error("failed to shutdown telemetry", "error", err)
	}
}
