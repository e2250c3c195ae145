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

// Package cloud holds the configuration model and the Google Cloud plumbing of
// the transformation service. This file loads the configuration.
//
// Configuration is hierarchical: `<dir>/.env.toml` is decoded first and
// `<dir>/.env.<runtime>.toml` is decoded over it, so a runtime file only needs
// the keys it changes. The directory comes from MEDIA_CONFIG_PREFIX and the
// runtime from MEDIA_RUNTIME ("local" when unset). Missing files are skipped.
package cloud

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileBaseName  = ".env"                // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"               // The file extension for configuration files.
	ConfigSeparator     = "."                   // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "MEDIA_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "MEDIA_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
	DefaultRuntime      = "local"               // Runtime used when MEDIA_RUNTIME is unset.
)

// fileExists reports whether the file at path exists.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime configuration file names for the
// given directory and runtime. Empty arguments fall back to the environment.
func ConfigFiles(dir string, runtime string) (base string, env string) {
	if dir == "" {
		dir = os.Getenv(EnvConfigFilePrefix)
	}
	if len(dir) > 0 && !strings.HasSuffix(dir, string(os.PathSeparator)) {
		dir = dir + string(os.PathSeparator)
	}
	if runtime == "" {
		runtime = os.Getenv(EnvConfigRuntime)
	}
	if runtime == "" {
		runtime = DefaultRuntime
	}
	base = dir + ConfigFileBaseName + ConfigFileExtension
	env = dir + ConfigFileBaseName + ConfigSeparator + runtime + ConfigFileExtension
	return base, env
}

// LoadConfig decodes the configuration files selected by the environment into
// baseConfig. See LoadConfigFrom.
func LoadConfig(baseConfig interface{}) error {
	return LoadConfigFrom("", "", baseConfig)
}

// LoadConfigFrom decodes `<dir>/.env.toml` and then `<dir>/.env.<runtime>.toml`
// into baseConfig. Values already in baseConfig (the defaults) survive unless
// a file sets them.
//
// Inputs:
//   - dir: The configuration directory; empty uses MEDIA_CONFIG_PREFIX.
//   - runtime: The runtime name; empty uses MEDIA_RUNTIME or "local".
//   - baseConfig: A pointer to the struct to decode into.
//
// Outputs:
//   - error: A decoding error, naming the offending file.
func LoadConfigFrom(dir string, runtime string, baseConfig interface{}) error {
	baseConfigFileName, envConfigFileName := ConfigFiles(dir, runtime)

	if fileExists(baseConfigFileName) {
		slog.Info("loading base configuration", "file", baseConfigFileName)
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode base configuration file %s: %w", baseConfigFileName, err)
		}
	}

	if fileExists(envConfigFileName) {
		slog.Info("loading environment configuration", "file", envConfigFileName)
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode environment configuration file %s: %w", envConfigFileName, err)
		}
	}
	return nil
}
