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

// Command transform turns raw TMDB dumps into the five task CSVs.
//
//	transform [-i raw_data] [-o transformed_data] [-v] [--parallel]
//	transform serve     # HTTP API (and the Pub/Sub trigger, if configured)
//	transform listen    # Pub/Sub trigger only
//
// A run always exits 0 once the configuration loaded, even if task groups
// failed; failures are logged and shown in the verbose summary.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
