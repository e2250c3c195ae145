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
// the transformation service. This file defines QuotaAwareCommand, a wrapper
// that throttles how often a command may start.
//
// A pipeline run rewrites every task CSV and reloads every BigQuery table, so
// a burst of trigger messages is spread out instead of starting runs back to
// back.
package cloud

import (
	"fmt"
	"time"

	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
	"golang.org/x/time/rate"
)

// QuotaAwareCommand runs the wrapped command at most runsPerMinute times a
// minute, with the given burst.
type QuotaAwareCommand struct {
	cor.Command               // The wrapped command; its name, input and output are used unchanged.
	RateLimit   *rate.Limiter // Token bucket gating Execute.
}

// NewQuotaAwareCommand wraps command. A runsPerMinute of zero or less means
// unlimited.
func NewQuotaAwareCommand(command cor.Command, runsPerMinute int, burst int) *QuotaAwareCommand {
	limit := rate.Inf
	if runsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(runsPerMinute))
	}
	if burst < 1 {
		burst = 1
	}
	return &QuotaAwareCommand{Command: command, RateLimit: rate.NewLimiter(limit, burst)}
}

// Execute waits for a token, then executes the wrapped command. If the
// context is canceled while waiting the wrapped command does not run and the
// cancellation is recorded as an error.
func (q *QuotaAwareCommand) Execute(context cor.Context) {
	if err := q.RateLimit.Wait(context.GetContext()); err != nil {
		context.AddError(q.GetName(), fmt.Errorf("waiting for run quota: %w", err))
		return
	}
	q.Command.Execute(context)
}
