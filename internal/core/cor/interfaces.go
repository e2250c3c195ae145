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

// Package cor (Chain of Responsibility) provides the building blocks the
// transformation pipeline is assembled from. A task group is a chain of
// per-file commands (read, repair, dispatch), and the pipeline itself is a
// chain of task groups. This file defines the interfaces every command,
// chain and context implements.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe data between the commands of a
// BaseChain.
const (
	// CtxIn is the default key for the primary input of a command. The BaseChain
	// fills it with the output of the previous command.
	CtxIn = "__IN__"
	// CtxOut is the default key a command writes its primary output to.
	CtxOut = "__OUT__"
)

// Context is the property bag shared by every command of a single chain
// execution. It carries inputs, outputs, collected errors and the artifacts
// (files) produced along the way.
type Context interface {
	// SetContext sets the standard Go context (cancellation, trace spans).
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error under the name of the command that produced it.
	AddError(key string, err error)

	// GetErrors returns every error collected so far, keyed by command name.
	GetErrors() map[string]error

	// Get retrieves a value by key, or nil when absent.
	Get(key string) interface{}

	// Remove deletes a key.
	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// AddArtifact records a file written during the execution (e.g. a flushed CSV).
	AddArtifact(path string)

	// GetArtifacts returns the recorded artifact paths in the order they were added.
	GetArtifacts() []string
}

// Executable is anything with an Execute step.
type Executable interface {
	// Execute reads its inputs from the Context and writes its outputs back to it.
	Execute(context Context)
}

// Command is a single unit of work within a chain.
type Command interface {
	Executable

	// GetName returns the name used for logging, spans and metric names.
	GetName() string

	// GetInputParam returns the context key the command reads its input from.
	GetInputParam() string

	// GetOutputParam returns the context key the command writes its output to.
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for this command.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. It is itself a Command so chains
// can be nested: the pipeline is a chain of task groups and each task group
// runs a chain per file.
type Chain interface {
	Command

	// ContinueOnFailure controls whether the remaining commands still run after
	// one of them recorded an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
