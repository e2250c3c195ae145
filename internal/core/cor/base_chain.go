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
// transformation pipeline is assembled from. This file defines BaseChain, the
// default Chain implementation.
//
// Logic Flow:
//  1. Execute opens a span for the whole chain.
//  2. For each command a child span is opened.
//  3. If the context already holds errors and continueOnFailure is false, the
//     remaining commands are skipped. The per-file chain of a task group runs
//     this way: a file that fails to repair is never dispatched.
//  4. Executable commands run with the child span's Go context; afterwards the
//     chain's own Go context is restored so sibling spans stay flat.
//  5. The value a command left in CtxOut is moved to CtxIn for the next one;
//     when it left nothing the previous CtxIn is kept.
//  6. The chain span is closed with Ok or Error depending on the context.
package cor

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain executes a list of commands sequentially.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool      // Keep executing after a command recorded an error.
	commands          []Command // The ordered commands.
}

// NewBaseChain creates an empty chain named name.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure sets the error handling behaviour of the chain. The
// pipeline chain of task groups uses true so one failing group does not stop
// the others.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand appends command to the chain.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// Commands returns the commands of the chain in execution order.
func (c *BaseChain) Commands() []Command {
	return c.commands
}

// IsExecutable only requires a Go context.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context.GetContext() != nil
}

// Execute runs every command in order.
//
// Inputs:
//   - chCtx: The shared Context for this execution.
func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()

	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()

	for _, command := range c.commands {
		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())

		if chCtx.HasErrors() && !c.continueOnFailure {
			commandSpan.SetStatus(codes.Error, "previous error on chain; skipping execution")
			commandSpan.End()
			break
		}

		errorsBefore := len(chCtx.GetErrors())
		if command.IsExecutable(chCtx) {
			chCtx.SetContext(commandContext)
			command.Execute(chCtx)
			chCtx.SetContext(outerCtx)
		} else {
			chCtx.AddError(command.GetName(), fmt.Errorf("command not executable: %s", command.GetName()))
		}

		if len(chCtx.GetErrors()) > errorsBefore {
			commandSpan.SetStatus(codes.Error, "error during or after command execution")
		} else {
			commandSpan.SetStatus(codes.Ok, "command completed successfully")
		}
		commandSpan.End()

		// Pipe the output of this command into the input of the next one. A
		// command that produced nothing leaves the previous input in place.
		if outputValue := chCtx.Get(CtxOut); outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	chCtx.SetContext(parentCtx)
	if !chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}
