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
// transformation pipeline is assembled from. This file defines BaseContext,
// the default Context implementation.
//
// A BaseContext belongs to exactly one chain execution and is not safe for
// concurrent use; parallel task groups each get their own.
package cor

import (
	"context"
)

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data      map[string]interface{} // Arbitrary key-value data shared by the commands.
	errors    map[string]error       // Errors keyed by the name of the command that produced them.
	artifacts []string               // Files written during the execution, in write order.
	context   context.Context        // Standard Go context for cancellation and spans.
}

// NewBaseContext returns an empty context with its maps initialized.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		artifacts: make([]string, 0),
	}
}

// SetContext sets the underlying Go context.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext returns the underlying Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Add stores a key-value pair.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddArtifact records the path of a file written during the execution.
func (c *BaseContext) AddArtifact(path string) {
	c.artifacts = append(c.artifacts, path)
}

// GetArtifacts returns the recorded artifact paths.
func (c *BaseContext) GetArtifacts() []string {
	return c.artifacts
}

// AddError records err under key. A second error for the same key replaces the first.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns the collected errors.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get retrieves a value, or nil if the key does not exist.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any error was recorded.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
