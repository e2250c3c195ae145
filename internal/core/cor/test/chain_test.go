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

package cor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendCommand appends its suffix to the string input, or fails if told to.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	fail   bool
	runs   *int
}

func newAppend(name string, suffix string, fail bool, runs *int) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix, fail: fail, runs: runs}
}

func (a *appendCommand) Execute(context cor.Context) {
	*a.runs++
	if a.fail {
		context.AddError(a.GetName(), errors.New("boom"))
		return
	}
	context.Add(a.GetOutputParam(), context.Get(a.GetInputParam()).(string)+a.suffix)
}

func newContext(in string) cor.Context {
	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	c.Add(cor.CtxIn, in)
	return c
}

func TestChainPipesOutputToInput(t *testing.T) {
	runs := 0
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(newAppend("a", "-a", false, &runs))
	chain.AddCommand(newAppend("b", "-b", false, &runs))

	c := newContext("x")
	chain.Execute(c)

	assert.False(t, c.HasErrors())
	assert.Equal(t, "x-a-b", c.Get(cor.CtxIn))
	assert.Nil(t, c.Get(cor.CtxOut))
	assert.Equal(t, 2, runs)
}

func TestChainStopsOnFailure(t *testing.T) {
	runs := 0
	chain := cor.NewBaseChain("stop")
	chain.AddCommand(newAppend("a", "-a", true, &runs))
	chain.AddCommand(newAppend("b", "-b", false, &runs))

	c := newContext("x")
	chain.Execute(c)

	require.True(t, c.HasErrors())
	assert.Contains(t, c.GetErrors(), "a")
	assert.Equal(t, 1, runs)
}

func TestChainContinueOnFailure(t *testing.T) {
	runs := 0
	chain := cor.NewBaseChain("continue").ContinueOnFailure(true)
	chain.AddCommand(newAppend("a", "-a", true, &runs))
	chain.AddCommand(newAppend("b", "-b", true, &runs))

	c := newContext("x")
	chain.Execute(c)

	assert.Len(t, c.GetErrors(), 2)
	assert.Equal(t, 2, runs)
}

func TestChainContinueOnFailureKeepsInput(t *testing.T) {
	runs := 0
	chain := cor.NewBaseChain("continue").ContinueOnFailure(true)
	chain.AddCommand(newAppend("a", "-a", true, &runs))
	chain.AddCommand(newAppend("b", "-b", false, &runs))

	c := newContext("x")
	chain.Execute(c)

	require.Len(t, c.GetErrors(), 1)
	assert.Contains(t, c.GetErrors(), "a")
	assert.Equal(t, "x-b", c.Get(cor.CtxIn))
	assert.Equal(t, 2, runs)
}

func TestChainRecordsNonExecutableCommand(t *testing.T) {
	runs := 0
	chain := cor.NewBaseChain("missing-input")
	chain.AddCommand(newAppend("a", "-a", false, &runs))

	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	chain.Execute(c)

	require.True(t, c.HasErrors())
	assert.EqualError(t, c.GetErrors()["a"], "command not executable: a")
	assert.Equal(t, 0, runs)
}

func TestContextArtifactsKeepOrder(t *testing.T) {
	c := cor.NewBaseContext()
	c.AddArtifact("b.csv")
	c.AddArtifact("a.csv")
	assert.Equal(t, []string{"b.csv", "a.csv"}, c.GetArtifacts())

	c.Add("k", 1).Add("j", 2)
	c.Remove("k")
	assert.Nil(t, c.Get("k"))
	assert.Equal(t, 2, c.Get("j"))
}
