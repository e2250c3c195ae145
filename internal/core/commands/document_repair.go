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

package commands

import (
	"errors"

	"github.com/jaycherian/gcp-go-media-transform/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/repair"
)

// DocumentRepair turns the raw text in its input parameter into a
// *model.RepairedDocument. A document that cannot be repaired is recorded as
// a *model.MalformedInputError naming the source file.
type DocumentRepair struct {
	cor.BaseCommand
}

// NewDocumentRepair is the constructor for the DocumentRepair command.
func NewDocumentRepair(name string) *DocumentRepair {
	return &DocumentRepair{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *DocumentRepair) Execute(context cor.Context) {
	text := context.Get(c.GetInputParam()).(string)

	doc, err := repair.Repair(text)
	if err != nil {
		var mie *model.MalformedInputError
		if errors.As(err, &mie) && mie.Source == "" {
			if source, ok := context.Get(SourceFileParam).(string); ok {
				mie.Source = source
			}
		}
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), doc)
}
