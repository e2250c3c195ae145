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

package workflow

import (
	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/extractors"
)

// NewMoviesGroup builds the "movies" group: raw subdirectory tasks_1_2_5,
// extractors task_1, task_2 and task_5, no metadata.
func NewMoviesGroup(config *cloud.Config, serviceClients *cloud.ServiceClients) *TaskGroupWorkflow {
	return NewTaskGroupWorkflow(GroupMovies, 0, config.Pipeline.MoviesSubdir, NoMetadata,
		[]extractors.Extractor{
			extractors.NewTask1(),
			extractors.NewTask2(config.Pipeline.Task2CastLimit),
			extractors.NewTask5(),
		}, config, serviceClients)
}

// NewRegionsGroup builds the "regions" group: raw subdirectory task_3,
// extractor task_3, with the region taken from the file name.
func NewRegionsGroup(config *cloud.Config, serviceClients *cloud.ServiceClients) *TaskGroupWorkflow {
	return NewTaskGroupWorkflow(GroupRegions, 1, config.Pipeline.RegionsSubdir, RegionFromFileName(config.Pipeline.FileExtension),
		[]extractors.Extractor{
			extractors.NewTask3(),
		}, config, serviceClients)
}

// NewShowsGroup builds the "tv_shows" group: raw subdirectory task_4,
// extractor task_4, no metadata.
func NewShowsGroup(config *cloud.Config, serviceClients *cloud.ServiceClients) *TaskGroupWorkflow {
	return NewTaskGroupWorkflow(GroupShows, 2, config.Pipeline.ShowsSubdir, NoMetadata,
		[]extractors.Extractor{
			extractors.NewTask4(config.Pipeline.Task4CastLimit),
		}, config, serviceClients)
}
