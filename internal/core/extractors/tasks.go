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

package extractors

import (
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
)

// Task names; each is also the base name of the task's CSV file.
const (
	Task1Name = "task_1"
	Task2Name = "task_2"
	Task3Name = "task_3"
	Task4Name = "task_4"
	Task5Name = "task_5"
)

// Default billing-order cutoffs for the cast lists of task_2 and task_4.
const (
	DefaultTask2CastLimit = 100
	DefaultTask4CastLimit = 20
)

// NewTask1 builds the reviews/rating extractor (movies only): the content of
// every review, the average vote and the film title.
func NewTask1() Extractor {
	mapRow := func(record model.Record, _ model.Metadata) (map[string]any, bool, error) {
		row := make(map[string]any, 3)
		reviews, err := pluck(record, "reviews", "content", nil)
		if err != nil {
			return nil, false, err
		}
		row["reviews"] = reviews
		if err := copyFields(record, row,
			field{"rating", "vote_average"},
			field{"film_title", "title"},
		); err != nil {
			return nil, false, err
		}
		return row, true, nil
	}
	return newBaseExtractor(Task1Name, true, "title", mapRow,
		"reviews", "rating", "film_title")
}

// NewTask2 builds the popularity predictor extractor (movies only): directors
// taken from the crew, actors billed before castLimit, budget and runtime.
func NewTask2(castLimit int) Extractor {
	mapRow := func(record model.Record, _ model.Metadata) (map[string]any, bool, error) {
		row := make(map[string]any, 6)
		directors, err := names(record, "crew", jobIs("Director"))
		if err != nil {
			return nil, false, err
		}
		actors, err := names(record, "cast", orderBelow(castLimit))
		if err != nil {
			return nil, false, err
		}
		row["directors"] = directors
		row["actors"] = actors
		if err := copyFields(record, row,
			field{"popularity", "popularity"},
			field{"budget", "budget"},
			field{"runtime", "runtime"},
			field{"film_title", "title"},
		); err != nil {
			return nil, false, err
		}
		return row, true, nil
	}
	return newBaseExtractor(Task2Name, true, "title", mapRow,
		"popularity", "directors", "actors", "budget", "runtime", "film_title")
}

// NewTask3 builds the regional genre extractor. It takes movies and shows
// alike and needs the "region" metadata of the file the record came from.
func NewTask3() Extractor {
	mapRow := func(record model.Record, meta model.Metadata) (map[string]any, bool, error) {
		row := make(map[string]any, 5)
		region, err := meta.Lookup(model.MetadataRegion)
		if err != nil {
			return nil, false, err
		}
		row["region"] = region
		genres, err := record.GetList("genre_ids")
		if err != nil {
			return nil, false, err
		}
		row["genres"] = append([]any{}, genres...)
		if err := copyFields(record, row,
			field{"popularity", "popularity"},
			field{"media_type", "media_type"},
			field{"title", "title"},
		); err != nil {
			return nil, false, err
		}
		return row, true, nil
	}
	return newBaseExtractor(Task3Name, false, "title", mapRow,
		"region", "popularity", "media_type", "title", "genres")
}

// NewTask4 builds the TV show season extractor. Shows are identified by
// "name". A show with no season count (null or below one) is skipped and its
// name is not remembered, so a later record of the same show can still count.
func NewTask4(castLimit int) Extractor {
	mapRow := func(record model.Record, _ model.Metadata) (map[string]any, bool, error) {
		seasons, notNull, err := record.GetNumber("number_of_seasons")
		if err != nil {
			return nil, false, err
		}
		if !notNull || seasons < 1 {
			return nil, false, nil
		}
		row := make(map[string]any, 7)
		credits, err := record.GetRecord("credits")
		if err != nil {
			return nil, false, err
		}
		actors, err := names(credits, "cast", orderBelow(castLimit))
		if err != nil {
			return nil, false, qualify(err, "credits")
		}
		creators, err := names(record, "created_by", nil)
		if err != nil {
			return nil, false, err
		}
		row["actors"] = actors
		row["created_by"] = creators
		if err := copyFields(record, row,
			field{"title", "name"},
			field{"seasons", "number_of_seasons"},
			field{"status", "status"},
			field{"popularity", "popularity"},
			field{"rating", "vote_average"},
		); err != nil {
			return nil, false, err
		}
		return row, true, nil
	}
	return newBaseExtractor(Task4Name, false, "name", mapRow,
		"title", "seasons", "actors", "created_by", "status", "popularity", "rating")
}

// NewTask5 builds the production company/country extractor (movies only).
func NewTask5() Extractor {
	mapRow := func(record model.Record, _ model.Metadata) (map[string]any, bool, error) {
		row := make(map[string]any, 6)
		countries, err := names(record, "production_countries", nil)
		if err != nil {
			return nil, false, err
		}
		companies, err := names(record, "production_companies", nil)
		if err != nil {
			return nil, false, err
		}
		row["production_countries"] = countries
		row["production_companies"] = companies
		if err := copyFields(record, row,
			field{"media_type", "media_type"},
			field{"popularity", "popularity"},
			field{"rating", "vote_average"},
			field{"title", "title"},
		); err != nil {
			return nil, false, err
		}
		return row, true, nil
	}
	return newBaseExtractor(Task5Name, true, "title", mapRow,
		"media_type", "production_countries", "production_companies", "popularity", "rating", "title")
}
