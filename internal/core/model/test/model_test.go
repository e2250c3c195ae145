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

package model_test

import (
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, text string) model.Record {
	t.Helper()
	r := model.Record{}
	require.NoError(t, model.JSON.UnmarshalFromString(text, &r))
	return r
}

func TestRecordAccessors(t *testing.T) {
	r := decode(t, `{
		"title": "Big",
		"budget": 18000000,
		"vote_average": 7.0,
		"revenue": null,
		"genre_ids": [14, 35],
		"credits": {"cast": [{"name": "Tom Hanks"}]}
	}`)

	title, err := r.GetString("title")
	require.NoError(t, err)
	assert.Equal(t, "Big", title)

	budget, ok, err := r.GetNumber("budget")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 18000000.0, budget)

	vote, ok, err := r.GetNumber("vote_average")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7.0, vote)

	_, ok, err = r.GetNumber("revenue")
	require.NoError(t, err)
	assert.False(t, ok)

	genres, err := r.GetList("genre_ids")
	require.NoError(t, err)
	assert.Len(t, genres, 2)

	credits, err := r.GetRecord("credits")
	require.NoError(t, err)
	cast, err := credits.GetList("cast")
	require.NoError(t, err)
	member, err := model.AsRecord("credits.cast", cast[0])
	require.NoError(t, err)
	name, err := member.GetString("name")
	require.NoError(t, err)
	assert.Equal(t, "Tom Hanks", name)
}

func TestRecordMissingField(t *testing.T) {
	r := decode(t, `{"title": "Big"}`)

	_, err := r.GetString("overview")
	var missing *model.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "overview", missing.Key)
	assert.Equal(t, `missing field "overview"`, err.Error())

	_, _, err = r.GetNumber("budget")
	assert.True(t, errors.As(err, &missing))
}

func TestRecordWrongType(t *testing.T) {
	r := decode(t, `{"title": 12, "genre_ids": null, "credits": [], "budget": "lots"}`)
	cases := []struct {
		name string
		call func() error
		key  string
		want string
	}{
		{"string", func() error { _, err := r.GetString("title"); return err }, "title", "string"},
		{"null list", func() error { _, err := r.GetList("genre_ids"); return err }, "genre_ids", "list"},
		{"object", func() error { _, err := r.GetRecord("credits"); return err }, "credits", "object"},
		{"number", func() error { _, _, err := r.GetNumber("budget"); return err }, "budget", "number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var fte *model.FieldTypeError
			require.True(t, errors.As(tc.call(), &fte))
			assert.Equal(t, tc.key, fte.Key)
			assert.Equal(t, tc.want, fte.Want)
		})
	}
}

func TestAsNumberAcceptsGoNumbers(t *testing.T) {
	for _, v := range []any{3, int64(3), 3.0} {
		f, err := model.AsNumber("n", v)
		require.NoError(t, err)
		assert.Equal(t, 3.0, f)
	}
	_, err := model.AsNumber("n", true)
	assert.EqualError(t, err, `field "n": expected number, got bool`)
}

func TestErrorsUnwrap(t *testing.T) {
	mie := &model.MalformedInputError{Source: "a.txt", Err: io.ErrUnexpectedEOF}
	assert.Equal(t, "malformed input a.txt: unexpected EOF", mie.Error())
	assert.ErrorIs(t, mie, io.ErrUnexpectedEOF)
	assert.Equal(t, "malformed input: unexpected EOF", (&model.MalformedInputError{Err: io.ErrUnexpectedEOF}).Error())

	gf := &model.GroupFailure{Group: "shows", Err: mie}
	assert.Equal(t, "task group shows failed: malformed input a.txt: unexpected EOF", gf.Error())
	var inner *model.MalformedInputError
	require.True(t, errors.As(gf, &inner))
	assert.Same(t, mie, inner)
}

func TestRunReport(t *testing.T) {
	report := model.NewRunReport("raw_data", "transformed_data")
	_, err := uuid.Parse(report.RunId)
	require.NoError(t, err)

	report.AddGroup(&model.GroupReport{Group: "shows", Order: 2, Error: "boom"})
	report.AddGroup(&model.GroupReport{Group: "movies", Order: 0})
	report.AddGroup(&model.GroupReport{Group: "regions", Order: 1})
	report.Finish()

	names := make([]string, 0)
	for _, g := range report.Groups {
		names = append(names, g.Group)
	}
	assert.Equal(t, []string{"movies", "regions", "shows"}, names)
	assert.Equal(t, []string{"shows"}, report.FailedGroups())
	assert.False(t, report.Group("movies").Failed())
	assert.Nil(t, report.Group("nope"))
	assert.False(t, report.EndTime.Before(report.StartTime))
}

func TestTransientStructures(t *testing.T) {
	var doc *model.RepairedDocument
	assert.Equal(t, 0, doc.Len())

	region, err := model.Metadata{model.MetadataRegion: "US"}.Lookup(model.MetadataRegion)
	require.NoError(t, err)
	assert.Equal(t, "US", region)

	_, err = model.Metadata{}.Lookup(model.MetadataRegion)
	var missing *model.MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "metadata.region", missing.Key)
}
