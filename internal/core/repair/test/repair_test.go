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

package repair_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/repair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// prettyRecord renders one record the way the generator does: indented, with
// the closing brace at column 0 and no separator after it.
func prettyRecord(title string, n int) string {
	return fmt.Sprintf("{\n    \"title\": %q,\n    \"media_type\": \"MOVIE\",\n    \"rank\": %d,\n    \"genre_ids\": [\n        18,\n        80\n    ]\n}\n", title, n)
}

func titles(t *testing.T, doc *model.RepairedDocument) []string {
	out := make([]string, 0, doc.Len())
	for _, r := range doc.Contents {
		s, err := r.GetString("title")
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func TestRepairConcatenatedRecords(t *testing.T) {
	for _, n := range []int{1, 2, 3, 10, 57} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			var sb strings.Builder
			want := make([]string, 0, n)
			for i := 0; i < n; i++ {
				title := fmt.Sprintf("Movie %03d", i)
				want = append(want, title)
				sb.WriteString(prettyRecord(title, i))
			}
			doc, err := repair.Repair(sb.String())
			require.NoError(t, err)
			assert.Equal(t, n, doc.Len())
			if diff := cmp.Diff(want, titles(t, doc)); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRepairKeepsLiteralNumbers(t *testing.T) {
	doc, err := repair.Repair("{\n  \"title\": \"Big\",\n  \"vote_average\": 7.0\n}\n")
	require.NoError(t, err)
	require.Equal(t, 1, doc.Len())
	assert.Equal(t, json.Number("7.0"), doc.Contents[0]["vote_average"])
}

func TestRepairTrailingGarbage(t *testing.T) {
	valid := prettyRecord("Big", 1) + prettyRecord("Splash", 2)
	cases := map[string]string{
		"stray comma":          valid + ",\n",
		"stray comma no eol":   valid + ",",
		"blank lines":          valid + "\n\n\n",
		"unfinished fragment":  valid + "{\n    \"title\": \"Cast Aw",
		"fragment after comma": valid + ",\n{\n    \"title\": \"Cast Away\",\n",
		"crlf line endings":    strings.ReplaceAll(valid, "\n", "\r\n") + ",\r\n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			doc, err := repair.Repair(text)
			require.NoError(t, err)
			assert.Equal(t, []string{"Big", "Splash"}, titles(t, doc))
		})
	}
}

func TestRepairLastRecordWithoutNewline(t *testing.T) {
	text := prettyRecord("Big", 1) + strings.TrimSuffix(prettyRecord("Splash", 2), "\n")
	doc, err := repair.Repair(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"Big", "Splash"}, titles(t, doc))
}

func TestRepairIgnoresBracesInStrings(t *testing.T) {
	text := "{\n  \"title\": \"}\\n{ weird \\\" title }\",\n  \"overview\": \"a, b, c\"\n}\n" + prettyRecord("Big", 1)
	doc, err := repair.Repair(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"}\n{ weird \" title }", "Big"}, titles(t, doc))
}

func TestRepairNestedClosingBracesUntouched(t *testing.T) {
	text := "{\n  \"title\": \"Big\",\n  \"credits\": {\n    \"cast\": []\n}\n}\n"
	doc, err := repair.Repair(text)
	require.NoError(t, err)
	require.Equal(t, 1, doc.Len())
	credits, err := doc.Contents[0].GetRecord("credits")
	require.NoError(t, err)
	assert.Contains(t, credits, "cast")
}

func TestRepairEmptyDocuments(t *testing.T) {
	for _, text := range []string{"", "   \n\n", "\uFEFF", ","} {
		doc, err := repair.Repair(text)
		require.NoError(t, err)
		assert.Equal(t, 0, doc.Len())
	}
}

func TestRepairByteOrderMark(t *testing.T) {
	doc, err := repair.Repair("\uFEFF" + prettyRecord("Big", 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Big"}, titles(t, doc))
}

func TestRepairMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        "this is not json at all\n",
		"broken object":   "{\n  \"title\": Big\n}\n",
		"non object item": "42,\n" + prettyRecord("Big", 1),
		"null item":       "null,\n" + prettyRecord("Big", 1),
		"unfinished only": "{\n  \"title\": \"Big\"\n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			doc, err := repair.Repair(text)
			assert.Nil(t, doc)
			var mie *model.MalformedInputError
			assert.True(t, errors.As(err, &mie), "want MalformedInputError, got %v", err)
		})
	}
}

func TestInsertBoundaries(t *testing.T) {
	assert.Equal(t, "{\n},\n{\n},", repair.InsertBoundaries("{\n}\n{\n}"))
	assert.Equal(t, "{},\n{},", repair.InsertBoundaries("{}\n{}"))
	assert.Equal(t, "{},\r\n{},", repair.InsertBoundaries("{}\r\n{}"))
	assert.Equal(t, "{},\n", repair.InsertBoundaries("{},\n"))
	assert.Equal(t, "{} {},", repair.InsertBoundaries("{} {}"))
	assert.Equal(t, "{\"a\": {\"b\": 1}\n},", repair.InsertBoundaries("{\"a\": {\"b\": 1}\n}"))
}

func TestTrimTrailing(t *testing.T) {
	assert.Equal(t, "{},\n{}", repair.TrimTrailing("{},\n{},\n"))
	assert.Equal(t, "{}", repair.TrimTrailing("{},\n{\"a\": 1, \"b\""))
	assert.Equal(t, "{\"a\": 1, \"b\": 2}", repair.TrimTrailing("{\"a\": 1, \"b\": 2}\n\n"))
	assert.Equal(t, "", repair.TrimTrailing(""))
}
