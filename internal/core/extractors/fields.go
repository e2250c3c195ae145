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
	"errors"
	"fmt"

	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
)

// entryFilter decides whether one element of a nested list is kept.
type entryFilter func(entry model.Record, path string) (bool, error)

// pluck returns the `field` value of every object in record[listKey] that
// passes keep (nil keeps everything), in list order.
func pluck(record model.Record, listKey string, field string, keep entryFilter) ([]any, error) {
	list, err := record.GetList(listKey)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(list))
	for i, item := range list {
		path := fmt.Sprintf("%s[%d]", listKey, i)
		entry, err := model.AsRecord(path, item)
		if err != nil {
			return nil, err
		}
		if keep != nil {
			ok, err := keep(entry, path)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		v, err := entry.Get(field)
		if err != nil {
			return nil, qualify(err, path)
		}
		out = append(out, v)
	}
	return out, nil
}

// names is pluck for the "name" field.
func names(record model.Record, listKey string, keep entryFilter) ([]any, error) {
	return pluck(record, listKey, "name", keep)
}

// orderBelow keeps cast entries billed before limit.
func orderBelow(limit int) entryFilter {
	return func(entry model.Record, path string) (bool, error) {
		order, notNull, err := entry.GetNumber("order")
		if err != nil {
			return false, qualify(err, path)
		}
		if !notNull {
			return false, &model.FieldTypeError{Key: path + ".order", Want: "number", Got: nil}
		}
		return order < float64(limit), nil
	}
}

// jobIs keeps crew entries with the given job.
func jobIs(job string) entryFilter {
	return func(entry model.Record, path string) (bool, error) {
		v, err := entry.Get("job")
		if err != nil {
			return false, qualify(err, path)
		}
		s, ok := v.(string)
		return ok && s == job, nil
	}
}

// field maps an output column to the record key it is copied from.
type field struct {
	column string
	key    string
}

// copyFields copies the listed keys of record unchanged into row.
func copyFields(record model.Record, row map[string]any, fs ...field) error {
	for _, f := range fs {
		v, err := record.Get(f.key)
		if err != nil {
			return err
		}
		row[f.column] = v
	}
	return nil
}

// qualify prefixes the key of a field error with the path of the nested
// object it came from.
func qualify(err error, path string) error {
	var mf *model.MissingFieldError
	if errors.As(err, &mf) {
		return &model.MissingFieldError{Key: path + "." + mf.Key}
	}
	var ft *model.FieldTypeError
	if errors.As(err, &ft) {
		return &model.FieldTypeError{Key: path + "." + ft.Key, Want: ft.Want, Got: ft.Got}
	}
	return err
}
