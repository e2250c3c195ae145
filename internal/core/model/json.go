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

package model

import (
	jsoniter "github.com/json-iterator/go"
)

// JSON is the codec used for every record document and list-valued CSV cell.
//
// UseNumber keeps numeric values as their literal text (json.Number) so a
// rating of 7.0 is written back as "7.0" rather than "7". HTML escaping is off
// so company names such as "Warner Bros. & Co" survive unchanged.
var JSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()
