// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package tile projects WGS84 coordinates onto the web-mercator tile grid.
//
// It provides the projection primitives the coalesce driver depends on:
// point-to-tile addressing, bbox-to-tile-range conversion, bbox
// intersection, and the flat-approximation proximity buffer used for
// partial house-number queries.
package tile
