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


// Package spatial combines per-index phrasematch candidates into ranked
// multi-layer spatial results.
//
// The SpatialMatcher type implements a multi-stage pipeline:
//   - Collapse duplicate phrasematches per index into archetypes
//   - Enumerate combinatorially valid stacks across indexes, pruned by
//     token-mask and index-compatibility bitmasks
//   - Filter, sort and truncate stacks, then expand archetypes back out
//   - Rebalance per-cover weights so stack length doesn't skew relevance
//   - Coalesce each stack's tile covers through the grid cache, in
//     parallel with a bounded worker pool
//   - Deduplicate by feature and stacking direction, and emit the
//     top-ranking spatial matches
package spatial
