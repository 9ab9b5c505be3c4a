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


// Package indexer builds the grid cache and dictionary from a feature
// stream.
//
// Features are batched (10 000 by default), tokenized and
// frequency-counted over a worker pool, projected into grid entries at
// their index zoom, and written behind the grid store's write window.
// Word entries accumulate in the dictionary writer and flush once the
// stream ends; the packed cache is then renamed into place.
package indexer
