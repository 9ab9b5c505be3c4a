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


// Package storage defines the persistence interfaces of the geocoder and
// the MUS binary codecs for everything that crosses into a store.
//
// The grid cache holds tile covers per (index, phrase) pair and backs the
// coalesce primitive. The dictionary store holds word entries written by
// the indexer. Both are read-only during query evaluation; mutation is
// serialized behind the StartWriting/StopWriting/Commit protocol.
package storage
