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


package spatial

import "errors"

var (
	// ErrCoalescerRequired is returned when a coalescer is not provided.
	ErrCoalescerRequired = errors.New("coalescer required")

	// ErrInvalidOptions indicates malformed match options.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrQueryTooLong indicates a query wider than the token mask.
	ErrQueryTooLong = errors.New("query exceeds token mask width")

	// ErrCoalesceFailure wraps an error propagated from the coalesce primitive.
	ErrCoalesceFailure = errors.New("coalesce failed")
)
