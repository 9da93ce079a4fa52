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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a SearchDocument failed validation.
	ErrInvalidDocument = errors.New("invalid search document")

	// ErrMissingID indicates a SearchDocument has no usable id.
	ErrMissingID = errors.New("document id is required")

	// ErrInvalidVector indicates a vector is not a list of numbers.
	ErrInvalidVector = errors.New("vector must be a list of floats")

	// ErrVectorLength indicates a vector has the wrong number of elements.
	ErrVectorLength = errors.New("vector has wrong length")

	// ErrEmptyLocator indicates an identifier was requested for an empty locator.
	ErrEmptyLocator = errors.New("locator cannot be empty")
)
