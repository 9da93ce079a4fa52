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

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// DefaultVectorDimensions is the embedding width expected by the search index.
const DefaultVectorDimensions = 1536

// vectorLengthError reports a vector of the wrong width.
type vectorLengthError struct {
	got, want int
}

func (e *vectorLengthError) Error() string {
	return fmt.Sprintf("%s: got %d, expected %d", ErrVectorLength, e.got, e.want)
}

func (e *vectorLengthError) Unwrap() error {
	return ErrVectorLength
}

// ValidateSearchDocument validates a single document according to index rules.
// Every violation is reported; the returned error joins them, each wrapping
// ErrInvalidDocument.
//
// Validation rules:
//   - id must be present and non-empty (strings, non-zero numbers and true count)
//   - vector, when present and non-null, must be a list of exactly dims numbers
//
// NOT validated (passed through to the index):
//   - every other field, including published_date
func ValidateSearchDocument(doc SearchDocument, dims int) error {
	var errs []error
	for _, problem := range documentProblems(doc, dims) {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidDocument, problem))
	}
	return errors.Join(errs...)
}

// ValidateSearchDocuments checks every document and returns one message per
// violation, in document order. A nil result means the request is valid.
func ValidateSearchDocuments(docs []SearchDocument, dims int) []string {
	if dims <= 0 {
		dims = DefaultVectorDimensions
	}
	var messages []string
	for i, doc := range docs {
		err := ValidateSearchDocument(doc, dims)
		if err == nil {
			continue
		}
		id := "null"
		if key, ok := documentID(doc); ok {
			id = key
		}

		var lengthErr *vectorLengthError
		if errors.Is(err, ErrMissingID) {
			messages = append(messages, fmt.Sprintf("Document at index %d is missing required 'id'.", i))
		}
		switch {
		case errors.As(err, &lengthErr):
			messages = append(messages, fmt.Sprintf("Document id %s 'vector' length is %d, expected %d.", id, lengthErr.got, lengthErr.want))
		case errors.Is(err, ErrInvalidVector):
			messages = append(messages, fmt.Sprintf("Document id %s 'vector' must be a list of floats.", id))
		}
	}
	return messages
}

// documentProblems lists every rule doc breaks, id first.
func documentProblems(doc SearchDocument, dims int) []error {
	var problems []error
	if _, ok := documentID(doc); !ok {
		problems = append(problems, ErrMissingID)
	}

	vec, ok := doc[FieldVector]
	if !ok || vec == nil {
		return problems
	}
	n, err := vectorLength(vec)
	if err != nil {
		return append(problems, err)
	}
	if n != dims {
		problems = append(problems, &vectorLengthError{got: n, want: dims})
	}
	return problems
}

// documentID renders the id field as a string. ok is false when the id is
// absent or empty: nil, "", zero, false or an empty list or object.
func documentID(doc SearchDocument) (string, bool) {
	switch id := doc[FieldID].(type) {
	case nil:
		return "", false
	case string:
		return id, id != ""
	case bool:
		return strconv.FormatBool(id), id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), id != 0
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32), id != 0
	case int:
		return strconv.Itoa(id), id != 0
	case int64:
		return strconv.FormatInt(id, 10), id != 0
	case json.Number:
		return id.String(), id.String() != "" && id.String() != "0"
	case []any:
		return fmt.Sprint(id), len(id) > 0
	case map[string]any:
		return fmt.Sprint(id), len(id) > 0
	default:
		return fmt.Sprint(id), true
	}
}

func vectorLength(v any) (int, error) {
	switch vec := v.(type) {
	case []float32:
		return len(vec), nil
	case []float64:
		return len(vec), nil
	case []any:
		for _, el := range vec {
			if !isNumber(el) {
				return 0, ErrInvalidVector
			}
		}
		return len(vec), nil
	default:
		return 0, ErrInvalidVector
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	default:
		return false
	}
}
