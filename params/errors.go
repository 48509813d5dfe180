/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package params

import (
	"errors"
	"fmt"
)

// ErrMixedStyle is returned when a template uses both $n and @name
// placeholders, or when a named mapping is paired with a positional template.
var ErrMixedStyle = errors.New("params: cannot mix positional and named placeholders")

// ErrMissingParameter matches every *MissingParameterError via errors.Is.
var ErrMissingParameter = errors.New("params: missing named parameter")

// MissingParameterError reports a named placeholder with no value in the mapping.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("params: missing value for named parameter @%s", e.Name)
}

func (e *MissingParameterError) Unwrap() error { return ErrMissingParameter }
