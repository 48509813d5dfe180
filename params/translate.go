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
	"fmt"
	"regexp"
	"strconv"
)

var (
	positionalToken = regexp.MustCompile(`\$\d+`)
	// A name may start with a digit so that @1st is reported as missing
	// rather than sent to the server verbatim.
	namedToken = regexp.MustCompile(`@[A-Za-z0-9_]+`)
)

// Named maps placeholder identifiers (without the leading @) to values.
type Named map[string]any

// Query is positional query text with its ordered arguments. Args is never nil.
type Query struct {
	Text string
	Args []any
}

// Translate rewrites text into positional form.
//
// When text contains @name tokens, a single argument of type Named (or
// map[string]any) supplies their values: every distinct @name is numbered in order of first appearance, all of its
// occurrences are replaced with the same $n and its value is appended once.
// Keys of the mapping that the text never references are ignored.
// For a $n template args are the ordered values and the text is passed
// through untouched; a plain map is then just the value of $1, while an
// explicit Named is rejected. A template without placeholders yields
// empty args.
func Translate(text string, args ...any) (Query, error) {
	hasPositional := positionalToken.MatchString(text)
	hasNamed := namedToken.MatchString(text)

	switch {
	case hasPositional && hasNamed:
		return Query{}, ErrMixedStyle
	case hasNamed:
		named, _ := namedArgs(args)
		return expand(text, named)
	case hasPositional:
		if isExplicitNamed(args) {
			return Query{}, fmt.Errorf("%w: positional template given a named mapping", ErrMixedStyle)
		}
		out := make([]any, len(args))
		copy(out, args)
		return Query{Text: text, Args: out}, nil
	default:
		return Query{Text: text, Args: []any{}}, nil
	}
}

func isExplicitNamed(args []any) bool {
	if len(args) != 1 {
		return false
	}
	_, ok := args[0].(Named)
	return ok
}

func namedArgs(args []any) (Named, bool) {
	if len(args) != 1 {
		return nil, false
	}
	switch m := args[0].(type) {
	case Named:
		return m, true
	case map[string]any:
		return Named(m), true
	}
	return nil, false
}

func expand(text string, named Named) (Query, error) {
	positions := make(map[string]int)
	out := Query{Args: []any{}}

	for _, token := range namedToken.FindAllString(text, -1) {
		name := token[1:]
		if _, seen := positions[name]; seen {
			continue
		}
		value, ok := named[name]
		if !ok {
			return Query{}, &MissingParameterError{Name: name}
		}
		out.Args = append(out.Args, value)
		positions[name] = len(out.Args)
	}

	out.Text = namedToken.ReplaceAllStringFunc(text, func(token string) string {
		return "$" + strconv.Itoa(positions[token[1:]])
	})
	return out, nil
}
