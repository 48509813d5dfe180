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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateNamed(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		params   Named
		wantText string
		wantArgs []any
	}{
		{"sequential", "@a @b @c", Named{"a": 1, "b": 2, "c": 3}, "$1 $2 $3", []any{1, 2, 3}},
		{"repeated token collapses", "@a @a", Named{"a": 5}, "$1 $1", []any{5}},
		{"first appearance order", "@c @a @c @b", Named{"a": 1, "b": 2, "c": 3}, "$1 $2 $1 $3", []any{3, 1, 2}},
		{"extra keys ignored", "@a b c", Named{"a": 1, "b": 2, "c": 3}, "$1 b c", []any{1}},
		{"prefix names stay distinct", "@id = @identity", Named{"id": 1, "identity": 2}, "$1 = $2", []any{1, 2}},
		{"punctuation ends token", "WHERE (x = @x, y = @y)", Named{"x": "a", "y": "b"}, "WHERE (x = $1, y = $2)", []any{"a", "b"}},
		{"raw query", "SELECT name FROM user WHERE id = @id", Named{"id": 123}, "SELECT name FROM user WHERE id = $1", []any{123}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Translate(tc.text, tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.wantText, q.Text)
			assert.Equal(t, tc.wantArgs, q.Args)
		})
	}
}

func TestTranslateAcceptsPlainMap(t *testing.T) {
	q, err := Translate("SELECT * FROM user WHERE name = @name", map[string]any{"name": "bob"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM user WHERE name = $1", q.Text)
	assert.Equal(t, []any{"bob"}, q.Args)
}

func TestTranslatePositionalWithMapValue(t *testing.T) {
	doc := map[string]any{"lang": "go"}
	q, err := Translate("INSERT INTO t (doc) VALUES ($1)", doc)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (doc) VALUES ($1)", q.Text)
	assert.Equal(t, []any{doc}, q.Args)

	_, err = Translate("INSERT INTO t (doc) VALUES ($1)", Named{"lang": "go"})
	assert.ErrorIs(t, err, ErrMixedStyle)
}

func TestTranslateIsDeterministic(t *testing.T) {
	params := Named{"z": 26, "a": 1, "m": 13}
	first, err := Translate("@m @z @a @m", params)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Translate("@m @z @a @m", params)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []any{13, 26, 1}, first.Args)
}

func TestTranslateMissingParameter(t *testing.T) {
	_, err := Translate("@a @nope", Named{"a": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingParameter))

	var missing *MissingParameterError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "nope", missing.Name)

	_, err = Translate("SELECT name FROM user WHERE id = @id", Named{"_id": 123})
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestTranslateDigitLedName(t *testing.T) {
	_, err := Translate("SELECT @1st", Named{"a": 1})
	var missing *MissingParameterError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "1st", missing.Name)

	q, err := Translate("SELECT @1st", Named{"1st": 1})
	require.NoError(t, err)
	assert.Equal(t, "SELECT $1", q.Text)
}

func TestTranslateNamedWithoutMapping(t *testing.T) {
	_, err := Translate("SELECT @id", 123)
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestTranslateMixedStyle(t *testing.T) {
	_, err := Translate("@a $1", Named{"a": 1})
	assert.ErrorIs(t, err, ErrMixedStyle)

	_, err = Translate("SELECT name FROM user WHERE id = @id $2", Named{"id": 123})
	assert.ErrorIs(t, err, ErrMixedStyle)

	_, err = Translate("SELECT $1", Named{"a": 1})
	assert.ErrorIs(t, err, ErrMixedStyle)
}

func TestTranslatePositionalPassThrough(t *testing.T) {
	q, err := Translate("SELECT name FROM user WHERE id = $1", 123)
	require.NoError(t, err)
	assert.Equal(t, "SELECT name FROM user WHERE id = $1", q.Text)
	assert.Equal(t, []any{123}, q.Args)

	q, err = Translate("UPDATE t SET a = $1 WHERE id = $2", "x", 7)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", 7}, q.Args)
}

func TestTranslatePositionalCopiesArgs(t *testing.T) {
	args := []any{1, 2}
	q, err := Translate("$1 $2", args...)
	require.NoError(t, err)
	args[0] = 99
	assert.Equal(t, []any{1, 2}, q.Args)
}

func TestTranslateNoTokens(t *testing.T) {
	q, err := Translate("SELECT * FROM user")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM user", q.Text)
	assert.NotNil(t, q.Args)
	assert.Empty(t, q.Args)

	q, err = Translate("SELECT 1", Named{"a": 1})
	require.NoError(t, err)
	assert.Empty(t, q.Args)
}

func TestTranslateIgnoresOperators(t *testing.T) {
	q, err := Translate("SELECT * FROM doc WHERE tags @> @tags", Named{"tags": "{a}"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM doc WHERE tags @> $1", q.Text)
	assert.Equal(t, []any{"{a}"}, q.Args)
}
