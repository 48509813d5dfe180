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

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/pgrepo/params"
)

func TestRunAgainstSQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "cli.db")
	exec := func(args ...string) string {
		t.Helper()
		var stdout, stderr bytes.Buffer
		require.NoError(t, run(append([]string{"--dsn", dsn}, args...), &stdout, &stderr), stderr.String())
		return stdout.String()
	}

	exec("query", "CREATE TABLE pets (id INTEGER PRIMARY KEY, name TEXT, kind TEXT)")
	exec("query", "INSERT INTO pets (name, kind) VALUES ($1, $2), ($3, $4)", "rex", "dog", "tom", "cat")

	out := exec("query", "SELECT name FROM pets WHERE kind = @kind", "-p", "kind=cat")
	assert.Equal(t, `{"name":"tom"}`+"\n", out)

	out = exec("-t", "pets", "get", "1")
	assert.Equal(t, `{"id":1,"name":"rex","kind":"dog"}`+"\n", out)

	out = exec("-t", "pets", "all")
	scanner := bufio.NewScanner(strings.NewReader(out))
	lines := 0
	for scanner.Scan() {
		lines++
	}
	assert.Equal(t, 2, lines)

	out = exec("-t", "pets", "--order", "id DESC", "--page-size", "1", "page")
	var page struct {
		Total int               `json:"total"`
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 1)
	assert.JSONEq(t, `{"id":2,"name":"tom","kind":"cat"}`, string(page.Items[0]))
}

func TestRunErrors(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "cli.db")
	var stdout, stderr bytes.Buffer

	assert.Error(t, run([]string{"--dsn", dsn}, &stdout, &stderr))
	assert.Error(t, run([]string{"--dsn", dsn, "frobnicate"}, &stdout, &stderr))
	assert.Error(t, run([]string{"--dsn", dsn, "all"}, &stdout, &stderr))
	assert.Error(t, run([]string{"--dsn", dsn, "query"}, &stdout, &stderr))
	assert.NoError(t, run([]string{"--help"}, &stdout, &stderr))
}

func TestQueryArguments(t *testing.T) {
	args, err := queryArguments([]string{"1", "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "x"}, args)

	args, err = queryArguments(nil, []string{"a=1", "b=two=2"})
	require.NoError(t, err)
	assert.Equal(t, []any{params.Named{"a": "1", "b": "two=2"}}, args)

	_, err = queryArguments([]string{"1"}, []string{"a=1"})
	assert.Error(t, err)
	_, err = queryArguments(nil, []string{"novalue"})
	assert.Error(t, err)
}
