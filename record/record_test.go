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

package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKeepsInsertionOrder(t *testing.T) {
	r := New().Set("name", "bob").Set("id", 1).Set("email", "bob@example.com")
	assert.Equal(t, []string{"name", "id", "email"}, r.Keys())

	r.Set("name", "alice")
	assert.Equal(t, []string{"name", "id", "email"}, r.Keys())
	assert.Equal(t, "alice", r.Value("name"))
	assert.Equal(t, 3, r.Len())
}

func TestRecordZeroValue(t *testing.T) {
	var r Record
	r.Set("a", 1)
	assert.True(t, r.Has("a"))

	var nilRecord *Record
	assert.Equal(t, 0, nilRecord.Len())
	assert.Nil(t, nilRecord.Value("a"))
	assert.Nil(t, nilRecord.Keys())
}

func TestRecordDelete(t *testing.T) {
	r := New().Set("a", 1).Set("b", 2).Set("c", 3)
	r.Delete("b")
	r.Delete("missing")
	assert.Equal(t, []string{"a", "c"}, r.Keys())
	assert.False(t, r.Has("b"))
}

func TestFromMapSortsKeys(t *testing.T) {
	r := FromMap(map[string]any{"zeta": 1, "alpha": 2, "mid": 3})
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Keys())
	assert.Equal(t, map[string]any{"zeta": 1, "alpha": 2, "mid": 3}, r.Map())
}

func TestRecordClone(t *testing.T) {
	r := New().Set("a", 1)
	c := r.Clone()
	c.Set("b", 2)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"a", "b"}, c.Keys())
}

func TestRecordMarshalJSON(t *testing.T) {
	r := New().Set("name", "bob").Set("id", 7).Set("tags", []string{"x"})
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"bob","id":7,"tags":["x"]}`, string(b))

	b, err = json.Marshal(New())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}

func TestMapRowSingleTable(t *testing.T) {
	raw := RawRow{
		Columns: []Column{{Name: "id", TableID: 100}, {Name: "name", TableID: 100}},
		Values:  []any{int64(1), "bob"},
	}
	row := MapRow(raw)
	require.Len(t, row, 1)
	assert.False(t, row.IsJoin())
	assert.Equal(t, []string{"id", "name"}, row.Record().Keys())
	assert.Equal(t, "bob", row.Record().Value("name"))
}

func TestMapRowJoinPreservesTableOrder(t *testing.T) {
	raw := RawRow{
		Columns: []Column{
			{Name: "id", TableID: 200},
			{Name: "title", TableID: 200},
			{Name: "id", TableID: 100},
			{Name: "name", TableID: 100},
			{Name: "user_id", TableID: 200},
		},
		Values: []any{int64(9), "hello", int64(1), "bob", int64(1)},
	}
	row := MapRow(raw)
	require.Len(t, row, 2)
	assert.True(t, row.IsJoin())

	assert.Equal(t, []string{"id", "title", "user_id"}, row[0].Keys())
	assert.Equal(t, int64(9), row[0].Value("id"))
	assert.Equal(t, []string{"id", "name"}, row[1].Keys())
	assert.Equal(t, int64(1), row[1].Value("id"))
}

func TestMapRowComputedColumnStaysWithTable(t *testing.T) {
	raw := RawRow{
		Columns: []Column{{Name: "id", TableID: 100}, {Name: "name", TableID: 100}, {Name: "uname", TableID: 0}},
		Values:  []any{int64(1), "bob", "BOB"},
	}
	row := MapRow(raw)
	require.Len(t, row, 1)
	assert.False(t, row.IsJoin())
	assert.Equal(t, []string{"id", "name", "uname"}, row.Record().Keys())
	assert.Equal(t, "BOB", row.Record().Value("uname"))
}

func TestMapRowComputedColumnsInJoin(t *testing.T) {
	raw := RawRow{
		Columns: []Column{
			{Name: "n", TableID: 0},
			{Name: "id", TableID: 100},
			{Name: "id", TableID: 200},
			{Name: "total_cents", TableID: 0},
		},
		Values: []any{int64(3), int64(1), int64(9), int64(250)},
	}
	row := MapRow(raw)
	require.Len(t, row, 2)
	assert.Equal(t, []string{"n", "id"}, row[0].Keys())
	assert.Equal(t, []string{"id", "total_cents"}, row[1].Keys())
}

func TestMapRowRepeatedColumnLastWins(t *testing.T) {
	raw := RawRow{
		Columns: []Column{{Name: "id"}, {Name: "v"}, {Name: "id"}},
		Values:  []any{1, "x", 2},
	}
	row := MapRow(raw)
	require.Len(t, row, 1)
	assert.Equal(t, []string{"id", "v"}, row.Record().Keys())
	assert.Equal(t, 2, row.Record().Value("id"))
}

func TestMapRowEmpty(t *testing.T) {
	row := MapRow(RawRow{})
	assert.Empty(t, row)
	assert.Nil(t, row.Record())
}

func TestMapRows(t *testing.T) {
	cols := []Column{{Name: "id", TableID: 1}}
	rows := MapRows([]RawRow{{Columns: cols, Values: []any{1}}, {Columns: cols, Values: []any{2}}})
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[1].Record().Value("id"))

	assert.NotNil(t, MapRows(nil))
}
