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

// Column describes one result column. TableID identifies the table the
// column was read from; zero means the column has no source table (computed
// expressions, or any column from a database/sql driver).
type Column struct {
	Name    string
	TableID uint32
}

// RawRow is one result row as returned by a driver.
type RawRow struct {
	Columns []Column
	Values  []any
}

// Row is a mapped result row: one record per source table, in the order the
// tables first appear among the columns.
type Row []*Record

// Record returns the first record of the row, which is the whole row for
// single-table queries.
func (r Row) Record() *Record {
	if len(r) == 0 {
		return nil
	}
	return r[0]
}

// IsJoin reports whether the row spans more than one table.
func (r Row) IsJoin() bool { return len(r) > 1 }

// MapRow splits raw into per-table records. Columns without a table
// (expressions, aggregates, casts) belong to the most recent table column,
// or to the first table when they lead the row, so a row is a join only when
// two or more tables report columns. Within a table, a repeated column name
// keeps its first position and its last value.
func MapRow(raw RawRow) Row {
	if len(raw.Columns) == 0 {
		return nil
	}
	var row Row
	index := make(map[uint32]int, 2)
	for _, col := range raw.Columns {
		if _, ok := index[col.TableID]; col.TableID != 0 && !ok {
			index[col.TableID] = len(row)
			row = append(row, New())
		}
	}
	if len(row) == 0 {
		row = append(row, New())
	}

	current := 0
	for i, col := range raw.Columns {
		if col.TableID != 0 {
			current = index[col.TableID]
		}
		var value any
		if i < len(raw.Values) {
			value = raw.Values[i]
		}
		row[current].Set(col.Name, value)
	}
	return row
}

// MapRows maps every row of a result. The result is never nil.
func MapRows(raws []RawRow) []Row {
	rows := make([]Row, 0, len(raws))
	for _, raw := range raws {
		rows = append(rows, MapRow(raw))
	}
	return rows
}
