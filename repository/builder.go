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

package repository

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tomoncle/pgrepo/params"
	"github.com/tomoncle/pgrepo/record"
	"github.com/tomoncle/pgrepo/types"
)

var (
	// ErrNoFields is returned when a record has nothing to write besides the
	// primary key.
	ErrNoFields = errors.New("repository: record has no fields besides the primary key")
	// ErrMissingKey is returned when an operation needs the primary key and
	// the record does not carry it.
	ErrMissingKey = errors.New("repository: record has no primary key")
	// ErrInvalidOrder is returned for an order clause that is not
	// "<column> [ASC|DESC]".
	ErrInvalidOrder = errors.New("repository: invalid order clause")
)

var orderClause = regexp.MustCompile(`(?i)^[A-Za-z_][A-Za-z0-9_.]*(\s+(ASC|DESC))?(\s+NULLS\s+(FIRST|LAST))?$`)

// builder assembles CRUD statements for one table using $n placeholders.
type builder struct {
	table      string
	primaryKey string
}

func (b builder) selectAll() params.Query {
	return params.Query{Text: "SELECT * FROM " + b.table, Args: []any{}}
}

func (b builder) selectByKey(id any) params.Query {
	return params.Query{
		Text: fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", b.table, b.primaryKey),
		Args: []any{id},
	}
}

func (b builder) deleteByKey(rec *record.Record) (params.Query, error) {
	id, ok := rec.Get(b.primaryKey)
	if !ok {
		return params.Query{}, ErrMissingKey
	}
	return params.Query{
		Text: fmt.Sprintf("DELETE FROM %s WHERE %s = $1", b.table, b.primaryKey),
		Args: []any{id},
	}, nil
}

func (b builder) fetch(rec *record.Record) (params.Query, error) {
	id, ok := rec.Get(b.primaryKey)
	if !ok {
		return params.Query{}, ErrMissingKey
	}
	return b.selectByKey(id), nil
}

func (b builder) insert(rec *record.Record) (params.Query, error) {
	cols, args := b.fields(rec)
	if len(cols) == 0 {
		return params.Query{}, ErrNoFields
	}
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = "$" + strconv.Itoa(i+1)
	}
	return params.Query{
		Text: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			b.table, strings.Join(cols, ", "), strings.Join(marks, ", ")),
		Args: args,
	}, nil
}

func (b builder) update(rec *record.Record) (params.Query, error) {
	id, ok := rec.Get(b.primaryKey)
	if !ok {
		return params.Query{}, ErrMissingKey
	}
	cols, args := b.fields(rec)
	if len(cols) == 0 {
		return params.Query{}, ErrNoFields
	}
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = $" + strconv.Itoa(i+1)
	}
	return params.Query{
		Text: fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING *",
			b.table, strings.Join(sets, ", "), b.primaryKey, len(cols)+1),
		Args: append(args, id),
	}, nil
}

// fields returns the non-key columns of rec in record order.
func (b builder) fields(rec *record.Record) ([]string, []any) {
	var cols []string
	var args []any
	rec.Range(func(key string, value any) bool {
		if key != b.primaryKey {
			cols = append(cols, key)
			args = append(args, value)
		}
		return true
	})
	return cols, args
}

// where translates an optional filter into a WHERE clause.
func (b builder) where(filter *types.QueryFilter) (params.Query, error) {
	if filter == nil || strings.TrimSpace(filter.Schema) == "" {
		return params.Query{Args: []any{}}, nil
	}
	q, err := params.Translate(filter.Schema, filter.Args...)
	if err != nil {
		return params.Query{}, err
	}
	q.Text = " WHERE " + q.Text
	return q, nil
}

func (b builder) count(filter *types.QueryFilter) (params.Query, error) {
	w, err := b.where(filter)
	if err != nil {
		return params.Query{}, err
	}
	return params.Query{Text: "SELECT count(*) AS count FROM " + b.table + w.Text, Args: w.Args}, nil
}

func (b builder) page(req *types.PageRequest) (params.Query, error) {
	q, err := b.where(req.GetFilter())
	if err != nil {
		return params.Query{}, err
	}
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(b.table)
	sb.WriteString(q.Text)
	if orders := req.GetOrders(); len(orders) > 0 {
		for _, o := range orders {
			if !orderClause.MatchString(strings.TrimSpace(o)) {
				return params.Query{}, fmt.Errorf("%w: %q", ErrInvalidOrder, o)
			}
		}
		sb.WriteString(" ORDER BY ")
		for i, o := range orders {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strings.TrimSpace(o))
		}
	}
	fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", req.GetPageSize(), req.GetOffset())
	q.Text = sb.String()
	return q, nil
}
