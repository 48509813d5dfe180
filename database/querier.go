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

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/uptrace/bun"

	"github.com/tomoncle/pgrepo/record"
)

// Querier executes a positional query and returns every row with its
// column metadata.
type Querier interface {
	Query(ctx context.Context, text string, args []any) ([]record.RawRow, error)
}

// QuerierFunc adapts a function to Querier.
type QuerierFunc func(ctx context.Context, text string, args []any) ([]record.RawRow, error)

func (f QuerierFunc) Query(ctx context.Context, text string, args []any) ([]record.RawRow, error) {
	return f(ctx, text, args)
}

// PgxQueryer is satisfied by *pgx.Conn, pgx.Tx, *pgxpool.Pool and *pgxpool.Conn.
type PgxQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxQuerier wraps a pgx connection. Columns carry the source table OID so
// join rows can be split per table.
func PgxQuerier(q PgxQueryer) Querier {
	return &pgxQuerier{conn: q}
}

type pgxQuerier struct {
	conn PgxQueryer
}

func (q *pgxQuerier) Query(ctx context.Context, text string, args []any) ([]record.RawRow, error) {
	rows, err := q.conn.Query(ctx, text, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []record.Column
	out := make([]record.RawRow, 0)
	for rows.Next() {
		if cols == nil {
			cols = pgxColumns(rows.FieldDescriptions())
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		for i := range vals {
			vals[i] = normalizeValue(vals[i], "")
		}
		out = append(out, record.RawRow{Columns: cols, Values: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func pgxColumns(fields []pgconn.FieldDescription) []record.Column {
	cols := make([]record.Column, len(fields))
	for i, f := range fields {
		cols[i] = record.Column{Name: f.Name, TableID: f.TableOID}
	}
	return cols
}

// SQLQueryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type SQLQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLQuerier wraps a database/sql handle. database/sql exposes no source
// table, so every column reports TableID 0 and rows map to one record.
// Hooks receive a bun.QueryEvent around every query. Passing a *bun.DB runs
// queries on its underlying *sql.DB, bypassing bun's formatter, and sets
// QueryEvent.DB; for any other handle QueryEvent.DB is nil.
func SQLQuerier(q SQLQueryer, hooks ...bun.QueryHook) Querier {
	if db, ok := q.(*bun.DB); ok {
		return &sqlQuerier{conn: db.DB, db: db, hooks: hooks}
	}
	return &sqlQuerier{conn: q, hooks: hooks}
}

type sqlQuerier struct {
	conn  SQLQueryer
	db    *bun.DB
	hooks []bun.QueryHook
}

func (q *sqlQuerier) Query(ctx context.Context, text string, args []any) (out []record.RawRow, err error) {
	if len(q.hooks) > 0 {
		event := &bun.QueryEvent{
			DB:        q.db,
			Query:     text,
			QueryArgs: args,
			StartTime: time.Now(),
		}
		for _, h := range q.hooks {
			ctx = h.BeforeQuery(ctx, event)
		}
		defer func() {
			event.Err = err
			for i := len(q.hooks) - 1; i >= 0; i-- {
				q.hooks[i].AfterQuery(ctx, event)
			}
		}()
	}

	rows, err := q.conn.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]record.Column, len(names))
	for i, name := range names {
		cols[i] = record.Column{Name: name}
	}

	out = make([]record.RawRow, 0)
	for rows.Next() {
		vals, err := sqlx.SliceScan(rows)
		if err != nil {
			return nil, err
		}
		for i := range vals {
			vals[i] = normalizeValue(vals[i], colTypes[i].DatabaseTypeName())
		}
		out = append(out, record.RawRow{Columns: cols, Values: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
