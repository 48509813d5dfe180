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
	"context"
	"errors"

	"github.com/tomoncle/pgrepo/database"
	"github.com/tomoncle/pgrepo/params"
	"github.com/tomoncle/pgrepo/record"
	"github.com/tomoncle/pgrepo/types"
)

// DefaultPrimaryKey is the primary-key column used unless WithPrimaryKey is given.
const DefaultPrimaryKey = "id"

// ErrConfiguration is returned by New when the source or table is missing.
var ErrConfiguration = errors.New("repository: a source and a table name are required")

// Repository maps one table to CRUD operations. It holds no connection
// state and is safe for concurrent use.
type Repository struct {
	source  database.Source
	builder builder
	logger  database.Logger
}

type Option func(*Repository)

// WithPrimaryKey sets the primary-key column.
func WithPrimaryKey(name string) Option {
	return func(r *Repository) {
		if name != "" {
			r.builder.primaryKey = name
		}
	}
}

// WithLogger sets the logger that receives query and parameter debug lines.
func WithLogger(l database.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a repository for table reading and writing through source.
func New(source database.Source, table string, opts ...Option) (*Repository, error) {
	if source == nil || table == "" {
		return nil, ErrConfiguration
	}
	r := &Repository{
		source:  source,
		builder: builder{table: table, primaryKey: DefaultPrimaryKey},
		logger:  database.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Repository) Table() string { return r.builder.table }

func (r *Repository) PrimaryKey() string { return r.builder.primaryKey }

func (r *Repository) Source() database.Source { return r.source }

// Query runs text with args and returns every mapped row. Text uses either
// $n placeholders with ordered args or @name placeholders with a single
// params.Named argument.
func (r *Repository) Query(ctx context.Context, text string, args ...any) ([]record.Row, error) {
	q, err := params.Translate(text, args...)
	if err != nil {
		return nil, err
	}
	return r.exec(ctx, q)
}

// Get returns the record whose primary key equals id, or nil.
func (r *Repository) Get(ctx context.Context, id any) (*record.Record, error) {
	return r.first(ctx, r.builder.selectByKey(id))
}

// GetAll returns every record of the table.
func (r *Repository) GetAll(ctx context.Context) ([]*record.Record, error) {
	rows, err := r.exec(ctx, r.builder.selectAll())
	if err != nil {
		return nil, err
	}
	return records(rows), nil
}

// Add inserts rec, skipping its primary key, and returns the stored row.
func (r *Repository) Add(ctx context.Context, rec *record.Record) (*record.Record, error) {
	q, err := r.builder.insert(rec)
	if err != nil {
		return nil, err
	}
	return r.first(ctx, q)
}

// Update writes every non-key field of rec to the row with rec's primary
// key and returns the stored row, or nil when no row matched.
func (r *Repository) Update(ctx context.Context, rec *record.Record) (*record.Record, error) {
	q, err := r.builder.update(rec)
	if err != nil {
		return nil, err
	}
	return r.first(ctx, q)
}

// Remove deletes the row with rec's primary key.
func (r *Repository) Remove(ctx context.Context, rec *record.Record) error {
	q, err := r.builder.deleteByKey(rec)
	if err != nil {
		return err
	}
	_, err = r.exec(ctx, q)
	return err
}

// Fetch re-reads the row with rec's primary key, or returns nil.
func (r *Repository) Fetch(ctx context.Context, rec *record.Record) (*record.Record, error) {
	q, err := r.builder.fetch(rec)
	if err != nil {
		return nil, err
	}
	return r.first(ctx, q)
}

// Count returns the number of rows matching filter. A nil filter counts the
// whole table.
func (r *Repository) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	q, err := r.builder.count(filter)
	if err != nil {
		return 0, err
	}
	rec, err := r.first(ctx, q)
	if err != nil {
		return 0, err
	}
	return toInt(rec.Value("count"))
}

// Page returns one page of rows matching the request's filter.
func (r *Repository) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[record.Record], error) {
	if req == nil {
		req = types.NewDefaultPageRequest(1, 10)
	}
	q, err := r.builder.page(req)
	if err != nil {
		return nil, err
	}
	pagination := types.NewDefaultPagination[record.Record](req.GetPage(), req.GetPageSize())
	total, err := r.Count(ctx, req.GetFilter())
	if err != nil || total == 0 {
		return pagination, err
	}
	rows, err := r.exec(ctx, q)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = records(rows)
	return pagination, nil
}

func (r *Repository) first(ctx context.Context, q params.Query) (*record.Record, error) {
	rows, err := r.exec(ctx, q)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0].Record(), nil
}

// exec acquires a handle, runs q and releases the handle on every path.
func (r *Repository) exec(ctx context.Context, q params.Query) ([]record.Row, error) {
	r.logger.Debug("query", "sql", q.Text)
	r.logger.Debug("params", "args", q.Args)

	h, err := r.source.Acquire(ctx)
	if err != nil {
		return nil, &database.DriverError{Query: q.Text, Err: err}
	}
	defer h.Release()

	raws, err := h.Query(ctx, q.Text, q.Args)
	if err != nil {
		return nil, &database.DriverError{Query: q.Text, Err: err}
	}
	return record.MapRows(raws), nil
}

func records(rows []record.Row) []*record.Record {
	out := make([]*record.Record, 0, len(rows))
	for _, row := range rows {
		if rec := row.Record(); rec != nil {
			out = append(out, rec)
		}
	}
	return out
}
