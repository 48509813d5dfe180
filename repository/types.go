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
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/tomoncle/pgrepo/record"
	"github.com/tomoncle/pgrepo/types"
)

// CrudRepository defines the record-level CRUD operations of a table.
type CrudRepository interface {
	Get(ctx context.Context, id any) (*record.Record, error)

	GetAll(ctx context.Context) ([]*record.Record, error)

	Query(ctx context.Context, text string, args ...any) ([]record.Row, error)

	Add(ctx context.Context, rec *record.Record) (*record.Record, error)

	Update(ctx context.Context, rec *record.Record) (*record.Record, error)

	Remove(ctx context.Context, rec *record.Record) error

	Fetch(ctx context.Context, rec *record.Record) (*record.Record, error)
}

// PageQueryRepository defines counting and pagination over a table.
type PageQueryRepository interface {
	Count(ctx context.Context, filter *types.QueryFilter) (int, error)
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[record.Record], error)
}

// RecordRepository combines CRUD and pagination.
type RecordRepository interface {
	CrudRepository
	PageQueryRepository
	Table() string
	PrimaryKey() string
}

var _ RecordRepository = (*Repository)(nil)

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		return int(n), nil
	case decimal.Decimal:
		return int(n.IntPart()), nil
	case string:
		return strconv.Atoi(n)
	case []byte:
		return strconv.Atoi(string(n))
	default:
		return 0, fmt.Errorf("repository: unexpected count value %T", v)
	}
}
