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
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/pgrepo/database"
	"github.com/tomoncle/pgrepo/params"
	"github.com/tomoncle/pgrepo/record"
)

// countingPool counts leases and releases and answers through client.
type countingPool struct {
	client   *mockClient
	acquired atomic.Int32
	released atomic.Int32
}

func (p *countingPool) Acquire(ctx context.Context) (database.Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.acquired.Add(1)
	return &countingLease{pool: p}, nil
}

func (p *countingPool) Ping(context.Context) error { return nil }

func (p *countingPool) Stat() database.PoolStat {
	in := int(p.acquired.Load() - p.released.Load())
	return database.PoolStat{InUse: in, Total: int(p.acquired.Load())}
}

func (p *countingPool) Close() error { return nil }

type countingLease struct {
	pool *countingPool
}

func (l *countingLease) Query(ctx context.Context, text string, args []any) ([]record.RawRow, error) {
	return l.pool.client.Query(ctx, text, args)
}

func (l *countingLease) Release() { l.pool.released.Add(1) }

func newPooledRepo(t *testing.T, pool *countingPool) *Repository {
	t.Helper()
	m := database.NewPoolManager(nil,
		database.WithManagerLogger(database.NopLogger()),
		database.WithOpener(func(context.Context, string, *database.ConnectionConfig, database.Logger) (database.Pool, error) {
			return pool, nil
		}))
	t.Cleanup(func() { _ = m.Close() })
	src, err := database.NewPooledSource(m, "postgres://localhost/app")
	require.NoError(t, err)
	repo, err := New(src, "user", WithLogger(database.NopLogger()))
	require.NoError(t, err)
	return repo
}

func TestTranslationFailureNeverAcquires(t *testing.T) {
	pool := &countingPool{client: &mockClient{}}
	repo := newPooledRepo(t, pool)

	_, err := repo.Query(context.Background(), "SELECT * FROM user WHERE id = @id", params.Named{})
	var missing *params.MissingParameterError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "id", missing.Name)
	assert.Equal(t, int32(0), pool.acquired.Load())
}

func TestDriverFailureReleasesOnce(t *testing.T) {
	pool := &countingPool{client: &mockClient{err: errors.New("connection reset")}}
	repo := newPooledRepo(t, pool)

	_, err := repo.Get(context.Background(), 1)
	var de *database.DriverError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, int32(1), pool.acquired.Load())
	assert.Equal(t, int32(1), pool.released.Load())
}

func TestAcquireFailureIsDriverError(t *testing.T) {
	pool := &countingPool{client: &mockClient{}}
	repo := newPooledRepo(t, pool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.GetAll(ctx)
	var de *database.DriverError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), pool.released.Load())
}

func TestConcurrentCallsReleaseEveryLease(t *testing.T) {
	client := &mockClient{rows: oneRow([]string{"id"}, 1)}
	pool := &countingPool{client: client}
	repo := newPooledRepo(t, pool)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := repo.Query(context.Background(), fmt.Sprintf("SELECT @v AS v%d", i), params.Named{"v": i})
			assert.NoError(t, err)
			assert.Len(t, rec, 1)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(n), pool.acquired.Load())
	assert.Equal(t, int32(n), pool.released.Load())
	assert.Len(t, client.sql, n)
}
