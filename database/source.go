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
	"fmt"
	"sync"
)

// Source yields a connection handle per call. It is either a PooledSource or
// an OpenConnection.
type Source interface {
	Acquire(ctx context.Context) (*Handle, error)
	source()
}

// PooledSource leases connections from the manager's pool for connString.
type PooledSource struct {
	manager    *PoolManager
	connString string
}

// NewPooledSource binds a connection string to a manager. The pool is opened
// on the first Acquire and shared with every source using the same string.
func NewPooledSource(manager *PoolManager, connString string) (*PooledSource, error) {
	if manager == nil {
		return nil, ErrNilManager
	}
	if connString == "" {
		return nil, ErrEmptyConnString
	}
	return &PooledSource{manager: manager, connString: connString}, nil
}

func (*PooledSource) source() {}

// ConnString returns the connection string the source pools on.
func (s *PooledSource) ConnString() string { return s.connString }

// Manager returns the manager that owns the source's pool.
func (s *PooledSource) Manager() *PoolManager { return s.manager }

func (s *PooledSource) Acquire(ctx context.Context) (*Handle, error) {
	pool, err := s.manager.Pool(ctx, s.connString)
	if err != nil {
		return nil, err
	}
	lease, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	log := s.manager.logger
	return &Handle{
		Querier: lease,
		release: func() {
			lease.Release()
			st := pool.Stat()
			log.Debug(fmt.Sprintf("pool: %d / %d", st.InUse, st.Total))
		},
	}, nil
}

// OpenConnection wraps a connection owned by the caller. Handles from it are
// never released.
type OpenConnection struct {
	querier Querier
}

func NewOpenConnection(q Querier) (*OpenConnection, error) {
	if q == nil {
		return nil, ErrNilQuerier
	}
	return &OpenConnection{querier: q}, nil
}

func (*OpenConnection) source() {}

func (c *OpenConnection) Acquire(context.Context) (*Handle, error) {
	return &Handle{Querier: c.querier}, nil
}

// Handle is a connection ready to execute one call.
type Handle struct {
	Querier
	release func()
	once    sync.Once
}

// Release returns a pooled connection. It runs at most once and is a no-op
// for caller-owned connections.
func (h *Handle) Release() {
	if h == nil || h.release == nil {
		return
	}
	h.once.Do(h.release)
}

// Pooled reports whether the handle came from a pool.
func (h *Handle) Pooled() bool { return h != nil && h.release != nil }
