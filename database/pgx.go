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

	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenPgxPool opens a pgxpool for a Postgres connection string. Connections
// are established lazily.
func OpenPgxPool(ctx context.Context, connString string, cfg *ConnectionConfig, log Logger) (Pool, error) {
	pc, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg != nil {
		if cfg.MaxOpenConns > 0 {
			pc.MaxConns = int32(cfg.MaxOpenConns)
		}
		if cfg.MinConns > 0 {
			pc.MinConns = int32(cfg.MinConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			pc.MaxConnLifetime = cfg.ConnMaxLifetime
		}
		if cfg.ConnMaxIdleTime > 0 {
			pc.MaxConnIdleTime = cfg.ConnMaxIdleTime
		}
		if cfg.ConnectTimeout > 0 && pc.ConnConfig.ConnectTimeout == 0 {
			pc.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
		}
		if tracer := newQueryTracer(cfg, log); tracer != nil {
			pc.ConnConfig.Tracer = tracer
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return &pgxPool{pool: pool}, nil
}

type pgxPool struct {
	pool *pgxpool.Pool
}

func (p *pgxPool) Acquire(ctx context.Context) (Lease, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxLease{Querier: PgxQuerier(conn), conn: conn}, nil
}

func (p *pgxPool) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *pgxPool) Stat() PoolStat {
	s := p.pool.Stat()
	return PoolStat{
		InUse: int(s.AcquiredConns()),
		Idle:  int(s.IdleConns()),
		Total: int(s.TotalConns()),
		Max:   int(s.MaxConns()),
	}
}

func (p *pgxPool) Close() error {
	p.pool.Close()
	return nil
}

type pgxLease struct {
	Querier
	conn *pgxpool.Conn
}

func (l *pgxLease) Release() { l.conn.Release() }
