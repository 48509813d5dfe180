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
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// OpenBunPool opens a database/sql pool wrapped in bun. Postgres goes through
// lib/pq; file: and *.db connection strings go through sqliteshim.
func OpenBunPool(ctx context.Context, connString string, cfg *ConnectionConfig, log Logger) (Pool, error) {
	return openBunPool(connString, cfg, log, nil)
}

func openBunPool(connString string, cfg *ConnectionConfig, log Logger, extra []bun.QueryHook) (Pool, error) {
	if cfg == nil {
		cfg = DefaultConnectionConfig()
	}

	var db *bun.DB
	switch DialectOf(connString) {
	case TypeSQLite:
		sqlDB, err := sql.Open(sqliteshim.ShimName, strings.TrimPrefix(connString, "sqlite://"))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	default:
		sqlDB, err := sql.Open("postgres", connString)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		db = bun.NewDB(sqlDB, pgdialect.New())
	}

	db.DB.SetMaxOpenConns(cfg.MaxOpenConns)
	db.DB.SetMaxIdleConns(cfg.MaxIdleConns)
	db.DB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.DB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	var hooks []bun.QueryHook
	if cfg.EnableQueryLog {
		hooks = append(hooks, bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if cfg.SlowQueryTime > 0 && log != nil {
		hooks = append(hooks, &SlowQueryHook{slowTime: cfg.SlowQueryTime, logger: log})
	}
	hooks = append(hooks, extra...)

	return &bunPool{db: db, hooks: hooks}, nil
}

// DialectOf reports which database a connection string addresses.
func DialectOf(connString string) string {
	s := strings.ToLower(strings.TrimSpace(connString))
	switch {
	case strings.HasPrefix(s, "postgres://"), strings.HasPrefix(s, "postgresql://"):
		return TypePostgres
	case strings.HasPrefix(s, "file:"), strings.HasPrefix(s, "sqlite://"),
		s == ":memory:", strings.HasSuffix(s, ".db"), strings.HasSuffix(s, ".sqlite"):
		return TypeSQLite
	default:
		return TypePostgres
	}
}

type bunPool struct {
	db    *bun.DB
	hooks []bun.QueryHook
}

// Acquire leases a raw *sql.Conn. bun.Conn would interpolate "?" tokens,
// which are legal in Postgres operators, so queries bypass bun's formatter.
func (p *bunPool) Acquire(ctx context.Context) (Lease, error) {
	conn, err := p.db.DB.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &bunLease{
		Querier: &sqlQuerier{conn: conn, db: p.db, hooks: p.hooks},
		conn:    conn,
	}, nil
}

func (p *bunPool) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *bunPool) Stat() PoolStat {
	s := p.db.DB.Stats()
	return PoolStat{
		InUse: s.InUse,
		Idle:  s.Idle,
		Total: s.OpenConnections,
		Max:   s.MaxOpenConnections,
	}
}

func (p *bunPool) Close() error { return p.db.Close() }

type bunLease struct {
	Querier
	conn *sql.Conn
}

func (l *bunLease) Release() { _ = l.conn.Close() }
