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
	"net/url"
	"regexp"
)

// Lease is a connection checked out of a Pool. Release returns it.
type Lease interface {
	Querier
	Release()
}

// Pool is a bounded set of connections sharing one connection string.
type Pool interface {
	Acquire(ctx context.Context) (Lease, error)
	Ping(ctx context.Context) error
	Stat() PoolStat
	Close() error
}

// Opener creates the pool for a connection string.
type Opener func(ctx context.Context, connString string, cfg *ConnectionConfig, log Logger) (Pool, error)

// OpenerFor returns the built-in opener for driver.
func OpenerFor(driver string) Opener {
	if driver == DriverBun {
		return OpenBunPool
	}
	return OpenPgxPool
}

var passwordKV = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)

// Redact hides the password of a connection string so it can be logged.
func Redact(connString string) string {
	if u, err := url.Parse(connString); err == nil && u.User != nil {
		return u.Redacted()
	}
	return passwordKV.ReplaceAllString(connString, "${1}xxxxx")
}
