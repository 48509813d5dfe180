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
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

// PoolManager owns every pool opened by the sources built on it, keyed by
// connection string. Create one at startup and Close it at shutdown.
type PoolManager struct {
	config *ConnectionConfig
	logger Logger
	opener Opener
	hooks  []bun.QueryHook

	mu     sync.Mutex
	pools  map[string]Pool
	health map[string]*HealthStatus
	closed bool

	stopHealthCheck chan struct{}
	healthCheckOnce sync.Once
	closeOnce       sync.Once
	wg              sync.WaitGroup
}

type ManagerOption func(*PoolManager)

// WithManagerLogger sets the logger used by the manager and its sources.
func WithManagerLogger(l Logger) ManagerOption {
	return func(m *PoolManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithOpener replaces the driver-selected pool opener.
func WithOpener(o Opener) ManagerOption {
	return func(m *PoolManager) {
		if o != nil {
			m.opener = o
		}
	}
}

// WithQueryHooks adds bun query hooks to pools opened with the bun driver.
func WithQueryHooks(hooks ...bun.QueryHook) ManagerOption {
	return func(m *PoolManager) { m.hooks = append(m.hooks, hooks...) }
}

// NewPoolManager returns a manager using cfg for every pool it opens. If cfg
// is nil, DefaultConnectionConfig is used.
func NewPoolManager(cfg *ConnectionConfig, opts ...ManagerOption) *PoolManager {
	if cfg == nil {
		cfg = DefaultConnectionConfig()
	}
	m := &PoolManager{
		config:          cfg,
		logger:          GetLogger(),
		pools:           make(map[string]Pool),
		health:          make(map[string]*HealthStatus),
		stopHealthCheck: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.opener == nil {
		m.opener = m.driverOpener()
	}
	if cfg.HealthCheckInterval > 0 {
		m.startHealthCheck()
	}
	return m
}

func (m *PoolManager) driverOpener() Opener {
	if m.config.Driver != DriverBun {
		return OpenPgxPool
	}
	hooks := m.hooks
	return func(_ context.Context, connString string, cfg *ConnectionConfig, log Logger) (Pool, error) {
		return openBunPool(connString, cfg, log, hooks)
	}
}

// Config returns the connection config shared by the manager's pools.
func (m *PoolManager) Config() *ConnectionConfig { return m.config }

// Logger returns the manager's logger.
func (m *PoolManager) Logger() Logger { return m.logger }

// Pool returns the pool for connString, opening it on first use.
func (m *PoolManager) Pool(ctx context.Context, connString string) (Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if p, ok := m.pools[connString]; ok {
		return p, nil
	}

	p, err := m.opener(ctx, connString, m.config, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool %s: %w", Redact(connString), err)
	}
	m.pools[connString] = p
	m.logger.Info("pool opened", "pool", Redact(connString), "driver", m.config.Driver)
	return p, nil
}

// Stats returns an occupancy snapshot of every open pool keyed by redacted
// connection string.
func (m *PoolManager) Stats() map[string]PoolStat {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]PoolStat, len(m.pools))
	for key, p := range m.pools {
		out[Redact(key)] = p.Stat()
	}
	return out
}

// HealthCheck pings every open pool and returns one status per pool ordered
// by connection string.
func (m *PoolManager) HealthCheck(ctx context.Context) []*HealthStatus {
	m.mu.Lock()
	keys := make([]string, 0, len(m.pools))
	pools := make(map[string]Pool, len(m.pools))
	for key, p := range m.pools {
		keys = append(keys, key)
		pools[key] = p
	}
	m.mu.Unlock()
	sort.Strings(keys)

	out := make([]*HealthStatus, 0, len(keys))
	for _, key := range keys {
		p := pools[key]
		start := time.Now()
		status := &HealthStatus{Pool: Redact(key), LastCheckTime: start}

		ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
		err := p.Ping(ctxTimeout)
		cancel()
		status.ResponseTime = time.Since(start)
		if err != nil {
			status.LastError = err.Error()
			m.logger.Warn("pool health check failed", "pool", status.Pool, "error", err)
		} else {
			status.Healthy = true
		}
		st := p.Stat()
		status.InUse, status.Idle, status.Total = st.InUse, st.Idle, st.Total
		out = append(out, status)
	}

	m.mu.Lock()
	for i, key := range keys {
		m.health[key] = out[i]
	}
	m.mu.Unlock()
	return out
}

// LastHealth returns the most recent health status recorded for connString.
func (m *PoolManager) LastHealth(connString string) (*HealthStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.health[connString]
	return s, ok
}

func (m *PoolManager) startHealthCheck() {
	m.healthCheckOnce.Do(func() {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			ticker := time.NewTicker(m.config.HealthCheckInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
					m.HealthCheck(ctx)
					cancel()
				case <-m.stopHealthCheck:
					return
				}
			}
		}()
	})
}

// Close stops the health loop and closes every pool. Later calls to Pool
// fail with ErrManagerClosed.
func (m *PoolManager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.stopHealthCheck)
		m.wg.Wait()

		m.mu.Lock()
		defer m.mu.Unlock()
		m.closed = true
		var errs []error
		for key, p := range m.pools {
			if cerr := p.Close(); cerr != nil {
				m.logger.Error("failed to close pool", "pool", Redact(key), "error", cerr)
				errs = append(errs, cerr)
				continue
			}
			m.logger.Info("pool closed", "pool", Redact(key))
		}
		m.pools = make(map[string]Pool)
		err = errors.Join(errs...)
	})
	return err
}
