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

// Package pgrepo wires configuration, pooled connections and repositories
// together.
//
//	client, err := pgrepo.Open(ctx, cfg)
//	users, err := client.Repository("users")
//	rec, err := users.Get(ctx, 42)
package pgrepo

import (
	"context"

	"github.com/tomoncle/pgrepo/database"
	"github.com/tomoncle/pgrepo/repository"
	"github.com/tomoncle/pgrepo/utils"
)

// Client hands out repositories that share one connection source.
type Client struct {
	source  database.Source
	manager *database.PoolManager
	logger  database.Logger
}

// Open configures logging from cfg, starts a PoolManager and binds a pooled
// source to cfg's connection string. nil cfg means DefaultConfig.
func Open(ctx context.Context, cfg *database.Config) (*Client, error) {
	if cfg == nil {
		cfg = database.DefaultConfig()
	}
	if err := cfg.ConnectionConfig.Validate(); err != nil {
		return nil, err
	}
	if cfg.LogConfig.Level != "" {
		utils.ConfigureLogLevel(cfg.LogConfig.Level)
	}
	if cfg.LogConfig.Format != "" {
		utils.ConfigureLogFormat(cfg.LogConfig.Format)
	}

	logger := database.GetLogger()
	conn := cfg.ConnectionConfig
	manager := database.NewPoolManager(&conn, database.WithManagerLogger(logger))
	source, err := database.NewPooledSource(manager, conn.DSN())
	if err != nil {
		_ = manager.Close()
		return nil, err
	}
	if _, err := manager.Pool(ctx, source.ConnString()); err != nil {
		_ = manager.Close()
		return nil, err
	}
	return &Client{source: source, manager: manager, logger: logger}, nil
}

// NewClient wraps an existing source. Close does not touch a manager it
// did not create.
func NewClient(source database.Source) (*Client, error) {
	if source == nil {
		return nil, repository.ErrConfiguration
	}
	return &Client{source: source, logger: database.GetLogger()}, nil
}

func (c *Client) Source() database.Source { return c.source }

// Repository returns a repository for table on the client's source.
func (c *Client) Repository(table string, opts ...repository.Option) (*repository.Repository, error) {
	opts = append([]repository.Option{repository.WithLogger(c.logger)}, opts...)
	return repository.New(c.source, table, opts...)
}

// Stats reports pool occupancy, empty for clients without a manager.
func (c *Client) Stats() map[string]database.PoolStat {
	if c.manager == nil {
		return map[string]database.PoolStat{}
	}
	return c.manager.Stats()
}

// HealthCheck pings every pool of the client's manager.
func (c *Client) HealthCheck(ctx context.Context) []*database.HealthStatus {
	if c.manager == nil {
		return nil
	}
	return c.manager.HealthCheck(ctx)
}

// Close shuts down the manager created by Open.
func (c *Client) Close() error {
	if c.manager == nil {
		return nil
	}
	return c.manager.Close()
}
