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
	"time"
)

// Supported values of ConnectionConfig.Driver.
const (
	DriverPgx = "pgx"
	DriverBun = "bun"
)

// Supported values of ConnectionConfig.Type.
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// HealthStatus holds the result of a health check against one pool.
type HealthStatus struct {
	Pool          string        `json:"pool"`
	Healthy       bool          `json:"healthy"`
	ResponseTime  time.Duration `json:"response_time"`
	InUse         int           `json:"in_use"`
	Idle          int           `json:"idle"`
	Total         int           `json:"total"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// PoolStat is a snapshot of pool occupancy.
type PoolStat struct {
	InUse int `json:"in_use"`
	Idle  int `json:"idle"`
	Total int `json:"total"`
	Max   int `json:"max"`
}

// ConnectionConfig describes how to reach the database and tune its pools.
type ConnectionConfig struct {
	Driver              string        `json:"driver" yaml:"driver"` // pgx, bun
	Type                string        `json:"type" yaml:"type"`     // postgres, sqlite
	URL                 string        `json:"url" yaml:"url"`
	Host                string        `json:"host" yaml:"host"`
	Port                int           `json:"port" yaml:"port"`
	Username            string        `json:"username" yaml:"username"`
	Password            string        `json:"password" yaml:"password"`
	DBName              string        `json:"dbname" yaml:"dbname"`
	SSLMode             string        `json:"sslmode" yaml:"sslmode"`
	MaxOpenConns        int           `json:"max_open_conns" yaml:"max_open_conns"`
	MinConns            int           `json:"min_conns" yaml:"min_conns"`
	MaxIdleConns        int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime     time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime     time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	ConnectTimeout      time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	HealthCheckInterval time.Duration `json:"health_check_interval" yaml:"health_check_interval"`
	EnableQueryLog      bool          `json:"enable_query_log" yaml:"enable_query_log"`
	SlowQueryTime       time.Duration `json:"slow_query_time" yaml:"slow_query_time"`
}

// LogConfig controls the default logrus-backed loggers.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // text, json
}

// Config aggregates connection and logging settings.
type Config struct {
	ConnectionConfig ConnectionConfig `json:"connection_config" yaml:"connection_config"`
	LogConfig        LogConfig        `json:"log_config" yaml:"log_config"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Driver:          DriverPgx,
		Type:            TypePostgres,
		Host:            "localhost",
		Port:            5432,
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		SlowQueryTime:   time.Second * 2,
	}
}

// DefaultConfig returns a Config built on DefaultConnectionConfig.
func DefaultConfig() *Config {
	return &Config{
		ConnectionConfig: *DefaultConnectionConfig(),
		LogConfig:        LogConfig{Level: "info", Format: "text"},
	}
}
