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
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5"
	"github.com/uptrace/bun"
)

const (
	ansiReset   = "\x1b[0m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiGreen   = "\x1b[32m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

func colorWrap(s, code string) string { return code + s + ansiReset }

// QueryHook prints every query with its duration to a writer. The
// environment variable named by envName overrides the enabled state: "0" or
// empty disables, "2" also prints successful queries.
type QueryHook struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

type QueryHookOption func(*QueryHook)

func WithQueryHookEnabled(on bool) QueryHookOption {
	return func(h *QueryHook) { h.enabled = on }
}

func WithQueryHookVerbose(on bool) QueryHookOption {
	return func(h *QueryHook) { h.verbose = on }
}

func WithQueryHookEnv(name string) QueryHookOption {
	return func(h *QueryHook) { h.envName = name }
}

func WithQueryHookWriter(w io.Writer) QueryHookOption {
	return func(h *QueryHook) { h.writer = w }
}

func NewQueryHook(opts ...QueryHookOption) *QueryHook {
	h := &QueryHook{envName: "PGREPO_QUERY_LOG", enabled: true, writer: os.Stdout}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	h.write("[BUN]", event.Query, event.StartTime, event.Err)
}

func (h *QueryHook) write(label, query string, start time.Time, queryErr error) {
	enabled, verbose := h.enabled, h.verbose
	if env, ok := os.LookupEnv(h.envName); ok && h.envName != "" {
		enabled = env != "" && env != "0"
		verbose = env == "2"
	}
	if !enabled {
		return
	}
	if !verbose {
		switch {
		case queryErr == nil, errors.Is(queryErr, sql.ErrNoRows), errors.Is(queryErr, pgx.ErrNoRows):
			return
		}
	}

	now := time.Now()
	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		colorWrap(fmt.Sprintf("%8s", label), ansiCyan),
		fmt.Sprintf("%12s", now.Sub(start).Round(time.Microsecond)),
		" ", colorQuery(query),
	}
	if queryErr != nil {
		typ := reflect.TypeOf(queryErr).String()
		args = append(args, "\t", color.New(color.BgRed).Sprintf(" %s: %s ", typ, queryErr.Error()))
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

func queryOperation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

func colorQuery(query string) string {
	switch queryOperation(query) {
	case "SELECT", "WITH":
		return colorWrap(query, ansiGreen)
	case "INSERT":
		return colorWrap(query, ansiBlue)
	case "UPDATE":
		return colorWrap(query, ansiYellow)
	case "DELETE":
		return colorWrap(query, ansiMagenta)
	default:
		return colorWrap(query, ansiRed)
	}
}

// SlowQueryHook warns through a Logger when a successful query takes longer
// than slowTime.
type SlowQueryHook struct {
	slowTime time.Duration
	logger   Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func NewSlowQueryHook(slowTime time.Duration, logger Logger) *SlowQueryHook {
	return &SlowQueryHook{slowTime: slowTime, logger: logger}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	h.observe(event.Query, time.Since(event.StartTime), event.Err)
}

func (h *SlowQueryHook) observe(query string, duration time.Duration, queryErr error) {
	if queryErr != nil || h.logger == nil || h.slowTime <= 0 {
		return
	}
	if duration > h.slowTime {
		h.logger.Warn("slow query detected",
			"duration", duration.Round(time.Microsecond),
			"slow_threshold", h.slowTime,
			"query", query,
		)
	}
}

type traceStartKey struct{}

type traceStart struct {
	sql   string
	start time.Time
}

// queryTracer feeds pgx query events to the same hooks the bun driver uses.
type queryTracer struct {
	query *QueryHook
	slow  *SlowQueryHook
}

var _ pgx.QueryTracer = (*queryTracer)(nil)

func newQueryTracer(cfg *ConnectionConfig, log Logger) *queryTracer {
	t := &queryTracer{}
	if cfg.EnableQueryLog {
		t.query = NewQueryHook(WithQueryHookVerbose(true), WithQueryHookEnv("PGXDEBUG"))
	}
	if cfg.SlowQueryTime > 0 && log != nil {
		t.slow = NewSlowQueryHook(cfg.SlowQueryTime, log)
	}
	if t.query == nil && t.slow == nil {
		return nil
	}
	return t
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceStartKey{}, traceStart{sql: data.SQL, start: time.Now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	ts, ok := ctx.Value(traceStartKey{}).(traceStart)
	if !ok {
		return
	}
	if t.query != nil {
		t.query.write("[PGX]", ts.sql, ts.start, data.Err)
	}
	if t.slow != nil {
		t.slow.observe(ts.sql, time.Since(ts.start), data.Err)
	}
}
