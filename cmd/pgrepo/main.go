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

// Command pgrepo runs repository operations against a database and prints
// the resulting records as JSON lines.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/tomoncle/pgrepo"
	"github.com/tomoncle/pgrepo/database"
	"github.com/tomoncle/pgrepo/params"
	"github.com/tomoncle/pgrepo/record"
	"github.com/tomoncle/pgrepo/repository"
	"github.com/tomoncle/pgrepo/types"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	dsn        string
	driver     string
	table      string
	primaryKey string
	named      []string
	page       int
	pageSize   int
	orders     []string
	timeout    time.Duration
	logLevel   string
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("pgrepo", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	flagSet.StringVar(&opts.dsn, "dsn", "", "connection string, overrides the config")
	flagSet.StringVar(&opts.driver, "driver", "", "pgx or bun, overrides the config")
	flagSet.StringVarP(&opts.table, "table", "t", "", "table name for get, all and page")
	flagSet.StringVar(&opts.primaryKey, "pk", repository.DefaultPrimaryKey, "primary-key column")
	flagSet.StringArrayVarP(&opts.named, "param", "p", nil, "named parameter name=value, repeatable")
	flagSet.IntVar(&opts.page, "page", 1, "page number for page")
	flagSet.IntVar(&opts.pageSize, "page-size", 10, "page size for page")
	flagSet.StringArrayVar(&opts.orders, "order", nil, `order clause for page, e.g. "id DESC"`)
	flagSet.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall timeout")
	flagSet.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}
	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return errors.New("missing command")
	}

	cfg, err := loadConfig(&opts)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	client, err := pgrepo.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	// query ignores the table, but a repository still needs a name.
	table := opts.table
	if table == "" {
		table = "-"
	}
	repo, err := client.Repository(table, repository.WithPrimaryKey(opts.primaryKey))
	if err != nil {
		return err
	}

	out := json.NewEncoder(stdout)
	switch cmd, cmdArgs := rest[0], rest[1:]; cmd {
	case "query":
		if len(cmdArgs) == 0 {
			return errors.New("query needs SQL text")
		}
		queryArgs, err := queryArguments(cmdArgs[1:], opts.named)
		if err != nil {
			return err
		}
		rows, err := repo.Query(ctx, cmdArgs[0], queryArgs...)
		if err != nil {
			return err
		}
		return writeRows(out, rows)
	case "get":
		if err := needTable(opts.table); err != nil {
			return err
		}
		if len(cmdArgs) != 1 {
			return errors.New("get needs exactly one id")
		}
		rec, err := repo.Get(ctx, cmdArgs[0])
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("%s %s=%s not found", opts.table, opts.primaryKey, cmdArgs[0])
		}
		return out.Encode(rec)
	case "all":
		if err := needTable(opts.table); err != nil {
			return err
		}
		recs, err := repo.GetAll(ctx)
		if err != nil {
			return err
		}
		return writeRecords(out, recs)
	case "page":
		if err := needTable(opts.table); err != nil {
			return err
		}
		var filter *types.QueryFilter
		if len(cmdArgs) > 0 {
			filterArgs, err := queryArguments(cmdArgs[1:], opts.named)
			if err != nil {
				return err
			}
			filter = types.NewQueryFilter(cmdArgs[0], filterArgs...)
		}
		page, err := repo.Page(ctx, types.NewPageRequest(opts.page, opts.pageSize, filter, opts.orders))
		if err != nil {
			return err
		}
		return out.Encode(page)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func loadConfig(opts *options) (*database.Config, error) {
	cfg := database.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := database.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		database.OverrideFromEnv(&cfg.ConnectionConfig)
	}
	if opts.dsn != "" {
		cfg.ConnectionConfig.URL = opts.dsn
		if database.DialectOf(opts.dsn) == database.TypeSQLite {
			cfg.ConnectionConfig.Type = database.TypeSQLite
			cfg.ConnectionConfig.Driver = database.DriverBun
		}
	}
	if opts.driver != "" {
		cfg.ConnectionConfig.Driver = opts.driver
	}
	if opts.logLevel != "" {
		cfg.LogConfig.Level = opts.logLevel
	}
	return cfg, nil
}

// queryArguments returns a single params.Named when --param flags are given,
// otherwise the positional values in order.
func queryArguments(positional, named []string) ([]any, error) {
	if len(named) > 0 {
		if len(positional) > 0 {
			return nil, errors.New("use either --param or positional values, not both")
		}
		values := params.Named{}
		for _, kv := range named {
			name, value, ok := strings.Cut(kv, "=")
			if !ok || name == "" {
				return nil, fmt.Errorf("invalid --param %q, want name=value", kv)
			}
			values[name] = value
		}
		return []any{values}, nil
	}
	out := make([]any, len(positional))
	for i, v := range positional {
		out[i] = v
	}
	return out, nil
}

func needTable(table string) error {
	if table == "" {
		return errors.New("--table is required")
	}
	return nil
}

func writeRows(out *json.Encoder, rows []record.Row) error {
	for _, row := range rows {
		var v any = row.Record()
		if row.IsJoin() {
			v = []*record.Record(row)
		}
		if err := out.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func writeRecords(out *json.Encoder, recs []*record.Record) error {
	for _, rec := range recs {
		if err := out.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `pgrepo runs repository operations and prints records as JSON lines.

Usage:
  pgrepo [flags] query <sql> [values...]
  pgrepo [flags] get <id> --table <name>
  pgrepo [flags] all --table <name>
  pgrepo [flags] page [where] [values...] --table <name>

Examples:
  pgrepo --dsn postgres://app@localhost/app query 'SELECT * FROM users WHERE id = $1' 42
  pgrepo --dsn postgres://app@localhost/app query 'SELECT * FROM users WHERE name = @name' -p name=ann
  pgrepo -c config.yaml -t users --order "id DESC" --page 2 page

Flags:
`)
	flagSet.PrintDefaults()
}
