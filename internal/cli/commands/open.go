// Package commands implements the regtab subcommands.
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	// Database drivers for the input kinds.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"

	"github.com/leapstack-labs/regtab/internal/cli/config"
	"github.com/leapstack-labs/regtab/pkg/dataset"
)

// openDataset loads the configured input into a dataset. CSV files are read
// directly; parquet goes through DuckDB; database inputs are drained with a
// SELECT over the configured table.
func openDataset(ctx context.Context, in config.Input) (*dataset.Dataset, error) {
	if in.Path == "" {
		return nil, fmt.Errorf("no input: set input.path in regtab.yaml or pass --input")
	}

	kind := in.Kind
	if kind == "" {
		kind = inferKind(in.Path)
	}

	switch kind {
	case "csv":
		return dataset.ReadCSVFile(in.Path)
	case "duckdb":
		switch strings.ToLower(filepath.Ext(in.Path)) {
		case ".parquet":
			return fromQuery(ctx, "duckdb", "",
				fmt.Sprintf("SELECT * FROM read_parquet('%s')", quotePath(in.Path)))
		case ".csv":
			return fromQuery(ctx, "duckdb", "",
				fmt.Sprintf("SELECT * FROM read_csv_auto('%s')", quotePath(in.Path)))
		default:
			if in.Table == "" {
				return nil, fmt.Errorf("duckdb input requires a table name")
			}
			return fromQuery(ctx, "duckdb", in.Path, "SELECT * FROM "+quoteIdent(in.Table))
		}
	case "sqlite":
		if in.Table == "" {
			return nil, fmt.Errorf("sqlite input requires a table name")
		}
		return fromQuery(ctx, "sqlite", in.Path, "SELECT * FROM "+quoteIdent(in.Table))
	case "postgres":
		if in.Table == "" {
			return nil, fmt.Errorf("postgres input requires a table name")
		}
		return fromQuery(ctx, "pgx", in.Path, "SELECT * FROM "+quoteIdent(in.Table))
	default:
		return nil, fmt.Errorf("unknown input kind %q (want csv, duckdb, sqlite, or postgres)", kind)
	}
}

// inferKind guesses the input kind from the path.
func inferKind(path string) string {
	if strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://") {
		return "postgres"
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".parquet":
		return "duckdb"
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	case ".duckdb", ".ddb":
		return "duckdb"
	default:
		return "csv"
	}
}

func fromQuery(ctx context.Context, driver, dsn, query string) (*dataset.Dataset, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query input: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return dataset.FromRows(rows)
}

func quotePath(p string) string {
	return strings.ReplaceAll(p, "'", "''")
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
