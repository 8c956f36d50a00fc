package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/regtab/internal/cli/config"
	"github.com/leapstack-labs/regtab/pkg/render"
)

func TestInferKind(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data.csv", "csv"},
		{"DATA.CSV", "csv"},
		{"panel.parquet", "duckdb"},
		{"store.duckdb", "duckdb"},
		{"store.ddb", "duckdb"},
		{"app.db", "sqlite"},
		{"app.sqlite", "sqlite"},
		{"app.sqlite3", "sqlite"},
		{"postgres://user@host/db", "postgres"},
		{"postgresql://user@host/db", "postgres"},
		{"plainfile", "csv"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, inferKind(tt.path))
		})
	}
}

func TestOpenDataset_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.csv")
	require.NoError(t, os.WriteFile(path, []byte("y,x\n1,2\n3,4\n"), 0o644))

	ds, err := openDataset(context.Background(), config.Input{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumRows())
	assert.Equal(t, []string{"y", "x"}, ds.Names())
}

func TestOpenDataset_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := openDataset(ctx, config.Input{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input")

	_, err = openDataset(ctx, config.Input{Path: "x.db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table name")

	_, err = openDataset(ctx, config.Input{Path: "x.csv", Kind: "excel"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown input kind "excel"`)
}

func TestBuildOptions_AdHocFlags(t *testing.T) {
	cfg := &config.Config{
		Format: "latex",
		By:     "region",
		Models: []config.Model{{Dep: "ignored", Regressors: []string{"ignored"}}},
	}

	opts, err := buildOptions(cfg, "y", []string{"x1", "x2"}, []string{"firm_id"}, nil, "")
	require.NoError(t, err)

	assert.Equal(t, render.Format("latex"), opts.Format)
	assert.Equal(t, "region", opts.ByVar, "config partition applies when the flag is unset")
	assert.Equal(t, []string{"y"}, opts.DepVars, "flags define the single model")
	assert.Equal(t, [][]string{{"x1", "x2"}}, opts.Regressors)
	assert.Equal(t, [][]string{{"firm_id"}}, opts.FixedEffects)
	assert.Nil(t, opts.Clusters)
}

func TestBuildOptions_ConfigModels(t *testing.T) {
	cfg := &config.Config{
		Format: "text",
		Models: []config.Model{
			{Dep: "y", Regressors: []string{"x1"}},
			{Dep: "y", Regressors: []string{"x1", "x2"}, Clusters: []string{"firm_id"}},
		},
	}

	opts, err := buildOptions(cfg, "", nil, nil, nil, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"y", "y"}, opts.DepVars)
	assert.Equal(t, [][]string{{"x1"}, {"x1", "x2"}}, opts.Regressors)
	assert.Equal(t, [][]string{nil, {"firm_id"}}, opts.Clusters)
}

func TestBuildOptions_NoModels(t *testing.T) {
	_, err := buildOptions(&config.Config{}, "", nil, nil, nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no models")
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"obs"`, quoteIdent("obs"))
	assert.Equal(t, `"o""bs"`, quoteIdent(`o"bs`))
	assert.Equal(t, "it''s.csv", quotePath("it's.csv"))
}
