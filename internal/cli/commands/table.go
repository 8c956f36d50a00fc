package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/regtab/internal/cli/config"
	"github.com/leapstack-labs/regtab/pkg/regtable"
	"github.com/leapstack-labs/regtab/pkg/render"
)

// NewTableCommand creates the table command.
func NewTableCommand(getCfg func(context.Context) *config.Config, getLog func(context.Context) *slog.Logger) *cobra.Command {
	var (
		dep          string
		regressors   []string
		fixedEffects []string
		clusters     []string
		by           string
	)

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Estimate the configured models and print the comparison table",
		Long: `Estimate one or more regression models and print them as a single
comparison table.

Models come from the models list in regtab.yaml, or from the --dep and
--regressors flags for a single ad-hoc model. With --by, the single model
is estimated on the full sample and once per level of the partition
variable.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getCfg(cmd.Context())
			logger := getLog(cmd.Context())

			opts, err := buildOptions(cfg, dep, regressors, fixedEffects, clusters, by)
			if err != nil {
				return err
			}

			ds, err := openDataset(cmd.Context(), cfg.Input)
			if err != nil {
				return err
			}
			logger.Debug("loaded dataset", "rows", ds.NumRows(), "cols", ds.NumCols())

			result, err := regtable.New(regtable.WithLogger(logger)).Prepare(ds, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, line := range result.Table {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dep, "dep", "", "Dependent variable for an ad-hoc model")
	cmd.Flags().StringSliceVar(&regressors, "regressors", nil, "Regressors for an ad-hoc model")
	cmd.Flags().StringSliceVar(&fixedEffects, "fe", nil, "Fixed-effect variables")
	cmd.Flags().StringSliceVar(&clusters, "clusters", nil, "Cluster variables for robust standard errors")
	cmd.Flags().StringVar(&by, "by", "", "Categorical partition variable")

	return cmd
}

// buildOptions merges the config file's model list with ad-hoc flags. Flags
// define a single model and take precedence.
func buildOptions(cfg *config.Config, dep string, regressors, fixedEffects, clusters []string, by string) (regtable.Options, error) {
	opts := regtable.Options{
		Format: render.Format(cfg.Format),
	}

	if by == "" {
		by = cfg.By
	}
	opts.ByVar = by

	if dep != "" {
		opts.DepVars = []string{dep}
		opts.Regressors = [][]string{regressors}
		if len(fixedEffects) > 0 {
			opts.FixedEffects = [][]string{fixedEffects}
		}
		if len(clusters) > 0 {
			opts.Clusters = [][]string{clusters}
		}
		return opts, nil
	}

	if len(cfg.Models) == 0 {
		return opts, fmt.Errorf("no models: add a models list to regtab.yaml or pass --dep and --regressors")
	}
	for _, m := range cfg.Models {
		opts.DepVars = append(opts.DepVars, m.Dep)
		opts.Regressors = append(opts.Regressors, m.Regressors)
		opts.FixedEffects = append(opts.FixedEffects, m.FixedEffects)
		opts.Clusters = append(opts.Clusters, m.Clusters)
	}
	return opts, nil
}
