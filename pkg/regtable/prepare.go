package regtable

import (
	"fmt"

	"github.com/leapstack-labs/regtab/pkg/dataset"
	"github.com/leapstack-labs/regtab/pkg/model"
	"github.com/leapstack-labs/regtab/pkg/render"
)

// Options is the argument form of the public entry point. Role fields accept
// either one entry (applied to every model) or one entry per dependent
// variable; FixedEffects and Clusters may also be nil.
type Options struct {
	DepVars      []string
	Regressors   [][]string
	FixedEffects [][]string
	Clusters     [][]string
	// ByVar partitions estimation of a single model by a categorical
	// variable's levels, full sample first.
	ByVar  string
	Format render.Format
}

// Prepare estimates the requested models and renders the comparison table
// with default collaborators. It is the convenience form of
// Tabulator.BuildTable.
func Prepare(ds *dataset.Dataset, opts Options) (*Result, error) {
	return New().Prepare(ds, opts)
}

// Prepare canonicalizes the options into a Request and builds the table.
func (t *Tabulator) Prepare(ds *dataset.Dataset, opts Options) (*Result, error) {
	roleSets, err := canonicalize(opts)
	if err != nil {
		return nil, err
	}
	return t.BuildTable(ds, Request{
		RoleSets: roleSets,
		ByVar:    opts.ByVar,
		Format:   opts.Format,
	})
}

// canonicalize turns the single-or-parallel option fields into one RoleSet
// per model, broadcasting lone entries.
func canonicalize(opts Options) ([]model.RoleSet, error) {
	n := len(opts.DepVars)
	if n == 0 {
		return nil, &InvalidRequestError{Reason: "at least one dependent variable is required"}
	}

	regressors, err := broadcast("regressors", opts.Regressors, n)
	if err != nil {
		return nil, err
	}
	fixedEffects, err := broadcast("fixed effects", opts.FixedEffects, n)
	if err != nil {
		return nil, err
	}
	clusters, err := broadcast("clusters", opts.Clusters, n)
	if err != nil {
		return nil, err
	}

	roleSets := make([]model.RoleSet, n)
	for i := 0; i < n; i++ {
		roleSets[i] = model.RoleSet{
			DepVar:       opts.DepVars[i],
			Regressors:   regressors[i],
			FixedEffects: fixedEffects[i],
			Clusters:     clusters[i],
		}
	}
	return roleSets, nil
}

func broadcast(what string, vals [][]string, n int) ([][]string, error) {
	switch len(vals) {
	case 0:
		return make([][]string, n), nil
	case 1:
		out := make([][]string, n)
		for i := range out {
			out[i] = vals[0]
		}
		return out, nil
	case n:
		return vals, nil
	default:
		return nil, &InvalidRequestError{
			Reason: fmt.Sprintf("%s given for %d models, want 1 or %d", what, len(vals), n),
		}
	}
}
