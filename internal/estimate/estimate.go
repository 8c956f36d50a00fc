// Package estimate provides the default numeric estimator behind
// model.Estimator. OLS is solved by QR decomposition, fixed effects are
// absorbed by within-group demeaning, cluster-robust errors use the CRVE
// sandwich, and the binomial-link classifier is fit by IRLS.
package estimate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/regtab/pkg/dataset"
	"github.com/leapstack-labs/regtab/pkg/model"
)

// ErrNoObservations is returned when no complete rows remain after listwise
// deletion of missing values.
var ErrNoObservations = errors.New("no complete observations")

// Engine implements model.Estimator.
type Engine struct{}

// New returns a ready estimator engine.
func New() *Engine { return &Engine{} }

// Fit estimates one specification. The spec's family selects the solver.
func (e *Engine) Fit(ds *dataset.Dataset, spec model.Spec) (*model.Fit, error) {
	fr, err := buildFrame(ds, spec)
	if err != nil {
		return nil, err
	}
	switch spec.Family {
	case model.Logit:
		return fitLogit(fr)
	default:
		return fitOLS(fr)
	}
}

// frame is the numeric design extracted from a dataset for one model.
type frame struct {
	spec model.Spec

	y     []float64
	names []string    // one per design column
	x     [][]float64 // column-major design, len(names) columns of n rows
	n     int

	// feGroups holds, per fixed effect, the group index of each row.
	feGroups [][]int
	feSizes  []int // number of groups per fixed effect

	// clusters holds the joint cluster id of each row, nil when unclustered.
	clusters []int
	nClust   int
}

func (f *frame) hasIntercept() bool { return len(f.feGroups) == 0 }

// buildFrame resolves columns, performs listwise deletion, expands
// categorical regressors into level dummies, and encodes fixed-effect and
// cluster groupings.
func buildFrame(ds *dataset.Dataset, spec model.Spec) (*frame, error) {
	used := make([]string, 0, 2+len(spec.Regressors)+len(spec.FixedEffects)+len(spec.Clusters))
	used = append(used, spec.DepVar)
	used = append(used, spec.Regressors...)
	used = append(used, spec.FixedEffects...)
	used = append(used, spec.Clusters...)

	cols := make(map[string]*dataset.Column, len(used))
	for _, name := range used {
		if _, ok := cols[name]; ok {
			continue
		}
		c, err := ds.Column(name)
		if err != nil {
			return nil, err
		}
		cols[name] = c
	}

	// Listwise deletion over every column the model touches.
	keep := make([]int, 0, ds.NumRows())
	for i := 0; i < ds.NumRows(); i++ {
		complete := true
		for _, name := range used {
			if cols[name].Missing(i) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, ErrNoObservations
	}

	fr := &frame{spec: spec, n: len(keep)}

	dep := cols[spec.DepVar]
	fr.y = make([]float64, fr.n)
	if spec.Family == model.Logit {
		levels := dep.Levels()
		if len(levels) != 2 {
			return nil, fmt.Errorf("dependent variable %q has %d levels, want 2", spec.DepVar, len(levels))
		}
		for j, i := range keep {
			if dep.Strings[i] == levels[1] {
				fr.y[j] = 1
			}
		}
	} else {
		for j, i := range keep {
			fr.y[j] = dep.Floats[i]
		}
	}

	for _, name := range spec.Regressors {
		c := cols[name]
		if c.Kind == dataset.Numeric {
			col := make([]float64, fr.n)
			for j, i := range keep {
				col[j] = c.Floats[i]
			}
			fr.names = append(fr.names, name)
			fr.x = append(fr.x, col)
			continue
		}
		// Categorical regressor: one dummy per level past the baseline.
		levels := levelsOnRows(c, keep)
		for _, lv := range levels[1:] {
			col := make([]float64, fr.n)
			for j, i := range keep {
				if c.Strings[i] == lv {
					col[j] = 1
				}
			}
			fr.names = append(fr.names, name+lv)
			fr.x = append(fr.x, col)
		}
	}
	if len(fr.x) == 0 {
		return nil, fmt.Errorf("model for %q has no regressors", spec.DepVar)
	}

	for _, name := range spec.FixedEffects {
		groups, size := encodeGroups(cols[name], keep)
		fr.feGroups = append(fr.feGroups, groups)
		fr.feSizes = append(fr.feSizes, size)
	}

	if len(spec.Clusters) > 0 {
		fr.clusters, fr.nClust = encodeJointGroups(cols, spec.Clusters, keep)
	}

	return fr, nil
}

// levelsOnRows returns the sorted levels a categorical column takes on the
// kept rows only.
func levelsOnRows(c *dataset.Column, keep []int) []string {
	sub := make([]string, len(keep))
	for j, i := range keep {
		sub[j] = c.Strings[i]
	}
	return dataset.NewCategorical(c.Name, sub).Levels()
}

// encodeGroups maps each kept row to a dense group index for one variable.
// Numeric grouping variables group on their formatted value.
func encodeGroups(c *dataset.Column, keep []int) ([]int, int) {
	ids := make(map[string]int)
	groups := make([]int, len(keep))
	for j, i := range keep {
		key := cellKey(c, i)
		id, ok := ids[key]
		if !ok {
			id = len(ids)
			ids[key] = id
		}
		groups[j] = id
	}
	return groups, len(ids)
}

// encodeJointGroups groups rows on the combination of several variables.
func encodeJointGroups(cols map[string]*dataset.Column, names []string, keep []int) ([]int, int) {
	ids := make(map[string]int)
	groups := make([]int, len(keep))
	parts := make([]string, len(names))
	for j, i := range keep {
		for p, name := range names {
			parts[p] = cellKey(cols[name], i)
		}
		key := strings.Join(parts, "\x1f")
		id, ok := ids[key]
		if !ok {
			id = len(ids)
			ids[key] = id
		}
		groups[j] = id
	}
	return groups, len(ids)
}

func cellKey(c *dataset.Column, i int) string {
	if c.Kind == dataset.Categorical {
		return c.Strings[i]
	}
	return fmt.Sprintf("%g", c.Floats[i])
}
