// Package regtable assembles one or more regression models into a
// publication-style comparison table. It validates the request, runs the
// model selector once per column of the table, aggregates the fixed-effects
// and clustering annotation rows, and delegates formatting to a renderer.
package regtable

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/regtab/internal/estimate"
	"github.com/leapstack-labs/regtab/pkg/dataset"
	"github.com/leapstack-labs/regtab/pkg/model"
	"github.com/leapstack-labs/regtab/pkg/render"
)

// Request describes one comparison table.
type Request struct {
	// RoleSets holds one variable-role assignment per model. With ByVar set
	// it must hold exactly one entry.
	RoleSets []model.RoleSet
	// ByVar names a categorical partition variable. When set, the single
	// role set is estimated on the full sample and once per level.
	ByVar string
	// Format selects the output markup; empty means text.
	Format render.Format
}

// Result is the assembled table.
type Result struct {
	// Models are the fitted models in column order.
	Models []*model.Estimated
	// Table is the rendered output, one line per entry.
	Table []string
}

// Renderer formats fitted models into text lines.
type Renderer interface {
	Render(models []*model.Estimated, opts render.Options) ([]string, error)
}

// Tabulator builds comparison tables. The zero value is not usable; call New.
type Tabulator struct {
	estimator model.Estimator
	renderer  Renderer
	logger    *slog.Logger
}

// Option configures a Tabulator.
type Option func(*Tabulator)

// WithEstimator replaces the default gonum-backed estimation engine.
func WithEstimator(est model.Estimator) Option {
	return func(t *Tabulator) { t.estimator = est }
}

// WithRenderer replaces the default go-pretty renderer.
func WithRenderer(r Renderer) Option {
	return func(t *Tabulator) { t.renderer = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tabulator) { t.logger = l }
}

// New returns a Tabulator with default collaborators.
func New(opts ...Option) *Tabulator {
	t := &Tabulator{
		estimator: estimate.New(),
		renderer:  render.New(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// statistics every table suppresses, per the house reporting style.
var omitStats = []string{render.StatFStatistic, render.StatResidualStdErr}

// BuildTable resolves a request into a rendered comparison table. The
// dataset is only read. Any estimation failure aborts the whole table.
func (t *Tabulator) BuildTable(ds *dataset.Dataset, req Request) (*Result, error) {
	if err := t.validate(ds, req); err != nil {
		return nil, err
	}

	var (
		models    []*model.Estimated
		colLabels []string
		err       error
	)
	if req.ByVar != "" {
		models, colLabels, err = t.estimatePartitioned(ds, req.RoleSets[0], req.ByVar)
	} else {
		models, colLabels, err = t.estimateEach(ds, req.RoleSets)
	}
	if err != nil {
		return nil, err
	}

	feRow := []string{"Fixed effects"}
	clRow := []string{"Std. errors clustered"}
	depLabels := make([]string, len(models))
	for i, m := range models {
		feRow = append(feRow, orElse(m.FELabel, "None"))
		clRow = append(clRow, orElse(m.ClusterLabel, "No"))
		depLabels[i] = m.DepVar
	}

	lines, err := t.renderer.Render(models, render.Options{
		Format:       req.Format,
		ColumnLabels: colLabels,
		DepVarLabels: depLabels,
		CustomRows:   [][]string{feRow, clRow},
		OmitStats:    omitStats,
	})
	if err != nil {
		return nil, err
	}

	return &Result{Models: models, Table: lines}, nil
}

// validate fails fast on malformed requests, before any estimation.
func (t *Tabulator) validate(ds *dataset.Dataset, req Request) error {
	if len(req.RoleSets) == 0 {
		return &InvalidRequestError{Reason: "at least one model specification is required"}
	}
	if req.ByVar != "" {
		if len(req.RoleSets) != 1 {
			return &InvalidRequestError{Reason: "a partition variable requires exactly one model specification"}
		}
		col, err := ds.Column(req.ByVar)
		if err != nil {
			return &InvalidRequestError{Reason: "partition variable", Err: err}
		}
		if col.Kind != dataset.Categorical {
			return &InvalidRequestError{Reason: fmt.Sprintf("partition variable %q must be categorical", req.ByVar)}
		}
	}
	for _, rs := range req.RoleSets {
		if len(rs.Regressors) == 0 {
			return &InvalidRequestError{Reason: fmt.Sprintf("model for %q has no regressors", rs.DepVar)}
		}
		for _, group := range [][]string{{rs.DepVar}, rs.Regressors, rs.FixedEffects, rs.Clusters} {
			for _, name := range group {
				if !ds.Has(name) {
					return &InvalidRequestError{Reason: fmt.Sprintf("unknown column %q", name)}
				}
			}
		}
	}
	return nil
}

// estimateEach fits every role set against the full dataset, in order.
// Column labels are the dependent-variable names.
func (t *Tabulator) estimateEach(ds *dataset.Dataset, roleSets []model.RoleSet) ([]*model.Estimated, []string, error) {
	models := make([]*model.Estimated, 0, len(roleSets))
	labels := make([]string, 0, len(roleSets))
	for i, rs := range roleSets {
		m, err := t.estimateOne(ds, rs, i)
		if err != nil {
			return nil, nil, err
		}
		models = append(models, m)
		labels = append(labels, rs.DepVar)
	}
	return models, labels, nil
}

// estimatePartitioned fits the role set on the full sample and then on each
// level of the partition variable, in level order.
func (t *Tabulator) estimatePartitioned(ds *dataset.Dataset, rs model.RoleSet, byVar string) ([]*model.Estimated, []string, error) {
	col, err := ds.Column(byVar)
	if err != nil {
		return nil, nil, err
	}
	levels := col.Levels()

	models := make([]*model.Estimated, 0, len(levels)+1)
	labels := make([]string, 0, len(levels)+1)

	full, err := t.estimateOne(ds, rs, 0)
	if err != nil {
		return nil, nil, err
	}
	models = append(models, full)
	labels = append(labels, "Full Sample")

	for i, level := range levels {
		sub, err := ds.FilterEq(byVar, level)
		if err != nil {
			return nil, nil, err
		}
		m, err := t.estimateOne(sub, rs, i+1)
		if err != nil {
			return nil, nil, err
		}
		models = append(models, m)
		labels = append(labels, columnLabel(level))
	}
	return models, labels, nil
}

func (t *Tabulator) estimateOne(ds *dataset.Dataset, rs model.RoleSet, index int) (*model.Estimated, error) {
	m, err := model.Estimate(ds, rs, t.estimator)
	if err != nil {
		var unsupported *model.UnsupportedModelError
		if errors.As(err, &unsupported) {
			return nil, err
		}
		return nil, &EstimationError{Index: index, DepVar: rs.DepVar, Err: err}
	}
	t.logger.Debug("estimated model",
		"index", index,
		"dep", rs.DepVar,
		"family", m.Family.String(),
		"n", m.Fit.NObs,
	)
	return m, nil
}

// columnLabel sanitizes a partition level for the renderer, which cannot
// typeset underscores or ampersands.
func columnLabel(level string) string {
	out := make([]rune, 0, len(level))
	for _, r := range level {
		switch r {
		case '_':
		case '&':
			out = append(out, '+')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func orElse(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
