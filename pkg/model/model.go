// Package model turns a set of variable roles into an estimated regression
// model. It decides the estimator family from the dependent variable's
// measurement level, builds a typed specification, and delegates the numeric
// work to an Estimator.
package model

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/regtab/pkg/dataset"
)

// Family tags the estimator used for a model.
type Family int

const (
	// OLS is the linear family: plain least squares, or fixed-effects
	// absorbed least squares with optional cluster-robust errors.
	OLS Family = iota
	// Logit is the binomial-link classifier for two-level outcomes.
	Logit
)

func (f Family) String() string {
	switch f {
	case OLS:
		return "OLS"
	case Logit:
		return "Logit"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// SpecKind tags the shape of a model specification.
type SpecKind int

const (
	// SpecPlain is an additive specification: dep ~ sum of regressors.
	SpecPlain SpecKind = iota
	// SpecFixedEffects absorbs fixed-effect intercepts, no clustering.
	SpecFixedEffects
	// SpecClustered requests cluster-robust errors, no fixed effects.
	SpecClustered
	// SpecFixedEffectsClustered combines absorption and clustering.
	SpecFixedEffectsClustered
)

// Spec is a typed model specification consumed by an Estimator.
type Spec struct {
	Kind       SpecKind
	Family     Family
	DepVar     string
	Regressors []string
	// FixedEffects is non-empty only for the fixed-effects kinds.
	FixedEffects []string
	// Clusters is non-empty only for the clustered kinds.
	Clusters []string
}

// RoleSet assigns dataset columns to the roles of one model.
type RoleSet struct {
	DepVar       string
	Regressors   []string
	FixedEffects []string
	Clusters     []string
}

// Term is one estimated coefficient.
type Term struct {
	Name   string
	Coef   float64
	StdErr float64
	PValue float64
}

// Fit is the result handle returned by an Estimator. The selector does not
// inspect coefficients; the fields exist for the table renderer.
type Fit struct {
	Terms []Term
	// NObs is the number of complete observations used.
	NObs int

	// Linear-family statistics.
	RSquared       float64
	AdjRSquared    float64
	FStat          float64
	ResidualStdErr float64

	// PseudoRSquared is McFadden's measure, set for the Logit family.
	PseudoRSquared float64
}

// Estimator fits one specification against a dataset.
type Estimator interface {
	Fit(ds *dataset.Dataset, spec Spec) (*Fit, error)
}

// Estimated is one fitted model plus the labels the comparison table needs.
type Estimated struct {
	Fit    *Fit
	Spec   Spec
	Family Family
	DepVar string
	// FELabel lists the fixed-effect variables, "" when none.
	FELabel string
	// ClusterLabel lists the cluster variables, "" when none.
	ClusterLabel string
}

// continuousKinds maps (fixed effects present?, clusters present?) to the
// specification kind for a continuous dependent variable.
var continuousKinds = map[[2]bool]SpecKind{
	{false, false}: SpecPlain,
	{true, false}:  SpecFixedEffects,
	{false, true}:  SpecClustered,
	{true, true}:   SpecFixedEffectsClustered,
}

// Estimate builds the specification for one role set, runs the estimator,
// and returns the fitted model. Unsupported combinations (multinomial
// outcome; two-level outcome with fixed effects) return
// *UnsupportedModelError. Estimator failures are returned unchanged.
func Estimate(ds *dataset.Dataset, roles RoleSet, est Estimator) (*Estimated, error) {
	dep, err := ds.Column(roles.DepVar)
	if err != nil {
		return nil, err
	}

	hasFE := len(roles.FixedEffects) > 0
	hasCl := len(roles.Clusters) > 0

	if dep.Kind == dataset.Categorical {
		if len(dep.Levels()) > 2 {
			return nil, &UnsupportedModelError{Reason: "multinomial logit is not implemented"}
		}
		if hasFE {
			return nil, &UnsupportedModelError{Reason: "fixed-effects logit is not implemented"}
		}
		// Clusters fall through unused: clustering applies to the linear
		// family only.
		spec := Spec{
			Kind:       SpecPlain,
			Family:     Logit,
			DepVar:     roles.DepVar,
			Regressors: roles.Regressors,
		}
		fit, err := est.Fit(ds, spec)
		if err != nil {
			return nil, err
		}
		return &Estimated{Fit: fit, Spec: spec, Family: Logit, DepVar: roles.DepVar}, nil
	}

	spec := Spec{
		Kind:       continuousKinds[[2]bool{hasFE, hasCl}],
		Family:     OLS,
		DepVar:     roles.DepVar,
		Regressors: roles.Regressors,
	}
	if hasFE {
		spec.FixedEffects = roles.FixedEffects
	}
	if hasCl {
		spec.Clusters = roles.Clusters
	}

	fit, err := est.Fit(ds, spec)
	if err != nil {
		return nil, err
	}
	return &Estimated{
		Fit:          fit,
		Spec:         spec,
		Family:       OLS,
		DepVar:       roles.DepVar,
		FELabel:      joinLabel(spec.FixedEffects),
		ClusterLabel: joinLabel(spec.Clusters),
	}, nil
}

// joinLabel renders variable names for a table annotation row. Underscores
// are stripped because the downstream renderer cannot typeset them.
func joinLabel(names []string) string {
	if len(names) == 0 {
		return ""
	}
	clean := make([]string, len(names))
	for i, n := range names {
		clean[i] = strings.ReplaceAll(n, "_", "")
	}
	return strings.Join(clean, ", ")
}
