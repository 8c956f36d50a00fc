package estimate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/regtab/pkg/dataset"
	"github.com/leapstack-labs/regtab/pkg/model"
)

func numericDS(t *testing.T, cols ...*dataset.Column) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(cols...)
	require.NoError(t, err)
	return ds
}

func term(t *testing.T, fit *model.Fit, name string) model.Term {
	t.Helper()
	for _, tm := range fit.Terms {
		if tm.Name == name {
			return tm
		}
	}
	t.Fatalf("term %q not found in %v", name, fit.Terms)
	return model.Term{}
}

// TestFitOLS_SimpleRegression checks the solver against the closed-form
// slope, intercept, and slope standard error of simple regression.
func TestFitOLS_SimpleRegression(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{2.1, 3.9, 6.2, 7.8, 10.1, 11.9}
	ds := numericDS(t,
		dataset.NewNumeric("y", y),
		dataset.NewNumeric("x", x),
	)

	fit, err := New().Fit(ds, model.Spec{
		Kind: model.SpecPlain, Family: model.OLS,
		DepVar: "y", Regressors: []string{"x"},
	})
	require.NoError(t, err)

	n := float64(len(x))
	var sx, sy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
	}
	xbar, ybar := sx/n, sy/n
	var sxx, sxy float64
	for i := range x {
		sxx += (x[i] - xbar) * (x[i] - xbar)
		sxy += (x[i] - xbar) * (y[i] - ybar)
	}
	slope := sxy / sxx
	intercept := ybar - slope*xbar
	var ssr float64
	for i := range x {
		r := y[i] - intercept - slope*x[i]
		ssr += r * r
	}
	seSlope := math.Sqrt(ssr / (n - 2) / sxx)

	assert.Equal(t, 6, fit.NObs)
	assert.InDelta(t, slope, term(t, fit, "x").Coef, 1e-10)
	assert.InDelta(t, intercept, term(t, fit, "(Intercept)").Coef, 1e-10)
	assert.InDelta(t, seSlope, term(t, fit, "x").StdErr, 1e-10)
	assert.Greater(t, fit.RSquared, 0.99)
	assert.Less(t, term(t, fit, "x").PValue, 0.01)
	assert.Greater(t, fit.FStat, 0.0)
	assert.Greater(t, fit.ResidualStdErr, 0.0)
}

// TestFitOLS_FixedEffectsMatchDummies verifies within-group demeaning against
// the equivalent dummy-variable regression.
func TestFitOLS_FixedEffectsMatchDummies(t *testing.T) {
	x := []float64{1, 2, 3, 4, 2, 3, 4, 5, 1, 3, 5, 7}
	g := []string{"a", "a", "a", "a", "b", "b", "b", "b", "c", "c", "c", "c"}
	shift := map[string]float64{"a": 0, "b": 5, "c": -3}
	y := make([]float64, len(x))
	noise := []float64{0.3, -0.2, 0.1, -0.4, 0.2, 0.0, -0.1, 0.3, -0.3, 0.1, 0.2, -0.2}
	for i := range x {
		y[i] = 2*x[i] + shift[g[i]] + noise[i]
	}
	ds := numericDS(t,
		dataset.NewNumeric("y", y),
		dataset.NewNumeric("x", x),
		dataset.NewCategorical("g", g),
	)

	withAbsorption, err := New().Fit(ds, model.Spec{
		Kind: model.SpecFixedEffects, Family: model.OLS,
		DepVar: "y", Regressors: []string{"x"}, FixedEffects: []string{"g"},
	})
	require.NoError(t, err)

	// Same model with the grouping variable as a dummy-expanded regressor.
	withDummies, err := New().Fit(ds, model.Spec{
		Kind: model.SpecPlain, Family: model.OLS,
		DepVar: "y", Regressors: []string{"x", "g"},
	})
	require.NoError(t, err)

	absorbed := term(t, withAbsorption, "x")
	dummied := term(t, withDummies, "x")
	assert.InDelta(t, dummied.Coef, absorbed.Coef, 1e-8)
	assert.InDelta(t, dummied.StdErr, absorbed.StdErr, 1e-8)

	// Absorbed intercepts never show up as terms.
	assert.Len(t, withAbsorption.Terms, 1)
	assert.Equal(t, "x", withAbsorption.Terms[0].Name)
}

func TestFitOLS_ClusteredErrors(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	cl := []string{"a", "a", "a", "b", "b", "b", "c", "c", "c", "d", "d", "d"}
	y := []float64{2.3, 4.1, 6.4, 8.9, 10.2, 11.8, 14.5, 16.1, 17.8, 20.3, 22.4, 23.9}
	ds := numericDS(t,
		dataset.NewNumeric("y", y),
		dataset.NewNumeric("x", x),
		dataset.NewCategorical("cl", cl),
	)

	plain, err := New().Fit(ds, model.Spec{
		Kind: model.SpecPlain, Family: model.OLS,
		DepVar: "y", Regressors: []string{"x"},
	})
	require.NoError(t, err)

	clustered, err := New().Fit(ds, model.Spec{
		Kind: model.SpecClustered, Family: model.OLS,
		DepVar: "y", Regressors: []string{"x"}, Clusters: []string{"cl"},
	})
	require.NoError(t, err)

	// Point estimates are unchanged by the variance estimator.
	assert.InDelta(t, term(t, plain, "x").Coef, term(t, clustered, "x").Coef, 1e-12)

	cse := term(t, clustered, "x").StdErr
	assert.Greater(t, cse, 0.0)
	assert.NotEqual(t, term(t, plain, "x").StdErr, cse)
}

func TestFit_ListwiseDeletion(t *testing.T) {
	ds := numericDS(t,
		dataset.NewNumeric("y", []float64{1, 2, 3, 4, 5}),
		dataset.NewNumeric("x", []float64{1, math.NaN(), 3, 4, 5}),
	)
	fit, err := New().Fit(ds, model.Spec{
		Kind: model.SpecPlain, Family: model.OLS,
		DepVar: "y", Regressors: []string{"x"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, fit.NObs)
}

func TestFit_NoObservations(t *testing.T) {
	ds := numericDS(t,
		dataset.NewNumeric("y", []float64{math.NaN(), math.NaN()}),
		dataset.NewNumeric("x", []float64{1, 2}),
	)
	_, err := New().Fit(ds, model.Spec{
		Kind: model.SpecPlain, Family: model.OLS,
		DepVar: "y", Regressors: []string{"x"},
	})
	require.ErrorIs(t, err, ErrNoObservations)
}

func TestFitOLS_SingularDesign(t *testing.T) {
	x1 := []float64{1, 2, 3, 4, 5, 6}
	x2 := make([]float64, len(x1))
	for i, v := range x1 {
		x2[i] = 2 * v
	}
	ds := numericDS(t,
		dataset.NewNumeric("y", []float64{1, 3, 2, 5, 4, 6}),
		dataset.NewNumeric("x1", x1),
		dataset.NewNumeric("x2", x2),
	)
	_, err := New().Fit(ds, model.Spec{
		Kind: model.SpecPlain, Family: model.OLS,
		DepVar: "y", Regressors: []string{"x1", "x2"},
	})
	require.Error(t, err)
}

func TestFitOLS_TooFewObservations(t *testing.T) {
	ds := numericDS(t,
		dataset.NewNumeric("y", []float64{1, 2}),
		dataset.NewNumeric("x", []float64{1, 2}),
	)
	_, err := New().Fit(ds, model.Spec{
		Kind: model.SpecPlain, Family: model.OLS,
		DepVar: "y", Regressors: []string{"x"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough observations")
}

func TestFit_NoRegressors(t *testing.T) {
	ds := numericDS(t,
		dataset.NewNumeric("y", []float64{1, 2, 3}),
	)
	_, err := New().Fit(ds, model.Spec{
		Kind: model.SpecPlain, Family: model.OLS, DepVar: "y",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no regressors")
}
