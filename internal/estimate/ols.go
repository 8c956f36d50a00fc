package estimate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/leapstack-labs/regtab/pkg/model"
)

// fitOLS estimates the linear family: plain least squares, fixed-effects
// absorbed least squares, and cluster-robust variants of either.
func fitOLS(fr *frame) (*model.Fit, error) {
	n := fr.n

	// Work on copies: absorption mutates the response and regressors.
	y := append([]float64(nil), fr.y...)
	cols := make([][]float64, len(fr.x))
	for i, c := range fr.x {
		cols[i] = append([]float64(nil), c...)
	}

	absorbed := 0
	if len(fr.feGroups) > 0 {
		vecs := append([][]float64{y}, cols...)
		demean(vecs, fr.feGroups, fr.feSizes)
		for _, size := range fr.feSizes {
			absorbed += size - 1
		}
		absorbed++ // the overall intercept is absorbed with the first effect
	}

	names := fr.names
	if fr.hasIntercept() {
		ones := make([]float64, n)
		for i := range ones {
			ones[i] = 1
		}
		cols = append([][]float64{ones}, cols...)
		names = append([]string{"(Intercept)"}, names...)
	}
	p := len(cols)

	dof := n - p - absorbed
	if dof <= 0 {
		return nil, fmt.Errorf("not enough observations: %d rows for %d parameters", n, p+absorbed)
	}

	x := mat.NewDense(n, p, nil)
	for j, c := range cols {
		x.SetCol(j, c)
	}
	yv := mat.NewVecDense(n, y)

	var qr mat.QR
	qr.Factorize(x)
	beta := mat.NewVecDense(p, nil)
	if err := qr.SolveVecTo(beta, false, yv); err != nil {
		return nil, fmt.Errorf("solve least squares: %w", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, beta)
	resid := make([]float64, n)
	ssr := 0.0
	for i := range resid {
		resid[i] = y[i] - fitted.AtVec(i)
		ssr += resid[i] * resid[i]
	}
	sigma2 := ssr / float64(dof)

	var xtx, xtxi mat.Dense
	xtx.Mul(x.T(), x)
	if err := xtxi.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("singular design matrix: %w", err)
	}

	var vcov mat.Dense
	tdof := float64(dof)
	if fr.clusters != nil {
		meat := clusterMeat(x, resid, fr.clusters, fr.nClust, p)
		var tmp mat.Dense
		tmp.Mul(&xtxi, meat)
		vcov.Mul(&tmp, &xtxi)
		g := float64(fr.nClust)
		adj := g / (g - 1) * float64(n-1) / float64(dof)
		vcov.Scale(adj, &vcov)
		tdof = g - 1
	} else {
		vcov.Scale(sigma2, &xtxi)
	}
	if tdof <= 0 {
		return nil, fmt.Errorf("not enough clusters: %d", fr.nClust)
	}

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: tdof}
	terms := make([]model.Term, p)
	for j := 0; j < p; j++ {
		se := math.Sqrt(vcov.At(j, j))
		t := beta.AtVec(j) / se
		terms[j] = model.Term{
			Name:   names[j],
			Coef:   beta.AtVec(j),
			StdErr: se,
			PValue: 2 * tdist.CDF(-math.Abs(t)),
		}
	}

	// R² is computed against the original response so absorbed intercepts
	// count as explained variation, like felm's full R².
	sst := totalSS(fr.y)
	r2 := 1 - ssr/sst
	adjR2 := 1 - (1-r2)*float64(n-1)/float64(dof)

	// F tests the regressors jointly against the (possibly demeaned)
	// response actually used in the solve.
	m := float64(len(fr.x))
	fstat := ((totalSS(y) - ssr) / m) / (ssr / float64(dof))

	return &model.Fit{
		Terms:          terms,
		NObs:           n,
		RSquared:       r2,
		AdjRSquared:    adjR2,
		FStat:          fstat,
		ResidualStdErr: math.Sqrt(sigma2),
	}, nil
}

// demean subtracts group means from every vector, per fixed effect. With a
// single effect one pass is exact; with more the projections alternate until
// the largest adjustment falls below tolerance.
func demean(vecs [][]float64, feGroups [][]int, feSizes []int) {
	if len(feGroups) == 1 {
		demeanOnce(vecs, feGroups[0], feSizes[0])
		return
	}
	const maxIter = 100
	for iter := 0; iter < maxIter; iter++ {
		delta := 0.0
		for f := range feGroups {
			if d := demeanOnce(vecs, feGroups[f], feSizes[f]); d > delta {
				delta = d
			}
		}
		if delta < 1e-10 {
			return
		}
	}
}

func demeanOnce(vecs [][]float64, groups []int, size int) float64 {
	counts := make([]float64, size)
	for _, g := range groups {
		counts[g]++
	}
	sums := make([]float64, size)
	maxAdj := 0.0
	for _, v := range vecs {
		for i := range sums {
			sums[i] = 0
		}
		for i, g := range groups {
			sums[g] += v[i]
		}
		for i := range sums {
			sums[i] /= counts[i]
		}
		for i, g := range groups {
			v[i] -= sums[g]
			if a := math.Abs(sums[g]); a > maxAdj {
				maxAdj = a
			}
		}
	}
	return maxAdj
}

// clusterMeat accumulates the CRVE middle matrix: the sum over clusters of
// the outer product of within-cluster score sums.
func clusterMeat(x *mat.Dense, resid []float64, clusters []int, nClust, p int) *mat.Dense {
	scores := make([][]float64, nClust)
	for g := range scores {
		scores[g] = make([]float64, p)
	}
	n := len(resid)
	for i := 0; i < n; i++ {
		s := scores[clusters[i]]
		for j := 0; j < p; j++ {
			s[j] += x.At(i, j) * resid[i]
		}
	}
	meat := mat.NewDense(p, p, nil)
	for _, s := range scores {
		for a := 0; a < p; a++ {
			for b := 0; b < p; b++ {
				meat.Set(a, b, meat.At(a, b)+s[a]*s[b])
			}
		}
	}
	return meat
}

func totalSS(y []float64) float64 {
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	ss := 0.0
	for _, v := range y {
		d := v - mean
		ss += d * d
	}
	return ss
}
