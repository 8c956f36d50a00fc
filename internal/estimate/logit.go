package estimate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/leapstack-labs/regtab/pkg/model"
)

const (
	logitMaxIter = 25
	logitTol     = 1e-8
)

// fitLogit estimates a binomial-link classifier by iteratively reweighted
// least squares. Divergence, which includes perfect separation, is reported
// as a convergence failure.
func fitLogit(fr *frame) (*model.Fit, error) {
	n := fr.n
	p := len(fr.x) + 1 // intercept first

	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	for j, c := range fr.x {
		x.SetCol(j+1, c)
	}
	y := fr.y

	beta := make([]float64, p)
	mu := make([]float64, n)
	w := make([]float64, n)
	z := make([]float64, n)

	dev := math.Inf(1)
	converged := false
	for iter := 0; iter < logitMaxIter; iter++ {
		for i := 0; i < n; i++ {
			eta := 0.0
			for j := 0; j < p; j++ {
				eta += x.At(i, j) * beta[j]
			}
			mu[i] = 1 / (1 + math.Exp(-eta))
			// Clamp to keep the working weights finite under separation;
			// the deviance check still catches the divergence.
			if mu[i] < 1e-10 {
				mu[i] = 1e-10
			} else if mu[i] > 1-1e-10 {
				mu[i] = 1 - 1e-10
			}
			w[i] = mu[i] * (1 - mu[i])
			z[i] = eta + (y[i]-mu[i])/w[i]
		}

		// Weighted least squares via sqrt-weight scaling.
		xw := mat.NewDense(n, p, nil)
		zw := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			sw := math.Sqrt(w[i])
			for j := 0; j < p; j++ {
				xw.Set(i, j, x.At(i, j)*sw)
			}
			zw.SetVec(i, z[i]*sw)
		}
		var qr mat.QR
		qr.Factorize(xw)
		next := mat.NewVecDense(p, nil)
		if err := qr.SolveVecTo(next, false, zw); err != nil {
			return nil, fmt.Errorf("logit weighted solve: %w", err)
		}
		for j := 0; j < p; j++ {
			beta[j] = next.AtVec(j)
		}

		newDev := deviance(y, mu)
		if math.Abs(dev-newDev) < logitTol*(math.Abs(newDev)+0.1) {
			converged = true
			dev = newDev
			break
		}
		dev = newDev
	}
	if !converged {
		return nil, fmt.Errorf("logit did not converge in %d iterations (possible perfect separation)", logitMaxIter)
	}

	// Recompute the information matrix at the solution.
	separated := true
	for i := 0; i < n; i++ {
		eta := 0.0
		for j := 0; j < p; j++ {
			eta += x.At(i, j) * beta[j]
		}
		mu[i] = 1 / (1 + math.Exp(-eta))
		w[i] = mu[i] * (1 - mu[i])
		if mu[i] > 1e-6 && mu[i] < 1-1e-6 {
			separated = false
		}
	}
	if separated {
		return nil, fmt.Errorf("logit: perfect separation detected")
	}
	info := mat.NewDense(p, p, nil)
	for a := 0; a < p; a++ {
		for b := a; b < p; b++ {
			s := 0.0
			for i := 0; i < n; i++ {
				s += x.At(i, a) * x.At(i, b) * w[i]
			}
			info.Set(a, b, s)
			info.Set(b, a, s)
		}
	}
	var vcov mat.Dense
	if err := vcov.Inverse(info); err != nil {
		return nil, fmt.Errorf("singular information matrix: %w", err)
	}

	norm := distuv.Normal{Mu: 0, Sigma: 1}
	names := append([]string{"(Intercept)"}, fr.names...)
	terms := make([]model.Term, p)
	for j := 0; j < p; j++ {
		se := math.Sqrt(vcov.At(j, j))
		zstat := beta[j] / se
		terms[j] = model.Term{
			Name:   names[j],
			Coef:   beta[j],
			StdErr: se,
			PValue: 2 * norm.CDF(-math.Abs(zstat)),
		}
	}

	return &model.Fit{
		Terms:          terms,
		NObs:           n,
		PseudoRSquared: mcFadden(y, mu),
	}, nil
}

func deviance(y, mu []float64) float64 {
	d := 0.0
	for i := range y {
		if y[i] > 0.5 {
			d -= 2 * math.Log(mu[i])
		} else {
			d -= 2 * math.Log(1-mu[i])
		}
	}
	return d
}

// mcFadden computes 1 - llModel/llNull against the intercept-only model.
func mcFadden(y, mu []float64) float64 {
	n := float64(len(y))
	ones := 0.0
	for _, v := range y {
		ones += v
	}
	pbar := ones / n
	llNull := ones*math.Log(pbar) + (n-ones)*math.Log(1-pbar)
	llModel := -deviance(y, mu) / 2
	return 1 - llModel/llNull
}
