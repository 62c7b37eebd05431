package curvefit

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/caeser-uofm/gwrecharge/seriesmodel"
)

// SolverConfig is the Levenberg-Marquardt optimizer budget, modeled on the
// teacher's swap/config.Config (ConvergenceTolerance, MaxBootstrapIterations,
// DampingFactor already exist there for a different Newton solver; the same
// shape drives LM here).
type SolverConfig struct {
	MaxIterations        int
	ConvergenceTolerance float64
	InitialDamping       float64
	DampingUp            float64
	DampingDown          float64
}

// DefaultSolverConfig returns production-ready LM tuning.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		MaxIterations:        200,
		ConvergenceTolerance: 1e-10,
		InitialDamping:       1e-3,
		DampingUp:            10,
		DampingDown:          0.1,
	}
}

// lmResult is the outcome of one Levenberg-Marquardt run from one initial guess.
type lmResult struct {
	params    seriesmodel.CurveParams
	converged bool
}

// levenbergMarquardt minimizes sum((predict(p,t)-d)^2) over p=(a,b) starting
// from guess, using a central-difference Jacobian and a damped
// Gauss-Newton step solved via gonum/mat.
func levenbergMarquardt(curveType seriesmodel.CurveType, ts, ds []float64, guess seriesmodel.CurveParams, cfg SolverConfig) lmResult {
	n := len(ts)
	if n == 0 {
		return lmResult{}
	}

	p := []float64{guess.A, guess.B}
	lambda := cfg.InitialDamping
	prevCost := residualCost(curveType, ts, ds, p)
	if math.IsNaN(prevCost) || math.IsInf(prevCost, 0) {
		return lmResult{}
	}

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		J := jacobian(curveType, ts, p)
		r := residuals(curveType, ts, ds, p)

		var Jt, JtJ mat.Dense
		Jt.CloneFrom(J.T())
		JtJ.Mul(&Jt, J)

		var Jtr mat.VecDense
		Jtr.MulVec(&Jt, r)

		// Damp the normal equations: (JtJ + lambda*diag(JtJ)) delta = Jtr
		damped := mat.NewDense(2, 2, nil)
		damped.Copy(&JtJ)
		for i := 0; i < 2; i++ {
			damped.Set(i, i, damped.At(i, i)*(1+lambda))
		}

		var delta mat.VecDense
		if err := delta.SolveVec(damped, &Jtr); err != nil {
			return lmResult{params: seriesmodel.CurveParams{A: p[0], B: p[1]}, converged: false}
		}

		candidate := []float64{p[0] - delta.AtVec(0), p[1] - delta.AtVec(1)}
		cost := residualCost(curveType, ts, ds, candidate)

		if math.IsNaN(cost) || math.IsInf(cost, 0) {
			lambda *= cfg.DampingUp
			continue
		}

		if cost < prevCost {
			improvement := prevCost - cost
			p = candidate
			lambda *= cfg.DampingDown
			prevCost = cost
			if improvement < cfg.ConvergenceTolerance {
				return lmResult{params: seriesmodel.CurveParams{A: p[0], B: p[1]}, converged: true}
			}
		} else {
			lambda *= cfg.DampingUp
			if lambda > 1e12 {
				break
			}
		}
	}

	return lmResult{params: seriesmodel.CurveParams{A: p[0], B: p[1]}, converged: prevCost < math.Inf(1)}
}

func residuals(curveType seriesmodel.CurveType, ts, ds []float64, p []float64) *mat.VecDense {
	n := len(ts)
	r := mat.NewVecDense(n, nil)
	params := seriesmodel.CurveParams{A: p[0], B: p[1]}
	for i := range ts {
		r.SetVec(i, Predict(curveType, params, ts[i])-ds[i])
	}
	return r
}

func residualCost(curveType seriesmodel.CurveType, ts, ds []float64, p []float64) float64 {
	params := seriesmodel.CurveParams{A: p[0], B: p[1]}
	var sum float64
	for i := range ts {
		d := Predict(curveType, params, ts[i]) - ds[i]
		sum += d * d
	}
	return sum
}

const jacobianStep = 1e-6

func jacobian(curveType seriesmodel.CurveType, ts, p []float64) *mat.Dense {
	n := len(ts)
	J := mat.NewDense(n, 2, nil)
	for j := 0; j < 2; j++ {
		pPlus := append([]float64(nil), p...)
		pMinus := append([]float64(nil), p...)
		h := jacobianStep * math.Max(1, math.Abs(p[j]))
		pPlus[j] += h
		pMinus[j] -= h
		paramsPlus := seriesmodel.CurveParams{A: pPlus[0], B: pPlus[1]}
		paramsMinus := seriesmodel.CurveParams{A: pMinus[0], B: pMinus[1]}
		for i, t := range ts {
			dPlus := Predict(curveType, paramsPlus, t)
			dMinus := Predict(curveType, paramsMinus, t)
			J.Set(i, j, (dPlus-dMinus)/(2*h))
		}
	}
	return J
}
