package signal

import "math"

// polyDerivativeAt fits a polynomial of the given order to (x, y) by least
// squares, centered at x0 for numerical conditioning, and returns the
// fitted derivative at x0. Falls back to a finite difference when the
// normal equations are singular.
func polyDerivativeAt(x, y []float64, x0 float64, order int) float64 {
	n := len(x)
	if n < 2 {
		return 0
	}
	if order > n-1 {
		order = n - 1
	}
	if order < 1 {
		order = 1
	}
	terms := order + 1

	// Normal equations for the centered Vandermonde system.
	m := make([][]float64, terms)
	rhs := make([]float64, terms)
	pow := make([]float64, 2*order+1)
	for _, xi := range x {
		dx := xi - x0
		p := 1.0
		for e := 0; e <= 2*order; e++ {
			pow[e] += p
			p *= dx
		}
	}
	for r := 0; r < terms; r++ {
		m[r] = make([]float64, terms)
		for c := 0; c < terms; c++ {
			m[r][c] = pow[r+c]
		}
	}
	for i, xi := range x {
		dx := xi - x0
		p := 1.0
		for r := 0; r < terms; r++ {
			rhs[r] += p * y[i]
			p *= dx
		}
	}

	coeffs, ok := solveLinearSystem(m, rhs)
	if !ok {
		return fallbackSlope(x, y, x0)
	}
	// The fit is in powers of (x - x0), so the derivative at x0 is the
	// linear coefficient.
	return coeffs[1]
}

// solveLinearSystem solves a small dense system by Gaussian elimination
// with partial pivoting. The second result is false when the matrix is
// singular to working precision.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, bool) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-300 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, true
}

// fallbackSlope returns the slope of the two samples nearest x0.
func fallbackSlope(x, y []float64, x0 float64) float64 {
	if len(x) < 2 {
		return 0
	}
	nearest := 0
	for i := range x {
		if math.Abs(x[i]-x0) < math.Abs(x[nearest]-x0) {
			nearest = i
		}
	}
	other := nearest - 1
	if other < 0 {
		other = nearest + 1
	}
	if x[other] == x[nearest] {
		return 0
	}
	return (y[other] - y[nearest]) / (x[other] - x[nearest])
}
