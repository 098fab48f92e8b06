// Package stats provides the guarded numeric primitives the aggregation
// pipeline is built on. Every function reports non-computable results
// explicitly (ok flags or nil pointers) instead of letting NaN or Inf flow
// into downstream comparisons.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean returns the arithmetic mean; ok is false for an empty sample.
func Mean(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return stat.Mean(xs, nil), true
}

// PopStd returns the population (ddof=0) standard deviation.
func PopStd(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return stat.PopStdDev(xs, nil), true
}

// Quantile computes the p-quantile of xs with linear interpolation between
// order statistics (the h = p*(n-1) convention). xs is not modified.
func Quantile(xs []float64, p float64) (float64, bool) {
	n := len(xs)
	if n == 0 {
		return 0, false
	}
	s := make([]float64, n)
	copy(s, xs)
	sort.Float64s(s)
	if n == 1 {
		return s[0], true
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo < 0 {
		return s[0], true
	}
	if lo >= n-1 {
		return s[n-1], true
	}
	return s[lo] + (h-float64(lo))*(s[lo+1]-s[lo]), true
}

// Median is the 0.5 quantile.
func Median(xs []float64) (float64, bool) {
	return Quantile(xs, 0.5)
}

// MAD returns the unscaled median absolute deviation.
func MAD(xs []float64) (float64, bool) {
	m, ok := Median(xs)
	if !ok {
		return 0, false
	}
	devs := make([]float64, len(xs))
	for i, x := range xs {
		devs[i] = math.Abs(x - m)
	}
	return Median(devs)
}

// AverageRanks assigns 1-based ranks with ties receiving the mean of the
// rank range they span.
func AverageRanks(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		avg := (float64(i+1) + float64(j+1)) / 2
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// Spearman returns the rank correlation of the paired samples and its
// two-sided p-value from the t distribution with n-2 degrees of freedom.
// Nil marks not-computable cases: n < 2, zero variance, or too few points
// for the test.
func Spearman(x, y []float64) (rho, p *float64) {
	n := len(x)
	if n < 2 || n != len(y) {
		return nil, nil
	}
	r := stat.Correlation(AverageRanks(x), AverageRanks(y), nil)
	if math.IsNaN(r) {
		return nil, nil
	}
	rho = &r
	if n > 2 {
		if d := 1 - r*r; d > 0 {
			t := r * math.Sqrt(float64(n-2)/d)
			dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
			pv := 2 * dist.CDF(-math.Abs(t))
			p = &pv
		} else {
			// perfectly monotone sample
			pv := 0.0
			p = &pv
		}
	}
	return rho, p
}

// KendallTauB returns Kendall's tau-b with its tie-corrected asymptotic
// normal two-sided p-value. Tau is nil when either sample is constant.
func KendallTauB(x, y []float64) (tau, p *float64) {
	n := len(x)
	if n < 2 || n != len(y) {
		return nil, nil
	}
	var concordant, discordant float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := (x[i] - x[j]) * (y[i] - y[j])
			if s > 0 {
				concordant++
			} else if s < 0 {
				discordant++
			}
		}
	}
	xt1, xt2, xt3 := tieTallies(x)
	yt1, yt2, yt3 := tieTallies(y)
	fn := float64(n)
	n0 := fn * (fn - 1) / 2
	den := math.Sqrt((n0 - xt1/2) * (n0 - yt1/2))
	if den <= 0 {
		return nil, nil
	}
	t := (concordant - discordant) / den
	tau = &t

	v0 := fn * (fn - 1) * (2*fn + 5)
	v1 := xt1 * yt1 / (2 * fn * (fn - 1))
	var v2 float64
	if n > 2 {
		v2 = xt2 * yt2 / (9 * fn * (fn - 1) * (fn - 2))
	}
	variance := (v0-xt3-yt3)/18 + v1 + v2
	if variance > 0 {
		z := (concordant - discordant) / math.Sqrt(variance)
		pv := 2 * distuv.Normal{Mu: 0, Sigma: 1}.CDF(-math.Abs(z))
		if pv > 1 {
			pv = 1
		}
		p = &pv
	}
	return tau, p
}

// tieTallies returns sum t(t-1), sum t(t-1)(t-2) and sum t(t-1)(2t+5) over
// the tie group sizes of v.
func tieTallies(v []float64) (t1, t2, t3 float64) {
	counts := make(map[float64]float64, len(v))
	for _, x := range v {
		counts[x]++
	}
	for _, c := range counts {
		t1 += c * (c - 1)
		t2 += c * (c - 1) * (c - 2)
		t3 += c * (c - 1) * (2*c + 5)
	}
	return t1, t2, t3
}

// OLS regresses y on x and returns the slope plus the fit's R squared.
// Either is nil when the corresponding quantity is undefined (zero variance).
func OLS(x, y []float64) (slope, r2 *float64) {
	n := len(x)
	if n < 2 || n != len(y) {
		return nil, nil
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	if !math.IsNaN(beta) && !math.IsInf(beta, 0) {
		slope = &beta
	}
	if r := stat.Correlation(x, y, nil); !math.IsNaN(r) {
		v := r * r
		r2 = &v
	}
	return slope, r2
}
