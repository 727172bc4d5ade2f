// Package stats implements the statistical tests used to evaluate
// entrainment measures. Results carry degrees of freedom alongside the test
// statistic and p-value so they can be reported together.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrLengthMismatch = errors.New("stats: series differ in length")
	ErrTooFew         = errors.New("stats: too few observations")
	ErrZeroExpected   = errors.New("stats: contingency table has a zero expected frequency")
)

// Test is the outcome of a hypothesis test.
type Test struct {
	Stat float64 `json:"stat"`
	P    float64 `json:"p"`
	DoF  int     `json:"dof"`
}

func (t Test) String() string {
	return fmt.Sprintf("(%.6f, %.6g, %d)", t.Stat, t.P, t.DoF)
}

// Pearson returns the correlation coefficient of x and y with its two-sided
// p-value and n-2 degrees of freedom.
func Pearson(x, y []float64) (Test, error) {
	if len(x) != len(y) {
		return Test{}, ErrLengthMismatch
	}
	n := len(x)
	if n < 3 {
		return Test{}, ErrTooFew
	}
	r := stat.Correlation(x, y, nil)
	// rounding can push |r| slightly above 1
	r = math.Max(-1, math.Min(1, r))
	dof := n - 2
	return Test{Stat: r, P: pearsonP(r, dof), DoF: dof}, nil
}

func pearsonP(r float64, dof int) float64 {
	if math.IsNaN(r) {
		return math.NaN()
	}
	if math.Abs(r) == 1 {
		return 0
	}
	t := r * math.Sqrt(float64(dof)/((1-r)*(1+r)))
	return twoSidedT(t, float64(dof))
}

func twoSidedT(t, nu float64) float64 {
	if math.IsNaN(t) {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}
	d := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
	return 2 * d.CDF(-math.Abs(t))
}

// TTestInd is an independent two-sample t-test assuming equal variances.
func TTestInd(a, b []float64) (Test, error) {
	n1, n2 := len(a), len(b)
	if n1 < 2 || n2 < 2 {
		return Test{}, ErrTooFew
	}
	m1, v1 := stat.MeanVariance(a, nil)
	m2, v2 := stat.MeanVariance(b, nil)
	dof := n1 + n2 - 2
	pooled := (float64(n1-1)*v1 + float64(n2-1)*v2) / float64(dof)
	t := (m1 - m2) / math.Sqrt(pooled*(1/float64(n1)+1/float64(n2)))
	return Test{Stat: t, P: twoSidedT(t, float64(dof)), DoF: dof}, nil
}

// TTestRel is a paired t-test; a and b must have the same length.
func TTestRel(a, b []float64) (Test, error) {
	if len(a) != len(b) {
		return Test{}, ErrLengthMismatch
	}
	n := len(a)
	if n < 2 {
		return Test{}, ErrTooFew
	}
	d := make([]float64, n)
	for i := range a {
		d[i] = a[i] - b[i]
	}
	m, sd := stat.MeanStdDev(d, nil)
	t := m / (sd / math.Sqrt(float64(n)))
	dof := n - 1
	return Test{Stat: t, P: twoSidedT(t, float64(dof)), DoF: dof}, nil
}

// CohenD is Cohen's d for two equally sized samples.
func CohenD(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, ErrLengthMismatch
	}
	if len(x) < 2 {
		return 0, ErrTooFew
	}
	mx, sx := stat.MeanStdDev(x, nil)
	my, sy := stat.MeanStdDev(y, nil)
	return (mx - my) / math.Sqrt((sx*sx+sy*sy)/2), nil
}

// FisherZ is the Fisher z-transformation of a correlation coefficient.
func FisherZ(r float64) float64 {
	return 0.5 * (math.Log(1+r) - math.Log(1-r))
}

// MeanStd returns the mean and sample standard deviation, NaN for empty input.
func MeanStd(x []float64) (mean, std float64) {
	switch len(x) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return x[0], math.NaN()
	}
	return stat.MeanStdDev(x, nil)
}

// IsConstant reports whether every value in x is identical.
func IsConstant(x []float64) bool {
	for i := 1; i < len(x); i++ {
		if x[i] != x[0] {
			return false
		}
	}
	return true
}
