package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquareResult is a chi-square test of independence on a contingency table.
type ChiSquareResult struct {
	Test
	Expected [][]float64 `json:"expected"`
}

// ChiSquare tests independence of the rows and columns of observed. With one
// degree of freedom Yates' continuity correction is applied.
func ChiSquare(observed [][]float64) (ChiSquareResult, error) {
	rows := len(observed)
	if rows == 0 || len(observed[0]) == 0 {
		return ChiSquareResult{}, ErrTooFew
	}
	cols := len(observed[0])
	rowSum := make([]float64, rows)
	colSum := make([]float64, cols)
	total := 0.0
	for i, row := range observed {
		if len(row) != cols {
			return ChiSquareResult{}, ErrLengthMismatch
		}
		for j, v := range row {
			rowSum[i] += v
			colSum[j] += v
			total += v
		}
	}

	expected := make([][]float64, rows)
	for i := range expected {
		expected[i] = make([]float64, cols)
		for j := range expected[i] {
			e := rowSum[i] * colSum[j] / total
			if e == 0 || math.IsNaN(e) {
				return ChiSquareResult{}, ErrZeroExpected
			}
			expected[i][j] = e
		}
	}

	dof := (rows - 1) * (cols - 1)
	if dof == 0 {
		return ChiSquareResult{
			Test:     Test{Stat: 0, P: 1, DoF: 0},
			Expected: expected,
		}, nil
	}

	chi2 := 0.0
	for i := range observed {
		for j, o := range observed[i] {
			e := expected[i][j]
			if dof == 1 {
				diff := e - o
				o += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			}
			chi2 += (o - e) * (o - e) / e
		}
	}
	p := distuv.ChiSquared{K: float64(dof)}.Survival(chi2)
	return ChiSquareResult{
		Test:     Test{Stat: chi2, P: p, DoF: dof},
		Expected: expected,
	}, nil
}
