package stats

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestPearson(t *testing.T) {
	tests := []struct {
		name  string
		x, y  []float64
		wantR float64
		wantP float64
	}{
		{"moderate", []float64{1, 2, 3, 4, 5}, []float64{2, 4, 5, 4, 5}, 0.774597, 0.124027},
		{"near perfect", []float64{1, 2, 3, 4, 5}, []float64{1.1, 2.0, 2.9, 4.2, 4.8}, 0.995474, 0.000365},
		{"perfect negative", []float64{1, 2, 3, 4}, []float64{8, 6, 4, 2}, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pearson(tt.x, tt.y)
			if err != nil {
				t.Fatal(err)
			}
			if !approx(got.Stat, tt.wantR, 1e-5) {
				t.Errorf("r = %v, want %v", got.Stat, tt.wantR)
			}
			if !approx(got.P, tt.wantP, 1e-5) {
				t.Errorf("p = %v, want %v", got.P, tt.wantP)
			}
			if got.DoF != len(tt.x)-2 {
				t.Errorf("dof = %d, want %d", got.DoF, len(tt.x)-2)
			}
		})
	}
}

func TestPearsonPreconditions(t *testing.T) {
	if _, err := Pearson([]float64{1, 2, 3}, []float64{1, 2}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
	if _, err := Pearson([]float64{1, 2}, []float64{1, 2}); !errors.Is(err, ErrTooFew) {
		t.Errorf("err = %v, want ErrTooFew", err)
	}
}

func TestTTestInd(t *testing.T) {
	got, err := TTestInd([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10})
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got.Stat, -1.897367, 1e-5) || !approx(got.P, 0.094350, 1e-5) || got.DoF != 8 {
		t.Errorf("TTestInd = %v, want (-1.897367, 0.094350, 8)", got)
	}
}

func TestTTestRel(t *testing.T) {
	got, err := TTestRel([]float64{1, 2, 3, 4, 5}, []float64{2, 2, 5, 5, 7})
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got.Stat, -3.207135, 1e-5) || !approx(got.P, 0.032678, 1e-5) || got.DoF != 4 {
		t.Errorf("TTestRel = %v, want (-3.207135, 0.032678, 4)", got)
	}
	if _, err := TTestRel([]float64{1, 2, 3}, []float64{1, 2}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestChiSquare(t *testing.T) {
	tests := []struct {
		name     string
		obs      [][]float64
		wantChi2 float64
		wantP    float64
		wantDoF  int
	}{
		{"2x2 with continuity correction", [][]float64{{10, 20}, {30, 40}}, 0.446429, 0.504036, 1},
		{"2x3", [][]float64{{10, 20, 30}, {6, 9, 17}}, 0.271575, 0.873028, 2},
		{"3x2", [][]float64{{12, 5}, {7, 9}, {4, 11}}, 6.326670, 0.042284, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChiSquare(tt.obs)
			if err != nil {
				t.Fatal(err)
			}
			if !approx(got.Stat, tt.wantChi2, 1e-5) {
				t.Errorf("chi2 = %v, want %v", got.Stat, tt.wantChi2)
			}
			if !approx(got.P, tt.wantP, 1e-5) {
				t.Errorf("p = %v, want %v", got.P, tt.wantP)
			}
			if got.DoF != tt.wantDoF {
				t.Errorf("dof = %d, want %d", got.DoF, tt.wantDoF)
			}
		})
	}
}

func TestChiSquareZeroExpected(t *testing.T) {
	_, err := ChiSquare([][]float64{{0, 5}, {0, 7}})
	if !errors.Is(err, ErrZeroExpected) {
		t.Errorf("err = %v, want ErrZeroExpected", err)
	}
}

func TestCohenD(t *testing.T) {
	d, err := CohenD([]float64{2, 4, 6}, []float64{1, 3, 5})
	if err != nil {
		t.Fatal(err)
	}
	if !approx(d, 0.5, 1e-9) {
		t.Errorf("d = %v, want 0.5", d)
	}
	if _, err := CohenD([]float64{1, 2}, []float64{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestFisherZ(t *testing.T) {
	if got := FisherZ(0); got != 0 {
		t.Errorf("FisherZ(0) = %v, want 0", got)
	}
	if got, want := FisherZ(0.5), math.Atanh(0.5); !approx(got, want, 1e-12) {
		t.Errorf("FisherZ(0.5) = %v, want %v", got, want)
	}
}

func TestIsConstant(t *testing.T) {
	if !IsConstant([]float64{3, 3, 3}) {
		t.Error("expected constant")
	}
	if IsConstant([]float64{3, 3, 3.0001}) {
		t.Error("expected non-constant")
	}
}
