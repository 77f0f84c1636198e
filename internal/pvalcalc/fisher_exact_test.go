package pvalcalc

import (
	"errors"
	"math"
	"testing"

	"goenrich/domain/stats"
)

func TestFisherExact_ReferenceTable(t *testing.T) {
	// Same reference table as the population kernel, laid out as cells:
	// [3 1; 1 3].
	cases := []struct {
		alt  Alternative
		want float64
	}{
		{AltGreater, 17.0 / 70.0},
		{AltLess, 69.0 / 70.0},
		{AltTwoSided, 34.0 / 70.0},
	}
	for _, tc := range cases {
		t.Run(string(tc.alt), func(t *testing.T) {
			or, p, err := fisherExact(3, 1, 1, 3, tc.alt)
			if err != nil {
				t.Fatalf("fisherExact: %v", err)
			}
			if math.Abs(p-tc.want) > tailTol {
				t.Errorf("p: got %.15f, want %.15f", p, tc.want)
			}
			if got, want := or, 9.0; math.Abs(got-want) > tailTol {
				t.Errorf("odds ratio: got %v, want %v", got, want)
			}
		})
	}
}

func TestFisherExact_AsymmetricTable(t *testing.T) {
	// Table [8 2; 1 5]: margins 10/6 and 9/7 over n=16, so every point
	// probability is an x/11440 fraction. The two-sided mass collects
	// a=3, a=8 and a=9.
	or, p, err := fisherExact(8, 2, 1, 5, AltTwoSided)
	if err != nil {
		t.Fatalf("fisherExact: %v", err)
	}
	if got, want := p, 400.0/11440.0; math.Abs(got-want) > tailTol {
		t.Errorf("two-sided p: got %.15f, want %.15f", got, want)
	}
	if got, want := or, 20.0; math.Abs(got-want) > tailTol {
		t.Errorf("odds ratio: got %v, want %v", got, want)
	}

	_, pGreater, err := fisherExact(8, 2, 1, 5, AltGreater)
	if err != nil {
		t.Fatalf("fisherExact greater: %v", err)
	}
	if got, want := pGreater, 280.0/11440.0; math.Abs(got-want) > tailTol {
		t.Errorf("greater p: got %.15f, want %.15f", got, want)
	}
}

func TestFisherExact_OddsRatio(t *testing.T) {
	cases := []struct {
		name       string
		a, b, c, d int
		want       float64
	}{
		{"balanced", 2, 4, 8, 16, 1.0},
		{"strong association", 9, 1, 1, 9, 81.0},
		{"zero off-diagonal", 10, 0, 0, 10, math.Inf(1)},
		{"zero diagonal", 0, 5, 5, 0, 0.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			or, _, err := fisherExact(tc.a, tc.b, tc.c, tc.d, AltTwoSided)
			if err != nil {
				t.Fatalf("fisherExact: %v", err)
			}
			if math.IsInf(tc.want, 1) {
				if !math.IsInf(or, 1) {
					t.Errorf("odds ratio: got %v, want +Inf", or)
				}
				return
			}
			if math.Abs(or-tc.want) > tailTol {
				t.Errorf("odds ratio: got %v, want %v", or, tc.want)
			}
		})
	}
}

func TestFisherExact_NegativeCell(t *testing.T) {
	if _, _, err := fisherExact(1, -1, 2, 3, AltGreater); err == nil {
		t.Fatal("expected error for negative cell")
	}
}

func TestFisherExact_UnknownAlternative(t *testing.T) {
	if _, _, err := fisherExact(3, 1, 1, 3, Alternative("both")); err == nil {
		t.Fatal("expected error for unknown alternative")
	}
}

func TestFisherExact_CertainTable(t *testing.T) {
	// A margin of zero leaves a single possible table, so every
	// alternative reports certainty.
	for _, alt := range []Alternative{AltGreater, AltLess, AltTwoSided} {
		_, p, err := fisherExact(0, 10, 0, 10, alt)
		if err != nil {
			t.Fatalf("fisherExact(%s): %v", alt, err)
		}
		if math.Abs(p-1.0) > tailTol {
			t.Errorf("%s: got %.15f, want 1", alt, p)
		}
	}
}

func TestFisherExactCalc_SelectsConfiguredAlternative(t *testing.T) {
	cases := []struct {
		testType stats.TestType
		alt      Alternative
	}{
		{stats.TestUp, AltGreater},
		{stats.TestDown, AltLess},
		{stats.TestUpDown, AltTwoSided},
	}
	for _, tc := range cases {
		t.Run(string(tc.testType), func(t *testing.T) {
			calc := NewFisherExactCalc(tc.testType)
			got, err := calc.CalcPValue(3, 4, 4, 8)
			if err != nil {
				t.Fatalf("CalcPValue: %v", err)
			}
			_, want, err := fisherExact(3, 1, 1, 3, tc.alt)
			if err != nil {
				t.Fatalf("fisherExact: %v", err)
			}
			if math.Abs(got-want) > tailTol {
				t.Errorf("got %.15f, want %.15f", got, want)
			}
		})
	}
}

func TestFisherExactCalc_UnknownTestType(t *testing.T) {
	calc := NewFisherExactCalc(stats.TestType("sideways"))
	_, err := calc.CalcPValue(3, 4, 4, 8)
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

func TestFisherExactCalc_Name(t *testing.T) {
	calc := NewFisherExactCalc(stats.TestUpDown)
	if calc.Name() != BackendFisherExact {
		t.Errorf("expected name %q, got %q", BackendFisherExact, calc.Name())
	}
}
