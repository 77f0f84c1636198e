package pvalcalc

import (
	"fmt"
	"math"

	"goenrich/domain/stats"
)

// Alternative selects which tail a table-conditioned exact test reports
type Alternative string

const (
	AltGreater  Alternative = "greater"
	AltLess     Alternative = "less"
	AltTwoSided Alternative = "two-sided"
)

// fisherExact runs Fisher's exact test on the 2x2 table
//
//	a b
//	c d
//
// conditioning on the row and column margins. Returns the sample odds
// ratio and the p-value for the chosen alternative.
func fisherExact(a, b, c, d int, alt Alternative) (oddsRatio, p float64, err error) {
	if a < 0 || b < 0 || c < 0 || d < 0 {
		return 0, 0, fmt.Errorf("negative cell in 2x2 table [%d %d; %d %d]", a, b, c, d)
	}

	if b*c != 0 {
		oddsRatio = float64(a*d) / float64(b*c)
	} else {
		oddsRatio = math.Inf(1)
	}

	r1 := a + b
	r2 := c + d
	c1 := a + c
	n := r1 + r2

	lo := c1 - r2
	if lo < 0 {
		lo = 0
	}
	hi := r1
	if c1 < hi {
		hi = c1
	}

	// Non-negative cells pin a inside [lo, hi].
	logDenom := logChoose(n, c1)
	logPMF := make([]float64, hi-lo+1)
	for k := lo; k <= hi; k++ {
		logPMF[k-lo] = logChoose(r1, k) + logChoose(r2, c1-k) - logDenom
	}
	obs := a - lo

	switch alt {
	case AltGreater:
		p = sumExp(logPMF[obs:])
	case AltLess:
		p = sumExp(logPMF[:obs+1])
	case AltTwoSided:
		cutoff := logPMF[obs] + math.Log1p(twoTailRelErr)
		tail := make([]float64, 0, len(logPMF))
		for _, lp := range logPMF {
			if lp <= cutoff {
				tail = append(tail, lp)
			}
		}
		p = sumExp(tail)
	default:
		return 0, 0, fmt.Errorf("unknown alternative %q", alt)
	}

	return oddsRatio, clamp01(p), nil
}

// logChoose is the log binomial coefficient via the gamma function.
// Kept independent of the population kernel so the two backends share
// no numeric code.
func logChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	ln, _ := math.Lgamma(float64(n + 1))
	lk, _ := math.Lgamma(float64(k + 1))
	lnk, _ := math.Lgamma(float64(n - k + 1))
	return ln - lk - lnk
}

// sumExp sums probabilities given in log space
func sumExp(logs []float64) float64 {
	var sum float64
	for _, lp := range logs {
		sum += math.Exp(lp)
	}
	return sum
}

// FisherExactCalc scores enrichment by building the 2x2 table and
// running the margin-conditioned exact test. The odds ratio the test
// reports is discarded here; enrichment only needs the p-value.
type FisherExactCalc struct {
	baseCalc
	alt Alternative
}

// NewFisherExactCalc creates the table-conditioned backend for one tail
func NewFisherExactCalc(testType stats.TestType) *FisherExactCalc {
	c := &FisherExactCalc{baseCalc: newBaseCalc(BackendFisherExact, testType)}
	switch testType {
	case stats.TestUp:
		c.alt = AltGreater
	case stats.TestDown:
		c.alt = AltLess
	case stats.TestUpDown:
		c.alt = AltTwoSided
	}
	return c
}

// CalcPValue returns the p-value for the configured alternative
func (c *FisherExactCalc) CalcPValue(studyCount, studyN, popCount, popN int) (float64, error) {
	ct, err := stats.NewContingencyTable(studyCount, studyN, popCount, popN)
	if err != nil {
		return 0, err
	}
	if c.alt == "" {
		return c.baseCalc.CalcPValue(studyCount, studyN, popCount, popN)
	}
	a, b, cc, d := ct.Cells()
	_, p, err := fisherExact(a, b, cc, d, c.alt)
	if err != nil {
		return 0, err
	}
	return p, nil
}
