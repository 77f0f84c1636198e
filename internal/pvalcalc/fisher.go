package pvalcalc

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"

	"goenrich/domain/stats"
)

// twoTailRelErr is the relative tolerance used when collecting
// outcomes for the two-sided test. Outcomes whose probability exceeds
// the observed one by less than this factor still count as extreme.
const twoTailRelErr = 1e-7

// Tails holds the three tail probabilities of one contingency table
type Tails struct {
	Left    float64 // P[X <= observed], under-representation
	Right   float64 // P[X >= observed], over-representation
	TwoTail float64 // Mass of outcomes no more likely than observed
}

// hypergeomTails computes the tails of X ~ Hypergeom(popN, popCount, studyN)
// at X = studyCount, where X counts annotated genes in the study set.
// Works in log space over the whole support; the support holds at most
// min(studyN, popCount)+1 points, so this stays cheap at genome scale.
func hypergeomTails(studyCount, studyN, popCount, popN int) (Tails, error) {
	if _, err := stats.NewContingencyTable(studyCount, studyN, popCount, popN); err != nil {
		return Tails{}, err
	}

	lo := studyN - (popN - popCount)
	if lo < 0 {
		lo = 0
	}
	hi := studyN
	if popCount < hi {
		hi = popCount
	}

	// A valid table pins studyCount inside [lo, hi].
	logDenom := combin.LogGeneralizedBinomial(float64(popN), float64(studyN))
	logPMF := make([]float64, hi-lo+1)
	for x := lo; x <= hi; x++ {
		logPMF[x-lo] = combin.LogGeneralizedBinomial(float64(popCount), float64(x)) +
			combin.LogGeneralizedBinomial(float64(popN-popCount), float64(studyN-x)) -
			logDenom
	}
	obs := studyCount - lo

	right := math.Exp(floats.LogSumExp(logPMF[obs:]))
	left := math.Exp(floats.LogSumExp(logPMF[:obs+1]))

	cutoff := logPMF[obs] + math.Log1p(twoTailRelErr)
	twoLogs := make([]float64, 0, len(logPMF))
	for _, lp := range logPMF {
		if lp <= cutoff {
			twoLogs = append(twoLogs, lp)
		}
	}
	two := math.Exp(floats.LogSumExp(twoLogs))

	return Tails{
		Left:    clamp01(left),
		Right:   clamp01(right),
		TwoTail: clamp01(two),
	}, nil
}

// FisherCalc scores enrichment by summing the hypergeometric
// distribution directly over the population parametrization
type FisherCalc struct {
	baseCalc
}

// NewFisherCalc creates the distribution-summing backend for one tail
func NewFisherCalc(testType stats.TestType) *FisherCalc {
	return &FisherCalc{baseCalc: newBaseCalc(BackendFisher, testType)}
}

// CalcPValue returns the configured tail probability for the counts
func (c *FisherCalc) CalcPValue(studyCount, studyN, popCount, popN int) (float64, error) {
	tails, err := hypergeomTails(studyCount, studyN, popCount, popN)
	if err != nil {
		return 0, err
	}
	switch c.testType {
	case stats.TestUp:
		return tails.Right, nil
	case stats.TestDown:
		return tails.Left, nil
	case stats.TestUpDown:
		return tails.TwoTail, nil
	default:
		return c.baseCalc.CalcPValue(studyCount, studyN, popCount, popN)
	}
}
