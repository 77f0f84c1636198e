// Package pvalcalc scores term enrichment with Fisher's exact test.
//
// Two numerically independent backends are registered: one sums the
// hypergeometric distribution over the population parametrization, the
// other conditions on the margins of the 2x2 table. Both are probed
// against a known-good reference table before use, so a backend that
// cannot reproduce the reference tails is treated as unavailable and
// the factory falls back down the registry chain.
package pvalcalc

import (
	"errors"
	"fmt"
	"io"

	"goenrich/domain/stats"
	"goenrich/ports"
)

// Registered backend names.
const (
	// BackendFisher sums the hypergeometric distribution directly.
	BackendFisher = "fisher"
	// BackendFisherExact conditions on the table margins and reports
	// the odds ratio alongside the p-value. The name is kept stable
	// for callers that configure it through flags and env files.
	BackendFisherExact = "fisher_scipy_stats"
)

// Defaults applied by New when an option is unset.
const (
	DefaultBackend  = BackendFisher
	DefaultTestType = stats.TestUpDown
)

// Package errors.
var (
	ErrUnknownBackend     = errors.New("unknown p-value backend")
	ErrBackendUnavailable = errors.New("p-value backend unavailable")
	ErrNotImplemented     = errors.New("not implemented")
)

// Options configures New.
type Options struct {
	Backend  string         // registry name; DefaultBackend when empty
	TestType stats.TestType // tail to test; DefaultTestType when empty
	Log      io.Writer      // fallback warnings; os.Stdout when nil
}

// New builds a p-value calculator from options, probing the chosen
// backend and falling back down the registry chain as needed.
func New(opts Options) (ports.PValueCalculator, error) {
	if opts.Backend == "" {
		opts.Backend = DefaultBackend
	}
	if opts.TestType == "" {
		opts.TestType = DefaultTestType
	}
	return NewFactory(opts.Log).Build(opts.Backend, opts.TestType)
}

// baseCalc carries what every backend shares: its registry name and
// the tail it was configured to test.
type baseCalc struct {
	name     string
	testType stats.TestType
}

func newBaseCalc(name string, testType stats.TestType) baseCalc {
	return baseCalc{name: name, testType: testType}
}

// Name returns the backend name the calculator was registered under
func (b baseCalc) Name() string { return b.name }

// TestType returns the configured tail
func (b baseCalc) TestType() stats.TestType { return b.testType }

// CalcPValue satisfies ports.PValueCalculator for backends that have
// no routine wired for their configured tail.
func (b baseCalc) CalcPValue(studyCount, studyN, popCount, popN int) (float64, error) {
	return 0, fmt.Errorf("%w: %s.CalcPValue has no routine for test type %q",
		ErrNotImplemented, b.name, b.testType)
}

// clamp01 keeps accumulated tail mass inside [0, 1]
func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
