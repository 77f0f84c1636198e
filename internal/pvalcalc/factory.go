package pvalcalc

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"goenrich/domain/stats"
	"goenrich/ports"
)

// Reference table used to probe backends: 3 of 4 study genes hit a
// term that covers 4 of 8 population genes.
const (
	refStudyCount = 3
	refStudyN     = 4
	refPopCount   = 4
	refPopN       = 8
)

// Exact tails for the reference table, as fractions of C(8,4) = 70.
var refTails = Tails{
	Left:    69.0 / 70.0,
	Right:   17.0 / 70.0,
	TwoTail: 34.0 / 70.0,
}

const probeTol = 1e-9

// backendEntry is one registered backend with its fallback link
type backendEntry struct {
	name     string
	fallback string // next backend to try when the probe fails
	probe    func() error
	build    func(stats.TestType) ports.PValueCalculator
}

func defaultEntries() []backendEntry {
	return []backendEntry{
		{
			name:     BackendFisher,
			fallback: BackendFisherExact,
			probe:    probeFisher,
			build: func(tt stats.TestType) ports.PValueCalculator {
				return NewFisherCalc(tt)
			},
		},
		{
			name:  BackendFisherExact,
			probe: probeFisherExact,
			build: func(tt stats.TestType) ports.PValueCalculator {
				return NewFisherExactCalc(tt)
			},
		},
	}
}

func probeFisher() error {
	tails, err := hypergeomTails(refStudyCount, refStudyN, refPopCount, refPopN)
	if err != nil {
		return err
	}
	return checkTails(tails)
}

func probeFisherExact() error {
	ct := stats.MustNewContingencyTable(refStudyCount, refStudyN, refPopCount, refPopN)
	a, b, c, d := ct.Cells()

	var tails Tails
	for _, probe := range []struct {
		alt Alternative
		dst *float64
	}{
		{AltLess, &tails.Left},
		{AltGreater, &tails.Right},
		{AltTwoSided, &tails.TwoTail},
	} {
		_, p, err := fisherExact(a, b, c, d, probe.alt)
		if err != nil {
			return err
		}
		*probe.dst = p
	}
	return checkTails(tails)
}

// checkTails compares probe output against the reference tails
func checkTails(got Tails) error {
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"left", got.Left, refTails.Left},
		{"right", got.Right, refTails.Right},
		{"two-tail", got.TwoTail, refTails.TwoTail},
	}
	for _, c := range checks {
		if math.IsNaN(c.got) || math.Abs(c.got-c.want) > probeTol {
			return fmt.Errorf("%s tail: got %v, want %v", c.name, c.got, c.want)
		}
	}
	return nil
}

// Factory resolves backend names to ready calculators. Every backend
// is probed against the reference table before use; a backend that
// cannot reproduce the reference tails is unavailable and the factory
// follows its fallback link instead.
type Factory struct {
	entries []backendEntry
	log     io.Writer
}

// NewFactory builds a factory over the default backend registry.
// Fallback warnings are written to log (stdout when nil).
func NewFactory(log io.Writer) *Factory {
	return newFactoryWithEntries(defaultEntries(), log)
}

func newFactoryWithEntries(entries []backendEntry, log io.Writer) *Factory {
	if log == nil {
		log = os.Stdout
	}
	return &Factory{entries: entries, log: log}
}

// Build returns a calculator for the named backend configured for the
// given test type. A backend that fails its probe triggers a warning
// and a walk down the fallback chain; a chain with no healthy backend
// is a configuration error.
func (f *Factory) Build(name string, testType stats.TestType) (ports.PValueCalculator, error) {
	if _, err := stats.ParseTestType(string(testType)); err != nil {
		return nil, err
	}

	entry, ok := f.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownBackend, name, f)
	}

	seen := make(map[string]bool)
	for {
		if seen[entry.name] {
			return nil, fmt.Errorf("%w: fallback cycle at %q", ErrBackendUnavailable, entry.name)
		}
		seen[entry.name] = true

		err := entry.probe()
		if err == nil {
			return entry.build(testType), nil
		}
		if entry.fallback == "" {
			return nil, fmt.Errorf("%w: %s failed its self-check: %v", ErrBackendUnavailable, entry.name, err)
		}
		next, ok := f.lookup(entry.fallback)
		if !ok {
			return nil, fmt.Errorf("%w: %s names unregistered fallback %q", ErrBackendUnavailable, entry.name, entry.fallback)
		}
		fmt.Fprintf(f.log, "WARNING: p-value backend %q failed its self-check (%v); falling back on %q\n",
			entry.name, err, next.name)
		entry = next
	}
}

// Backends reports each registered backend and whether it passes its
// probe right now
func (f *Factory) Backends() []ports.BackendInfo {
	infos := make([]ports.BackendInfo, 0, len(f.entries))
	for _, e := range f.entries {
		info := ports.BackendInfo{Name: e.name, Available: true}
		if err := e.probe(); err != nil {
			info.Available = false
			info.Detail = err.Error()
		}
		infos = append(infos, info)
	}
	return infos
}

// Names returns the registered backend names in fallback order
func (f *Factory) Names() []string {
	names := make([]string, len(f.entries))
	for i, e := range f.entries {
		names[i] = e.name
	}
	return names
}

// String lists the registered backend names separated by spaces
func (f *Factory) String() string {
	return strings.Join(f.Names(), " ")
}

func (f *Factory) lookup(name string) (backendEntry, bool) {
	for _, e := range f.entries {
		if e.name == name {
			return e, true
		}
	}
	return backendEntry{}, false
}
