package pvalcalc

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"goenrich/domain/stats"
	"goenrich/ports"
)

func TestFactoryBuild_KnownBackends(t *testing.T) {
	f := NewFactory(&bytes.Buffer{})

	for _, name := range []string{BackendFisher, BackendFisherExact} {
		t.Run(name, func(t *testing.T) {
			calc, err := f.Build(name, stats.TestUpDown)
			if err != nil {
				t.Fatalf("Build(%q): %v", name, err)
			}
			if calc.Name() != name {
				t.Errorf("expected name %q, got %q", name, calc.Name())
			}
			p, err := calc.CalcPValue(3, 4, 4, 8)
			if err != nil {
				t.Fatalf("CalcPValue: %v", err)
			}
			if math.Abs(p-34.0/70.0) > 1e-9 {
				t.Errorf("two-tail p: got %.15f, want %.15f", p, 34.0/70.0)
			}
		})
	}
}

func TestFactoryBuild_UnknownBackend(t *testing.T) {
	f := NewFactory(&bytes.Buffer{})

	_, err := f.Build("chi2", stats.TestUpDown)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
	// The error should tell the caller what would have worked.
	for _, name := range []string{BackendFisher, BackendFisherExact} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention known backend %q", err, name)
		}
	}
}

func TestFactoryBuild_InvalidTestType(t *testing.T) {
	f := NewFactory(&bytes.Buffer{})

	if _, err := f.Build(BackendFisher, stats.TestType("sideways")); err == nil {
		t.Fatal("expected error for invalid test type")
	}
}

func TestFactoryBuild_FallsBackWhenProbeFails(t *testing.T) {
	var log bytes.Buffer
	entries := []backendEntry{
		{
			name:     "primary",
			fallback: "secondary",
			probe:    func() error { return fmt.Errorf("reference tails off by 0.2") },
			build: func(tt stats.TestType) ports.PValueCalculator {
				t.Fatal("broken primary must not be built")
				return nil
			},
		},
		{
			name:  "secondary",
			probe: func() error { return nil },
			build: func(tt stats.TestType) ports.PValueCalculator {
				return NewFisherExactCalc(tt)
			},
		},
	}
	f := newFactoryWithEntries(entries, &log)

	calc, err := f.Build("primary", stats.TestUpDown)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if calc.Name() != BackendFisherExact {
		t.Errorf("expected fallback calculator, got %q", calc.Name())
	}

	warning := log.String()
	if !strings.Contains(warning, "primary") || !strings.Contains(warning, "secondary") {
		t.Errorf("fallback warning %q should name both backends", warning)
	}
	if !strings.Contains(warning, "falling back") {
		t.Errorf("expected a fallback warning, got %q", warning)
	}
}

func TestFactoryBuild_AllProbesFail(t *testing.T) {
	var log bytes.Buffer
	entries := []backendEntry{
		{
			name:     "primary",
			fallback: "secondary",
			probe:    func() error { return fmt.Errorf("bad tails") },
			build:    func(tt stats.TestType) ports.PValueCalculator { return nil },
		},
		{
			name:  "secondary",
			probe: func() error { return fmt.Errorf("also bad") },
			build: func(tt stats.TestType) ports.PValueCalculator { return nil },
		},
	}
	f := newFactoryWithEntries(entries, &log)

	_, err := f.Build("primary", stats.TestUpDown)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if !strings.Contains(log.String(), "falling back") {
		t.Errorf("expected a fallback warning before the failure, got %q", log.String())
	}
}

func TestFactoryBuild_FallbackCycle(t *testing.T) {
	entries := []backendEntry{
		{
			name:     "a",
			fallback: "b",
			probe:    func() error { return fmt.Errorf("broken") },
			build:    func(tt stats.TestType) ports.PValueCalculator { return nil },
		},
		{
			name:     "b",
			fallback: "a",
			probe:    func() error { return fmt.Errorf("broken") },
			build:    func(tt stats.TestType) ports.PValueCalculator { return nil },
		},
	}
	f := newFactoryWithEntries(entries, &bytes.Buffer{})

	_, err := f.Build("a", stats.TestUpDown)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable for a fallback cycle, got %v", err)
	}
}

func TestFactory_Backends(t *testing.T) {
	f := NewFactory(&bytes.Buffer{})

	infos := f.Backends()
	if len(infos) != 2 {
		t.Fatalf("expected 2 backends, got %d", len(infos))
	}
	for _, info := range infos {
		if !info.Available {
			t.Errorf("backend %q should be available: %s", info.Name, info.Detail)
		}
	}
	if infos[0].Name != BackendFisher || infos[1].Name != BackendFisherExact {
		t.Errorf("unexpected backend order: %q, %q", infos[0].Name, infos[1].Name)
	}
}

func TestFactory_BackendsReportsProbeFailure(t *testing.T) {
	entries := []backendEntry{
		{
			name:  "broken",
			probe: func() error { return fmt.Errorf("tails off") },
			build: func(tt stats.TestType) ports.PValueCalculator { return nil },
		},
	}
	f := newFactoryWithEntries(entries, &bytes.Buffer{})

	infos := f.Backends()
	if len(infos) != 1 {
		t.Fatalf("expected 1 backend, got %d", len(infos))
	}
	if infos[0].Available {
		t.Error("broken backend reported as available")
	}
	if !strings.Contains(infos[0].Detail, "tails off") {
		t.Errorf("expected probe failure detail, got %q", infos[0].Detail)
	}
}

func TestFactory_String(t *testing.T) {
	f := NewFactory(&bytes.Buffer{})

	want := BackendFisher + " " + BackendFisherExact
	if got := f.String(); got != want {
		t.Errorf("String(): got %q, want %q", got, want)
	}
}

func TestNew_Defaults(t *testing.T) {
	calc, err := New(Options{Log: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if calc.Name() != DefaultBackend {
		t.Errorf("expected default backend %q, got %q", DefaultBackend, calc.Name())
	}

	// Default test type is two-tailed.
	p, err := calc.CalcPValue(3, 4, 4, 8)
	if err != nil {
		t.Fatalf("CalcPValue: %v", err)
	}
	if math.Abs(p-34.0/70.0) > 1e-9 {
		t.Errorf("two-tail p: got %.15f, want %.15f", p, 34.0/70.0)
	}
}

func TestProbes_PassOnHealthyKernels(t *testing.T) {
	if err := probeFisher(); err != nil {
		t.Errorf("probeFisher: %v", err)
	}
	if err := probeFisherExact(); err != nil {
		t.Errorf("probeFisherExact: %v", err)
	}
}
