package enrichment

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"goenrich/domain/core"
	"goenrich/domain/stats"
	"goenrich/internal"
	"goenrich/internal/testkit"
	"goenrich/ports"
)

func quietLogger() *internal.Logger {
	return internal.NewLoggerWithOutput(internal.LogLevelError, io.Discard)
}

func genes(ids ...string) []core.GeneID {
	out := make([]core.GeneID, len(ids))
	for i, id := range ids {
		out[i] = core.GeneID(id)
	}
	return out
}

func TestRunnerValidation(t *testing.T) {
	runner := NewRunner(&testkit.FakeCalc{}, 2, quietLogger())
	assoc := ports.Associations{"GO:0000001": genes("g1")}

	tests := []struct {
		name       string
		study      []core.GeneID
		population []core.GeneID
		wantErr    error
	}{
		{
			name:       "empty population",
			study:      genes("g1"),
			population: nil,
			wantErr:    core.ErrEmptyPopulation,
		},
		{
			name:       "empty study",
			study:      nil,
			population: genes("g1", "g2"),
			wantErr:    core.ErrEmptyStudy,
		},
		{
			name:       "study gene outside population",
			study:      genes("g1", "gX"),
			population: genes("g1", "g2", "g3"),
			wantErr:    core.ErrStudyNotInPopulation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runner.Run(context.Background(), tc.study, tc.population, assoc)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRunnerScoresAndSortsTerms(t *testing.T) {
	// Score by study count so the expected order is fixed by construction.
	calc := &testkit.FakeCalc{
		Fn: func(studyCount, studyN, popCount, popN int) (float64, error) {
			return 1.0 / float64(1+studyCount), nil
		},
	}
	runner := NewRunner(calc, 4, quietLogger())

	study := genes("p1", "p2", "p3", "p4")
	population := genes("p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8")
	// GO:0000004 lists p1 twice and collapses to counts 2/3, GO:0000005
	// ties GO:0000002 at p=1 so term order breaks the tie, and GO:0000009
	// has no population coverage at all.
	assoc := ports.Associations{
		"GO:0000001": genes("p1", "p2", "p3", "p5"),
		"GO:0000002": genes("p5", "p6"),
		"GO:0000004": genes("p1", "p1", "p4", "p6"),
		"GO:0000005": genes("p7"),
		"GO:0000009": genes("absent1", "absent2"),
	}

	result, err := runner.Run(context.Background(), study, population, assoc)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	wantOrder := []core.TermID{"GO:0000001", "GO:0000004", "GO:0000002", "GO:0000005"}
	if len(result.Records) != len(wantOrder) {
		t.Fatalf("Expected %d records, got %d", len(wantOrder), len(result.Records))
	}
	for i, rec := range result.Records {
		if rec.TermID != wantOrder[i] {
			t.Errorf("Record %d: got term %s, want %s", i, rec.TermID, wantOrder[i])
		}
	}

	first := result.Records[0]
	if first.Table.StudyCount != 3 || first.Table.PopCount != 4 {
		t.Errorf("GO:0000001 counts = %d/%d, want 3/4", first.Table.StudyCount, first.Table.PopCount)
	}
	if len(first.StudyGenes) != 3 || first.StudyGenes[0] != "p1" || first.StudyGenes[2] != "p3" {
		t.Errorf("GO:0000001 study genes = %v, want [p1 p2 p3]", first.StudyGenes)
	}

	deduped := result.Records[1]
	if deduped.Table.StudyCount != 2 || deduped.Table.PopCount != 3 {
		t.Errorf("GO:0000004 counts = %d/%d, want 2/3 after dedup", deduped.Table.StudyCount, deduped.Table.PopCount)
	}

	run := result.Run
	if run.StudyN != 4 || run.PopN != 8 {
		t.Errorf("Run sizes = %d/%d, want 4/8", run.StudyN, run.PopN)
	}
	if run.NumTerms != 4 {
		t.Errorf("Run.NumTerms = %d, want 4", run.NumTerms)
	}
	if run.Backend != calc.Name() {
		t.Errorf("Run.Backend = %q, want %q", run.Backend, calc.Name())
	}
	if run.TestType != stats.TestUpDown {
		t.Errorf("Run.TestType = %q, want %q", run.TestType, stats.TestUpDown)
	}
	if run.StudyHash == "" || run.PopHash == "" {
		t.Error("Run hashes should be set")
	}
}

func TestRunnerDedupesInputSets(t *testing.T) {
	var gotStudyN, gotPopN int
	calc := &testkit.FakeCalc{
		Fn: func(studyCount, studyN, popCount, popN int) (float64, error) {
			gotStudyN, gotPopN = studyN, popN
			return 0.5, nil
		},
	}
	runner := NewRunner(calc, 1, quietLogger())

	study := genes("a", "a", "b")
	population := genes("a", "b", "c", "c")
	assoc := ports.Associations{"GO:0000001": genes("a")}

	result, err := runner.Run(context.Background(), study, population, assoc)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if gotStudyN != 2 || gotPopN != 3 {
		t.Errorf("Calculator saw sizes %d/%d, want deduped 2/3", gotStudyN, gotPopN)
	}
	if result.Run.StudyN != 2 || result.Run.PopN != 3 {
		t.Errorf("Run sizes = %d/%d, want 2/3", result.Run.StudyN, result.Run.PopN)
	}
}

func TestRunnerPropagatesCalcError(t *testing.T) {
	errBoom := errors.New("boom")
	calc := &testkit.FakeCalc{
		Fn: func(studyCount, studyN, popCount, popN int) (float64, error) {
			if studyCount == 0 {
				return 0, errBoom
			}
			return 0.5, nil
		},
	}
	runner := NewRunner(calc, 2, quietLogger())

	study := genes("a")
	population := genes("a", "b", "c")
	assoc := ports.Associations{
		"GO:0000001": genes("a"),
		"GO:0000002": genes("b"), // study count 0 trips the calculator
	}

	_, err := runner.Run(context.Background(), study, population, assoc)
	if !errors.Is(err, errBoom) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, errBoom)
	}
	if want := "term GO:0000002"; err != nil && !strings.Contains(err.Error(), want) {
		t.Errorf("Error %q should name the failing term %q", err, want)
	}
}

func TestRunnerContextCancelled(t *testing.T) {
	runner := NewRunner(&testkit.FakeCalc{}, 1, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, genes("a"), genes("a", "b"), ports.Associations{"GO:0000001": genes("a")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}
