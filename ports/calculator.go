package ports

import (
	"goenrich/domain/stats"
)

// PValueCalculator computes the probability of observing a study count
// under the hypergeometric null for one annotation term.
type PValueCalculator interface {
	// CalcPValue returns the p-value for studyCount hits out of studyN
	// study genes, given popCount hits out of popN population genes.
	// The tail tested is fixed when the calculator is built.
	CalcPValue(studyCount, studyN, popCount, popN int) (float64, error)

	// Name returns the backend name the calculator was registered under
	Name() string

	// TestType returns the tail the calculator was built to test
	TestType() stats.TestType
}

// BackendInfo describes one registered p-value backend for listings
type BackendInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"` // Probe failure reason when unavailable
}
