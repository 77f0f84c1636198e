package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// RunID identifies one enrichment run (one study set against one population).
	RunID ID
	// GeneID identifies a member of a study or population set.
	GeneID string
	// TermID identifies an annotation term tested for enrichment.
	TermID string
)

// String conversions for domain IDs
func (id RunID) String() string  { return ID(id).String() }
func (id GeneID) String() string { return string(id) }
func (id TermID) String() string { return string(id) }

// NewRunID creates a fresh run identifier.
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseGeneID parses a string into GeneID
func ParseGeneID(s string) (GeneID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("gene ID cannot be empty")
	}
	return GeneID(strings.TrimSpace(s)), nil
}

// ParseTermID parses a string into TermID
func ParseTermID(s string) (TermID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("term ID cannot be empty")
	}
	return TermID(strings.TrimSpace(s)), nil
}
