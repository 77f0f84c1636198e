package ports

import (
	"context"

	"goenrich/domain/core"
)

// SetReader loads study and population gene sets from tabular sources.
// One gene per row; duplicates collapse to a single member.
type SetReader interface {
	// ReadGeneSet reads a one-column gene list from path
	ReadGeneSet(ctx context.Context, path string) ([]core.GeneID, error)
}

// AssociationReader loads term-to-gene annotations from tabular sources.
// Each row associates one gene with one or more terms.
type AssociationReader interface {
	// ReadAssociations reads a gene-to-terms table from path
	ReadAssociations(ctx context.Context, path string) (Associations, error)
}

// Associations maps each annotation term to the genes it covers
type Associations map[core.TermID][]core.GeneID

// Terms returns the term IDs present in the association table
func (a Associations) Terms() []core.TermID {
	terms := make([]core.TermID, 0, len(a))
	for t := range a {
		terms = append(terms, t)
	}
	return terms
}
