package excel

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"goenrich/domain/core"
	"goenrich/ports"
)

// Input files arrive as plain text, csv, tsv, or xlsx workbooks. Gene set
// files hold one gene ID per line; association files hold two columns,
// gene ID then semicolon-joined term IDs. Only Sheet1 of a workbook is read.

const sheetName = "Sheet1"

// SetReader reads study and population gene sets
type SetReader struct{}

// NewSetReader creates a gene set reader
func NewSetReader() *SetReader {
	return &SetReader{}
}

// ReadGeneSet reads one gene set from path. Blank lines and #-comments are
// skipped, duplicates collapse to the first occurrence, and only the first
// column of csv/tsv/xlsx files is used.
func (r *SetReader) ReadGeneSet(ctx context.Context, path string) ([]core.GeneID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	var genes []core.GeneID
	seen := make(map[core.GeneID]struct{})
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		field := strings.TrimSpace(row[0])
		if field == "" || strings.HasPrefix(field, "#") {
			continue
		}
		id := core.GeneID(field)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		genes = append(genes, id)
	}
	if len(genes) == 0 {
		return nil, fmt.Errorf("no gene IDs in %s", path)
	}

	log.Printf("[SetReader] %s read in %.2fms (%d genes)",
		path, float64(time.Since(start).Nanoseconds())/1e6, len(genes))
	return genes, nil
}

// AssociationReader reads gene-to-term association tables
type AssociationReader struct{}

// NewAssociationReader creates an association reader
func NewAssociationReader() *AssociationReader {
	return &AssociationReader{}
}

// ReadAssociations reads a two-column association table and inverts it into
// term-to-genes form. Repeated gene rows merge their term lists.
func (r *AssociationReader) ReadAssociations(ctx context.Context, path string) (ports.Associations, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	assoc := make(ports.Associations)
	members := make(map[core.TermID]map[core.GeneID]struct{})
	genesSeen := make(map[core.GeneID]struct{})
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		field := strings.TrimSpace(row[0])
		if field == "" || strings.HasPrefix(field, "#") {
			continue
		}
		if len(row) < 2 || strings.TrimSpace(row[1]) == "" {
			return nil, fmt.Errorf("association row %d in %s has no term column", i+1, path)
		}

		gene := core.GeneID(field)
		genesSeen[gene] = struct{}{}
		for _, raw := range strings.Split(row[1], ";") {
			term := strings.TrimSpace(raw)
			if term == "" {
				continue
			}
			termID := core.TermID(term)
			if members[termID] == nil {
				members[termID] = make(map[core.GeneID]struct{})
			}
			if _, dup := members[termID][gene]; dup {
				continue
			}
			members[termID][gene] = struct{}{}
			assoc[termID] = append(assoc[termID], gene)
		}
	}
	if len(assoc) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrNoAssociations, path)
	}

	log.Printf("[AssocReader] %s read in %.2fms (%d genes, %d terms)",
		path, float64(time.Since(start).Nanoseconds())/1e6, len(genesSeen), len(assoc))
	return assoc, nil
}

// readRows loads a file into rows of string fields, dispatching on the
// file extension. Anything without a known extension is treated as
// whitespace-delimited text.
func readRows(path string) ([][]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file not found: %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readSheetRows(path)
	case ".csv":
		return readDelimitedRows(path, ',')
	case ".tsv":
		return readDelimitedRows(path, '\t')
	default:
		return readTextRows(path)
	}
}

func readTextRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var rows [][]string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		rows = append(rows, strings.Fields(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return rows, nil
}

func readDelimitedRows(path string, comma rune) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read delimited file: %w", err)
	}
	return rows, nil
}

func readSheetRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheetName, err)
	}
	return rows, nil
}
