package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"goenrich/internal/enrichment"
)

const xlsxSheet = "Sheet1"

// WriteXLSX writes the run as an xlsx workbook: a header row, one row per
// term, and a summary block below the table.
func WriteXLSX(w io.Writer, result *enrichment.Result, opts Options) error {
	alpha := opts.alpha()
	summary, err := Summarize(result.Records, alpha)
	if err != nil {
		return fmt.Errorf("failed to summarize run: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{
		"term", "enrichment", "study_count", "study_n", "pop_count", "pop_n",
		"fold_change", "p_uncorrected", "significant",
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range result.Records {
		row := []interface{}{
			string(rec.TermID), string(rec.Enrichment),
			rec.Table.StudyCount, rec.Table.StudyN,
			rec.Table.PopCount, rec.Table.PopN,
			rec.FoldChange, rec.PValue, rec.PValue < alpha,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	footer := [][]interface{}{
		{"run", string(result.Run.ID)},
		{"backend", result.Run.Backend},
		{"test_type", string(result.Run.TestType)},
		{"terms", summary.Terms},
		{"significant", summary.Significant},
		{"alpha", alpha},
		{"min_p", summary.MinP},
		{"median_p", summary.MedianP},
		{"max_p", summary.MaxP},
	}
	base := len(result.Records) + 3
	for i, row := range footer {
		cell := fmt.Sprintf("A%d", base+i)
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
