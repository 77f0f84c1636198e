package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"goenrich/internal/enrichment"
)

// WriteText renders the run as an aligned text table with a trailing
// summary line. Rows significant at alpha carry a * marker.
func WriteText(w io.Writer, result *enrichment.Result, opts Options) error {
	alpha := opts.alpha()
	summary, err := Summarize(result.Records, alpha)
	if err != nil {
		return fmt.Errorf("failed to summarize run: %w", err)
	}

	run := result.Run
	fmt.Fprintf(w, "# run %s backend=%s test=%s study=%d population=%d\n",
		run.ID, run.Backend, run.TestType, run.StudyN, run.PopN)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "term\tdir\tstudy\tpopulation\tfold\tp_uncorrected\n")
	fmt.Fprintf(tw, "----\t---\t-----\t----------\t----\t-------------\n")
	for _, rec := range result.Records {
		marker := ""
		if rec.PValue < alpha {
			marker = " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\t%.4g%s\n",
			rec.TermID, rec.Enrichment,
			rec.Table.StudyRatio(), rec.Table.PopRatio(),
			rec.FoldChange, rec.PValue, marker)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}

	fmt.Fprintf(w, "\n%d terms, %d significant at alpha=%g (%d enriched, %d purified)\n",
		summary.Terms, summary.Significant, alpha, summary.Enriched, summary.Purified)
	return nil
}
