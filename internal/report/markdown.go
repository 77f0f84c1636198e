package report

import (
	"bytes"
	"fmt"

	"goenrich/internal/enrichment"
)

// Markdown renders the run as a markdown document: header block, p-value
// distribution table, then one row per term.
func Markdown(result *enrichment.Result, opts Options) ([]byte, error) {
	alpha := opts.alpha()
	summary, err := Summarize(result.Records, alpha)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize run: %w", err)
	}

	var b bytes.Buffer
	run := result.Run
	fmt.Fprintf(&b, "# %s\n\n", opts.title())
	fmt.Fprintf(&b, "- Run: `%s`\n", run.ID)
	fmt.Fprintf(&b, "- Backend: `%s`, test type `%s`\n", run.Backend, run.TestType)
	fmt.Fprintf(&b, "- Study: %d genes, population: %d genes\n", run.StudyN, run.PopN)
	fmt.Fprintf(&b, "- Terms tested: %d, significant at alpha=%g: %d (%d enriched, %d purified)\n\n",
		summary.Terms, alpha, summary.Significant, summary.Enriched, summary.Purified)

	fmt.Fprintf(&b, "## P-value distribution\n\n")
	fmt.Fprintf(&b, "| min | q25 | median | mean | q75 | max |\n")
	fmt.Fprintf(&b, "|-----|-----|--------|------|-----|-----|\n")
	fmt.Fprintf(&b, "| %.4g | %.4g | %.4g | %.4g | %.4g | %.4g |\n\n",
		summary.MinP, summary.Q25P, summary.MedianP, summary.MeanP, summary.Q75P, summary.MaxP)

	fmt.Fprintf(&b, "## Terms\n\n")
	fmt.Fprintf(&b, "| term | dir | study | population | fold | p_uncorrected | sig |\n")
	fmt.Fprintf(&b, "|------|-----|-------|------------|------|---------------|-----|\n")
	for _, rec := range result.Records {
		marker := ""
		if rec.PValue < alpha {
			marker = "*"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %.3f | %.4g | %s |\n",
			rec.TermID, rec.Enrichment,
			rec.Table.StudyRatio(), rec.Table.PopRatio(),
			rec.FoldChange, rec.PValue, marker)
	}

	return b.Bytes(), nil
}
