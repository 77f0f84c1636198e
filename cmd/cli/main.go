package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"goenrich/adapters/excel"
	"goenrich/domain/stats"
	"goenrich/internal"
	"goenrich/internal/config"
	"goenrich/internal/enrichment"
	"goenrich/internal/pvalcalc"
	"goenrich/internal/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "goenrich",
		Short: "Score gene set enrichment with Fisher's exact test",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newBackendsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runOptions struct {
	studyFile string
	popFile   string
	assocFile string
	backend   string
	testType  string
	alpha     float64
	workers   int
	format    string
	outFile   string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Score a study set against a population and write a report",
		Long: `Score every annotated term for over- and under-representation in the
study set relative to the population.

Input files can be plain text (one gene per line), csv, tsv or xlsx.
Flags left unset fall back to the STUDY_FILE, POP_FILE, ASSOC_FILE,
PVALCALC, TEST_TYPE, ALPHA and MAX_WORKERS environment variables.

Example: goenrich run --study study.txt --population population.txt --assoc associations.tsv --format text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrichment(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.studyFile, "study", "", "Study gene list")
	cmd.Flags().StringVar(&opts.popFile, "population", "", "Population gene list")
	cmd.Flags().StringVar(&opts.assocFile, "assoc", "", "Term association table")
	cmd.Flags().StringVar(&opts.backend, "pvalcalc", "", "P-value backend (see 'goenrich backends')")
	cmd.Flags().StringVar(&opts.testType, "test-type", "", "Tail to test: up, down or updown")
	cmd.Flags().Float64Var(&opts.alpha, "alpha", 0, "Significance threshold for reports")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent term workers")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Report format: text, md, html, xlsx or json")
	cmd.Flags().StringVar(&opts.outFile, "out", "", "Report file (default stdout)")

	return cmd
}

func runEnrichment(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyConfigDefaults(&opts, cfg)

	if opts.studyFile == "" {
		return fmt.Errorf("study file is required (--study or STUDY_FILE)")
	}
	if opts.popFile == "" {
		return fmt.Errorf("population file is required (--population or POP_FILE)")
	}
	if opts.assocFile == "" {
		return fmt.Errorf("associations file is required (--assoc or ASSOC_FILE)")
	}

	testType, err := stats.ParseTestType(opts.testType)
	if err != nil {
		return err
	}

	logger := internal.NewDefaultLogger()
	calc, err := pvalcalc.New(pvalcalc.Options{
		Backend:  opts.backend,
		TestType: testType,
		Log:      logger.Writer(),
	})
	if err != nil {
		return err
	}

	runner := enrichment.NewRunner(calc, opts.workers, logger)
	service := enrichment.NewService(excel.NewSetReader(), excel.NewAssociationReader(), runner, nil, logger)

	result, err := service.RunFromFiles(ctx, enrichment.FileRequest{
		StudyPath: opts.studyFile,
		PopPath:   opts.popFile,
		AssocPath: opts.assocFile,
	})
	if err != nil {
		return err
	}

	summary, err := report.Summarize(result.Records, opts.alpha)
	if err != nil {
		return err
	}

	fmt.Printf("🧬 %s: %d study genes vs %d population genes, %d terms tested\n",
		result.Run.Backend, result.Run.StudyN, result.Run.PopN, result.Run.NumTerms)
	fmt.Printf("📊 %d significant at alpha=%g (%d enriched, %d purified)\n",
		summary.Significant, opts.alpha, summary.Enriched, summary.Purified)

	return writeReport(result, opts)
}

func applyConfigDefaults(opts *runOptions, cfg *config.Config) {
	if opts.studyFile == "" {
		opts.studyFile = cfg.Paths.StudyFile
	}
	if opts.popFile == "" {
		opts.popFile = cfg.Paths.PopulationFile
	}
	if opts.assocFile == "" {
		opts.assocFile = cfg.Paths.AssociationsFile
	}
	if opts.backend == "" {
		opts.backend = cfg.Enrichment.PvalCalc
	}
	if opts.testType == "" {
		opts.testType = string(cfg.Enrichment.TestType)
	}
	if opts.alpha == 0 {
		opts.alpha = cfg.Enrichment.Alpha
	}
	if opts.workers == 0 {
		opts.workers = cfg.Enrichment.MaxWorkers
	}
}

func writeReport(result *enrichment.Result, opts runOptions) error {
	reportOpts := report.Options{Alpha: opts.alpha}

	var out io.Writer = os.Stdout
	if opts.outFile != "" {
		f, err := os.Create(opts.outFile)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.outFile, err)
		}
		defer f.Close()
		out = f
	} else if opts.format == "xlsx" {
		return fmt.Errorf("xlsx output needs a file, use --out")
	}

	switch opts.format {
	case "text":
		if err := report.WriteText(out, result, reportOpts); err != nil {
			return err
		}
	case "md", "markdown":
		page, err := report.Markdown(result, reportOpts)
		if err != nil {
			return err
		}
		if _, err := out.Write(page); err != nil {
			return err
		}
	case "html":
		page, err := report.HTML(result, reportOpts)
		if err != nil {
			return err
		}
		if _, err := out.Write(page); err != nil {
			return err
		}
	case "xlsx":
		if err := report.WriteXLSX(out, result, reportOpts); err != nil {
			return err
		}
	case "json":
		raw, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		if _, err := out.Write(append(raw, '\n')); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown report format %q (want text, md, html, xlsx or json)", opts.format)
	}

	if opts.outFile != "" {
		fmt.Printf("📄 report written to %s\n", opts.outFile)
	}
	return nil
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List registered p-value backends and their probe status",
		RunE: func(cmd *cobra.Command, args []string) error {
			factory := pvalcalc.NewFactory(os.Stderr)
			for _, info := range factory.Backends() {
				status := "available"
				if !info.Available {
					status = "unavailable: " + info.Detail
				}
				fmt.Printf("%-20s %s\n", info.Name, status)
			}
			fmt.Printf("\ndefault: %s\n", pvalcalc.DefaultBackend)
			return nil
		},
	}
}
