package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/card-statement-categorizer/internal/categorizer"
	"github.com/insightdelivered/card-statement-categorizer/internal/config"
	"github.com/insightdelivered/card-statement-categorizer/internal/extractor"
	"github.com/insightdelivered/card-statement-categorizer/internal/logger"
	"github.com/insightdelivered/card-statement-categorizer/internal/models"
	"github.com/insightdelivered/card-statement-categorizer/internal/parser"
	"github.com/insightdelivered/card-statement-categorizer/internal/writer"
)

// extractFile is swapped out in tests.
var extractFile = extractor.ExtractText

type parseOptions struct {
	issuer     string
	output     string
	header     bool
	categorize bool
	logLevel   string
}

func newParseCommand(configPath *string) *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "parse <statement.pdf> [statement2.pdf ...]",
		Short: "Convert statement PDFs to CSV",
		Example: `  # Auto-detect the card and convert
  statement-categorizer parse statement.pdf

  # Force the issuer and pick the output path
  statement-categorizer parse --issuer=amex --output=march.csv statement.pdf

  # Categorize with the configured model provider
  statement-categorizer parse --categorize jan.pdf feb.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), cmd.OutOrStdout(), *configPath, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.issuer, "issuer", "", "card issuer: chase, apple, capitalone, amex (auto-detected if omitted)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output CSV path (defaults to the input name with a .csv extension)")
	cmd.Flags().BoolVar(&opts.header, "header", true, "include card metadata rows in the CSV")
	cmd.Flags().BoolVar(&opts.categorize, "categorize", false, "categorize transactions with the configured model provider")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	return cmd
}

func runParse(ctx context.Context, out io.Writer, configPath string, opts parseOptions, inputs []string) error {
	var issuer models.Issuer
	if opts.issuer != "" {
		var ok bool
		issuer, ok = models.ParseIssuer(opts.issuer)
		if !ok {
			return fmt.Errorf("unknown issuer %q, supported: chase, apple, capitalone, amex", opts.issuer)
		}
	}
	if opts.output != "" && len(inputs) > 1 {
		return fmt.Errorf("--output can only be used with a single input file")
	}

	log := logger.New(opts.logLevel)

	var svc *categorizer.Service
	if opts.categorize {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		enhancer, err := categorizer.NewEnhancer(ctx, cfg.Categorizer)
		if err != nil {
			return fmt.Errorf("setting up categorizer: %w", err)
		}
		svc = categorizer.NewService(enhancer, cfg.Categorizer, log)
	}

	for _, input := range inputs {
		if err := processFile(ctx, out, log, input, issuer, opts, svc); err != nil {
			return fmt.Errorf("processing %s: %w", input, err)
		}
	}
	return nil
}

func processFile(ctx context.Context, out io.Writer, log zerolog.Logger, inputPath string, issuer models.Issuer, opts parseOptions, svc *categorizer.Service) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if ext := strings.ToLower(filepath.Ext(inputPath)); ext != ".pdf" {
		return fmt.Errorf("expected .pdf file, got %q", ext)
	}

	fmt.Fprintf(out, "Processing: %s\n", inputPath)

	pages, err := extractFile(inputPath)
	if err != nil {
		return fmt.Errorf("PDF extraction failed: %w", err)
	}
	fmt.Fprintf(out, "  Extracted text from %d page(s)\n", len(pages))

	parseOpts := []parser.Option{parser.WithLogger(log.With().Str("file", inputPath).Logger())}
	var stmt *models.Statement
	if issuer != "" {
		p, err := parser.New(issuer, parseOpts...)
		if err != nil {
			return err
		}
		stmt, err = p.Parse(pages)
		if err != nil {
			return fmt.Errorf("parsing failed: %w", err)
		}
	} else {
		stmt, err = parser.ParseDocument(pages, parseOpts...)
		if err != nil {
			return err
		}
		if stmt.Issuer != "" {
			fmt.Fprintf(out, "  Auto-detected card: %s\n", stmt.Issuer.DisplayName())
		}
	}

	fmt.Fprintf(out, "  Found %d transaction(s)\n", len(stmt.Transactions))
	if len(stmt.Warnings) > 0 {
		fmt.Fprintf(out, "  Skipped %d unparseable line(s)\n", len(stmt.Warnings))
	}
	if len(stmt.Transactions) == 0 {
		fmt.Fprintln(out, "  Warning: No transactions found. The PDF layout may not match the expected statement format.")
	}

	if svc != nil && len(stmt.Transactions) > 0 {
		svc.CategorizeAll(ctx, stmt.Transactions)
		fmt.Fprintln(out, "  Categorized transactions")
	}

	outPath := opts.output
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".csv"
	}

	w := &writer.CSVWriter{IncludeHeader: opts.header}
	if err := w.WriteToFile(outPath, stmt); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	fmt.Fprintf(out, "  Output: %s\n", outPath)
	fmt.Fprintln(out, "  Done.")
	return nil
}
