package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"pdf-compressor-go/internal/batch"
	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/config"
	"pdf-compressor-go/internal/engine"
	"pdf-compressor-go/internal/progress"
	"pdf-compressor-go/internal/sizes"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type compressFlags struct {
	quality   string
	input     string
	output    string
	file      string
	inPlace   bool
	overwrite bool
	workers   int
	progress  bool
	table     bool
}

func newCompressCommand(cli *cliContext) *cobra.Command {
	var flags compressFlags

	cmd := &cobra.Command{
		Use:   "pdf-compressor",
		Short: "Batch-compress PDF files with Ghostscript",
		Long: `pdf-compressor shrinks PDF files by running Ghostscript's pdfwrite device
over every PDF in a directory, several files at a time.

Modes:
- Output mode writes <name>_compress.pdf files into an output directory
- In-place mode walks the input tree recursively and replaces each original,
  keeping it untouched whenever its compression fails
- Single-file mode (--file) compresses one document

A summary with space savings and the first failures is printed at the end;
the exit status is non-zero when any file failed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(cmd, cli, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.quality, "quality", "q", "", "compression preset: "+qualityHelp())
	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "directory containing the original PDFs")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "directory for compressed PDFs (or output file with --file)")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "compress a single PDF instead of a directory")
	cmd.Flags().BoolVar(&flags.inPlace, "in-place", false, "replace originals, searching subdirectories too")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "overwrite existing output files")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "parallel workers (0 picks from CPU count)")
	cmd.Flags().BoolVar(&flags.progress, "progress", true, "show a progress bar on terminals")
	cmd.Flags().BoolVar(&flags.table, "table", false, "print a per-file table after the summary")
	cmd.MarkFlagsMutuallyExclusive("output", "in-place")

	return cmd
}

// applyCompressFlags overrides configuration with explicitly set flags.
func applyCompressFlags(cmd *cobra.Command, cfg *config.Config, flags compressFlags) error {
	if cmd.Flags().Changed("quality") {
		cfg.Compression.Quality = flags.quality
	}
	if cmd.Flags().Changed("input") {
		cfg.Compression.InputDir = flags.input
	}
	if cmd.Flags().Changed("output") && flags.file == "" {
		cfg.Compression.OutputDir = flags.output
	}
	if cmd.Flags().Changed("overwrite") {
		cfg.Compression.Overwrite = flags.overwrite
	}
	if cmd.Flags().Changed("workers") {
		cfg.Performance.Workers = flags.workers
	}
	if cmd.Flags().Changed("progress") {
		cfg.Performance.ShowProgress = flags.progress
	}
	return cfg.Validate()
}

func runCompress(cmd *cobra.Command, cli *cliContext, flags compressFlags) error {
	cfg, log, err := cli.load()
	if err != nil {
		return err
	}
	if err := applyCompressFlags(cmd, cfg, flags); err != nil {
		return err
	}

	comp := cli.newCompressor(cmd.Context(), cfg, log)
	if flags.file != "" {
		return runSingleFile(cmd.Context(), cli, cfg, comp, flags)
	}

	req := batch.Request{
		InputRoot: cfg.Compression.InputDir,
		Quality:   cfg.Quality(),
		Overwrite: cfg.Compression.Overwrite,
		Workers:   cfg.Performance.Workers,
		InPlace:   flags.inPlace,
	}
	if !flags.inPlace {
		req.OutputDir = cfg.Compression.OutputDir
	}

	return runBatch(cmd.Context(), cli, cfg, log, comp, req, flags.table)
}

// runBatch runs one batch and prints its summary. Shared with the
// interactive command.
func runBatch(ctx context.Context, cli *cliContext, cfg *config.Config, log *logrus.Logger,
	runner batch.JobRunner, req batch.Request, table bool) error {
	orch := batch.New(runner, batch.Options{
		MaxAutoWorkers: cfg.Performance.MaxAutoWorkers,
		Progress:       progress.ForTerminal(cli.stderr, cfg.Performance.ShowProgress && !cli.quiet),
	}, log)

	result, err := orch.Run(ctx, req)
	if err != nil {
		return err
	}

	if result.Total() == 0 {
		cli.printf("No PDF files found in %s\n", req.InputRoot)
		return nil
	}
	cli.printf("\n%s\n", result.GetSummary())
	if table && !cli.quiet {
		result.RenderTable(cli.stdout)
	}
	if result.Failed > 0 {
		return errFailures
	}
	return nil
}

// runSingleFile compresses one PDF, in place or to an output path.
func runSingleFile(ctx context.Context, cli *cliContext, cfg *config.Config, comp *compressor.DefaultCompressor, flags compressFlags) error {
	var outcome compressor.Outcome
	if flags.inPlace {
		outcome = comp.ReplaceInPlace(ctx, flags.file, cfg.Quality())
	} else {
		outcome = comp.Compress(ctx, compressor.Job{
			Input:     flags.file,
			Output:    singleOutputPath(cfg, flags),
			Quality:   cfg.Quality(),
			Overwrite: cfg.Compression.Overwrite,
		})
	}

	if !outcome.Success {
		fmt.Fprintf(cli.stderr, "Failed to compress %s: %s\n", outcome.FileName, outcome.Reason())
		return errFailures
	}
	cli.printf("%s: %s -> %s (%.1f%% reduction)\n", outcome.FileName,
		sizes.Format(outcome.OriginalSize), sizes.Format(outcome.CompressedSize), outcome.Ratio)
	cli.printf("Saved to %s\n", outcome.Output)
	return nil
}

// singleOutputPath treats --output as a file when it names a .pdf and as a
// directory otherwise. Files written into a directory are named
// <stem>_<quality>.pdf.
func singleOutputPath(cfg *config.Config, flags compressFlags) string {
	if strings.EqualFold(filepath.Ext(flags.output), ".pdf") {
		return flags.output
	}
	dir := flags.output
	if dir == "" {
		dir = cfg.Compression.OutputDir
	}
	base := filepath.Base(flags.file)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, fmt.Sprintf("%s_%s.pdf", stem, cfg.Quality()))
}

// qualityHelp lists presets for command help texts.
func qualityHelp() string {
	return strings.Join(engine.QualityNames(), ", ")
}
