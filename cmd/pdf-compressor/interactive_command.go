package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"pdf-compressor-go/internal/batch"
	"pdf-compressor-go/internal/engine"

	"github.com/spf13/cobra"
)

func newInteractiveCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Prompt for a folder and compress every PDF in it in place",
		Long: `Interactive asks for a folder, confirms, and replaces every PDF below it
with a prepress-quality compressed copy. Originals are kept when their
compression fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := cli.load()
			if err != nil {
				return err
			}

			scanner := bufio.NewScanner(cli.stdin)
			dir, err := promptFolder(cli, scanner)
			if err != nil {
				return err
			}

			fmt.Fprintf(cli.stdout, "All PDFs in %s and its subfolders will be replaced. Continue? [y/N] ", dir)
			if !scanner.Scan() || !confirmed(scanner.Text()) {
				fmt.Fprintln(cli.stdout, "Operation cancelled.")
				return nil
			}

			req := batch.Request{
				InputRoot: dir,
				Quality:   engine.QualityPrepress,
				Overwrite: true,
				InPlace:   true,
				Workers:   cfg.Performance.Workers,
			}
			comp := cli.newCompressor(cmd.Context(), cfg, log)
			return runBatch(cmd.Context(), cli, cfg, log, comp, req, false)
		},
	}
}

// promptFolder asks until the answer names an existing directory.
func promptFolder(cli *cliContext, scanner *bufio.Scanner) (string, error) {
	for {
		fmt.Fprint(cli.stdout, "Folder containing the PDFs: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", errors.New("no folder given")
		}
		dir := strings.Trim(strings.TrimSpace(scanner.Text()), `"'`)
		if dir != "" && dirExists(dir) {
			return dir, nil
		}
		fmt.Fprintf(cli.stdout, "Folder not found: %s\n", dir)
	}
}

func confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "sim":
		return true
	}
	return false
}
