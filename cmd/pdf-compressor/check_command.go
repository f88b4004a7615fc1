package main

import (
	"fmt"

	"pdf-compressor-go/internal/engine"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCheckCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that Ghostscript is installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := cli.load()
			if err != nil {
				return err
			}

			handle := engine.Resolve(cmd.Context(), engine.DefaultCandidates(cfg.Engine.Command))
			if !handle.Resolved {
				return fmt.Errorf("ghostscript not found (tried %v)", engine.DefaultCandidates(cfg.Engine.Command))
			}
			cli.printf("Ghostscript found: %s (version %s)\n", handle.Command, handle.Version)
			return nil
		},
	}
}

func newQualitiesCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "qualities",
		Short: "List the compression presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cli.quiet {
				return nil
			}
			t := table.NewWriter()
			t.SetOutputMirror(cli.stdout)
			t.AppendHeader(table.Row{"Quality", "Setting", "Description", "DPI", "Use case"})
			for _, q := range engine.Qualities() {
				t.AppendRow(table.Row{q.Name, q.Setting, q.Description, q.DPI, q.UseCase})
			}
			t.SetStyle(table.StyleLight)
			t.Render()
			return nil
		},
	}
}
