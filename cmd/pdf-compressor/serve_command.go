package main

import (
	"os"
	"os/signal"
	"syscall"

	"pdf-compressor-go/internal/metrics"
	"pdf-compressor-go/internal/web"

	"github.com/spf13/cobra"
)

func newServeCommand(cli *cliContext) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP compression API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := cli.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.HTTP.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			comp := cli.newCompressor(ctx, cfg, log)
			server := web.NewServer(cfg, comp, metrics.New(), log)

			cli.printf("Listening on :%d\n", cfg.HTTP.Port)
			return server.Run(ctx, cfg.HTTP.Port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	return cmd
}
