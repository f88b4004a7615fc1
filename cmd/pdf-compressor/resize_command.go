package main

import (
	"fmt"
	"strings"

	"pdf-compressor-go/internal/resizer"

	"github.com/spf13/cobra"
)

type resizeFlags struct {
	scale       float64
	width       int
	height      int
	filter      string
	output      string
	jpegQuality int
	force       bool
	noExif      bool
}

func newResizeCommand(cli *cliContext) *cobra.Command {
	var flags resizeFlags

	cmd := &cobra.Command{
		Use:   "resize <image>",
		Short: "Downscale an image",
		Long: `Resize scales an image by a factor (0.5 by default) or to an explicit
width and height. JPEG outputs keep their EXIF tags and are marked so a second
run skips them unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := cli.load()
			if err != nil {
				return err
			}

			opts := resizer.Options{
				Scale:   cfg.Resize.Scale,
				Filter:  cfg.Resize.Filter,
				Quality: cfg.Resize.Quality,
				Width:   flags.width,
				Height:  flags.height,
				Force:   flags.force,
			}
			if cmd.Flags().Changed("scale") {
				opts.Scale = flags.scale
			}
			if cmd.Flags().Changed("filter") {
				opts.Filter = flags.filter
			}
			if cmd.Flags().Changed("jpeg-quality") {
				opts.Quality = flags.jpegQuality
			}
			if opts.Scale <= 0 {
				return fmt.Errorf("invalid scale %g", opts.Scale)
			}

			output := flags.output
			if output == "" {
				output = resizer.DefaultOutputPath(args[0], opts.Scale)
			}

			res, err := resizer.New(log, !flags.noExif).Resize(cmd.Context(), args[0], output, opts)
			if err != nil {
				return err
			}
			if res.Skipped {
				cli.printf("Skipped %s: %s\n", res.Input, res.Message)
				return nil
			}
			cli.printf("%s: %dx%d -> %dx%d\n", res.Input, res.OriginalWidth, res.OriginalHeight, res.Width, res.Height)
			cli.printf("Size: %.1f KiB -> %.1f KiB\n", float64(res.OriginalSize)/1024, float64(res.ResizedSize)/1024)
			cli.printf("Saved to %s\n", res.Output)
			return nil
		},
	}

	cmd.Flags().Float64Var(&flags.scale, "scale", 0.5, "scale factor")
	cmd.Flags().IntVar(&flags.width, "width", 0, "target width in pixels")
	cmd.Flags().IntVar(&flags.height, "height", 0, "target height in pixels")
	cmd.Flags().StringVar(&flags.filter, "filter", "nearest", "resampling filter: "+strings.Join(resizer.FilterNames(), ", "))
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default <name>_<pct>%<ext>)")
	cmd.Flags().IntVar(&flags.jpegQuality, "jpeg-quality", 90, "JPEG encoding quality (1-100)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "resize images that were already resized")
	cmd.Flags().BoolVar(&flags.noExif, "no-exif", false, "do not copy EXIF tags or stamp the output")

	return cmd
}
