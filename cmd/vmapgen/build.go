package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"lenticular-viewmap/internal/config"
	"lenticular-viewmap/internal/export"
	"lenticular-viewmap/internal/viewmap"
)

func newBuildCmd(g *globals) *cobra.Command {
	var (
		mon       monitorFlags
		build     buildFlags
		out       string
		format    string
		outputDir string
		visualize bool
		preview   int
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build one view map and write it to a file",
		Example: `  vmapgen build -p studio --enlarge -o studio.bmp
  vmapgen build --width 3840 --height 2160 --views 8 --lens-width 10 --angle -3 --hq -o uhd.vmz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(config.Flags{OutputDir: outputDir, Format: format})
			if err != nil {
				return err
			}
			m, name, err := mon.monitor(cfg)
			if err != nil {
				return err
			}
			opts, err := build.options(cmd)
			if err != nil {
				return err
			}

			f, err := export.ParseFormat(cfg.Format)
			if err != nil {
				return err
			}
			switch {
			case out == "":
				out = filepath.Join(cfg.OutputDir, name+f.Ext())
			case format == "":
				// the extension decides unless --format was given
				if ef, err := export.FormatFromPath(out); err == nil {
					f = ef
				}
			}

			vm, err := viewmap.Build(m, opts)
			if err != nil {
				return err
			}
			defer vm.Release()

			exportOpts := export.Options{
				Visualize:   visualize || cfg.Visualize,
				PreviewSize: preview,
			}
			if !cmd.Flags().Changed("preview") {
				exportOpts.PreviewSize = cfg.PreviewSize
			}
			if err := export.WriteFile(out, vm, f, exportOpts); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "View map: %dx%d, %d views, scanline %d bytes\n",
				vm.Width, vm.Height, vm.ViewCount, vm.ScanLineSize)
			fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", out)
			return nil
		},
	}

	mon.register(cmd)
	build.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: <output dir>/<profile><ext>)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: vmap, vmz, bmp, webp, tga, png (default: from --out)")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory when --out is not given")
	cmd.Flags().BoolVar(&visualize, "visualize", false, "Stretch view indices to the full 0..255 range (images only)")
	cmd.Flags().IntVar(&preview, "preview", 0, "Scale images so neither side exceeds this size")
	return cmd
}
