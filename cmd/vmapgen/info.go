package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"lenticular-viewmap/internal/config"
	"lenticular-viewmap/internal/viewmap"
)

func newInfoCmd(g *globals) *cobra.Command {
	var (
		mon     monitorFlags
		build   buildFlags
		asJSON  bool
		profDir string
	)
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the layout and lens geometry of a view map without building it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(config.Flags{ProfileDir: profDir})
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
			info, err := viewmap.Describe(m, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Name    string                `json:"name"`
					Monitor viewmap.MonitorParams `json:"monitor"`
					viewmap.Info
				}{name, m.Params(), info})
			}

			p := m.Params()
			fmt.Fprintf(out, "Monitor: %s (%dx%d, lens width %d, angle %d)\n",
				name, p.PixelCountX, p.PixelCountY, p.LensWidth, p.LensAngleCounter)
			fmt.Fprintf(out, "Views: %d (native %d, intrinsic %d)\n",
				info.ViewCount, p.ViewCount, info.IntrinsicResolution)
			fmt.Fprintf(out, "Lens period: %d subpixels\n", info.Period)
			fmt.Fprintf(out, "Pattern: %dx%d pixels, tile %dx%d\n",
				info.PatternX, info.PatternY, info.TileWidth, info.TileHeight)
			fmt.Fprintf(out, "Map: %dx%d, scanline %d bytes, %d bytes total\n",
				info.Width, info.Height, info.ScanLineSize, info.Size)
			return nil
		},
	}

	mon.register(cmd)
	build.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	cmd.Flags().StringVar(&profDir, "profiles", "", "Profile directory (default: profiles)")
	return cmd
}
