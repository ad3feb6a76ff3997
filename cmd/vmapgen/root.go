package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lenticular-viewmap/internal/config"
	"lenticular-viewmap/internal/profile"
	"lenticular-viewmap/internal/viewmap"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	configFile string
	envFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "vmapgen",
		Short:         "Generate view maps for lenticular multi-view monitors",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(g.envFile); err != nil {
				return err
			}
			if g.verbose {
				viewmap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
					&slog.HandlerOptions{Level: slog.LevelDebug})))
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "Path to config JSON file")
	pf.StringVar(&g.envFile, "env-file", ".env", "Environment file loaded before reading "+config.EnvPrefix+"* variables")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Log view map builds to stderr")

	root.AddCommand(
		newBuildCmd(g),
		newBatchCmd(g),
		newServeCmd(g),
		newInfoCmd(g),
	)
	return root
}

// loadConfig applies config file, environment and flags in that order.
func (g *globals) loadConfig(flags config.Flags) (config.Config, error) {
	var cfg config.Config
	if g.configFile != "" {
		var err error
		if cfg, err = config.Load(g.configFile); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, err
	}
	cfg.Resolve(flags)
	return cfg, nil
}

// buildFlags are the view map options accepted by build, info and friends.
type buildFlags struct {
	bitmap    bool
	hq        bool
	alignment string
	zx, zy    uint32
	zc        uint32
	enlargeX  bool
	enlargeY  bool
	enlarge   bool
	bgr       bool
	invertY   bool
	padding   int8
}

func (b *buildFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&b.bitmap, "bitmap", false, "Full size, BGR, bottom-up rows with 4-byte aligned scanlines")
	f.BoolVar(&b.hq, "hq", false, "Use the intrinsic lens resolution as view count")
	f.StringVar(&b.alignment, "alignment", "default", "Alignment policy: default, defined-zero, compatible-deprecated, compatible-mpv")
	f.Uint32Var(&b.zx, "zero-x", 0, "Reference pixel column for defined-zero alignment")
	f.Uint32Var(&b.zy, "zero-y", 0, "Reference pixel row for defined-zero alignment")
	f.Uint32Var(&b.zc, "zero-channel", 0, "Reference channel for defined-zero alignment (0 red, 1 green, 2 blue)")
	f.BoolVar(&b.enlarge, "enlarge", false, "Expand the map to the full panel")
	f.BoolVar(&b.enlargeX, "enlarge-x", false, "Expand the map to the panel width")
	f.BoolVar(&b.enlargeY, "enlarge-y", false, "Expand the map to the panel height")
	f.BoolVar(&b.bgr, "bgr", false, "Write pixels in B, G, R byte order")
	f.BoolVar(&b.invertY, "invert-y", false, "Store rows bottom-up")
	f.Int8Var(&b.padding, "padding", 0, "Scanline padding: negative aligns to 4 bytes, positive appends bytes")
}

func (b *buildFlags) options(cmd *cobra.Command) (viewmap.BuildOptions, error) {
	var opts viewmap.BuildOptions
	if b.bitmap {
		opts = viewmap.BitmapOptions()
	}
	f := cmd.Flags()
	align, err := viewmap.ParseAlignment(b.alignment)
	if err != nil {
		return opts, err
	}
	opts.Alignment = align
	opts.HQMode = b.hq
	opts.ZeroPixel = viewmap.ZeroPixel{X: b.zx, Y: b.zy, Z: b.zc}
	if b.enlarge {
		opts.EnlargeX, opts.EnlargeY = true, true
	}
	opts.EnlargeX = opts.EnlargeX || b.enlargeX
	opts.EnlargeY = opts.EnlargeY || b.enlargeY
	if f.Changed("bgr") {
		opts.BGR = b.bgr
	}
	if f.Changed("invert-y") {
		opts.InvertY = b.invertY
	}
	if f.Changed("padding") {
		opts.LinePadding = viewmap.LinePadding(b.padding)
	}
	return opts, nil
}

// monitorFlags select a monitor by profile or by explicit parameters.
type monitorFlags struct {
	profile string
	params  viewmap.MonitorParams
}

func (m *monitorFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&m.profile, "profile", "p", "", "Profile name or calibration file path")
	f.Uint32Var(&m.params.PixelCountX, "width", 0, "Panel width in pixels")
	f.Uint32Var(&m.params.PixelCountY, "height", 0, "Panel height in pixels")
	f.Uint16Var(&m.params.ViewCount, "views", 0, "Native view count")
	f.Uint32Var(&m.params.LensWidth, "lens-width", 0, "Lens period in pixels")
	f.Int32Var(&m.params.LensAngleCounter, "angle", 0, "Lens slant numerator (sign is the drift direction)")
	f.BoolVar(&m.params.ViewOrderInverted, "inverted", false, "Views are numbered right to left")
	f.BoolVar(&m.params.BGR, "bgr-panel", false, "Panel subpixels are laid out B, G, R")
	f.BoolVar(&m.params.Rotated, "rotated", false, "Lenses run across rows instead of columns")
	f.BoolVar(&m.params.FullPixel, "full-pixel", false, "Assign views per pixel instead of per subpixel")
}

// monitor returns the selected monitor and a name for output files.
func (m *monitorFlags) monitor(cfg config.Config) (*viewmap.Monitor, string, error) {
	if m.profile == "" {
		mon, err := viewmap.NewMonitor(m.params)
		if err != nil {
			return nil, "", err
		}
		return mon, fmt.Sprintf("%dx%d", m.params.PixelCountX, m.params.PixelCountY), nil
	}
	cache := profile.NewCache(profile.BuildIndex(cfg.ProfileDir))
	e, err := profile.Find(cache, m.profile)
	if err != nil {
		return nil, "", err
	}
	return e.Monitor, e.Name, nil
}
