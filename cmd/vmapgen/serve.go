package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"lenticular-viewmap/internal/config"
	"lenticular-viewmap/internal/profile"
	"lenticular-viewmap/internal/server"
)

func newServeCmd(g *globals) *cobra.Command {
	var flags config.Flags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve profiles and view maps over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(flags)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
			if !g.verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			index := profile.BuildIndex(cfg.ProfileDir)
			fmt.Fprintf(cmd.OutOrStdout(), "Profiles: %d indexed in %s\n", index.Len(), cfg.ProfileDir)
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", cfg.Listen)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Serve(ctx, cfg.Listen, server.NewRouter(profile.NewCache(index), logger))
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.Listen, "listen", "", "Listen address (default: :8080)")
	f.StringVar(&flags.ProfileDir, "profiles", "", "Profile directory (default: profiles)")
	return cmd
}
