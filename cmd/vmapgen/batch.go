package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"lenticular-viewmap/internal/batch"
	"lenticular-viewmap/internal/config"
	"lenticular-viewmap/internal/profile"
)

func newBatchCmd(g *globals) *cobra.Command {
	var (
		flags config.Flags
		only  []string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Build every job of the config file with a worker pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.configFile == "" {
				return errors.New("batch needs --config")
			}
			cfg, err := g.loadConfig(flags)
			if err != nil {
				return err
			}
			jobs := cfg.Jobs
			if len(only) > 0 {
				jobs = filterJobs(jobs, only)
			}

			stdout := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(stdout, "No jobs to run.")
				return nil
			}

			index := profile.BuildIndex(cfg.ProfileDir)
			fmt.Fprintf(stdout, "Profiles: %d indexed in %s\n", index.Len(), cfg.ProfileDir)
			fmt.Fprintf(stdout, "Jobs: %d, Workers: %d\n", len(jobs), cfg.Workers)
			fmt.Fprintf(stdout, "Output: %s\n", cfg.OutputDir)
			fmt.Fprintln(stdout, "------------------------------------------------------------")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			start := time.Now()
			results := batch.Run(ctx, batch.Config{
				OutputDir:   cfg.OutputDir,
				Profiles:    profile.NewCache(index),
				PreviewSize: cfg.PreviewSize,
				Visualize:   cfg.Visualize,
				Workers:     cfg.Workers,
				Progress:    2 * time.Second,
			}, jobs)

			fmt.Fprintln(stdout, "------------------------------------------------------------")
			fmt.Fprintf(stdout, "Done in %.1fs\n", time.Since(start).Seconds())

			failed := batch.Failures(results)
			fmt.Fprintf(stdout, "Built: %d/%d\n", len(results)-failed, len(results))
			if failed > 0 {
				fmt.Fprintf(stdout, "\nFailed (%d):\n", failed)
				shown := 0
				for _, r := range results {
					if r.Success {
						continue
					}
					if shown == 20 {
						fmt.Fprintf(stdout, "  ... and %d more\n", failed-shown)
						break
					}
					fmt.Fprintf(stdout, "  %s: %s\n", r.Name, r.Error)
					shown++
				}
			}

			manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
			if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
				return err
			}
			if err := batch.WriteManifest(manifestPath, results); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
			} else {
				fmt.Fprintf(stdout, "Manifest: %s\n", manifestPath)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", failed, len(results))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.ProfileDir, "profiles", "", "Profile directory (default: profiles)")
	f.StringVar(&flags.OutputDir, "output", "", "Output directory (default: viewmaps)")
	f.StringVar(&flags.Format, "format", "", "Default output format for jobs without one")
	f.IntVar(&flags.Workers, "workers", 0, "Number of worker goroutines (default: NumCPU)")
	f.StringSliceVar(&only, "only", nil, "Run only the named jobs")
	return cmd
}

func filterJobs(jobs []config.Job, names []string) []config.Job {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []config.Job
	for _, j := range jobs {
		if want[j.Name] {
			out = append(out, j)
		}
	}
	return out
}
