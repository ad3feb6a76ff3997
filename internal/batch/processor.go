package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"lenticular-viewmap/internal/config"
	"lenticular-viewmap/internal/export"
	"lenticular-viewmap/internal/profile"
	"lenticular-viewmap/internal/viewmap"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir   string
	Profiles    profile.Resolver
	PreviewSize int
	Visualize   bool
	Workers     int
	// Progress is the reporting interval. Zero disables progress output.
	Progress time.Duration
}

// Result holds the outcome of processing one job.
type Result struct {
	Name      string
	Profile   string
	Output    string
	ViewCount int
	Width     uint32
	Height    uint32
	Success   bool
	Error     string
}

// Run processes all jobs using a bounded worker pool. Failed jobs are
// reported in their Result and do not stop the others. Cancelling ctx skips
// jobs that have not started yet. Jobs with duplicate or non-local names
// fail without writing anything.
func Run(ctx context.Context, cfg Config, jobs []config.Job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if cfg.Progress > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Progress)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						elapsed := time.Since(start).Seconds()
						rate := float64(p) / elapsed
						fmt.Printf("  [%d/%d] %.1f maps/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	invalid := checkNames(jobs)
	for i := range jobs {
		g.Go(func() error {
			if msg, bad := invalid[i]; bad {
				results[i] = failed(jobs[i], msg)
			} else if err := gctx.Err(); err != nil {
				results[i] = failed(jobs[i], err.Error())
			} else {
				results[i] = processJob(cfg, jobs[i])
			}
			processed.Add(1)
			return nil
		})
	}

	_ = g.Wait()
	close(done)

	return results
}

// checkNames reports jobs whose name cannot be an output file of its own:
// names that leave the output directory and names used by more than one job.
func checkNames(jobs []config.Job) map[int]string {
	count := make(map[string]int, len(jobs))
	for _, j := range jobs {
		count[j.Name]++
	}
	invalid := make(map[int]string)
	for i, j := range jobs {
		switch {
		case !filepath.IsLocal(j.Name):
			invalid[i] = fmt.Sprintf("job name %q is not a file name inside the output directory", j.Name)
		case count[j.Name] > 1:
			invalid[i] = fmt.Sprintf("job name %q is used by %d jobs", j.Name, count[j.Name])
		}
	}
	return invalid
}

func failed(job config.Job, msg string) Result {
	return Result{Name: job.Name, Profile: job.Profile, Error: msg}
}

func processJob(cfg Config, job config.Job) Result {
	format, err := export.ParseFormat(job.Format)
	if err != nil {
		return failed(job, err.Error())
	}

	entry, err := profile.Find(cfg.Profiles, job.Profile)
	if err != nil {
		return failed(job, err.Error())
	}

	vm, err := viewmap.Build(entry.Monitor, job.Options)
	if err != nil {
		return failed(job, fmt.Sprintf("build: %v", err))
	}
	defer vm.Release()

	outPath := filepath.Join(cfg.OutputDir, job.Name+format.Ext())
	opts := export.Options{Visualize: cfg.Visualize, PreviewSize: cfg.PreviewSize}
	if err := export.WriteFile(outPath, vm, format, opts); err != nil {
		return failed(job, err.Error())
	}

	return Result{
		Name:      job.Name,
		Profile:   job.Profile,
		Output:    outPath,
		ViewCount: int(vm.ViewCount),
		Width:     vm.Width,
		Height:    vm.Height,
		Success:   true,
	}
}
