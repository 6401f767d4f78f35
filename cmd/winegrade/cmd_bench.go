package main

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/straja-ai/winegrade/internal/features"
	"github.com/straja-ai/winegrade/internal/samples"
)

func newBenchCommand(opts *rootOptions) *cobra.Command {
	var (
		n       int
		workers int
		sample  int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure end-to-end analysis latency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v := features.Default
			if cmd.Flags().Changed("sample") {
				wine, err := samples.Get(sample)
				if err != nil {
					return err
				}
				v = wine.Vector
			}

			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			// Warmup
			for i := 0; i < 5; i++ {
				if _, err := a.svc.Analyze(ctx, v); err != nil {
					return fmt.Errorf("warmup analyze failed: %w", err)
				}
			}

			if n <= 0 {
				n = 1
			}
			if workers <= 0 {
				workers = 1
			}

			var (
				mu          sync.Mutex
				durations   = make([]time.Duration, 0, n)
				unavailable int
			)
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(workers)
			wall := time.Now()
			for i := 0; i < n; i++ {
				g.Go(func() error {
					start := time.Now()
					res, err := a.svc.Analyze(gctx, v)
					if err != nil {
						return err
					}
					d := time.Since(start)
					mu.Lock()
					durations = append(durations, d)
					if res.ClassificationErr != nil {
						unavailable++
					}
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return fmt.Errorf("analyze failed: %w", err)
			}
			elapsed := time.Since(wall)

			sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

			var total time.Duration
			for _, d := range durations {
				total += d
			}

			avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
			p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0
			p95 := float64(durations[int(float64(len(durations))*0.95)].Microseconds()) / 1000.0

			fmt.Fprintf(cmd.OutOrStdout(), "bench: n=%d workers=%d avg_ms=%.3f p50_ms=%.3f p95_ms=%.3f throughput_rps=%.0f classification_unavailable=%d models_dir=%s\n",
				len(durations),
				workers,
				avg,
				p50,
				p95,
				float64(len(durations))/elapsed.Seconds(),
				unavailable,
				a.cfg.Models.Dir,
			)
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "iterations", "n", 200, "Number of iterations")
	cmd.Flags().IntVar(&workers, "workers", 1, "Concurrent analyses")
	cmd.Flags().IntVar(&sample, "sample", 0, "Benchmark the example wine at this index instead of the default sample")
	return cmd
}
