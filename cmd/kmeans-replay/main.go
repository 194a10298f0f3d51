// Command kmeans-replay records a clustering run to disk: the dataset and run
// as JSON, an interactive chart page and one PNG frame per iteration. The run
// is computed locally, or fetched from a running explorer with -server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/kmeans-explorer/internal/api"
	"github.com/banshee-data/kmeans-explorer/internal/dataset"
	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
	"github.com/banshee-data/kmeans-explorer/internal/monitoring"
	"github.com/banshee-data/kmeans-explorer/internal/plot"
)

type options struct {
	outDir     string
	server     string
	k          int
	maxIter    int
	samples    int
	centers    int
	clusterStd float64
	dataSeed   int64 // negative draws a fresh seed
	runSeed    int64 // negative draws a fresh seed
	workers    int
	noPNG      bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("kmeans-replay", flag.ContinueOnError)
	fs.StringVar(&o.outDir, "out", "replay", "Output directory")
	fs.StringVar(&o.server, "server", "", "Explorer base URL; empty computes locally")
	fs.IntVar(&o.k, "k", 3, "Number of clusters")
	fs.IntVar(&o.maxIter, "max-iter", kmeans.DefaultMaxIterations, "Iteration cap")
	fs.IntVar(&o.samples, "samples", dataset.DefaultSamples, "Number of points")
	fs.IntVar(&o.centers, "centers", dataset.DefaultCenters, "Number of blobs")
	fs.Float64Var(&o.clusterStd, "std", dataset.DefaultClusterStd, "Blob standard deviation")
	fs.Int64Var(&o.dataSeed, "data-seed", -1, "Dataset seed (-1 for random)")
	fs.Int64Var(&o.runSeed, "run-seed", -1, "Initialisation seed (-1 for random)")
	fs.IntVar(&o.workers, "workers", runtime.NumCPU(), "Parallel PNG renderers")
	fs.BoolVar(&o.noPNG, "no-png", false, "Skip PNG frames")
	verbose := fs.Bool("verbose", false, "Log each written file")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	monitoring.SetVerbose(*verbose)
	if o.workers < 1 {
		o.workers = 1
	}
	return o, nil
}

func seedPtr(v int64) *uint64 {
	if v < 0 {
		return nil
	}
	u := uint64(v)
	return &u
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	points, run, err := record(ctx, o)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
	log.Printf("k=%d: %d snapshots, converged=%v", run.K, run.Len(), run.Converged)

	if err := write(ctx, o, points, run); err != nil {
		log.Fatalf("write failed: %v", err)
	}
	log.Printf("wrote replay to %s", o.outDir)
}

// record produces the dataset and run, locally or through the server.
func record(ctx context.Context, o options) ([]kmeans.Point, *kmeans.Run, error) {
	blobs := dataset.DefaultBlobConfig()
	blobs.Samples, blobs.Centers, blobs.ClusterStd = o.samples, o.centers, o.clusterStd
	blobs.Seed = seedPtr(o.dataSeed)

	if o.server != "" {
		c := api.NewClient(nil, o.server)
		gen, err := c.GenerateData(ctx, blobs)
		if err != nil {
			return nil, nil, fmt.Errorf("generate: %w", err)
		}
		run, err := c.RunKMeans(ctx, api.RunRequest{K: &o.k, MaxIterations: &o.maxIter, Seed: seedPtr(o.runSeed)})
		if err != nil {
			return nil, nil, fmt.Errorf("run: %w", err)
		}
		return gen.Data, run, nil
	}

	ds, err := dataset.Generate(blobs)
	if err != nil {
		return nil, nil, err
	}
	monitoring.Logf("generated %d points (seed %d)", len(ds.Points), ds.Seed)

	sim := kmeans.NewSimulator(kmeans.SimulatorConfig{Seed: seedPtr(o.runSeed)})
	run, err := sim.Simulate(ds.Points, o.k, o.maxIter)
	if err != nil {
		return nil, nil, err
	}
	return ds.Points, run, nil
}

// write saves run.json, data.json, chart.html and frame_NNN.png files.
func write(ctx context.Context, o options, points []kmeans.Point, run *kmeans.Run) error {
	if err := os.MkdirAll(o.outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeJSON(filepath.Join(o.outDir, "data.json"), map[string]interface{}{"data": points}); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(o.outDir, "run.json"), run); err != nil {
		return err
	}

	chartPath := filepath.Join(o.outDir, "chart.html")
	f, err := os.Create(chartPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", chartPath, err)
	}
	copts := plot.DefaultChartOptions()
	copts.Title = fmt.Sprintf("K-Means k=%d", run.K)
	if err := plot.RenderPage(f, points, run, copts); err != nil {
		f.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if o.noPNG {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for _, snap := range run.Snapshots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(o.outDir, fmt.Sprintf("frame_%03d.png", snap.Iteration))
			if err := plot.SavePNG(path, points, snap); err != nil {
				return err
			}
			monitoring.Debugf("wrote %s", path)
			return nil
		})
	}
	return g.Wait()
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
