package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kass/go-geo-dominance/internal/logger"
	"github.com/kass/go-geo-dominance/pkg/catalog"
	"github.com/kass/go-geo-dominance/pkg/dominance"
	"github.com/kass/go-geo-dominance/pkg/geo"
	"github.com/kass/go-geo-dominance/pkg/models"
	"github.com/kass/go-geo-dominance/pkg/rtree"
	"github.com/kass/go-geo-dominance/pkg/simulate"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type BenchmarkResult struct {
	Stage         string
	TotalRuns     int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	RunsPerSec    float64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	TotalResults  int64
	AvgResults    float64
}

var (
	stage     string
	runs      int
	workers   int
	numVotes  int
	seed      int64
	centerLat float64
	centerLon float64
	sizeKm    float64
	cellSize  float64
	radius    float64
)

var rootCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Measure the dominance pipeline on simulated votes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := logger.Build(logger.Config{Level: "info", Console: true, Component: "benchmark"}, os.Stderr)
		return run(log)
	},
	SilenceUsage: true,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&stage, "stage", "t", "compute", "Stage: aggregate, regions, compute, radius, mixed")
	f.IntVarP(&runs, "runs", "n", 50, "Number of runs")
	f.IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Number of concurrent workers")
	f.IntVar(&numVotes, "votes", 5000, "Number of simulated votes")
	f.Int64Var(&seed, "seed", 1, "Seed for the simulated votes")
	f.Float64Var(&centerLat, "lat", 48.1351, "Grid center latitude")
	f.Float64Var(&centerLon, "lon", 11.582, "Grid center longitude")
	f.Float64Var(&sizeKm, "size", 20, "Grid side in km")
	f.Float64Var(&cellSize, "cell", 500, "Cell side in meters")
	f.Float64VarP(&radius, "radius", "r", 2, "Vote radius in km")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(log zerolog.Logger) error {
	grid, err := geo.NewGridSpec(centerLat, centerLon, sizeKm, cellSize)
	if err != nil {
		return err
	}
	categories := catalog.Default().IDs()
	votes, err := simulate.RandomVotes(grid, categories, numVotes, seed, time.Now())
	if err != nil {
		return err
	}
	log.Info().Int("rows", grid.Rows).Int("cols", grid.Cols).Int("votes", len(votes)).Msg("simulated input ready")

	// region extraction is measured on a fixed aggregation
	cells, err := dominance.Aggregate(grid, votes, radius, categories)
	if err != nil {
		return err
	}
	index := rtree.NewVoteIndexFrom(votes)
	centers := geo.CellCenters(grid)

	stages := map[string]func(r *rand.Rand) (int, error){
		"aggregate": func(*rand.Rand) (int, error) {
			out, err := dominance.Aggregate(grid, votes, radius, categories)
			return len(out), err
		},
		"regions": func(*rand.Rand) (int, error) {
			out, err := dominance.ExtractRegions(grid, cells)
			return len(out), err
		},
		"compute": func(*rand.Rand) (int, error) {
			out, err := dominance.Compute(grid, votes, radius, categories)
			return len(out.Regions), err
		},
		"radius": func(r *rand.Rand) (int, error) {
			out, err := index.QueryRadius(centers[r.Intn(len(centers))].Center, radius)
			return len(out), err
		},
	}

	log.Info().Int("runs", runs).Str("stage", stage).Int("workers", workers).Msg("running benchmark")

	var result BenchmarkResult
	if stage == "mixed" {
		result = benchmarkMixed(stages, runs, workers, log)
	} else {
		fn, ok := stages[stage]
		if !ok {
			return fmt.Errorf("unknown stage: %s", stage)
		}
		result = benchmarkStage(stage, fn, runs, workers, log)
	}

	printResult(result, grid)
	return nil
}

func printResult(result BenchmarkResult, grid models.GridSpec) {
	fmt.Println("\n=== Benchmark Results ===")
	fmt.Printf("Stage: %s\n", result.Stage)
	fmt.Printf("Grid: %dx%d cells\n", grid.Rows, grid.Cols)
	fmt.Printf("Total Runs: %d\n", result.TotalRuns)
	fmt.Printf("Total Duration: %v\n", result.TotalDuration)
	fmt.Printf("Average Duration: %v\n", result.AvgDuration)
	fmt.Printf("Runs/Second: %.2f\n", result.RunsPerSec)
	fmt.Printf("Min Duration: %v\n", result.MinDuration)
	fmt.Printf("Max Duration: %v\n", result.MaxDuration)
	fmt.Printf("Total Results: %d\n", result.TotalResults)
	fmt.Printf("Avg Results/Run: %.2f\n", result.AvgResults)
	fmt.Printf("Workers Used: %d\n", workers)
	fmt.Printf("CPU Cores: %d\n", runtime.NumCPU())
}

// benchmarkStage runs fn n times spread over a worker pool
func benchmarkStage(name string, fn func(r *rand.Rand) (int, error), n, workers int, log zerolog.Logger) BenchmarkResult {
	var (
		totalResults int64
		failures     int64
		minDuration  = time.Hour
		maxDuration  time.Duration
		durations    []time.Duration
		mu           sync.Mutex
	)

	startTime := time.Now()

	runCh := make(chan int, n)
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed + int64(w)))

			for range runCh {
				runStart := time.Now()
				results, err := fn(r)
				runDuration := time.Since(runStart)

				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				atomic.AddInt64(&totalResults, int64(results))

				mu.Lock()
				durations = append(durations, runDuration)
				minDuration = min(minDuration, runDuration)
				maxDuration = max(maxDuration, runDuration)
				mu.Unlock()
			}
		}(w)
	}

	for i := 0; i < n; i++ {
		runCh <- i
	}
	close(runCh)

	wg.Wait()
	totalDuration := time.Since(startTime)

	if failures > 0 {
		log.Warn().Int64("failures", failures).Str("stage", name).Msg("some runs failed")
	}

	var totalDur time.Duration
	for _, d := range durations {
		totalDur += d
	}
	var avgDuration time.Duration
	if len(durations) > 0 {
		avgDuration = totalDur / time.Duration(len(durations))
	}

	return BenchmarkResult{
		Stage:         name,
		TotalRuns:     n,
		TotalDuration: totalDuration,
		AvgDuration:   avgDuration,
		RunsPerSec:    float64(n) / totalDuration.Seconds(),
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		TotalResults:  totalResults,
		AvgResults:    float64(totalResults) / float64(max(n, 1)),
	}
}

func benchmarkMixed(stages map[string]func(r *rand.Rand) (int, error), n, workers int, log zerolog.Logger) BenchmarkResult {
	order := []string{"aggregate", "regions", "compute", "radius"}
	perStage := max(n/len(order), 1)

	log.Info().Int("per_stage", perStage).Msg("running mixed benchmark")

	combined := BenchmarkResult{Stage: "mixed", MinDuration: time.Hour}
	for _, name := range order {
		r := benchmarkStage(name, stages[name], perStage, workers, log)
		combined.TotalRuns += r.TotalRuns
		combined.TotalDuration += r.TotalDuration
		combined.TotalResults += r.TotalResults
		combined.MinDuration = min(combined.MinDuration, r.MinDuration)
		combined.MaxDuration = max(combined.MaxDuration, r.MaxDuration)
	}

	combined.AvgDuration = combined.TotalDuration / time.Duration(combined.TotalRuns)
	combined.RunsPerSec = float64(combined.TotalRuns) / combined.TotalDuration.Seconds()
	combined.AvgResults = float64(combined.TotalResults) / float64(combined.TotalRuns)
	return combined
}
