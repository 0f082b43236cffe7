package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kass/go-geo-dominance/pkg/simulate"
	"github.com/spf13/cobra"
)

var (
	simCount int
	simSeed  int64
	simClear bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Add random votes to the store",
	Long:  `Generate votes in random grid cells with random categories. A fixed seed reproduces the same votes.`,
	RunE:  withApp(runSimulate),
}

func init() {
	simulateCmd.Flags().IntVarP(&simCount, "count", "n", 200, "Number of votes to generate")
	simulateCmd.Flags().Int64VarP(&simSeed, "seed", "s", 0, "Random seed (0 picks one from the clock)")
	simulateCmd.Flags().BoolVar(&simClear, "clear", false, "Remove existing votes first")
}

func runSimulate(ctx context.Context, a *app, _ []string) error {
	seed := simSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	votes, err := simulate.RandomVotes(a.engine.Grid(), a.engine.Catalog().IDs(), simCount, seed, time.Now())
	if err != nil {
		return err
	}

	if simClear {
		if err := a.repo.ClearVotes(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	if err := a.repo.UpsertVotes(ctx, votes); err != nil {
		return err
	}
	a.log.Info().Int("votes", len(votes)).Int64("seed", seed).Dur("elapsed", time.Since(start)).Msg("simulated votes stored")

	p := newPrinter(nil)
	p.success(fmt.Sprintf("Added %d simulated votes (seed %d)", len(votes), seed))
	return nil
}
