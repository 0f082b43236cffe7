// Package dominance assigns a winning category to every cell of a grid from
// nearby votes and groups same-winner cells into regions with traced outlines.
//
// Both steps are pure functions of their inputs: no I/O, no shared state and no
// goroutines. Identical inputs always produce identical output.
package dominance

import "github.com/kass/go-geo-dominance/pkg/models"

// Compute runs Aggregate followed by ExtractRegions
func Compute(grid models.GridSpec, votes []models.Vote, radiusKm float64, categoryIDs []string) (models.Result, error) {
	cells, err := Aggregate(grid, votes, radiusKm, categoryIDs)
	if err != nil {
		return models.Result{}, err
	}

	regions, err := ExtractRegions(grid, cells)
	if err != nil {
		return models.Result{}, err
	}

	return models.Result{Cells: cells, Regions: regions}, nil
}
