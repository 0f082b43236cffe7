package dominance

import (
	"fmt"
	"math"

	"github.com/kass/go-geo-dominance/pkg/geo"
	"github.com/kass/go-geo-dominance/pkg/models"
	"github.com/kass/go-geo-dominance/pkg/rtree"
)

// Aggregate computes the winning category of every grid cell.
//
// A vote counts for a cell when its haversine distance from the cell center is at
// most radiusKm. The winner has the highest count; ties go to the category with the
// newest vote, then to the category listed first in categoryIDs. Votes whose
// category is not listed, or whose coordinates are not finite, are ignored.
// The returned slice is row-major and always has grid.Rows*grid.Cols entries.
func Aggregate(grid models.GridSpec, votes []models.Vote, radiusKm float64, categoryIDs []string) ([]models.DominanceCell, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if err := validateRadius(radiusKm); err != nil {
		return nil, err
	}

	cells := make([]models.DominanceCell, grid.CellCount())
	if len(votes) == 0 {
		return cells, nil
	}

	order := categoryOrder(categoryIDs)
	known := make([]models.Vote, 0, len(votes))
	for _, vote := range votes {
		if _, ok := order[vote.CategoryID]; !ok {
			continue
		}
		if !finite(vote.Lat) || !finite(vote.Lon) {
			continue
		}
		known = append(known, vote)
	}
	if len(known) == 0 {
		return cells, nil
	}

	index := rtree.NewVoteIndexFrom(known)
	t := newTally(len(categoryIDs))

	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			center := geo.CellCenter(grid, row, col)
			t.reset()

			err := index.VisitBox(geo.RadiusBox(center, radiusKm), func(v *models.Vote) {
				if geo.Distance(center.Lat, center.Lon, v.Lat, v.Lon) <= radiusKm {
					t.add(order[v.CategoryID], v.Timestamp)
				}
			})
			if err != nil {
				return nil, fmt.Errorf("failed to scan votes for cell %d,%d: %w", row, col, err)
			}

			cells[grid.Index(row, col)] = t.cell(categoryIDs)
		}
	}

	return cells, nil
}

func validateRadius(radiusKm float64) error {
	if !(radiusKm > 0) {
		return &models.ConfigError{Field: "radiusKm", Reason: "must be positive"}
	}
	return nil
}

// categoryOrder maps each category to its first position in ids
func categoryOrder(ids []string) map[string]int {
	order := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := order[id]; !dup {
			order[id] = i
		}
	}
	return order
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// tally accumulates per-category counts for one cell; indices follow categoryIDs
type tally struct {
	counts []int
	newest []int64
	total  int
}

func newTally(n int) *tally {
	return &tally{
		counts: make([]int, n),
		newest: make([]int64, n),
	}
}

func (t *tally) reset() {
	clear(t.counts)
	clear(t.newest)
	t.total = 0
}

func (t *tally) add(idx int, timestamp int64) {
	if t.counts[idx] == 0 || timestamp > t.newest[idx] {
		t.newest[idx] = timestamp
	}
	t.counts[idx]++
	t.total++
}

func (t *tally) cell(categoryIDs []string) models.DominanceCell {
	winner := -1
	for i, count := range t.counts {
		if count == 0 {
			continue
		}
		// strict comparisons keep the earliest category on a full tie
		if winner < 0 || count > t.counts[winner] ||
			(count == t.counts[winner] && t.newest[i] > t.newest[winner]) {
			winner = i
		}
	}

	cell := models.DominanceCell{TotalCount: t.total}
	if winner >= 0 {
		id := categoryIDs[winner]
		newest := t.newest[winner]
		cell.WinnerCategoryID = &id
		cell.WinnerCount = t.counts[winner]
		cell.NewestTimestamp = &newest
	}
	return cell
}
