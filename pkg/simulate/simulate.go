// Package simulate generates synthetic votes for demos and load tests
package simulate

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/kass/go-geo-dominance/pkg/geo"
	"github.com/kass/go-geo-dominance/pkg/models"
)

const (
	simUsers = 9999
	maxAge   = 24 * time.Hour
)

// RandomVotes places count votes in uniformly chosen cells, jittered by up to half
// a cell around the center, with a uniform category and a timestamp within the
// day before now. The same seed yields the same votes, ids included.
func RandomVotes(grid models.GridSpec, categoryIDs []string, count int, seed int64, now time.Time) ([]models.Vote, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if len(categoryIDs) == 0 {
		return nil, &models.ConfigError{Field: "categories", Reason: "must not be empty"}
	}
	if count < 0 {
		return nil, &models.ConfigError{Field: "count", Reason: "must not be negative"}
	}

	r := rand.New(rand.NewSource(seed))
	latSpan := geo.MetersToLat(grid.CellSizeMeters)
	nowMs := now.UnixMilli()

	votes := make([]models.Vote, 0, count)
	for i := 0; i < count; i++ {
		row := r.Intn(grid.Rows)
		col := r.Intn(grid.Cols)
		center := geo.CellCenter(grid, row, col)

		lat := center.Lat + (r.Float64()-0.5)*latSpan
		lon := center.Lon + (r.Float64()-0.5)*geo.MetersToLon(grid.CellSizeMeters, lat)

		id, err := uuid.NewRandomFromReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to generate vote id: %w", err)
		}

		votes = append(votes, models.Vote{
			ID:         id.String(),
			UserID:     fmt.Sprintf("sim-%d", r.Intn(simUsers)),
			Lat:        lat,
			Lon:        lon,
			CategoryID: categoryIDs[r.Intn(len(categoryIDs))],
			Timestamp:  nowMs - r.Int63n(maxAge.Milliseconds()),
		})
	}
	return votes, nil
}
