// Package cache memoizes dominance results keyed by a fingerprint of the inputs.
// Results handed out by a cache are shared and must be treated as read-only.
package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/kass/go-geo-dominance/pkg/models"
)

const keyPrefix = "dominance"

// Cache stores computed results
type Cache interface {
	Get(ctx context.Context, key string) (models.Result, bool, error)
	Set(ctx context.Context, key string, result models.Result) error
	Close() error
}

// Fingerprint hashes everything a computation depends on. Vote order does not
// matter; category order does, since it decides full ties.
func Fingerprint(grid models.GridSpec, votes []models.Vote, radiusKm float64, categoryIDs []string) string {
	h := xxhash.New()
	var buf [8]byte

	putFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}
	putInt := func(n int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(n))
		_, _ = h.Write(buf[:])
	}
	putString := func(s string) {
		putInt(int64(len(s)))
		_, _ = h.WriteString(s)
	}

	putFloat(grid.MinLat)
	putFloat(grid.MinLon)
	putInt(int64(grid.Rows))
	putInt(int64(grid.Cols))
	putFloat(grid.CellSizeMeters)
	putFloat(radiusKm)

	putInt(int64(len(categoryIDs)))
	for _, id := range categoryIDs {
		putString(id)
	}

	sorted := make([]models.Vote, len(votes))
	copy(sorted, votes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	putInt(int64(len(sorted)))
	for _, v := range sorted {
		putString(v.ID)
		putString(v.CategoryID)
		putFloat(v.Lat)
		putFloat(v.Lon)
		putInt(v.Timestamp)
	}

	return fmt.Sprintf("%s:%016x", keyPrefix, h.Sum64())
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) (models.Result, bool, error) {
	return models.Result{}, false, nil
}

func (Noop) Set(context.Context, string, models.Result) error { return nil }

func (Noop) Close() error { return nil }
