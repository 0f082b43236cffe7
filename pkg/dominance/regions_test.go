package dominance

import (
	"math/rand"
	"testing"

	"github.com/kass/go-geo-dominance/pkg/geo"
	"github.com/kass/go-geo-dominance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// layoutCells builds cells from rows of category letters, row 0 first; '.' has no winner
func layoutCells(t *testing.T, layout []string) (models.GridSpec, []models.DominanceCell) {
	t.Helper()
	grid := models.GridSpec{MinLat: 48.1, MinLon: 11.5, Rows: len(layout), Cols: len(layout[0]), CellSizeMeters: 500}
	cells := make([]models.DominanceCell, grid.CellCount())
	for row, line := range layout {
		require.Len(t, line, grid.Cols)
		for col, ch := range line {
			if ch == '.' {
				continue
			}
			id := string(ch)
			ts := int64(row*10 + col)
			cells[grid.Index(row, col)] = models.DominanceCell{
				WinnerCategoryID: &id,
				WinnerCount:      2,
				TotalCount:       3,
				NewestTimestamp:  &ts,
			}
		}
	}
	return grid, cells
}

func signedArea(ring []models.Location) float64 {
	area := 0.0
	for i := 0; i+1 < len(ring); i++ {
		area += ring[i].Lon*ring[i+1].Lat - ring[i+1].Lon*ring[i].Lat
	}
	return area / 2
}

func distinct(ring []models.Location) int {
	seen := make(map[models.Location]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func TestExtractRegionsSingleCell(t *testing.T) {
	grid, cells := layoutCells(t, []string{
		"A.",
		"..",
	})

	regions, err := ExtractRegions(grid, cells)
	require.NoError(t, err)
	require.Len(t, regions, 1)

	r := regions[0]
	assert.Equal(t, "A-0-0", r.ID)
	assert.Equal(t, "A", r.CategoryID)
	assert.Equal(t, []models.CellRef{{Row: 0, Col: 0}}, r.Cells)
	assert.Equal(t, 1, r.TotalCells)
	assert.Equal(t, 3, r.TotalVotes)
	assert.Equal(t, 2, r.WinnerCount)
	assert.Equal(t, geo.CellCenter(grid, 0, 0), r.Centroid)
	assert.False(t, r.Degenerate)

	expected := []models.Location{
		geo.Corner(grid, 0, 0),
		geo.Corner(grid, 0, 1),
		geo.Corner(grid, 1, 1),
		geo.Corner(grid, 1, 0),
		geo.Corner(grid, 0, 0),
	}
	assert.Equal(t, expected, r.Polygon)
}

func TestExtractRegionsAdjacentPair(t *testing.T) {
	grid, cells := layoutCells(t, []string{
		"AA",
		"..",
	})

	regions, err := ExtractRegions(grid, cells)
	require.NoError(t, err)
	require.Len(t, regions, 1)

	r := regions[0]
	assert.Equal(t, 2, r.TotalCells)
	assert.Equal(t, 6, r.TotalVotes)
	assert.Equal(t, 4, r.WinnerCount)
	require.Len(t, r.Polygon, 7)
	assert.Equal(t, 6, distinct(r.Polygon))
	assert.Equal(t, r.Polygon[0], r.Polygon[len(r.Polygon)-1])

	a, b := geo.CellCenter(grid, 0, 0), geo.CellCenter(grid, 0, 1)
	assert.InDelta(t, (a.Lat+b.Lat)/2, r.Centroid.Lat, 1e-12)
	assert.InDelta(t, (a.Lon+b.Lon)/2, r.Centroid.Lon, 1e-12)

	// the shared edge between the two cells is not part of the outline
	inner1, inner2 := geo.Corner(grid, 0, 1), geo.Corner(grid, 1, 1)
	for i := 0; i+1 < len(r.Polygon); i++ {
		p, q := r.Polygon[i], r.Polygon[i+1]
		assert.False(t, (p == inner1 && q == inner2) || (p == inner2 && q == inner1), "interior edge at %d", i)
	}
}

func TestExtractRegionsOrderAndIDs(t *testing.T) {
	grid, cells := layoutCells(t, []string{
		"AB.",
		"BA.",
		"..B",
	})

	regions, err := ExtractRegions(grid, cells)
	require.NoError(t, err)

	ids := make([]string, len(regions))
	for i, r := range regions {
		ids[i] = r.ID
		assert.Equal(t, 1, r.TotalCells)
		assert.Len(t, r.Polygon, 5)
	}
	assert.Equal(t, []string{"A-0-0", "B-0-1", "B-1-0", "A-1-1", "B-2-2"}, ids)
}

func TestExtractRegionsConnectivity(t *testing.T) {
	grid, cells := layoutCells(t, []string{
		"AAB",
		"B.A",
		"AAA",
	})

	regions, err := ExtractRegions(grid, cells)
	require.NoError(t, err)
	require.Len(t, regions, 4)

	assert.Equal(t, "A-0-0", regions[0].ID)
	assert.ElementsMatch(t, []models.CellRef{{Row: 0, Col: 0}, {Row: 0, Col: 1}}, regions[0].Cells)
	assert.Equal(t, "B-0-2", regions[1].ID)
	assert.Equal(t, "B-1-0", regions[2].ID)
	assert.Equal(t, "A-1-2", regions[3].ID)
	assert.ElementsMatch(t, []models.CellRef{{Row: 1, Col: 2}, {Row: 2, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}}, regions[3].Cells)
}

func TestExtractRegionsHoleKeepsOuterRing(t *testing.T) {
	grid, cells := layoutCells(t, []string{
		"AAA",
		"A.A",
		"AAA",
	})

	regions, err := ExtractRegions(grid, cells)
	require.NoError(t, err)
	require.Len(t, regions, 1)

	r := regions[0]
	assert.Equal(t, 8, r.TotalCells)
	require.Len(t, r.Polygon, 13)
	assert.Equal(t, r.Polygon[0], r.Polygon[12])
	assert.Greater(t, signedArea(r.Polygon), 0.0)

	for _, p := range r.Polygon {
		onOuter := p.Lat == geo.Corner(grid, 0, 0).Lat || p.Lat == geo.Corner(grid, 3, 0).Lat ||
			p == geo.Corner(grid, 1, 0) || p == geo.Corner(grid, 2, 0) ||
			p == geo.Corner(grid, 1, 3) || p == geo.Corner(grid, 2, 3)
		assert.True(t, onOuter, "hole corner %v in outline", p)
	}
}

func TestExtractRegionsPinchedHole(t *testing.T) {
	// the hole touches the outside at one corner, so the outline visits it twice
	grid, cells := layoutCells(t, []string{
		"AAA",
		"A.A",
		"AA.",
	})

	regions, err := ExtractRegions(grid, cells)
	require.NoError(t, err)
	require.Len(t, regions, 1)

	r := regions[0]
	assert.False(t, r.Degenerate)
	require.Len(t, r.Polygon, 17)
	assert.Equal(t, 15, distinct(r.Polygon))
	assert.Greater(t, signedArea(r.Polygon), 0.0)
}

func TestTraceLoopsPinchedHoleArea(t *testing.T) {
	component := []models.CellRef{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 0}, {Row: 1, Col: 2}, {Row: 2, Col: 0}, {Row: 2, Col: 1}}
	edges := outlineEdges(component)
	require.Len(t, edges, 16)

	loops, ok := traceLoops(edges, len(edges)+4)
	require.True(t, ok)
	require.Len(t, loops, 1)
	require.Len(t, loops[0], 16)

	area := 0
	loop := loops[0]
	for i := range loop {
		p, q := loop[i], loop[(i+1)%len(loop)]
		area += p.col*q.row - q.col*p.row
	}
	assert.Equal(t, 14, area, "twice the area of seven unit cells")
}

func TestOutlineEdgesCancelSharedEdges(t *testing.T) {
	testCases := []struct {
		name  string
		cells []models.CellRef
		want  int
	}{
		{"single", []models.CellRef{{Row: 0, Col: 0}}, 4},
		{"pair", []models.CellRef{{Row: 0, Col: 0}, {Row: 0, Col: 1}}, 6},
		{"square", []models.CellRef{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 1}}, 8},
		{"ring", []models.CellRef{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 0}, {Row: 1, Col: 2}, {Row: 2, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}}, 16},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			edges := outlineEdges(tc.cells)
			assert.Len(t, edges, tc.want)
			for i := 1; i < len(edges); i++ {
				assert.False(t, edges[i].from.less(edges[i-1].from), "edges not sorted")
			}
		})
	}
}

func TestTraceLoopsRing(t *testing.T) {
	ring := []models.CellRef{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 0}, {Row: 1, Col: 2}, {Row: 2, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}}
	loops, ok := traceLoops(outlineEdges(ring), 20)
	require.True(t, ok)
	require.Len(t, loops, 2)
	assert.Len(t, longest(loops), 12)
}

func TestTraceLoopsRejectsOpenOutline(t *testing.T) {
	edges := []directedEdge{
		{from: corner{0, 0}, to: corner{0, 1}},
		{from: corner{0, 1}, to: corner{1, 1}},
	}
	_, ok := traceLoops(edges, 10)
	assert.False(t, ok)
}

func TestExtractRegionsDegenerateWhenWalkExceedsLimit(t *testing.T) {
	grid, cells := layoutCells(t, []string{
		"AA",
		".B",
	})

	x := newExtractor(grid)
	x.stepLimit = func(int) int { return 2 }

	regions, err := x.extract(cells)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	for _, r := range regions {
		assert.True(t, r.Degenerate)
		assert.NotNil(t, r.Polygon)
		assert.Empty(t, r.Polygon)
		assert.NotEmpty(t, r.Cells)
		assert.Equal(t, len(r.Cells), r.TotalCells)
	}
	assert.Equal(t, 2, regions[0].TotalCells)

	result := models.Result{Cells: cells, Regions: regions}
	assert.Len(t, result.DegenerateRegions(), 2)
}

func TestExtractRegionsNoWinners(t *testing.T) {
	grid, cells := layoutCells(t, []string{
		"...",
		"...",
	})

	regions, err := ExtractRegions(grid, cells)
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestExtractRegionsRejectsInvalidInput(t *testing.T) {
	grid, cells := layoutCells(t, []string{"AA", "AA"})

	_, err := ExtractRegions(grid, cells[:3])
	require.ErrorIs(t, err, models.ErrInvalidConfig)
	var cfgErr *models.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "cells", cfgErr.Field)

	_, err = ExtractRegions(models.GridSpec{Rows: 2, Cols: 2}, cells)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestExtractRegionsPartition(t *testing.T) {
	categories := []string{"a", "b", "c"}
	r := rand.New(rand.NewSource(42))

	for trial := 0; trial < 5; trial++ {
		grid := models.GridSpec{MinLat: 48.1, MinLon: 11.5, Rows: 12, Cols: 15, CellSizeMeters: 100}
		cells := make([]models.DominanceCell, grid.CellCount())
		for i := range cells {
			if r.Intn(5) == 0 {
				continue
			}
			id := categories[r.Intn(len(categories))]
			cells[i] = models.DominanceCell{WinnerCategoryID: &id, WinnerCount: 1, TotalCount: 1}
		}

		regions, err := ExtractRegions(grid, cells)
		require.NoError(t, err)

		owner := make(map[models.CellRef]int)
		for ri, region := range regions {
			assert.False(t, region.Degenerate)
			assert.Equal(t, len(region.Cells), region.TotalCells)
			require.GreaterOrEqual(t, len(region.Polygon), 4)
			assert.Equal(t, region.Polygon[0], region.Polygon[len(region.Polygon)-1])
			assert.GreaterOrEqual(t, distinct(region.Polygon), 3)

			for _, c := range region.Cells {
				_, dup := owner[c]
				require.False(t, dup, "cell %v in two regions", c)
				owner[c] = ri

				winner, ok := cells[grid.Index(c.Row, c.Col)].Winner()
				require.True(t, ok)
				assert.Equal(t, region.CategoryID, winner)
			}
		}

		for row := 0; row < grid.Rows; row++ {
			for col := 0; col < grid.Cols; col++ {
				ref := models.CellRef{Row: row, Col: col}
				winner, ok := cells[grid.Index(row, col)].Winner()
				ri, owned := owner[ref]
				assert.Equal(t, ok, owned, "cell %v", ref)
				if !ok {
					continue
				}

				// maximality: same-winner neighbours share the region
				for _, d := range neighbors {
					n := models.CellRef{Row: row + d.Row, Col: col + d.Col}
					if n.Row < 0 || n.Row >= grid.Rows || n.Col < 0 || n.Col >= grid.Cols {
						continue
					}
					if nw, ok := cells[grid.Index(n.Row, n.Col)].Winner(); ok && nw == winner {
						assert.Equal(t, ri, owner[n])
					}
				}
			}
		}
	}
}

func TestComputeEndToEnd(t *testing.T) {
	grid := models.GridSpec{MinLat: 48.1, MinLon: 11.5, Rows: 2, Cols: 2, CellSizeMeters: 500}
	vote := voteAt("v1", geo.CellCenter(grid, 0, 0), "A", 7)

	result, err := Compute(grid, []models.Vote{vote}, 0.3, []string{"A"})
	require.NoError(t, err)
	require.Len(t, result.Cells, 4)
	require.Len(t, result.Regions, 1)
	assert.Len(t, result.Regions[0].Polygon, 5)
	assert.Greater(t, signedArea(result.Regions[0].Polygon), 0.0)
	assert.Empty(t, result.DegenerateRegions())
}

func BenchmarkExtractRegions(b *testing.B) {
	grid := models.GridSpec{MinLat: 48.1, MinLon: 11.5, Rows: 100, Cols: 100, CellSizeMeters: 100}
	categories := []string{"a", "b", "c", "d"}
	r := rand.New(rand.NewSource(1))
	cells := make([]models.DominanceCell, grid.CellCount())
	for i := range cells {
		id := categories[r.Intn(len(categories))]
		cells[i] = models.DominanceCell{WinnerCategoryID: &id, WinnerCount: 1, TotalCount: 1}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ExtractRegions(grid, cells)
	}
}
