package dominance

import (
	"fmt"

	"github.com/kass/go-geo-dominance/pkg/geo"
	"github.com/kass/go-geo-dominance/pkg/models"
)

// ExtractRegions groups cells into maximal 4-connected components sharing the same
// winner and traces the outline of each. Cells without a winner belong to no region.
// Regions are returned in the order their first cell appears in a row-major scan.
func ExtractRegions(grid models.GridSpec, cells []models.DominanceCell) ([]models.Region, error) {
	return newExtractor(grid).extract(cells)
}

var neighbors = [4]models.CellRef{
	{Row: 1, Col: 0},
	{Row: -1, Col: 0},
	{Row: 0, Col: 1},
	{Row: 0, Col: -1},
}

type extractor struct {
	grid models.GridSpec
	// stepLimit bounds a single boundary walk given the outline edge count
	stepLimit func(edges int) int
}

func newExtractor(grid models.GridSpec) *extractor {
	return &extractor{
		grid:      grid,
		stepLimit: func(edges int) int { return edges + 4 },
	}
}

func (x *extractor) extract(cells []models.DominanceCell) ([]models.Region, error) {
	if err := x.grid.Validate(); err != nil {
		return nil, err
	}
	if len(cells) != x.grid.CellCount() {
		return nil, &models.ConfigError{
			Field:  "cells",
			Reason: fmt.Sprintf("has %d entries, want %d", len(cells), x.grid.CellCount()),
		}
	}

	visited := make([]bool, len(cells))
	var queue cellQueue
	var regions []models.Region

	for row := 0; row < x.grid.Rows; row++ {
		for col := 0; col < x.grid.Cols; col++ {
			index := x.grid.Index(row, col)
			if visited[index] {
				continue
			}
			categoryID, ok := cells[index].Winner()
			if !ok {
				continue
			}

			component := x.fill(cells, visited, &queue, models.CellRef{Row: row, Col: col}, categoryID)
			regions = append(regions, x.region(cells, categoryID, component))
		}
	}

	return regions, nil
}

// fill collects every cell reachable from seed through same-winner neighbors
func (x *extractor) fill(cells []models.DominanceCell, visited []bool, queue *cellQueue, seed models.CellRef, categoryID string) []models.CellRef {
	queue.reset()
	queue.push(seed)
	visited[x.grid.Index(seed.Row, seed.Col)] = true

	var component []models.CellRef
	for queue.size() > 0 {
		current := queue.pop()
		component = append(component, current)

		for _, d := range neighbors {
			nr, nc := current.Row+d.Row, current.Col+d.Col
			if nr < 0 || nr >= x.grid.Rows || nc < 0 || nc >= x.grid.Cols {
				continue
			}
			nIndex := x.grid.Index(nr, nc)
			if visited[nIndex] {
				continue
			}
			if winner, ok := cells[nIndex].Winner(); !ok || winner != categoryID {
				continue
			}
			visited[nIndex] = true
			queue.push(models.CellRef{Row: nr, Col: nc})
		}
	}
	return component
}

func (x *extractor) region(cells []models.DominanceCell, categoryID string, component []models.CellRef) models.Region {
	seed := component[0]
	region := models.Region{
		ID:         fmt.Sprintf("%s-%d-%d", categoryID, seed.Row, seed.Col),
		CategoryID: categoryID,
		Cells:      component,
		TotalCells: len(component),
	}

	var sumLat, sumLon float64
	for _, c := range component {
		center := geo.CellCenter(x.grid, c.Row, c.Col)
		sumLat += center.Lat
		sumLon += center.Lon

		cell := cells[x.grid.Index(c.Row, c.Col)]
		region.TotalVotes += cell.TotalCount
		region.WinnerCount += cell.WinnerCount
	}
	region.Centroid = models.Location{
		Lat: sumLat / float64(len(component)),
		Lon: sumLon / float64(len(component)),
	}

	edges := outlineEdges(component)
	loops, ok := traceLoops(edges, x.stepLimit(len(edges)))
	if !ok {
		region.Degenerate = true
		region.Polygon = []models.Location{}
		return region
	}
	region.Polygon = x.ring(longest(loops))
	return region
}

// ring converts lattice corners to a closed lat/lon ring
func (x *extractor) ring(loop []corner) []models.Location {
	if len(loop) == 0 {
		return []models.Location{}
	}
	ring := make([]models.Location, 0, len(loop)+1)
	for _, c := range loop {
		ring = append(ring, geo.Corner(x.grid, c.row, c.col))
	}
	return append(ring, ring[0])
}

// cellQueue is a FIFO reused across fills
type cellQueue struct {
	items []models.CellRef
	head  int
}

func (q *cellQueue) push(c models.CellRef) {
	q.items = append(q.items, c)
}

func (q *cellQueue) pop() models.CellRef {
	c := q.items[q.head]
	q.head++
	return c
}

func (q *cellQueue) size() int {
	return len(q.items) - q.head
}

func (q *cellQueue) reset() {
	q.items = q.items[:0]
	q.head = 0
}
