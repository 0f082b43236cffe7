package geo

import (
	"math"

	"github.com/kass/go-geo-dominance/pkg/models"
)

// NewGridSpec builds a square grid of sizeKm per side centered on the given point.
func NewGridSpec(centerLat, centerLon, sizeKm, cellSizeMeters float64) (models.GridSpec, error) {
	if !(sizeKm > 0) {
		return models.GridSpec{}, &models.ConfigError{Field: "sizeKm", Reason: "must be positive"}
	}
	if !(cellSizeMeters > 0) {
		return models.GridSpec{}, &models.ConfigError{Field: "cellSizeMeters", Reason: "must be positive"}
	}

	cells := int(math.Round(sizeKm * 1000 / cellSizeMeters))
	dLat := MetersToLat(cellSizeMeters)
	dLonAtCenter := MetersToLon(cellSizeMeters, centerLat)

	grid := models.GridSpec{
		MinLat:         centerLat - float64(cells)*dLat/2,
		MinLon:         centerLon - float64(cells)*dLonAtCenter/2,
		Rows:           cells,
		Cols:           cells,
		CellSizeMeters: cellSizeMeters,
	}
	if err := grid.Validate(); err != nil {
		return models.GridSpec{}, err
	}
	return grid, nil
}

// RowCenterLat returns the latitude of the centers of a row
func RowCenterLat(grid models.GridSpec, row int) float64 {
	return grid.MinLat + (float64(row)+0.5)*MetersToLat(grid.CellSizeMeters)
}

// CellCenter returns the center of cell (row, col)
func CellCenter(grid models.GridSpec, row, col int) models.Location {
	lat := RowCenterLat(grid, row)
	return models.Location{
		Lat: lat,
		Lon: grid.MinLon + (float64(col)+0.5)*MetersToLon(grid.CellSizeMeters, lat),
	}
}

// Corner returns the lattice corner at (rowLine, colLine).
// The longitude step is evaluated at the corner's own latitude.
func Corner(grid models.GridSpec, rowLine, colLine int) models.Location {
	lat := grid.MinLat + float64(rowLine)*MetersToLat(grid.CellSizeMeters)
	return models.Location{
		Lat: lat,
		Lon: grid.MinLon + float64(colLine)*MetersToLon(grid.CellSizeMeters, lat),
	}
}

// CellAt returns the cell containing lat/lon, or false when outside the grid
func CellAt(grid models.GridSpec, lat, lon float64) (models.CellRef, bool) {
	row := int(math.Floor((lat - grid.MinLat) / MetersToLat(grid.CellSizeMeters)))
	if row < 0 || row >= grid.Rows {
		return models.CellRef{}, false
	}
	dLon := MetersToLon(grid.CellSizeMeters, RowCenterLat(grid, row))
	col := int(math.Floor((lon - grid.MinLon) / dLon))
	if col < 0 || col >= grid.Cols {
		return models.CellRef{}, false
	}
	return models.CellRef{Row: row, Col: col}, true
}

// GridCell is a cell together with its center
type GridCell struct {
	models.CellRef
	Center models.Location
}

// CellCenters enumerates all cells in row-major order
func CellCenters(grid models.GridSpec) []GridCell {
	cells := make([]GridCell, 0, grid.CellCount())
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			cells = append(cells, GridCell{
				CellRef: models.CellRef{Row: row, Col: col},
				Center:  CellCenter(grid, row, col),
			})
		}
	}
	return cells
}
