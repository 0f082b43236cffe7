package models

// Location represents a geographic location with latitude and longitude
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft Location
	TopRight   Location
}

// Contains reports whether loc lies inside the box, boundaries included
func (b BoundingBox) Contains(loc Location) bool {
	return loc.Lat >= b.BottomLeft.Lat && loc.Lat <= b.TopRight.Lat &&
		loc.Lon >= b.BottomLeft.Lon && loc.Lon <= b.TopRight.Lon
}

// GridSpec describes a fixed lattice of square cells anchored at its south-west corner.
// Cell (r,c) spans corner (r,c) to corner (r+1,c+1).
type GridSpec struct {
	MinLat         float64 `json:"minLat" yaml:"min_lat"`
	MinLon         float64 `json:"minLon" yaml:"min_lon"`
	Rows           int     `json:"rows" yaml:"rows"`
	Cols           int     `json:"cols" yaml:"cols"`
	CellSizeMeters float64 `json:"cellSizeMeters" yaml:"cell_size_meters"`
}

// Validate rejects grids with non-positive dimensions
func (g GridSpec) Validate() error {
	switch {
	case g.Rows <= 0:
		return &ConfigError{Field: "rows", Reason: "must be positive"}
	case g.Cols <= 0:
		return &ConfigError{Field: "cols", Reason: "must be positive"}
	case !(g.CellSizeMeters > 0):
		return &ConfigError{Field: "cellSizeMeters", Reason: "must be positive"}
	}
	return nil
}

// CellCount returns rows*cols
func (g GridSpec) CellCount() int {
	return g.Rows * g.Cols
}

// Index returns the row-major index of a cell
func (g GridSpec) Index(row, col int) int {
	return row*g.Cols + col
}

// Vote is a single category vote placed at a location.
// Timestamp is in milliseconds; higher means newer.
type Vote struct {
	ID         string  `json:"id"`
	UserID     string  `json:"userId"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	CategoryID string  `json:"categoryId"`
	Timestamp  int64   `json:"timestamp"`
}

// Location returns the vote position
func (v Vote) Location() Location {
	return Location{Lat: v.Lat, Lon: v.Lon}
}

// CellRef addresses a grid cell
type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// DominanceCell is the per-cell outcome of an aggregation run
type DominanceCell struct {
	WinnerCategoryID *string `json:"winnerCategoryId"`
	WinnerCount      int     `json:"winnerCount"`
	TotalCount       int     `json:"totalCount"`
	NewestTimestamp  *int64  `json:"newestTimestamp"`
}

// Winner returns the winning category, if any
func (c DominanceCell) Winner() (string, bool) {
	if c.WinnerCategoryID == nil {
		return "", false
	}
	return *c.WinnerCategoryID, true
}

// Region is a maximal 4-connected group of cells won by the same category
type Region struct {
	ID          string     `json:"id"`
	CategoryID  string     `json:"categoryId"`
	Cells       []CellRef  `json:"cells"`
	Polygon     []Location `json:"polygon"`
	Centroid    Location   `json:"centroid"`
	TotalCells  int        `json:"totalCells"`
	TotalVotes  int        `json:"totalVotes"`
	WinnerCount int        `json:"winnerCount"`
	// Degenerate is set when the outline could not be traced; Polygon is empty then.
	Degenerate bool `json:"degenerate,omitempty"`
}

// Result bundles the cells and regions of one computation
type Result struct {
	Cells   []DominanceCell `json:"cells"`
	Regions []Region        `json:"regions"`
}

// DegenerateRegions returns the regions whose outline extraction aborted
func (r Result) DegenerateRegions() []Region {
	var out []Region
	for _, region := range r.Regions {
		if region.Degenerate {
			out = append(out, region)
		}
	}
	return out
}
