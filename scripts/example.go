package main

import (
	"fmt"
	"log"

	"github.com/kass/go-geo-dominance/pkg/catalog"
	"github.com/kass/go-geo-dominance/pkg/dominance"
	"github.com/kass/go-geo-dominance/pkg/export"
	"github.com/kass/go-geo-dominance/pkg/geo"
	"github.com/kass/go-geo-dominance/pkg/models"
)

func main() {
	// 4 km around Marienplatz in 500 m cells
	grid, err := geo.NewGridSpec(48.1374, 11.5755, 4, 500)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Grid: %dx%d cells\n\n", grid.Rows, grid.Cols)

	// A few hand placed votes, two brewery clusters and a lone vote
	votes := []models.Vote{
		{ID: "v1", UserID: "anna", Lat: 48.1440, Lon: 11.5580, CategoryID: "augustiner", Timestamp: 1700000000000},
		{ID: "v2", UserID: "ben", Lat: 48.1452, Lon: 11.5601, CategoryID: "augustiner", Timestamp: 1700000100000},
		{ID: "v3", UserID: "cem", Lat: 48.1431, Lon: 11.5622, CategoryID: "augustiner", Timestamp: 1700000200000},
		{ID: "v4", UserID: "dora", Lat: 48.1290, Lon: 11.5900, CategoryID: "paulaner", Timestamp: 1700000300000},
		{ID: "v5", UserID: "emil", Lat: 48.1302, Lon: 11.5925, CategoryID: "paulaner", Timestamp: 1700000400000},
		{ID: "v6", UserID: "fay", Lat: 48.1376, Lon: 11.5799, CategoryID: "hofbraeu", Timestamp: 1700000500000},
	}

	cat := catalog.Default()
	result, err := dominance.Compute(grid, votes, 0.6, cat.IDs())
	if err != nil {
		log.Fatal(err)
	}

	// Example 1: cell winners
	fmt.Println("=== Winning cells ===")
	for i, cell := range result.Cells {
		if winner, ok := cell.Winner(); ok {
			fmt.Printf("  cell %d,%d: %s (%d of %d votes)\n", i/grid.Cols, i%grid.Cols, winner, cell.WinnerCount, cell.TotalCount)
		}
	}

	// Example 2: regions and their outlines
	fmt.Println("\n=== Regions ===")
	for _, r := range result.Regions {
		fmt.Printf("  %s: %d cells, %d votes, outline of %d points\n", r.ID, r.TotalCells, r.TotalVotes, len(r.Polygon))
		fmt.Printf("    %s\n", export.RegionWKT(r))
	}

	// Example 3: which cell holds the Hofbräuhaus
	fmt.Println("\n=== Lookup ===")
	if ref, ok := geo.CellAt(grid, 48.1376, 11.5799); ok {
		cell := result.Cells[grid.Index(ref.Row, ref.Col)]
		winner, _ := cell.Winner()
		fmt.Printf("  Hofbräuhaus lies in cell %d,%d won by %q\n", ref.Row, ref.Col, winner)
	}

	// Example 4: GeoJSON for a map
	fc := export.Regions(result.Regions, cat)
	data, err := fc.MarshalJSON()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\nGeoJSON: %d features, %d bytes\n", len(fc.Features), len(data))
}
