// Package export renders computation results as GeoJSON for map clients.
package export

import (
	"github.com/kass/go-geo-dominance/pkg/catalog"
	"github.com/kass/go-geo-dominance/pkg/geo"
	"github.com/kass/go-geo-dominance/pkg/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// Polygon converts a region outline to an orb polygon with a single outer ring.
// It returns nil for degenerate regions.
func Polygon(region models.Region) orb.Polygon {
	if len(region.Polygon) == 0 {
		return nil
	}
	ring := make(orb.Ring, len(region.Polygon))
	for i, loc := range region.Polygon {
		ring[i] = orb.Point{loc.Lon, loc.Lat}
	}
	return orb.Polygon{ring}
}

// RegionWKT returns the outline as WKT, or the centroid point when degenerate
func RegionWKT(region models.Region) string {
	if poly := Polygon(region); poly != nil {
		return wkt.MarshalString(poly)
	}
	return wkt.MarshalString(orb.Point{region.Centroid.Lon, region.Centroid.Lat})
}

// Regions builds one feature per region. Degenerate regions are exported as
// their centroid so clients can still label them.
func Regions(regions []models.Region, cat *catalog.Catalog) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, region := range regions {
		var geometry orb.Geometry = orb.Point{region.Centroid.Lon, region.Centroid.Lat}
		if poly := Polygon(region); poly != nil {
			geometry = poly
		}

		f := geojson.NewFeature(geometry)
		f.ID = region.ID
		f.Properties["id"] = region.ID
		f.Properties["categoryId"] = region.CategoryID
		f.Properties["totalCells"] = region.TotalCells
		f.Properties["totalVotes"] = region.TotalVotes
		f.Properties["winnerCount"] = region.WinnerCount
		f.Properties["centroid"] = []float64{region.Centroid.Lon, region.Centroid.Lat}
		if region.Degenerate {
			f.Properties["degenerate"] = true
		}
		describe(f, cat, region.CategoryID)

		fc.Append(f)
	}
	return fc
}

// Cells builds one square feature per cell that has a winner
func Cells(grid models.GridSpec, cells []models.DominanceCell, cat *catalog.Catalog) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			index := grid.Index(row, col)
			if index >= len(cells) {
				return fc
			}
			cell := cells[index]
			winner, ok := cell.Winner()
			if !ok {
				continue
			}

			f := geojson.NewFeature(cellPolygon(grid, row, col))
			f.Properties["row"] = row
			f.Properties["col"] = col
			f.Properties["categoryId"] = winner
			f.Properties["winnerCount"] = cell.WinnerCount
			f.Properties["totalCount"] = cell.TotalCount
			if cell.NewestTimestamp != nil {
				f.Properties["newestTimestamp"] = *cell.NewestTimestamp
			}
			describe(f, cat, winner)

			fc.Append(f)
		}
	}
	return fc
}

func cellPolygon(grid models.GridSpec, row, col int) orb.Polygon {
	ring := orb.Ring{}
	for _, c := range [5][2]int{{row, col}, {row, col + 1}, {row + 1, col + 1}, {row + 1, col}, {row, col}} {
		loc := geo.Corner(grid, c[0], c[1])
		ring = append(ring, orb.Point{loc.Lon, loc.Lat})
	}
	return orb.Polygon{ring}
}

func describe(f *geojson.Feature, cat *catalog.Catalog, categoryID string) {
	if cat == nil {
		return
	}
	if c, ok := cat.Lookup(categoryID); ok {
		f.Properties["name"] = c.Name
		f.Properties["color"] = c.Color
	}
}
