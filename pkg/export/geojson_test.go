package export

import (
	"encoding/json"
	"testing"

	"github.com/kass/go-geo-dominance/pkg/catalog"
	"github.com/kass/go-geo-dominance/pkg/dominance"
	"github.com/kass/go-geo-dominance/pkg/geo"
	"github.com/kass/go-geo-dominance/pkg/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var grid = models.GridSpec{MinLat: 48.1, MinLon: 11.5, Rows: 3, Cols: 3, CellSizeMeters: 500}

func computeSample(t *testing.T) models.Result {
	t.Helper()
	votes := []models.Vote{
		{ID: "1", UserID: "u1", CategoryID: "augustiner", Timestamp: 1},
		{ID: "2", UserID: "u2", CategoryID: "augustiner", Timestamp: 2},
		{ID: "3", UserID: "u3", CategoryID: "spaten", Timestamp: 3},
	}
	for i, ref := range []models.CellRef{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 2, Col: 2}} {
		c := geo.CellCenter(grid, ref.Row, ref.Col)
		votes[i].Lat, votes[i].Lon = c.Lat, c.Lon
	}

	result, err := dominance.Compute(grid, votes, 0.3, catalog.Default().IDs())
	require.NoError(t, err)
	require.Len(t, result.Regions, 2)
	return result
}

func TestRegionsFeatureCollection(t *testing.T) {
	result := computeSample(t)
	fc := Regions(result.Regions, catalog.Default())
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	poly, ok := first.Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 7)
	assert.True(t, poly[0].Closed())
	assert.Equal(t, orb.CCW, poly[0].Orientation())

	assert.Equal(t, "augustiner-0-0", first.Properties["id"])
	assert.Equal(t, "Augustiner", first.Properties["name"])
	assert.Equal(t, "#C75C3D", first.Properties["color"])
	assert.Equal(t, 2, first.Properties["totalCells"])
	assert.NotContains(t, first.Properties, "degenerate")

	assert.Equal(t, "spaten", fc.Features[1].Properties["categoryId"])
}

func TestRegionsDegenerateAsCentroid(t *testing.T) {
	region := models.Region{
		ID:         "a-0-0",
		CategoryID: "a",
		Cells:      []models.CellRef{{Row: 0, Col: 0}},
		Polygon:    []models.Location{},
		Centroid:   models.Location{Lat: 48.2, Lon: 11.6},
		TotalCells: 1,
		Degenerate: true,
	}

	fc := Regions([]models.Region{region}, nil)
	require.Len(t, fc.Features, 1)

	p, ok := fc.Features[0].Geometry.(orb.Point)
	require.True(t, ok)
	assert.Equal(t, orb.Point{11.6, 48.2}, p)
	assert.Equal(t, true, fc.Features[0].Properties["degenerate"])
	assert.NotContains(t, fc.Features[0].Properties, "name")

	assert.Contains(t, RegionWKT(region), "POINT(")
}

func TestCellsFeatureCollection(t *testing.T) {
	result := computeSample(t)
	fc := Cells(grid, result.Cells, catalog.Default())
	require.Len(t, fc.Features, 3)

	for _, f := range fc.Features {
		poly, ok := f.Geometry.(orb.Polygon)
		require.True(t, ok)
		assert.Len(t, poly[0], 5)
		assert.Equal(t, orb.CCW, poly[0].Orientation())
		assert.Contains(t, f.Properties, "newestTimestamp")
	}
	assert.Equal(t, 2, fc.Features[2].Properties["row"])
	assert.Equal(t, 2, fc.Features[2].Properties["col"])
}

func TestFeatureCollectionJSON(t *testing.T) {
	result := computeSample(t)
	data, err := json.Marshal(Regions(result.Regions, catalog.Default()))
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "Polygon", fc.Features[0].Geometry.GeoJSONType())
	assert.Equal(t, "augustiner", fc.Features[0].Properties.MustString("categoryId"))
}

func TestRegionWKT(t *testing.T) {
	result := computeSample(t)
	text := RegionWKT(result.Regions[1])
	assert.Contains(t, text, "POLYGON((")
}
