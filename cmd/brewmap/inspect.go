package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kass/go-geo-dominance/pkg/geo"
	"github.com/kass/go-geo-dominance/pkg/models"
	"github.com/kass/go-geo-dominance/pkg/rtree"
	"github.com/spf13/cobra"
)

var (
	inspectLat     float64
	inspectLon     float64
	inspectNearest int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Explain the winner of the cell containing a location",
	Long: `Inspect finds the grid cell containing --lat/--lon, prints its winner and counts,
the region it belongs to, and the votes inside the influence radius of its center.`,
	RunE: withApp(runInspect),
}

func init() {
	inspectCmd.Flags().Float64Var(&inspectLat, "lat", 0, "Latitude")
	inspectCmd.Flags().Float64Var(&inspectLon, "lon", 0, "Longitude")
	inspectCmd.Flags().IntVarP(&inspectNearest, "nearest", "k", 5, "Number of nearest votes to list")
	_ = inspectCmd.MarkFlagRequired("lat")
	_ = inspectCmd.MarkFlagRequired("lon")
}

func runInspect(ctx context.Context, a *app, _ []string) error {
	grid := a.engine.Grid()
	ref, ok := geo.CellAt(grid, inspectLat, inspectLon)
	if !ok {
		return fmt.Errorf("%.5f, %.5f lies outside the grid", inspectLat, inspectLon)
	}

	comp, err := a.engine.Compute(ctx)
	if err != nil {
		return err
	}
	votes, err := a.repo.ListVotes(ctx)
	if err != nil {
		return err
	}

	center := geo.CellCenter(grid, ref.Row, ref.Col)
	cell := comp.Result.Cells[grid.Index(ref.Row, ref.Col)]
	index := rtree.NewVoteIndexFrom(votes)
	inRadius, err := index.QueryRadius(center, a.engine.RadiusKm())
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Cell %d,%d", ref.Row, ref.Col)))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Center:  %.5f, %.5f\n", center.Lat, center.Lon)

	if winner, ok := cell.Winner(); ok {
		name := winner
		if c, found := a.engine.Catalog().Lookup(winner); found {
			name = c.Name
		}
		fmt.Fprintf(&b, "Winner:  %s with %s of %s votes\n", successStyle.Render(name), statStyle.Render(fmt.Sprint(cell.WinnerCount)), statStyle.Render(fmt.Sprint(cell.TotalCount)))
		if region := regionOf(comp.Result.Regions, ref); region != nil {
			fmt.Fprintf(&b, "Region:  %s (%d cells, %d votes)\n", region.ID, region.TotalCells, region.TotalVotes)
		}
	} else {
		b.WriteString(dimStyle.Render("No votes within the radius of this cell."))
		b.WriteString("\n")
	}

	tally := make(map[string]int)
	for _, v := range inRadius {
		tally[v.CategoryID]++
	}
	if len(tally) > 0 {
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Votes within %.1f km", a.engine.RadiusKm())))
		b.WriteString("\n")
		for _, c := range a.engine.Catalog().Categories() {
			if n := tally[c.ID]; n > 0 {
				fmt.Fprintf(&b, "  %-20s %d\n", c.Name, n)
			}
		}
	}

	if nearest := index.NearestNeighbors(center, inspectNearest); len(nearest) > 0 {
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("Nearest votes"))
		b.WriteString("\n")
		for _, v := range nearest {
			dist := geo.Distance(center.Lat, center.Lon, v.Lat, v.Lon)
			fmt.Fprintf(&b, "  %-12s %-16s %.2f km\n", v.CategoryID, v.UserID, dist)
		}
	}

	_, err = fmt.Fprint(os.Stdout, b.String())
	return err
}

func regionOf(regions []models.Region, ref models.CellRef) *models.Region {
	for i := range regions {
		for _, c := range regions[i].Cells {
			if c == ref {
				return &regions[i]
			}
		}
	}
	return nil
}
