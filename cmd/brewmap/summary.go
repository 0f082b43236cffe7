package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kass/go-geo-dominance/pkg/catalog"
	"github.com/kass/go-geo-dominance/pkg/models"
	"github.com/kass/go-geo-dominance/pkg/service"
	"github.com/mattn/go-isatty"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(0, 1)

	statStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))
)

// categoryStats is the per-category view of a result
type categoryStats struct {
	Category     catalog.Category
	Regions      int
	Cells        int
	Votes        int
	LargestCells int
}

// summarize returns stats for every category holding at least one region,
// ordered by cells won, then by catalog order
func summarize(result models.Result, cat *catalog.Catalog) []categoryStats {
	order := make(map[string]int, cat.Len())
	byID := make(map[string]*categoryStats, cat.Len())
	for i, c := range cat.Categories() {
		order[c.ID] = i
	}

	for _, r := range result.Regions {
		s, ok := byID[r.CategoryID]
		if !ok {
			c, found := cat.Lookup(r.CategoryID)
			if !found {
				c = catalog.Category{ID: r.CategoryID, Name: r.CategoryID}
			}
			s = &categoryStats{Category: c}
			byID[r.CategoryID] = s
		}
		s.Regions++
		s.Cells += r.TotalCells
		s.Votes += r.WinnerCount
		s.LargestCells = max(s.LargestCells, r.TotalCells)
	}

	stats := make([]categoryStats, 0, len(byID))
	for _, s := range byID {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Cells != stats[j].Cells {
			return stats[i].Cells > stats[j].Cells
		}
		return order[stats[i].Category.ID] < order[stats[j].Category.ID]
	})
	return stats
}

// printer renders styled output, falling back to plain text when w is not a terminal
type printer struct {
	w     io.Writer
	plain bool
}

// newPrinter writes to w, or stdout when w is nil
func newPrinter(w io.Writer) *printer {
	if w == nil {
		w = os.Stdout
	}
	plain := true
	if f, ok := w.(*os.File); ok {
		plain = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	return &printer{w: w, plain: plain}
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if p.plain {
		return s
	}
	return style.Render(s)
}

func (p *printer) success(msg string) {
	fmt.Fprintln(p.w, p.render(successStyle, "✓ "+msg))
}

func (p *printer) summary(engine *service.Engine, comp service.Computation) error {
	grid := engine.Grid()
	result := comp.Result

	won := 0
	for _, c := range result.Cells {
		if c.WinnerCategoryID != nil {
			won++
		}
	}

	source := "computed in " + comp.Elapsed.String()
	if comp.Cached {
		source = "served from cache"
	}

	var b strings.Builder
	b.WriteString(p.render(titleStyle, "Dominance map"))
	b.WriteString("\n\n")

	overview := fmt.Sprintf("Grid:          %s x %s cells of %sm\n", p.stat(grid.Rows), p.stat(grid.Cols), p.stat(grid.CellSizeMeters))
	overview += fmt.Sprintf("Radius:        %s km\n", p.stat(engine.RadiusKm()))
	overview += fmt.Sprintf("Votes:         %s\n", p.stat(comp.Votes))
	overview += fmt.Sprintf("Cells won:     %s of %s\n", p.stat(won), p.stat(len(result.Cells)))
	overview += fmt.Sprintf("Regions:       %s\n", p.stat(len(result.Regions)))
	overview += fmt.Sprintf("Run:           %s (%s)", comp.RunID, source)
	if p.plain {
		b.WriteString(overview)
	} else {
		b.WriteString(boxStyle.Render(overview))
	}
	b.WriteString("\n\n")

	stats := summarize(result, engine.Catalog())
	if len(stats) == 0 {
		b.WriteString(p.render(dimStyle, "No category holds any cell."))
		b.WriteString("\n")
	} else {
		b.WriteString(p.render(subtitleStyle, "Categories"))
		b.WriteString("\n")
		for _, s := range stats {
			name := s.Category.Name
			if !p.plain && s.Category.Color != "" {
				name = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(s.Category.Color)).Render(name)
			}
			fmt.Fprintf(&b, "  %-24s %s cells  %s regions  largest %s  %s winning votes\n",
				name, p.stat(s.Cells), p.stat(s.Regions), p.stat(s.LargestCells), p.stat(s.Votes))
		}
	}

	if degenerate := result.DegenerateRegions(); len(degenerate) > 0 {
		b.WriteString("\n")
		ids := make([]string, len(degenerate))
		for i, r := range degenerate {
			ids[i] = r.ID
		}
		b.WriteString(p.render(errorStyle, fmt.Sprintf("%d region outline(s) could not be traced: %s", len(degenerate), strings.Join(ids, ", "))))
		b.WriteString("\n")
	}

	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *printer) stat(v any) string {
	return p.render(statStyle, fmt.Sprint(v))
}
