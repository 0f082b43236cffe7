package dominance

import (
	"sort"

	"github.com/kass/go-geo-dominance/pkg/models"
)

// corner is a lattice point; row lines grow northwards, column lines eastwards
type corner struct {
	row, col int
}

func (c corner) less(o corner) bool {
	if c.row != o.row {
		return c.row < o.row
	}
	return c.col < o.col
}

// edgeKey identifies an undirected unit edge, a is never greater than b
type edgeKey struct {
	a, b corner
}

func keyOf(p, q corner) edgeKey {
	if q.less(p) {
		return edgeKey{a: q, b: p}
	}
	return edgeKey{a: p, b: q}
}

type directedEdge struct {
	from, to corner
}

func (e directedEdge) heading() heading {
	return heading{dr: e.to.row - e.from.row, dc: e.to.col - e.from.col}
}

// heading is a unit step between neighbouring corners
type heading struct {
	dr, dc int
}

func (h heading) left() heading  { return heading{dr: h.dc, dc: -h.dr} }
func (h heading) right() heading { return heading{dr: -h.dc, dc: h.dr} }
func (h heading) back() heading  { return heading{dr: -h.dr, dc: -h.dc} }

// turnRank orders the candidate headings after arriving with h: left, straight, right, back
func (h heading) turnRank(next heading) int {
	switch next {
	case h.left():
		return 0
	case h:
		return 1
	case h.right():
		return 2
	default:
		return 3
	}
}

// outlineEdges returns the edges of the component outline, each directed so the
// component lies on its left. Edges shared by two member cells cancel out.
// The result is sorted by origin corner then destination corner.
func outlineEdges(cells []models.CellRef) []directedEdge {
	present := make(map[edgeKey]directedEdge, 4*len(cells))
	for _, c := range cells {
		sw := corner{c.Row, c.Col}
		se := corner{c.Row, c.Col + 1}
		ne := corner{c.Row + 1, c.Col + 1}
		nw := corner{c.Row + 1, c.Col}

		for _, e := range [4]directedEdge{{sw, se}, {se, ne}, {ne, nw}, {nw, sw}} {
			key := keyOf(e.from, e.to)
			if _, ok := present[key]; ok {
				delete(present, key)
			} else {
				present[key] = e
			}
		}
	}

	edges := make([]directedEdge, 0, len(present))
	for _, e := range present {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from.less(edges[j].from)
		}
		return edges[i].to.less(edges[j].to)
	})
	return edges
}

// traceLoops walks the outline edges into closed loops. A loop lists its corners
// once each, without repeating the start. Each walk may take at most maxSteps
// edges; when a walk exceeds that or dead-ends before closing, ok is false.
func traceLoops(edges []directedEdge, maxSteps int) (loops [][]corner, ok bool) {
	outgoing := make(map[corner][]int, len(edges))
	for i, e := range edges {
		outgoing[e.from] = append(outgoing[e.from], i)
	}
	consumed := make([]bool, len(edges))

	for i := range edges {
		if consumed[i] {
			continue
		}
		consumed[i] = true

		start := edges[i].from
		loop := []corner{start}
		current := edges[i].to
		h := edges[i].heading()

		for steps := 1; current != start; steps++ {
			if steps >= maxSteps {
				return nil, false
			}
			loop = append(loop, current)

			next := pickNext(edges, outgoing[current], consumed, h)
			if next < 0 {
				return nil, false
			}
			consumed[next] = true
			h = edges[next].heading()
			current = edges[next].to
		}

		if len(loop) >= 3 {
			loops = append(loops, loop)
		}
	}
	return loops, true
}

// pickNext returns the unconsumed candidate with the leftmost turn, or -1
func pickNext(edges []directedEdge, candidates []int, consumed []bool, arriving heading) int {
	best, bestRank := -1, 4
	for _, idx := range candidates {
		if consumed[idx] {
			continue
		}
		if rank := arriving.turnRank(edges[idx].heading()); rank < bestRank {
			best, bestRank = idx, rank
		}
	}
	return best
}

// longest returns the loop with the most corners, the first one on a tie
func longest(loops [][]corner) []corner {
	var best []corner
	for _, loop := range loops {
		if len(loop) > len(best) {
			best = loop
		}
	}
	return best
}
