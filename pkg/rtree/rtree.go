// Package rtree indexes votes in an R-Tree so that the candidates around a
// point can be found without scanning every vote.
package rtree

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"
	"github.com/kass/go-geo-dominance/pkg/geo"
	"github.com/kass/go-geo-dominance/pkg/models"
)

const (
	tolerance   = 1e-7
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// spatialVote wraps a vote to implement rtreego.Spatial interface
type spatialVote struct {
	vote models.Vote
	rect *rtreego.Rect
}

func (sv *spatialVote) Bounds() *rtreego.Rect {
	return sv.rect
}

// VoteIndex is a thread-safe R-Tree over vote positions
type VoteIndex struct {
	tree      *rtreego.Rtree
	mu        sync.RWMutex
	itemCount atomic.Int64
}

// NewVoteIndex creates an empty index
func NewVoteIndex() *VoteIndex {
	return &VoteIndex{
		tree: rtreego.NewTree(dimensions, minChildren, maxChildren),
	}
}

// NewVoteIndexFrom creates an index holding votes
func NewVoteIndexFrom(votes []models.Vote) *VoteIndex {
	index := NewVoteIndex()
	index.IndexVotes(votes)
	return index
}

// IndexVotes adds votes to the index. The votes are copied.
func (g *VoteIndex) IndexVotes(votes []models.Vote) {
	if len(votes) == 0 {
		return
	}

	items := make([]*spatialVote, len(votes))
	for i, vote := range votes {
		p := rtreego.Point{vote.Lat, vote.Lon}
		items[i] = &spatialVote{vote: vote, rect: p.ToRect(tolerance)}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, item := range items {
		g.tree.Insert(item)
	}
	g.itemCount.Add(int64(len(items)))
}

// QueryBox returns all votes within the given bounding box, boundaries included
func (g *VoteIndex) QueryBox(box models.BoundingBox) ([]models.Vote, error) {
	var votes []models.Vote
	err := g.VisitBox(box, func(v *models.Vote) {
		votes = append(votes, *v)
	})
	return votes, err
}

// VisitBox calls fn for every vote inside box. fn must not retain the pointer.
func (g *VoteIndex) VisitBox(box models.BoundingBox, fn func(*models.Vote)) error {
	bottomLeft := rtreego.Point{box.BottomLeft.Lat, box.BottomLeft.Lon}
	rectSize := []float64{
		box.TopRight.Lat - box.BottomLeft.Lat,
		box.TopRight.Lon - box.BottomLeft.Lon,
	}

	bounds, err := rtreego.NewRect(bottomLeft, rectSize)
	if err != nil {
		return fmt.Errorf("invalid bounding box: %w", err)
	}

	g.mu.RLock()
	results := g.tree.SearchIntersect(bounds)
	g.mu.RUnlock()

	for _, result := range results {
		item, ok := result.(*spatialVote)
		if !ok {
			continue
		}
		// Strict boundary check, the tolerance rect may poke out of the box
		if box.Contains(item.vote.Location()) {
			fn(&item.vote)
		}
	}
	return nil
}

// QueryRadius returns all votes within radiusKm of center, ordered by distance then ID
func (g *VoteIndex) QueryRadius(center models.Location, radiusKm float64) ([]models.Vote, error) {
	if !(radiusKm > 0) {
		return nil, &models.ConfigError{Field: "radiusKm", Reason: "must be positive"}
	}

	type hit struct {
		vote     models.Vote
		distance float64
	}
	var hits []hit
	err := g.VisitBox(geo.RadiusBox(center, radiusKm), func(v *models.Vote) {
		dist := geo.Distance(center.Lat, center.Lon, v.Lat, v.Lon)
		if dist <= radiusKm {
			hits = append(hits, hit{vote: *v, distance: dist})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid radius search: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].vote.ID < hits[j].vote.ID
	})

	votes := make([]models.Vote, len(hits))
	for i, h := range hits {
		votes[i] = h.vote
	}
	return votes, nil
}

// NearestNeighbors returns the n votes closest to center
func (g *VoteIndex) NearestNeighbors(center models.Location, n int) []models.Vote {
	if n <= 0 {
		return nil
	}

	g.mu.RLock()
	results := g.tree.NearestNeighbors(n, rtreego.Point{center.Lat, center.Lon})
	g.mu.RUnlock()

	votes := make([]models.Vote, 0, len(results))
	for _, result := range results {
		if item, ok := result.(*spatialVote); ok {
			votes = append(votes, item.vote)
		}
	}
	return votes
}

// Count returns the number of indexed votes
func (g *VoteIndex) Count() int64 {
	return g.itemCount.Load()
}

// Clear removes all votes from the index
func (g *VoteIndex) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
	g.itemCount.Store(0)
}
