// Package service wires the vote store, the category catalog, the result cache
// and the dominance core into the operations the CLI exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/kass/go-geo-dominance/internal/logger"
	"github.com/kass/go-geo-dominance/internal/metrics"
	"github.com/kass/go-geo-dominance/pkg/cache"
	"github.com/kass/go-geo-dominance/pkg/catalog"
	"github.com/kass/go-geo-dominance/pkg/dominance"
	"github.com/kass/go-geo-dominance/pkg/models"
	"github.com/kass/go-geo-dominance/pkg/votestore"
	"github.com/rs/zerolog"
)

// Computation is one dominance result plus how it was obtained
type Computation struct {
	Result  models.Result
	RunID   string
	Key     string
	Votes   int
	Cached  bool
	Elapsed time.Duration
}

type Option func(*Engine)

func WithCache(c cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithMetrics(m *metrics.Dominance) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock replaces time.Now for vote timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces uuid.NewString for new vote ids
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

type Engine struct {
	repo     votestore.Repository
	catalog  *catalog.Catalog
	grid     models.GridSpec
	radiusKm float64

	cache   cache.Cache
	metrics *metrics.Dominance
	log     zerolog.Logger
	now     func() time.Time
	newID   func() string
}

func NewEngine(repo votestore.Repository, cat *catalog.Catalog, grid models.GridSpec, radiusKm float64, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, errors.New("vote repository is required")
	}
	if cat == nil {
		return nil, errors.New("category catalog is required")
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if !(radiusKm > 0) {
		return nil, &models.ConfigError{Field: "radiusKm", Reason: "must be positive"}
	}

	e := &Engine{
		repo:     repo,
		catalog:  cat,
		grid:     grid,
		radiusKm: radiusKm,
		cache:    cache.Noop{},
		metrics:  metrics.NewDominance(nil),
		log:      zerolog.Nop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Grid() models.GridSpec { return e.grid }

func (e *Engine) RadiusKm() float64 { return e.radiusKm }

func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

func (e *Engine) Repository() votestore.Repository { return e.repo }

// Compute loads all votes and returns the dominance result, from the cache when
// the inputs are unchanged since a previous run
func (e *Engine) Compute(ctx context.Context) (Computation, error) {
	if logger.RunID(ctx) == "" {
		ctx = logger.WithRunID(ctx, "")
	}
	log := logger.FromContext(ctx, &e.log)
	out := Computation{RunID: logger.RunID(ctx)}

	votes, err := e.repo.ListVotes(ctx)
	if err != nil {
		e.metrics.ObserveFailure()
		return out, fmt.Errorf("failed to load votes: %w", err)
	}
	out.Votes = len(votes)

	categoryIDs := e.catalog.IDs()
	out.Key = cache.Fingerprint(e.grid, votes, e.radiusKm, categoryIDs)

	cached, ok, err := e.cache.Get(ctx, out.Key)
	if err != nil {
		log.Warn().Err(err).Str("key", out.Key).Msg("cache lookup failed")
	}
	e.metrics.ObserveCache(ok)
	if ok {
		out.Result = cached
		out.Cached = true
		log.Debug().Str("key", out.Key).Int("votes", out.Votes).Msg("dominance served from cache")
		return out, nil
	}

	start := time.Now()
	result, err := dominance.Compute(e.grid, votes, e.radiusKm, categoryIDs)
	out.Elapsed = time.Since(start)
	if err != nil {
		e.metrics.ObserveFailure()
		return out, fmt.Errorf("failed to compute dominance: %w", err)
	}
	out.Result = result

	degenerate := result.DegenerateRegions()
	logDegenerate(log, degenerate)
	e.metrics.ObserveComputation(out.Elapsed, out.Votes, len(result.Regions), winningCells(result.Cells), len(degenerate))

	if err := e.cache.Set(ctx, out.Key, result); err != nil {
		log.Warn().Err(err).Str("key", out.Key).Msg("cache store failed")
	}

	log.Info().
		Int("votes", out.Votes).
		Int("cells", len(result.Cells)).
		Int("regions", len(result.Regions)).
		Int("degenerate", len(degenerate)).
		Dur("elapsed", out.Elapsed).
		Msg("dominance computed")

	return out, nil
}

// CastVote records the vote of userID. A user holds at most one vote: casting
// again moves the existing vote and refreshes its timestamp.
func (e *Engine) CastVote(ctx context.Context, userID string, lat, lon float64, categoryID string) (models.Vote, error) {
	if userID == "" {
		return models.Vote{}, &models.ConfigError{Field: "userId", Reason: "must not be empty"}
	}
	if _, ok := e.catalog.Lookup(categoryID); !ok {
		return models.Vote{}, &models.ConfigError{Field: "categoryId", Reason: fmt.Sprintf("unknown category %q", categoryID)}
	}
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return models.Vote{}, &models.ConfigError{Field: "lat", Reason: "must be within [-90, 90]"}
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return models.Vote{}, &models.ConfigError{Field: "lon", Reason: "must be within [-180, 180]"}
	}

	id := ""
	existing, err := votestore.FindByUser(ctx, e.repo, userID)
	switch {
	case err == nil:
		id = existing.ID
	case errors.Is(err, votestore.ErrNotFound):
		id = e.newID()
	default:
		return models.Vote{}, fmt.Errorf("failed to look up vote of %s: %w", userID, err)
	}

	vote := models.Vote{
		ID:         id,
		UserID:     userID,
		Lat:        lat,
		Lon:        lon,
		CategoryID: categoryID,
		Timestamp:  e.now().UnixMilli(),
	}
	if err := e.repo.UpsertVote(ctx, vote); err != nil {
		return models.Vote{}, fmt.Errorf("failed to store vote: %w", err)
	}

	e.log.Debug().Str("vote", vote.ID).Str("user", userID).Str("category", categoryID).Msg("vote cast")
	return vote, nil
}

func logDegenerate(log *zerolog.Logger, regions []models.Region) {
	for _, r := range regions {
		log.Warn().
			Str("region", r.ID).
			Str("category", r.CategoryID).
			Int("cells", r.TotalCells).
			Msg("region outline could not be traced")
	}
}

func winningCells(cells []models.DominanceCell) int {
	n := 0
	for _, c := range cells {
		if c.WinnerCategoryID != nil {
			n++
		}
	}
	return n
}
