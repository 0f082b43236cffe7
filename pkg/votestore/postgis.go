package votestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kass/go-geo-dominance/pkg/models"
	_ "github.com/lib/pq"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// PostgresConfig holds the connection parameters of the PostGIS backend
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// ConnString renders the lib/pq key/value connection string
func (c PostgresConfig) ConnString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

const upsertQuery = `
	INSERT INTO votes (id, user_id, category_id, location, created_at)
	VALUES ($1, $2, $3, ST_GeomFromText($4, 4326), $5)
	ON CONFLICT (id) DO UPDATE SET
		user_id = EXCLUDED.user_id,
		category_id = EXCLUDED.category_id,
		location = EXCLUDED.location,
		created_at = EXCLUDED.created_at
`

// PostGISStore keeps votes in a PostGIS table with a GIST-indexed point column
type PostGISStore struct {
	db *sql.DB
}

// OpenPostGIS connects, tunes the pool and makes sure the schema exists
func OpenPostGIS(ctx context.Context, connString string) (*PostGISStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostGISStore{db: db}
	if err := s.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the votes table and its indexes when missing
func (s *PostGISStore) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,
		`CREATE TABLE IF NOT EXISTS votes (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			category_id TEXT NOT NULL,
			location    GEOMETRY(POINT, 4326) NOT NULL,
			created_at  BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_votes_location ON votes USING GIST(location);`,
		`CREATE INDEX IF NOT EXISTS idx_votes_user ON votes (user_id);`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

func (s *PostGISStore) ListVotes(ctx context.Context) ([]models.Vote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, ST_AsText(location), created_at
		FROM votes
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var votes []models.Vote
	for rows.Next() {
		var (
			v        models.Vote
			location string
		)
		if err := rows.Scan(&v.ID, &v.UserID, &v.CategoryID, &location, &v.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		loc, err := parsePoint(location)
		if err != nil {
			return nil, fmt.Errorf("vote %s: %w", v.ID, err)
		}
		v.Lat, v.Lon = loc.Lat, loc.Lon
		votes = append(votes, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return votes, nil
}

func (s *PostGISStore) UpsertVote(ctx context.Context, vote models.Vote) error {
	if vote.ID == "" {
		return &models.ConfigError{Field: "id", Reason: "must not be empty"}
	}

	_, err := s.db.ExecContext(ctx, upsertQuery, vote.ID, vote.UserID, vote.CategoryID, pointWKT(vote.Location()), vote.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to upsert vote %s: %w", vote.ID, err)
	}
	return nil
}

// UpsertVotes inserts votes in batches, one transaction per batch
func (s *PostGISStore) UpsertVotes(ctx context.Context, votes []models.Vote) error {
	const batchSize = 10000

	for start := 0; start < len(votes); start += batchSize {
		end := min(start+batchSize, len(votes))
		if err := s.upsertBatch(ctx, votes[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostGISStore) upsertBatch(ctx context.Context, votes []models.Vote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, v := range votes {
		if v.ID == "" {
			tx.Rollback()
			return &models.ConfigError{Field: "id", Reason: "must not be empty"}
		}
		if _, err := stmt.ExecContext(ctx, v.ID, v.UserID, v.CategoryID, pointWKT(v.Location()), v.Timestamp); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert vote %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

func (s *PostGISStore) DeleteVote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM votes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vote %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostGISStore) ClearVotes(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE votes`); err != nil {
		return fmt.Errorf("failed to clear votes: %w", err)
	}
	return nil
}

// Count returns the number of stored votes
func (s *PostGISStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM votes").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *PostGISStore) Close() error {
	return s.db.Close()
}

// pointWKT encodes a location as WKT with lon/lat axis order
func pointWKT(loc models.Location) string {
	return wkt.MarshalString(orb.Point{loc.Lon, loc.Lat})
}

func parsePoint(text string) (models.Location, error) {
	geom, err := wkt.Unmarshal(text)
	if err != nil {
		return models.Location{}, fmt.Errorf("failed to parse location: %w", err)
	}
	p, ok := geom.(orb.Point)
	if !ok {
		return models.Location{}, fmt.Errorf("failed to parse location: %s is not a point", geom.GeoJSONType())
	}
	return models.Location{Lat: p.Lat(), Lon: p.Lon()}, nil
}
