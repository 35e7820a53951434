// Package postgres implements the repository contracts on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/okian/leaguelearn/internal/adapters/repository"
	"github.com/okian/leaguelearn/internal/domain/model"
)

// DefaultTimeout bounds each query when none is configured.
const DefaultTimeout = 5 * time.Second

// Store implements every repository contract on one connection pool.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

var (
	_ repository.WeightStore   = (*Store)(nil)
	_ repository.FeedbackStore = (*Store)(nil)
	_ repository.SnapshotStore = (*Store)(nil)
	_ repository.TendencyStore = (*Store)(nil)
	_ repository.ListingStore  = (*Store)(nil)
)

// New wraps an existing pool. timeout <= 0 uses DefaultTimeout.
func New(db *sqlx.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{db: db, timeout: timeout}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string, timeout time.Duration) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(db, timeout), nil
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

type evolutionRow struct {
	ID            string    `db:"id"`
	LeagueClass   string    `db:"league_class"`
	Season        int       `db:"season"`
	Weights       []byte    `db:"weights"`
	SchemaVersion string    `db:"schema_version"`
	CreatedAt     time.Time `db:"created_at"`
}

// Evolution returns the class history ordered by season then creation time.
func (s *Store) Evolution(ctx context.Context, class model.LeagueClass) ([]model.WeightEvolutionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT id, league_class, season, weights, schema_version, created_at
		FROM weight_evolution
		WHERE league_class = $1
		ORDER BY season ASC, created_at ASC`

	var rows []evolutionRow
	if err := s.db.SelectContext(ctx, &rows, query, string(class)); err != nil {
		return nil, fmt.Errorf("failed to query weight evolution: %w", err)
	}

	out := make([]model.WeightEvolutionRecord, 0, len(rows))
	for _, r := range rows {
		var w model.WeightVector
		if err := json.Unmarshal(r.Weights, &w); err != nil {
			return nil, fmt.Errorf("failed to unmarshal weights for %s: %w", r.ID, err)
		}
		out = append(out, model.WeightEvolutionRecord{
			ID:            r.ID,
			LeagueClass:   model.LeagueClass(r.LeagueClass),
			Season:        r.Season,
			Weights:       w,
			SchemaVersion: r.SchemaVersion,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out, nil
}

// AppendEvolution inserts rec. Existing rows are never updated.
func (s *Store) AppendEvolution(ctx context.Context, rec model.WeightEvolutionRecord) error {
	if err := rec.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrInvalidRecord, err)
	}
	weightsJSON, err := json.Marshal(rec.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		INSERT INTO weight_evolution (id, league_class, season, weights, schema_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.db.ExecContext(ctx, query,
		rec.ID, string(rec.LeagueClass), rec.Season, weightsJSON, rec.SchemaVersion, rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert weight evolution: %w", err)
	}
	return nil
}

type feedbackRow struct {
	ID          string    `db:"id"`
	LeagueClass string    `db:"league_class"`
	Season      int       `db:"season"`
	Factors     []byte    `db:"factors"`
	Outcome     float64   `db:"outcome"`
	ObservedAt  time.Time `db:"observed_at"`
}

// Feedback returns outcomes for class and season ordered by ID.
func (s *Store) Feedback(ctx context.Context, class model.LeagueClass, season int) ([]model.Feedback, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT id, league_class, season, factors, outcome, observed_at
		FROM recalibration_feedback
		WHERE league_class = $1 AND season = $2
		ORDER BY id`

	var rows []feedbackRow
	if err := s.db.SelectContext(ctx, &rows, query, string(class), season); err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}

	out := make([]model.Feedback, 0, len(rows))
	for _, r := range rows {
		var factors map[string]float64
		if err := json.Unmarshal(r.Factors, &factors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal factors for %s: %w", r.ID, err)
		}
		out = append(out, model.Feedback{
			ID:          r.ID,
			LeagueClass: model.LeagueClass(r.LeagueClass),
			Season:      r.Season,
			Factors:     factors,
			Outcome:     r.Outcome,
			ObservedAt:  r.ObservedAt,
		})
	}
	return out, nil
}

// AddFeedback inserts fb; a repeated ID is ignored.
func (s *Store) AddFeedback(ctx context.Context, fb model.Feedback) error {
	factorsJSON, err := json.Marshal(fb.Factors)
	if err != nil {
		return fmt.Errorf("failed to marshal factors: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		INSERT INTO recalibration_feedback (id, league_class, season, factors, outcome, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query,
		fb.ID, string(fb.LeagueClass), fb.Season, factorsJSON, fb.Outcome, fb.ObservedAt); err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

type snapshotRow struct {
	ID           string         `db:"id"`
	LeagueID     string         `db:"league_id"`
	Username     string         `db:"username"`
	SnapshotType string         `db:"snapshot_type"`
	ContextKey   sql.NullString `db:"context_key"`
	Season       int            `db:"season"`
	Payload      []byte         `db:"payload"`
	CreatedAt    time.Time      `db:"created_at"`
}

// Latest returns the newest snapshot for the exact key tuple. A nil
// context key only matches rows whose context_key is NULL.
func (s *Store) Latest(ctx context.Context, key model.SnapshotKey) (model.SnapshotRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT id, league_id, username, snapshot_type, context_key, season, payload, created_at
		FROM analysis_snapshots
		WHERE league_id = $1 AND username = $2 AND snapshot_type = $3
		  AND context_key IS NOT DISTINCT FROM $4
		ORDER BY created_at DESC
		LIMIT 1`

	var ctxKey sql.NullString
	if key.ContextKey != nil {
		ctxKey = sql.NullString{String: *key.ContextKey, Valid: true}
	}

	var row snapshotRow
	err := s.db.GetContext(ctx, &row, query, key.LeagueID, key.Username, string(key.Type), ctxKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SnapshotRecord{}, false, nil
		}
		return model.SnapshotRecord{}, false, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	rec := model.SnapshotRecord{
		ID:           row.ID,
		LeagueID:     row.LeagueID,
		Username:     row.Username,
		SnapshotType: model.SnapshotType(row.SnapshotType),
		Season:       row.Season,
		Payload:      json.RawMessage(row.Payload),
		CreatedAt:    row.CreatedAt,
	}
	if row.ContextKey.Valid {
		ck := row.ContextKey.String
		rec.ContextKey = &ck
	}
	return rec, true, nil
}

// Insert appends a snapshot row.
func (s *Store) Insert(ctx context.Context, rec model.SnapshotRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var ctxKey sql.NullString
	if rec.ContextKey != nil {
		ctxKey = sql.NullString{String: *rec.ContextKey, Valid: true}
	}

	query := `
		INSERT INTO analysis_snapshots
		(id, league_id, username, snapshot_type, context_key, season, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.LeagueID, rec.Username, string(rec.SnapshotType), ctxKey,
		rec.Season, []byte(rec.Payload), rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

type tendencyRow struct {
	ManagerID       string    `db:"manager_id"`
	LeaguesPlayed   int       `db:"leagues_played"`
	TradesSent      int       `db:"trades_sent"`
	TradesAccepted  int       `db:"trades_accepted"`
	AvgOverpayRatio float64   `db:"avg_overpay_ratio"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Tendency returns repository.ErrNotFound for unknown managers.
func (s *Store) Tendency(ctx context.Context, managerID string) (model.ManagerTendency, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT manager_id, leagues_played, trades_sent, trades_accepted, avg_overpay_ratio, updated_at
		FROM manager_tendencies
		WHERE manager_id = $1`

	var row tendencyRow
	if err := s.db.GetContext(ctx, &row, query, managerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ManagerTendency{}, repository.ErrNotFound
		}
		return model.ManagerTendency{}, fmt.Errorf("failed to get tendency: %w", err)
	}
	return model.ManagerTendency(row), nil
}

// SaveTendency upserts t.
func (s *Store) SaveTendency(ctx context.Context, t model.ManagerTendency) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		INSERT INTO manager_tendencies
		(manager_id, leagues_played, trades_sent, trades_accepted, avg_overpay_ratio, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (manager_id) DO UPDATE SET
			leagues_played = EXCLUDED.leagues_played,
			trades_sent = EXCLUDED.trades_sent,
			trades_accepted = EXCLUDED.trades_accepted,
			avg_overpay_ratio = EXCLUDED.avg_overpay_ratio,
			updated_at = EXCLUDED.updated_at`

	if _, err := s.db.ExecContext(ctx, query,
		t.ManagerID, t.LeaguesPlayed, t.TradesSent, t.TradesAccepted, t.AvgOverpayRatio, t.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert tendency: %w", err)
	}
	return nil
}

type listingRow struct {
	LeagueID string `db:"league_id"`
	RosterID int    `db:"roster_id"`
	PlayerID string `db:"player_id"`
	Active   bool   `db:"active"`
}

// Listings returns a league's listings ordered by roster then player.
func (s *Store) Listings(ctx context.Context, leagueID string) ([]model.OTBListing, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT league_id, roster_id, player_id, active
		FROM otb_listings
		WHERE league_id = $1
		ORDER BY roster_id, player_id`

	var rows []listingRow
	if err := s.db.SelectContext(ctx, &rows, query, leagueID); err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	out := make([]model.OTBListing, len(rows))
	for i, r := range rows {
		out[i] = model.OTBListing(r)
	}
	return out, nil
}

// SaveListing upserts l.
func (s *Store) SaveListing(ctx context.Context, l model.OTBListing) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		INSERT INTO otb_listings (league_id, roster_id, player_id, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (league_id, roster_id, player_id) DO UPDATE SET active = EXCLUDED.active`

	if _, err := s.db.ExecContext(ctx, query, l.LeagueID, l.RosterID, l.PlayerID, l.Active); err != nil {
		return fmt.Errorf("failed to upsert listing: %w", err)
	}
	return nil
}
