package postgres

// Schema creates every table the store uses. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS weight_evolution (
	id             TEXT PRIMARY KEY,
	league_class   TEXT NOT NULL,
	season         INTEGER NOT NULL,
	weights        JSONB NOT NULL,
	schema_version TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS weight_evolution_class_idx ON weight_evolution (league_class, season, created_at);

CREATE TABLE IF NOT EXISTS recalibration_feedback (
	id           TEXT PRIMARY KEY,
	league_class TEXT NOT NULL,
	season       INTEGER NOT NULL,
	factors      JSONB NOT NULL,
	outcome      DOUBLE PRECISION NOT NULL,
	observed_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS recalibration_feedback_unit_idx ON recalibration_feedback (league_class, season);

CREATE TABLE IF NOT EXISTS analysis_snapshots (
	id            TEXT PRIMARY KEY,
	league_id     TEXT NOT NULL,
	username      TEXT NOT NULL,
	snapshot_type TEXT NOT NULL,
	context_key   TEXT,
	season        INTEGER NOT NULL,
	payload       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS analysis_snapshots_key_idx ON analysis_snapshots (league_id, username, snapshot_type, created_at DESC);

CREATE TABLE IF NOT EXISTS manager_tendencies (
	manager_id        TEXT PRIMARY KEY,
	leagues_played    INTEGER NOT NULL,
	trades_sent       INTEGER NOT NULL,
	trades_accepted   INTEGER NOT NULL,
	avg_overpay_ratio DOUBLE PRECISION NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS otb_listings (
	league_id TEXT NOT NULL,
	roster_id INTEGER NOT NULL,
	player_id TEXT NOT NULL,
	active    BOOLEAN NOT NULL,
	PRIMARY KEY (league_id, roster_id, player_id)
);
`
