package db

const (
	// SchemaV1 defines the SQL statements for version 1 of the database schema.
	// documents holds whole JSON documents keyed by name (profile, history,
	// shopping list, guide additions, settings); meals and water back the journal.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS nutriscan_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS documents (
    key VARCHAR(128) PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS meals (
    id UUID PRIMARY KEY,
    day CHAR(10) NOT NULL,
    analysis_text TEXT NOT NULL,
    photo_base64 TEXT,
    calories REAL NOT NULL DEFAULT 0,
    protein REAL NOT NULL DEFAULT 0,
    carbs REAL NOT NULL DEFAULT 0,
    fat REAL NOT NULL DEFAULT 0,
    created_at REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_meals_day ON meals(day, created_at);

CREATE TABLE IF NOT EXISTS water (
    day CHAR(10) PRIMARY KEY,
    total_ml REAL NOT NULL DEFAULT 0,
    updated_at REAL DEFAULT (unixepoch())
);
`
)
