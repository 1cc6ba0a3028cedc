package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const (
	// TargetSchemaVersion is the highest schema version this version of the code supports.
	TargetSchemaVersion int64 = 1
	// CoreComponent is the name of the main nutriscan database component.
	CoreComponent = "nutriscandb"
)

// ErrSchemaTooOld is returned when the database needs a migration this build cannot perform.
var ErrSchemaTooOld = errors.New("database schema is older than supported")

// ErrSchemaTooNew is returned when the database was written by a newer build.
var ErrSchemaTooNew = errors.New("database schema is newer than supported")

// GetComponentSchemaVersion retrieves the schema version for a given component.
// Returns 0 if the component is not found or the versions table doesn't exist.
func GetComponentSchemaVersion(db *sql.DB, componentName string) (int64, error) {
	var version int64
	err := db.QueryRow(`SELECT version FROM nutriscan_versions WHERE component = ?;`, componentName).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan version for component '%s': %w", componentName, err)
	}
	return version, nil
}

// InitializeSchema creates all tables and records schemaVersionToSet for the core component.
func InitializeSchema(db *sql.DB, schemaVersionToSet int64) error {
	if _, err := db.Exec(SchemaV1); err != nil {
		return fmt.Errorf("failed to execute schema v1 SQL: %w", err)
	}

	_, err := db.Exec(`
INSERT INTO nutriscan_versions (component, version) VALUES (?, ?)
ON CONFLICT(component) DO UPDATE SET version = excluded.version, created_at = unixepoch();`,
		CoreComponent, schemaVersionToSet)
	if err != nil {
		return fmt.Errorf("failed to insert/update version for component %s to %d: %w", CoreComponent, schemaVersionToSet, err)
	}
	return nil
}

// UpgradeDB brings the core component to appTargetSchemaVersion. A fresh
// database is initialised; anything older or newer is refused, since stored
// documents carry no shape version and there is no migration path yet.
// dbIdentifierForLog is only used in error messages.
func UpgradeDB(db *sql.DB, dbIdentifierForLog string, appTargetSchemaVersion int64) error {
	current, err := GetComponentSchemaVersion(db, CoreComponent)
	if err != nil {
		return err
	}

	switch {
	case current == 0:
		if err := InitializeSchema(db, appTargetSchemaVersion); err != nil {
			return fmt.Errorf("failed to initialize component %s in database '%s': %w", CoreComponent, dbIdentifierForLog, err)
		}
		return nil
	case current == appTargetSchemaVersion:
		return nil
	case current < appTargetSchemaVersion:
		return fmt.Errorf("component %s in database '%s' has schema version %d, target is %d: %w",
			CoreComponent, dbIdentifierForLog, current, appTargetSchemaVersion, ErrSchemaTooOld)
	default:
		return fmt.Errorf("component %s in database '%s' has schema version %d, target is %d, please upgrade nutriscan: %w",
			CoreComponent, dbIdentifierForLog, current, appTargetSchemaVersion, ErrSchemaTooNew)
	}
}
