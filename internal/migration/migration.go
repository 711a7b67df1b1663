package migration

import (
	"context"
	"database/sql"
	"fmt"

	"districtrisk/adapters/postgres"
	"districtrisk/domain/core"
	"districtrisk/domain/observation"
	"districtrisk/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the observations table the postgres source reads
type MigrationRunner struct {
	version string
	table   string
}

// NewRunner creates a new migration runner for the given table
func NewRunner(table string) (*MigrationRunner, error) {
	if !postgres.ValidTableName(table) {
		return nil, errors.ConfigInvalidf("invalid table name %q", table)
	}
	return &MigrationRunner{
		version: "1.0.0",
		table:   table,
	}, nil
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createObservationsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create observations table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createObservationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			state TEXT NOT NULL,
			district TEXT NOT NULL,
			date DATE NOT NULL,
			biometric_to_enrolment_ratio DOUBLE PRECISION,
			child_update_pressure DOUBLE PRECISION,
			elderly_update_pressure DOUBLE PRECISION,
			service_stress_risk DOUBLE PRECISION,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (state, district, date)
		)
	`, r.table))
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON %s (date)`, indexName(r.table, "date"), r.table))
	return err
}

// observationRecord is the insert shape of one row; missing metrics become NULL.
type observationRecord struct {
	State           string          `db:"state"`
	District        string          `db:"district"`
	Date            string          `db:"date"`
	BiometricRatio  sql.NullFloat64 `db:"biometric_to_enrolment_ratio"`
	ChildPressure   sql.NullFloat64 `db:"child_update_pressure"`
	ElderlyPressure sql.NullFloat64 `db:"elderly_update_pressure"`
	Risk            sql.NullFloat64 `db:"service_stress_risk"`
}

func toRecord(obs observation.Observation) observationRecord {
	return observationRecord{
		State:           obs.State,
		District:        obs.District,
		Date:            core.FormatDate(obs.Date),
		BiometricRatio:  nullable(obs.BiometricToEnrolmentRatio),
		ChildPressure:   nullable(obs.ChildUpdatePressure),
		ElderlyPressure: nullable(obs.ElderlyUpdatePressure),
		Risk:            nullable(obs.ServiceStressRisk),
	}
}

func nullable(m observation.Metric) sql.NullFloat64 {
	return sql.NullFloat64{Float64: m.Value, Valid: m.Valid}
}

// upsertQuery replaces an existing row with the same key.
func (r *MigrationRunner) upsertQuery() string {
	return fmt.Sprintf(`
		INSERT INTO %s (state, district, date, biometric_to_enrolment_ratio,
			child_update_pressure, elderly_update_pressure, service_stress_risk)
		VALUES (:state, :district, :date, :biometric_to_enrolment_ratio,
			:child_update_pressure, :elderly_update_pressure, :service_stress_risk)
		ON CONFLICT (state, district, date) DO UPDATE SET
			biometric_to_enrolment_ratio = EXCLUDED.biometric_to_enrolment_ratio,
			child_update_pressure = EXCLUDED.child_update_pressure,
			elderly_update_pressure = EXCLUDED.elderly_update_pressure,
			service_stress_risk = EXCLUDED.service_stress_risk`, r.table)
}

// Import upserts observations in a single transaction and returns the row count.
func (r *MigrationRunner) Import(ctx context.Context, db *sqlx.DB, rows []observation.Observation) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.DatabaseError("failed to begin import", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, r.upsertQuery())
	if err != nil {
		return 0, errors.DatabaseError("failed to prepare import", err)
	}
	defer stmt.Close()

	for i, obs := range rows {
		if _, err := stmt.ExecContext(ctx, toRecord(obs)); err != nil {
			return 0, errors.DatabaseError(fmt.Sprintf("failed to import row %d (%s)", i+1, obs.Key()), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.DatabaseError("failed to commit import", err)
	}
	return len(rows), nil
}

func indexName(table, column string) string {
	name := "idx_"
	for _, c := range table {
		if c == '.' {
			c = '_'
		}
		name += string(c)
	}
	return name + "_" + column
}
