package postgres

import (
	"context"
	"fmt"
	"regexp"

	"districtrisk/domain/observation"

	"github.com/jmoiron/sqlx"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidTableName reports whether name is a plain or schema-qualified identifier
// safe to interpolate into SQL.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// observationRow is one row as text so that the dataset loader applies the
// same validation to database rows as to file rows.
type observationRow struct {
	State           string `db:"state"`
	District        string `db:"district"`
	Date            string `db:"date"`
	BiometricRatio  string `db:"biometric_to_enrolment_ratio"`
	ChildPressure   string `db:"child_update_pressure"`
	ElderlyPressure string `db:"elderly_update_pressure"`
	Risk            string `db:"service_stress_risk"`
}

// ObservationSource reads the district×date table from PostgreSQL
type ObservationSource struct {
	db    *sqlx.DB
	table string
}

// NewObservationSource creates a new PostgreSQL-backed source
func NewObservationSource(db *sqlx.DB, table string) (*ObservationSource, error) {
	if !ValidTableName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ObservationSource{db: db, table: table}, nil
}

// Describe names the source for logs and errors
func (s *ObservationSource) Describe() string {
	return "postgres table " + s.table
}

// ReadTable loads every row ordered by key
func (s *ObservationSource) ReadTable(ctx context.Context) (*observation.RawTable, error) {
	query := fmt.Sprintf(`SELECT
		COALESCE(state, '') AS state,
		COALESCE(district, '') AS district,
		COALESCE(to_char(date, 'YYYY-MM-DD'), '') AS date,
		COALESCE(biometric_to_enrolment_ratio::text, '') AS biometric_to_enrolment_ratio,
		COALESCE(child_update_pressure::text, '') AS child_update_pressure,
		COALESCE(elderly_update_pressure::text, '') AS elderly_update_pressure,
		COALESCE(service_stress_risk::text, '') AS service_stress_risk
	FROM %s ORDER BY state, district, date`, s.table)

	var rows []observationRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}

	return rowsToTable(rows), nil
}

func rowsToTable(rows []observationRow) *observation.RawTable {
	table := &observation.RawTable{
		Headers: []string{
			observation.ColState,
			observation.ColDistrict,
			observation.ColDate,
			observation.ColBiometricRatio,
			observation.ColChildPressure,
			observation.ColElderlyPressure,
			observation.ColRisk,
		},
		Rows: make([]observation.RawRow, 0, len(rows)),
	}
	for _, r := range rows {
		table.Rows = append(table.Rows, observation.RawRow{
			observation.ColState:           r.State,
			observation.ColDistrict:        r.District,
			observation.ColDate:            r.Date,
			observation.ColBiometricRatio:  r.BiometricRatio,
			observation.ColChildPressure:   r.ChildPressure,
			observation.ColElderlyPressure: r.ElderlyPressure,
			observation.ColRisk:            r.Risk,
		})
	}
	return table
}
