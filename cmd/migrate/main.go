package main

import (
	"context"
	"log"
	"os"
	"time"

	"districtrisk/adapters/excel"
	"districtrisk/internal/dataset"
	"districtrisk/internal/migration"
	"districtrisk/internal/testkit"
	"districtrisk/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Seeds the postgres observations table from a csv/xlsx file, or from the
// synthetic generator when the file argument is "synthetic".
func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <database_url> <data_file|synthetic> [table]")
	}

	databaseURL := os.Args[1]
	dataFile := os.Args[2]
	table := "observations"
	if len(os.Args) > 3 {
		table = os.Args[3]
	}

	runner, err := migration.NewRunner(table)
	if err != nil {
		log.Fatalf("Invalid table: %v", err)
	}

	var source ports.ObservationSource
	if dataFile == "synthetic" {
		source = testkit.NewSyntheticSource(testkit.DefaultDistrictConfig())
	} else {
		source = excel.NewDataReader(excel.ExcelConfig{FilePath: dataFile, Sheet: os.Getenv("DATA_SHEET")})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	raw, err := source.ReadTable(ctx)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", source.Describe(), err)
	}
	rows, report, err := dataset.ParseTable(raw)
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", source.Describe(), err)
	}
	for _, r := range report.Rejected {
		log.Printf("Skipping row %d: %s", r.Row, r.Reason)
	}

	log.Printf("Starting migration of %d rows from %s into %s", len(rows), source.Describe(), table)

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration %s failed: %v", runner.Version(), err)
	}

	imported, err := runner.Import(ctx, db, rows)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Migration complete: %d imported, %d skipped", imported, len(report.Rejected))
}
