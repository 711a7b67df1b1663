package risk

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"districtrisk/adapters/excel"
	"districtrisk/domain/observation"
)

// FullPrecision renders the shortest decimal that round-trips the float64.
const FullPrecision = -1

// ExportFilename is the attachment name of the ranked export, without extension.
const ExportFilename = "ranked_district_stress"

// ExportRows groups scored rows by (state, district), averages the score and each
// indicator column, and orders rows by mean score descending, then district and
// state ascending. Indicator means skip missing cells; a column with no values in
// a group is left empty.
func ExportRows(scored []ScoredObservation) []observation.RankingEntry {
	entries := aggregateByDistrict(scored, true)
	sortEntries(entries, Descending)
	return entries
}

// ExportHeader is the column order of the delimited export.
func ExportHeader() []string {
	header := []string{observation.ColState, observation.ColDistrict}
	return append(header, observation.NumericColumns...)
}

// FormatValue renders a mean with the given decimal count, or FullPrecision.
func FormatValue(m observation.Metric, decimals int) string {
	if !m.Valid {
		return ""
	}
	if decimals < 0 {
		return strconv.FormatFloat(m.Value, 'f', -1, 64)
	}
	return strconv.FormatFloat(m.Value, 'f', decimals, 64)
}

// WriteCSV serializes export rows as comma-separated text with a header row.
func WriteCSV(w io.Writer, entries []observation.RankingEntry, decimals int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range entries {
		record := []string{e.State, e.District}
		for _, col := range observation.NumericColumns {
			record = append(record, FormatValue(e.Mean(col), decimals))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s/%s: %w", e.State, e.District, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX serializes export rows as a workbook with numeric cells.
func WriteXLSX(w io.Writer, entries []observation.RankingEntry, decimals int) error {
	records := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		record := []interface{}{e.State, e.District}
		for _, col := range observation.NumericColumns {
			m := e.Mean(col)
			if !m.Valid {
				record = append(record, nil)
				continue
			}
			v := m.Value
			if decimals >= 0 {
				v, _ = strconv.ParseFloat(FormatValue(m, decimals), 64)
			}
			record = append(record, v)
		}
		records = append(records, record)
	}
	return excel.WriteWorkbook(w, "ranked", ExportHeader(), records)
}
