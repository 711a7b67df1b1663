package excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"districtrisk/domain/observation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_NormalizesHeaders(t *testing.T) {
	src := "\ufeff State , District,DATE\n Kerala ,Idukki, 2025-03-01 \n"
	table, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"state", "district", "date"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Kerala", table.Rows[0][observation.ColState])
	assert.Equal(t, "2025-03-01", table.Rows[0][observation.ColDate])
}

func TestReadCSV_RequiresDataRow(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("state,district,date\n"))
	assert.Error(t, err)
}

func TestDataReader_MissingFile(t *testing.T) {
	r := NewDataReader(ExcelConfig{FilePath: filepath.Join(t.TempDir(), "none.xlsx")})
	_, err := r.ReadTable(context.Background())
	assert.Error(t, err)
}

func TestDataReader_WorkbookRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := WriteWorkbook(&buf, "districts", []string{"state", "district", "date", "service_stress_risk"}, [][]interface{}{
		{"Kerala", "Idukki", "2025-03-01", 0.04},
		{"Kerala", "Wayanad", "2025-03-01", ""},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "districts.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	r := NewDataReader(ExcelConfig{FilePath: path, Sheet: "districts"})
	assert.Equal(t, "xlsx file "+path, r.Describe())

	table, err := r.ReadTable(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Idukki", table.Rows[0][observation.ColDistrict])
	assert.Equal(t, "0.04", table.Rows[0][observation.ColRisk])
	assert.Equal(t, "", table.Rows[1][observation.ColRisk])
}

func TestDataReader_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "districts.csv")
	require.NoError(t, os.WriteFile(path, []byte("state,district,date\nS,A,2025-01-01\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDataReader(ExcelConfig{FilePath: path}).ReadTable(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
