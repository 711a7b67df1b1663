package dataset

import (
	"context"
	"strings"
	"testing"
	"time"

	"districtrisk/adapters/excel"
	"districtrisk/domain/core"
	"districtrisk/domain/observation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `state,district,date,biometric_to_enrolment_ratio,child_update_pressure,elderly_update_pressure,service_stress_risk
Kerala,Idukki,2025-03-02,2.1,0.004,0.002,0.012
Kerala,Idukki,2025-03-01,1.9,0.003,0.002,0.010
Kerala,Wayanad,2025-03-01,4.0,0.010,0.006,
Bihar,Patna,2025-03-01,9.5,0.020,0.011,0.045
Bihar,Gaya,not-a-date,1.0,0.001,0.001,0.005
Bihar,Gaya,2025-03-01,abc,0.001,0.001,0.005
Bihar,Gaya,2025-03-01,-1,0.001,0.001,0.005
,Gaya,2025-03-01,1.0,0.001,0.001,0.005
Kerala,Idukki,2025-03-01,1.0,0.001,0.001,0.099
Bihar,Gaya,2025-03-02,NA,0.001,0.001,0.007
`

type tableSource struct {
	csv string
}

func (s tableSource) ReadTable(ctx context.Context) (*observation.RawTable, error) {
	return excel.ReadCSV(strings.NewReader(s.csv))
}

func (s tableSource) Describe() string { return "inline csv" }

func date(s string) time.Time {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func loadSample(t *testing.T) (*Index, *LoadReport) {
	t.Helper()
	idx, report, err := Load(context.Background(), tableSource{csv: sampleCSV})
	require.NoError(t, err)
	return idx, report
}

func TestLoad_RejectsMalformedRows(t *testing.T) {
	idx, report := loadSample(t)

	assert.Equal(t, 10, report.TotalRows)
	assert.Equal(t, 5, report.Accepted)
	require.Len(t, report.Rejected, 5)
	assert.Equal(t, 5, report.Rejected[0].Row)
	assert.Contains(t, report.Rejected[0].Reason, "unparseable date")
	assert.Contains(t, report.Rejected[1].Reason, "non-numeric")
	assert.Contains(t, report.Rejected[2].Reason, "negative")
	assert.Contains(t, report.Rejected[3].Reason, "empty state")
	assert.Contains(t, report.Rejected[4].Reason, "duplicate key")
	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, "inline csv", idx.Source())

	obs, err := idx.Get("Kerala", "Idukki", date("2025-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 0.010, obs.ServiceStressRisk.Value, "first occurrence of a duplicate key wins")

	gaya, err := idx.Get("Bihar", "Gaya", date("2025-03-02"))
	require.NoError(t, err)
	assert.False(t, gaya.BiometricToEnrolmentRatio.Valid, "NA is missing, not malformed")
}

func TestLoad_FailsWithoutValidRows(t *testing.T) {
	_, _, err := Load(context.Background(), tableSource{csv: "state,district,date\n,,\n"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataLoad)

	_, _, err = Load(context.Background(), tableSource{csv: "state,district\nA,B\n"})
	assert.ErrorIs(t, err, core.ErrDataLoad, "missing date column")

	_, _, err = Load(context.Background(), tableSource{csv: "state,district,date\n"})
	assert.ErrorIs(t, err, core.ErrDataLoad, "header only")
}

func TestIndex_StatesDistrictsDates(t *testing.T) {
	idx, _ := loadSample(t)

	assert.Equal(t, []string{"Bihar", "Kerala"}, idx.States())

	districts, err := idx.Districts("Kerala")
	require.NoError(t, err)
	assert.Equal(t, []string{"Idukki", "Wayanad"}, districts)

	_, err = idx.Districts("Goa")
	assert.ErrorIs(t, err, core.ErrNotFound)

	dates, err := idx.Dates("Kerala", "Idukki")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date("2025-03-01"), date("2025-03-02")}, dates)

	_, err = idx.Dates("Kerala", "Patna")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestIndex_Filter(t *testing.T) {
	idx, _ := loadSample(t)

	all, err := idx.Filter(Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	kerala, err := idx.Filter(Filter{State: "Kerala"})
	require.NoError(t, err)
	assert.Len(t, kerala, 3)

	d := date("2025-03-01")
	onDate, err := idx.Filter(Filter{Date: &d})
	require.NoError(t, err)
	assert.Len(t, onDate, 3)

	byDistrict, err := idx.Filter(Filter{District: "Idukki"})
	require.NoError(t, err)
	assert.Len(t, byDistrict, 2)

	none := date("2030-01-01")
	empty, err := idx.Filter(Filter{State: "Kerala", Date: &none})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = idx.Filter(Filter{State: "Goa"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = idx.Filter(Filter{District: "Nowhere"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Both names are indexed, but Patna lies in Bihar.
	crossed, err := idx.Filter(Filter{State: "Kerala", District: "Patna"})
	require.NoError(t, err)
	assert.NotNil(t, crossed)
	assert.Empty(t, crossed)

	_, err = idx.History("Kerala", "Patna")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNewIndex_RejectsDuplicates(t *testing.T) {
	obs := observation.Observation{State: "A", District: "X", Date: date("2025-01-01")}
	_, err := NewIndex([]observation.Observation{obs, obs})
	assert.Error(t, err)
}

func TestStore_ReloadSwapsAtomically(t *testing.T) {
	src := &switchingSource{csvs: []string{
		"state,district,date,service_stress_risk\nA,X,2025-01-01,0.1\n",
		"state,district,date,service_stress_risk\nA,X,2025-01-01,0.1\nA,Y,2025-01-01,0.2\n",
		"state,district,date\n",
	}}

	store, _, err := Open(context.Background(), src)
	require.NoError(t, err)
	before := store.Current()
	assert.Equal(t, 1, before.Len())

	report, err := store.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 2, store.Current().Len())
	assert.Equal(t, 1, before.Len(), "readers holding the old index are unaffected")

	_, err = store.Reload(context.Background())
	assert.ErrorIs(t, err, core.ErrDataLoad)
	assert.Equal(t, 2, store.Current().Len(), "failed reload keeps the previous index")
}

func TestStore_ReloadWithoutSource(t *testing.T) {
	idx, _ := loadSample(t)
	_, err := NewStore(idx, nil).Reload(context.Background())
	assert.ErrorIs(t, err, core.ErrDataLoad)
}

type switchingSource struct {
	csvs []string
	next int
}

func (s *switchingSource) ReadTable(ctx context.Context) (*observation.RawTable, error) {
	csv := s.csvs[s.next]
	if s.next < len(s.csvs)-1 {
		s.next++
	}
	return excel.ReadCSV(strings.NewReader(csv))
}

func (s *switchingSource) Describe() string { return "switching" }
