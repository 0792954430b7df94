package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const primaryCSV = `County,State,Population,Poverty_Rate,Median_Income,Adult_Obesity_Rate13,Adult_Diabetes_Rate13,Grocery_Stores_Per1000,Farmers_Markets_Count_16,FOODINSEC_13_15,PCT_LACCESS_POP15,FFRPTH14,GYMs_Per_1000_Count_14,Description,Rule_Description
Holmes,MS,17955,44.1,23861,46.3,17.9,0.22,1,26.1,38.4,0.45,0.0,Delta flood plain.,
Loving,TX,82,,,,,,,,,,,,
Sioux,ND,4366,32.4,31500,39.1,14.2,0.18,0,21.0,55.2,0.12,0.0,,Tribal food sovereignty program.
`

const riskCSV = `County,State,composite_risk,Cluster
Holmes,MS,8.2,1
Nowhere,ZZ,5.0,2
`

func writeFiles(t *testing.T, primary, risk string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "counties.csv")
	r := filepath.Join(dir, "risk.csv")
	require.NoError(t, os.WriteFile(p, []byte(primary), 0o600))
	require.NoError(t, os.WriteFile(r, []byte(risk), 0o600))
	return p, r
}

func TestLoadRecordsJoinsRisk(t *testing.T) {
	p, r := writeFiles(t, primaryCSV, riskCSV)

	records, err := LoadRecords(p, r)
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.NotNil(t, records[0].Risk)
	assert.Equal(t, 8.2, records[0].Risk.Score())
	assert.Equal(t, 1, records[0].Risk.Cluster())

	assert.Nil(t, records[1].Risk)
	assert.Nil(t, records[2].Risk)
}

func TestLoadRecordsPreservesOrder(t *testing.T) {
	p, r := writeFiles(t, primaryCSV, riskCSV)

	records, err := LoadRecords(p, r)
	require.NoError(t, err)

	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.County)
	}
	assert.Equal(t, []string{"Holmes", "Loving", "Sioux"}, names)
}

func TestLoadRecordsMissingValues(t *testing.T) {
	p, r := writeFiles(t, primaryCSV, riskCSV)

	records, err := LoadRecords(p, r)
	require.NoError(t, err)

	loving := records[1]
	assert.True(t, loving.Population.Present())
	assert.False(t, loving.PovertyRate.Present())
	assert.Equal(t, "N/A", loving.PovertyRate.OrNA())
	assert.Empty(t, loving.Description)
}

func TestParseRisksLastDuplicateWins(t *testing.T) {
	dup := riskCSV + "Holmes,MS,9.9,3\n"
	risks, err := parseRisks(strings.NewReader(dup))
	require.NoError(t, err)

	risk, ok := risks[joinKey{county: "Holmes", state: "MS"}]
	require.True(t, ok)
	assert.Equal(t, 9.9, risk.Score())
	assert.Equal(t, 3, risk.Cluster())
}

func TestLoadRecordsAbsentRiskFile(t *testing.T) {
	p, _ := writeFiles(t, primaryCSV, riskCSV)

	records, err := LoadRecords(p, filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Nil(t, rec.Risk)
	}
}

func TestLoadRecordsMissingRequiredColumn(t *testing.T) {
	p, r := writeFiles(t, "Name,Value\nfoo,1\n", riskCSV)

	_, err := LoadRecords(p, r)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadRecordsInvalidRiskScore(t *testing.T) {
	p, r := writeFiles(t, primaryCSV, "County,State,composite_risk,Cluster\nHolmes,MS,high,1\n")

	_, err := LoadRecords(p, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid composite risk score")
}
