package county_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodscope/foodscope/domain/county"
)

func fullRecord() county.Record {
	return county.Record{
		County:          "Holmes",
		State:           "MS",
		Population:      county.NewField("17955"),
		PovertyRate:     county.NewField("44.1"),
		MedianIncome:    county.NewField("23861"),
		ObesityRate:     county.NewField("46.3"),
		DiabetesRate:    county.NewField("17.9"),
		GroceryStores:   county.NewField("0.22"),
		FarmersMarkets:  county.NewField("1"),
		FoodInsecurity:  county.NewField("26.1"),
		LowAccessShare:  county.NewField("38.4"),
		FastFoodDensity: county.NewField("0.45"),
		GymDensity:      county.NewField("0.0"),
	}
}

func TestProfileFullRecord(t *testing.T) {
	got := fullRecord().Profile()

	want := "Comprehensive Profile for Holmes, MS:\n" +
		"- Demographics: Population: 17955, Poverty Rate: 44.1%, Median Income: $23861.\n" +
		"- Health Outcomes: Adult Obesity Rate: 46.3%, Adult Diabetes Rate: 17.9%.\n" +
		"- Food Environment: 0.22 grocery stores per 1k residents, 1 farmers markets. Fast food density: 0.45/1k residents.\n" +
		"- Food Security: Food insecurity: 26.1%. 38.4% of pop. has low food access.\n" +
		"- Physical Activity: Gym density: 0.0/1k residents.\n"
	require.Equal(t, want, got)
}

func TestProfileHighRiskAlert(t *testing.T) {
	rec := fullRecord()
	risk := county.NewRiskAnnotation(8.2, 1)
	rec.Risk = &risk

	got := rec.Profile()

	lines := strings.Split(got, "\n")
	require.Greater(t, len(lines), 2)
	assert.Equal(t, "Comprehensive Profile for Holmes, MS:", lines[0])
	assert.Equal(t, "!!! ALERT: This county is identified as a Highest Composite Health Risk area (Cluster 1).", lines[1])
	assert.Equal(t, "- Composite Health Risk Score: 8.2.", lines[2])
}

func TestProfileNoRiskNoAlert(t *testing.T) {
	got := fullRecord().Profile()
	assert.NotContains(t, got, "ALERT")
	assert.NotContains(t, got, "Composite Health Risk Score")
}

func TestProfileMissingValuesRenderNA(t *testing.T) {
	rec := county.Record{County: "Loving", State: "TX"}
	got := rec.Profile()

	assert.Contains(t, got, "Population: N/A, Poverty Rate: N/A%, Median Income: $N/A.")
	assert.Contains(t, got, "Adult Obesity Rate: N/A%, Adult Diabetes Rate: N/A%.")
	assert.Contains(t, got, "Gym density: N/A/1k residents.")
}

func TestProfileOptionalContextSections(t *testing.T) {
	rec := fullRecord()
	assert.NotContains(t, rec.Profile(), "Environmental Context")
	assert.NotContains(t, rec.Profile(), "Policy Context")

	rec.Description = "Delta flood plain."
	rec.RuleDescription = "SNAP retailer incentive zone."
	got := rec.Profile()
	assert.Contains(t, got, "- Environmental Context: Delta flood plain.\n")
	assert.Contains(t, got, "- Policy Context: SNAP retailer incentive zone.\n")
}

func TestProfileDeterministic(t *testing.T) {
	rec := fullRecord()
	risk := county.NewRiskAnnotation(7.5, 1)
	rec.Risk = &risk

	first := rec.Profile()
	for i := 0; i < 5; i++ {
		require.Equal(t, first, rec.Profile())
	}
}
