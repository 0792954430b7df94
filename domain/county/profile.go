package county

import (
	"fmt"
	"strings"
)

// Profile renders the record into its narrative text form. The output is a
// pure function of the record: the same record always produces the same
// bytes, so embeddings computed from it are reproducible.
//
// High-risk counties open with an alert line directly after the header. The
// environmental and policy context lines appear only when their source text
// is non-empty; all other sections are always present, with "N/A" standing
// in for missing values.
func (r Record) Profile() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Comprehensive Profile for %s, %s:\n", r.County, r.State)

	if r.Risk != nil {
		fmt.Fprintf(&b, "!!! ALERT: This county is identified as a Highest Composite Health Risk area (Cluster %d).\n", r.Risk.Cluster())
		fmt.Fprintf(&b, "- Composite Health Risk Score: %s.\n", r.Risk.formatScore())
	}

	fmt.Fprintf(&b, "- Demographics: Population: %s, Poverty Rate: %s%%, Median Income: $%s.\n",
		r.Population.OrNA(), r.PovertyRate.OrNA(), r.MedianIncome.OrNA())
	fmt.Fprintf(&b, "- Health Outcomes: Adult Obesity Rate: %s%%, Adult Diabetes Rate: %s%%.\n",
		r.ObesityRate.OrNA(), r.DiabetesRate.OrNA())
	fmt.Fprintf(&b, "- Food Environment: %s grocery stores per 1k residents, %s farmers markets. Fast food density: %s/1k residents.\n",
		r.GroceryStores.OrNA(), r.FarmersMarkets.OrNA(), r.FastFoodDensity.OrNA())
	fmt.Fprintf(&b, "- Food Security: Food insecurity: %s%%. %s%% of pop. has low food access.\n",
		r.FoodInsecurity.OrNA(), r.LowAccessShare.OrNA())
	fmt.Fprintf(&b, "- Physical Activity: Gym density: %s/1k residents.\n", r.GymDensity.OrNA())

	if r.Description != "" {
		fmt.Fprintf(&b, "- Environmental Context: %s\n", r.Description)
	}
	if r.RuleDescription != "" {
		fmt.Fprintf(&b, "- Policy Context: %s\n", r.RuleDescription)
	}

	return b.String()
}
