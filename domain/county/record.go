// Package county provides the domain model for county food-environment
// records: the joined source rows, the deterministic textual profiles built
// from them, and the retrievable chunks derived from both.
package county

import "strconv"

// Field holds one numeric or categorical attribute of a county record.
// The value keeps its source (CSV) string form so profile rendering is
// byte-stable, and absence is modelled explicitly rather than as an empty
// string.
type Field struct {
	value   string
	present bool
}

// NewField creates a present Field with the given source value.
func NewField(value string) Field {
	return Field{value: value, present: true}
}

// AbsentField returns a Field with no value.
func AbsentField() Field {
	return Field{}
}

// Value returns the source value, or the empty string when absent.
func (f Field) Value() string { return f.value }

// Present reports whether the field carries a value.
func (f Field) Present() bool { return f.present }

// OrNA returns the source value, or the literal "N/A" placeholder when
// absent. Profiles keep their fixed section structure regardless of missing
// data.
func (f Field) OrNA() string {
	if !f.present {
		return "N/A"
	}
	return f.value
}

// RiskAnnotation is the optional composite-risk annotation merged in from
// the worst-cluster dataset. Counties absent from that dataset carry no
// annotation.
type RiskAnnotation struct {
	score   float64
	cluster int
}

// NewRiskAnnotation creates a RiskAnnotation.
func NewRiskAnnotation(score float64, cluster int) RiskAnnotation {
	return RiskAnnotation{score: score, cluster: cluster}
}

// Score returns the composite health risk score.
func (r RiskAnnotation) Score() float64 { return r.score }

// Cluster returns the risk cluster id.
func (r RiskAnnotation) Cluster() int { return r.cluster }

// formatScore renders the score without trailing float noise ("8.2", not
// "8.200000").
func (r RiskAnnotation) formatScore() string {
	return strconv.FormatFloat(r.score, 'g', -1, 64)
}

// Record is one joined row of county data: identifiers, the fixed set of
// food-environment attributes, optional free-text context, and the optional
// risk annotation. The field set is stable and known in advance, so it is a
// fixed-field struct rather than an open-ended mapping.
type Record struct {
	County string
	State  string

	Population   Field
	PovertyRate  Field
	MedianIncome Field

	ObesityRate  Field
	DiabetesRate Field

	GroceryStores   Field
	FarmersMarkets  Field
	FoodInsecurity  Field
	LowAccessShare  Field
	FastFoodDensity Field

	GymDensity Field

	Description     string
	RuleDescription string

	Risk *RiskAnnotation
}

// HighRisk reports whether the record carries a risk annotation.
func (r Record) HighRisk() bool {
	return r.Risk != nil
}
