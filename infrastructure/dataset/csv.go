// Package dataset loads the county source files and joins them into domain
// records. The primary file carries one row per county; the risk file is an
// optional annotation set joined in by county and state.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/foodscope/foodscope/domain/county"
)

// ErrMissingColumn indicates a source file lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Column names of the primary county file.
const (
	colCounty          = "County"
	colState           = "State"
	colPopulation      = "Population"
	colPovertyRate     = "Poverty_Rate"
	colMedianIncome    = "Median_Income"
	colObesityRate     = "Adult_Obesity_Rate13"
	colDiabetesRate    = "Adult_Diabetes_Rate13"
	colGroceryStores   = "Grocery_Stores_Per1000"
	colFarmersMarkets  = "Farmers_Markets_Count_16"
	colFoodInsecurity  = "FOODINSEC_13_15"
	colLowAccessShare  = "PCT_LACCESS_POP15"
	colFastFoodDensity = "FFRPTH14"
	colGymDensity      = "GYMs_Per_1000_Count_14"
	colDescription     = "Description"
	colRuleDescription = "Rule_Description"
)

// Column names of the risk annotation file.
const (
	colCompositeRisk = "composite_risk"
	colCluster       = "Cluster"
)

type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	h := make(header, len(row))
	for i, name := range row {
		h[strings.TrimSpace(name)] = i
	}
	return h, nil
}

// cell returns the trimmed value of the named column, or absence when the
// column is missing, the row is short, or the value is empty.
func (h header) cell(row []string, name string) county.Field {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return county.AbsentField()
	}
	v := strings.TrimSpace(row[i])
	if v == "" {
		return county.AbsentField()
	}
	return county.NewField(v)
}

func (h header) require(names ...string) error {
	var errs []error
	for _, name := range names {
		if _, ok := h[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingColumn, name))
		}
	}
	return errors.Join(errs...)
}

type joinKey struct {
	county string
	state  string
}

func rowKey(h header, row []string) joinKey {
	return joinKey{
		county: h.cell(row, colCounty).Value(),
		state:  h.cell(row, colState).Value(),
	}
}

// LoadRecords reads the primary county file and the risk annotation file and
// returns records in primary-file order. Counties without a risk row get no
// annotation; when the risk file holds duplicate keys, the last row wins. An
// absent risk file is an empty annotation set, not an error.
func LoadRecords(primaryPath, riskPath string) ([]county.Record, error) {
	risks, err := loadRisks(riskPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("risk file not found, building without risk annotations",
			slog.String("path", riskPath))
		risks = nil
	case err != nil:
		return nil, fmt.Errorf("failed to load risk file %s: %w", riskPath, err)
	}

	f, err := os.Open(primaryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open county file: %w", err)
	}
	defer f.Close()

	records, err := parseRecords(f, risks)
	if err != nil {
		return nil, fmt.Errorf("failed to parse county file %s: %w", primaryPath, err)
	}
	return records, nil
}

func parseRecords(src io.Reader, risks map[joinKey]county.RiskAnnotation) ([]county.Record, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if err := h.require(colCounty, colState); err != nil {
		return nil, err
	}

	var records []county.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		rec := county.Record{
			County:          h.cell(row, colCounty).Value(),
			State:           h.cell(row, colState).Value(),
			Population:      h.cell(row, colPopulation),
			PovertyRate:     h.cell(row, colPovertyRate),
			MedianIncome:    h.cell(row, colMedianIncome),
			ObesityRate:     h.cell(row, colObesityRate),
			DiabetesRate:    h.cell(row, colDiabetesRate),
			GroceryStores:   h.cell(row, colGroceryStores),
			FarmersMarkets:  h.cell(row, colFarmersMarkets),
			FoodInsecurity:  h.cell(row, colFoodInsecurity),
			LowAccessShare:  h.cell(row, colLowAccessShare),
			FastFoodDensity: h.cell(row, colFastFoodDensity),
			GymDensity:      h.cell(row, colGymDensity),
			Description:     h.cell(row, colDescription).Value(),
			RuleDescription: h.cell(row, colRuleDescription).Value(),
		}

		if risk, ok := risks[rowKey(h, row)]; ok {
			annotation := risk
			rec.Risk = &annotation
		}
		records = append(records, rec)
	}
	return records, nil
}

func loadRisks(path string) (map[joinKey]county.RiskAnnotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open risk file: %w", err)
	}
	defer f.Close()

	return parseRisks(f)
}

func parseRisks(src io.Reader) (map[joinKey]county.RiskAnnotation, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if err := h.require(colCounty, colState, colCompositeRisk, colCluster); err != nil {
		return nil, err
	}

	risks := make(map[joinKey]county.RiskAnnotation)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		score, err := strconv.ParseFloat(h.cell(row, colCompositeRisk).Value(), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid composite risk score: %w", err)
		}
		cluster, err := strconv.Atoi(h.cell(row, colCluster).Value())
		if err != nil {
			return nil, fmt.Errorf("invalid risk cluster: %w", err)
		}

		risks[rowKey(h, row)] = county.NewRiskAnnotation(score, cluster)
	}
	return risks, nil
}
