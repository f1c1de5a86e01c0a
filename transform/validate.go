package transform

import (
	"fmt"
	"strings"

	"github.com/relloyd/retail-etl/failure"
	"github.com/relloyd/retail-etl/table"
	"github.com/spf13/cast"
)

// MissingColumnsError names every required column that was absent.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %v", strings.Join(e.Columns, ", "))
}

// ValidateRequiredColumns returns a Schema failure wrapping *MissingColumnsError if any of
// required is not a column of t. Missing columns are listed in the order they were required.
func ValidateRequiredColumns(t *table.Table, required []string) error {
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &failure.Error{Kind: failure.Schema, Stage: StageValidate, Err: &MissingColumnsError{Columns: missing}}
	}
	return nil
}

// QualityReport counts derived values that look wrong but are kept.
type QualityReport struct {
	Rows              int
	NegativeSalePrice int
	NegativeProfit    int
	NegativeProfitPct float64 // percentage of all rows
}

// CheckQuality counts rows with a negative sale price or profit.
// It never fails and never changes t; anomalies are reported as warnings.
func CheckQuality(t *table.Table, salePriceColumn string, profitColumn string) (QualityReport, []Event) {
	rep := QualityReport{Rows: t.Len()}
	for i := 0; i < t.Len(); i++ {
		if isNegative(t.Value(i, salePriceColumn)) {
			rep.NegativeSalePrice++
		}
		if isNegative(t.Value(i, profitColumn)) {
			rep.NegativeProfit++
		}
	}
	if rep.Rows > 0 {
		rep.NegativeProfitPct = float64(rep.NegativeProfit) / float64(rep.Rows) * 100
	}
	var events []Event
	if rep.NegativeSalePrice > 0 {
		events = append(events, newEvent(StageQuality, LevelWarn,
			map[string]interface{}{"column": salePriceColumn, "count": rep.NegativeSalePrice},
			"%v rows have a negative %v", rep.NegativeSalePrice, salePriceColumn))
	}
	if rep.NegativeProfit > 0 {
		events = append(events, newEvent(StageQuality, LevelWarn,
			map[string]interface{}{"column": profitColumn, "count": rep.NegativeProfit, "percent": rep.NegativeProfitPct},
			"%v rows have a negative %v (%.1f%% of rows)", rep.NegativeProfit, profitColumn, rep.NegativeProfitPct))
	}
	if len(events) == 0 {
		events = append(events, newEvent(StageQuality, LevelDebug, nil, "no negative %v or %v values found", salePriceColumn, profitColumn))
	}
	return rep, events
}

func isNegative(v interface{}) bool {
	if v == nil {
		return false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return false
	}
	return f < 0
}
