package transform

import (
	"math"
	"strings"
	"time"

	c "github.com/relloyd/retail-etl/constants"
	"github.com/relloyd/retail-etl/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var hundred = decimal.NewFromInt(100)

// Summary describes the finished table.
type Summary struct {
	Rows          int
	Columns       []string
	MinDate       time.Time
	MaxDate       time.Time
	HasDates      bool
	TotalSale     decimal.Decimal
	TotalProfit   decimal.Decimal
	MarginPct     decimal.Decimal // TotalProfit / TotalSale * 100
	MarginDefined bool            // false when TotalSale is zero
}

// Summarise totals sale_price and profit and finds the date range of dateColumn.
// Absent values are skipped.
func Summarise(t *table.Table, dateColumn string) (Summary, []Event) {
	s := Summary{Rows: t.Len(), Columns: t.Columns(), TotalSale: decimal.Zero, TotalProfit: decimal.Zero}
	for i := 0; i < t.Len(); i++ {
		if d, ok := t.Value(i, dateColumn).(time.Time); ok {
			if !s.HasDates || d.Before(s.MinDate) {
				s.MinDate = d
			}
			if !s.HasDates || d.After(s.MaxDate) {
				s.MaxDate = d
			}
			s.HasDates = true
		}
		s.TotalSale = s.TotalSale.Add(toDecimal(t.Value(i, c.ColumnSalePrice)))
		s.TotalProfit = s.TotalProfit.Add(toDecimal(t.Value(i, c.ColumnProfit)))
	}
	var events []Event
	if !s.TotalSale.IsZero() {
		s.MarginPct = s.TotalProfit.Div(s.TotalSale).Mul(hundred)
		s.MarginDefined = true
	}
	events = append(events,
		newEvent(StageSummary, LevelInfo, map[string]interface{}{"rows": s.Rows}, "rows: %v", s.Rows),
		newEvent(StageSummary, LevelInfo, nil, "columns: %v", strings.Join(s.Columns, ", ")),
	)
	if s.HasDates {
		events = append(events, newEvent(StageSummary, LevelInfo, nil, "date range: %v to %v",
			s.MinDate.Format(c.DefaultDateLayout), s.MaxDate.Format(c.DefaultDateLayout)))
	} else {
		events = append(events, newEvent(StageSummary, LevelWarn, nil, "date range: no dates found in %v", dateColumn))
	}
	events = append(events,
		newEvent(StageSummary, LevelInfo, nil, "total sales: %v", s.TotalSale.StringFixed(2)),
		newEvent(StageSummary, LevelInfo, nil, "total profit: %v", s.TotalProfit.StringFixed(2)),
	)
	if s.MarginDefined {
		events = append(events, newEvent(StageSummary, LevelInfo, nil, "profit margin: %v%%", s.MarginPct.StringFixed(1)))
	} else {
		events = append(events, newEvent(StageSummary, LevelWarn, nil, "profit margin: undefined as total sales are zero"))
	}
	return s, events
}

func toDecimal(v interface{}) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
