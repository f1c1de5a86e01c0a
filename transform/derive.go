package transform

import (
	"math"
	"strings"

	c "github.com/relloyd/retail-etl/constants"
	"github.com/relloyd/retail-etl/failure"
	"github.com/relloyd/retail-etl/table"
	"github.com/spf13/cast"
)

// DeriveMetrics adds discount, sale_price and profit to a copy of t and then drops the raw
// price columns they replace:
//
//	discount   = list_price * discount_percent * 0.01
//	sale_price = list_price - discount
//	profit     = sale_price - cost_price
//
// discount_percent is a percentage, so 20 means 20%.
// An absent input gives an absent result for that row only.
func DeriveMetrics(t *table.Table) (Result, error) {
	if err := ValidateRequiredColumns(t, c.RequiredRawColumns); err != nil {
		return Result{}, err
	}
	out := t.Clone()
	for _, col := range c.RequiredRawColumns { // coerce raw inputs to float64 or nil...
		for i := 0; i < out.Len(); i++ {
			r := out.Row(i)
			v, err := toNumber(r.GetData(col))
			if err != nil {
				return Result{}, failure.New(failure.InvalidValue, StageDerive, "row %v column %q: value %q is not numeric", i+1, col, r.GetData(col))
			}
			r.SetData(col, v)
		}
	}
	out.SetColumn(c.ColumnDiscount, func(r table.Record) interface{} {
		lp, dp := r.GetData(c.ColumnListPrice), r.GetData(c.ColumnDiscountPercent)
		if lp == nil || dp == nil {
			return nil
		}
		return lp.(float64) * dp.(float64) * 0.01
	})
	out.SetColumn(c.ColumnSalePrice, func(r table.Record) interface{} {
		lp, d := r.GetData(c.ColumnListPrice), r.GetData(c.ColumnDiscount)
		if lp == nil || d == nil {
			return nil
		}
		return lp.(float64) - d.(float64)
	})
	out.SetColumn(c.ColumnProfit, func(r table.Record) interface{} {
		sp, cp := r.GetData(c.ColumnSalePrice), r.GetData(c.ColumnCostPrice)
		if sp == nil || cp == nil {
			return nil
		}
		return sp.(float64) - cp.(float64)
	})
	events := []Event{
		newEvent(StageDerive, LevelInfo, map[string]interface{}{
			"rows":         out.Len(),
			"absentProfit": out.NullCount(c.ColumnProfit),
		}, "derived %v, %v and %v", c.ColumnDiscount, c.ColumnSalePrice, c.ColumnProfit),
	}
	dropped := out.DropColumns(c.ColumnListPrice, c.ColumnCostPrice, c.ColumnDiscountPercent)
	if len(dropped) > 0 {
		events = append(events, newEvent(StageDerive, LevelInfo, nil, "dropped raw columns: %v", strings.Join(dropped, ", ")))
	}
	return Result{Table: out, Events: events}, nil
}

// toNumber converts a raw value to float64; nil and NaN are absent.
func toNumber(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) {
		return nil, nil
	}
	return f, nil
}
