package transform

import (
	"math"
	"testing"

	c "github.com/relloyd/retail-etl/constants"
	"github.com/relloyd/retail-etl/failure"
	"github.com/relloyd/retail-etl/logger"
	"github.com/relloyd/retail-etl/table"
)

const tolerance = 1e-9

func newRawPrices(t *testing.T, rows ...[]interface{}) *table.Table {
	tab := table.MustNewTable("order_id", c.ColumnListPrice, c.ColumnDiscountPercent, c.ColumnCostPrice)
	for _, r := range rows {
		if err := tab.AppendRow(r...); err != nil {
			t.Fatal(err)
		}
	}
	return tab
}

func assertFloat(t *testing.T, row int, col string, got interface{}, expected float64) {
	t.Helper()
	f, ok := got.(float64)
	if !ok {
		t.Fatalf("row %v %v: expected float64 %v; got %T %v", row, col, expected, got, got)
	}
	if math.Abs(f-expected) > tolerance {
		t.Fatalf("row %v %v: expected %v; got %v", row, col, expected, f)
	}
}

func TestDeriveMetrics(t *testing.T) {
	log := logger.NewLogger("retail-etl", "info", true)
	raw := newRawPrices(t,
		[]interface{}{int64(1), int64(100), int64(20), int64(50)},
		[]interface{}{int64(2), int64(100), int64(0), int64(150)},
		[]interface{}{int64(3), "260", "2", " 240 "},
		[]interface{}{int64(4), nil, int64(5), int64(10)},
		[]interface{}{int64(5), 80.0, 10.0, nil},
	)

	// Test 1
	log.Info("Test 1, confirm the worked examples")
	res, err := DeriveMetrics(raw)
	if err != nil {
		t.Fatal(err)
	}
	out := res.Table
	assertFloat(t, 0, c.ColumnDiscount, out.Value(0, c.ColumnDiscount), 20)
	assertFloat(t, 0, c.ColumnSalePrice, out.Value(0, c.ColumnSalePrice), 80)
	assertFloat(t, 0, c.ColumnProfit, out.Value(0, c.ColumnProfit), 30)
	assertFloat(t, 1, c.ColumnDiscount, out.Value(1, c.ColumnDiscount), 0)
	assertFloat(t, 1, c.ColumnSalePrice, out.Value(1, c.ColumnSalePrice), 100)
	assertFloat(t, 1, c.ColumnProfit, out.Value(1, c.ColumnProfit), -50)
	assertFloat(t, 2, c.ColumnSalePrice, out.Value(2, c.ColumnSalePrice), 254.8)
	assertFloat(t, 2, c.ColumnProfit, out.Value(2, c.ColumnProfit), 14.8)
	log.Info("Test 1, complete")

	// Test 2
	log.Info("Test 2, confirm absent inputs propagate to the derived fields of that row only")
	for _, col := range []string{c.ColumnDiscount, c.ColumnSalePrice, c.ColumnProfit} {
		if out.Value(3, col) != nil {
			t.Fatalf("row 3 %v: expected absent; got %v", col, out.Value(3, col))
		}
	}
	assertFloat(t, 4, c.ColumnSalePrice, out.Value(4, c.ColumnSalePrice), 72)
	if out.Value(4, c.ColumnProfit) != nil {
		t.Fatalf("row 4 profit: expected absent; got %v", out.Value(4, c.ColumnProfit))
	}
	log.Info("Test 2, complete")

	// Test 3
	log.Info("Test 3, confirm raw price columns are dropped and derived columns kept")
	for _, col := range c.RequiredRawColumns {
		if out.HasColumn(col) {
			t.Fatalf("column %v should have been dropped", col)
		}
	}
	for _, col := range []string{"order_id", c.ColumnDiscount, c.ColumnSalePrice, c.ColumnProfit} {
		if !out.HasColumn(col) {
			t.Fatalf("column %v is missing", col)
		}
	}
	if !raw.HasColumn(c.ColumnListPrice) {
		t.Fatal("input table was modified")
	}
	log.Info("Test 3, complete")
}

func TestDeriveMetricsIdentities(t *testing.T) {
	var rows [][]interface{}
	for i := 0; i < 50; i++ {
		rows = append(rows, []interface{}{int64(i), float64(10 + i*7), float64(i % 30), float64(5 + i*3)})
	}
	raw := newRawPrices(t, rows...)
	res, err := DeriveMetrics(raw)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < raw.Len(); i++ {
		lp := raw.Value(i, c.ColumnListPrice).(float64)
		cp := raw.Value(i, c.ColumnCostPrice).(float64)
		d := res.Table.Value(i, c.ColumnDiscount).(float64)
		sp := res.Table.Value(i, c.ColumnSalePrice).(float64)
		p := res.Table.Value(i, c.ColumnProfit).(float64)
		if math.Abs(sp-(lp-d)) > tolerance {
			t.Fatalf("row %v: sale_price %v != list_price %v - discount %v", i, sp, lp, d)
		}
		if math.Abs(p-(sp-cp)) > tolerance {
			t.Fatalf("row %v: profit %v != sale_price %v - cost_price %v", i, p, sp, cp)
		}
	}
}

func TestDeriveMetricsFailures(t *testing.T) {
	// Missing column.
	tab := table.MustNewTable(c.ColumnListPrice, c.ColumnCostPrice)
	if _, err := DeriveMetrics(tab); !failure.Is(err, failure.Schema) {
		t.Fatalf("expected schema failure; got %v", err)
	}
	// Text where a number is expected.
	raw := newRawPrices(t, []interface{}{int64(1), "abc", int64(1), int64(1)})
	if _, err := DeriveMetrics(raw); !failure.Is(err, failure.InvalidValue) {
		t.Fatalf("expected invalid value failure; got %v", err)
	}
}

func TestDeriveThenCheckQualityCountsLossMakingRow(t *testing.T) {
	raw := newRawPrices(t,
		[]interface{}{int64(1), int64(100), int64(20), int64(50)},
		[]interface{}{int64(2), int64(100), int64(0), int64(150)},
	)
	res, err := DeriveMetrics(raw)
	if err != nil {
		t.Fatal(err)
	}
	rep, _ := CheckQuality(res.Table, c.ColumnSalePrice, c.ColumnProfit)
	if rep.NegativeProfit != 1 || rep.NegativeSalePrice != 0 {
		t.Fatalf("expected 1 negative profit and 0 negative sale price; got %+v", rep)
	}
}
