package transform

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
	"github.com/relloyd/retail-etl/failure"
	"github.com/relloyd/retail-etl/table"
	"github.com/spf13/cast"
)

// Strategy is the way a date column was parsed.
type Strategy string

const (
	StrategyStrict   Strategy = "strict"
	StrategyInferred Strategy = "inferred"
)

// DateResult holds the table with the parsed date column and how it was parsed.
type DateResult struct {
	Result
	Strategy Strategy
	Layout   string // the layout applied to the whole column, empty if values were parsed one by one
}

// NormalizeDates replaces the string values of column with time.Time values in UTC.
// Every value is first parsed using layout. If any value fails, the whole column is parsed
// again with the format inferred from the data and a warning event is raised.
// If inference fails too the result is a DateParse failure. Absent values stay absent.
func NormalizeDates(t *table.Table, column string, layout string) (DateResult, error) {
	if !t.HasColumn(column) {
		return DateResult{}, &failure.Error{Kind: failure.Schema, Stage: StageDates, Err: &MissingColumnsError{Columns: []string{column}}}
	}
	raw, known, present, err := dateStrings(t, column)
	if err != nil {
		return DateResult{}, err
	}
	var events []Event
	parsed, strictErr := parseWithLayout(raw, known, layout)
	strategy, usedLayout := StrategyStrict, layout
	if strictErr != nil {
		events = append(events, newEvent(StageDates, LevelWarn, map[string]interface{}{"column": column, "layout": layout},
			"%v does not match layout %v (%v); inferring the date format instead", column, layout, strictErr))
		parsed, usedLayout, err = parseInferred(raw, known)
		if err != nil {
			return DateResult{}, failure.Wrap(failure.DateParse, StageDates, err, "unable to parse "+column)
		}
		strategy = StrategyInferred
	}
	out := t.Clone()
	for i := 0; i < out.Len(); i++ {
		if !present[i] {
			out.Row(i).SetData(column, nil)
		} else {
			out.Row(i).SetData(column, parsed[i])
		}
	}
	fields := map[string]interface{}{"column": column, "strategy": string(strategy)}
	if usedLayout != "" {
		fields["layout"] = usedLayout
	}
	events = append(events, newEvent(StageDates, LevelInfo, fields, "parsed %v using the %v strategy", column, strategy))
	return DateResult{Result: Result{Table: out, Events: events}, Strategy: strategy, Layout: usedLayout}, nil
}

// dateStrings returns the trimmed text of each value, any values that are already times,
// and which rows hold a value at all. Absent and blank values have empty text.
func dateStrings(t *table.Table, column string) (raw []string, known []time.Time, present []bool, err error) {
	raw = make([]string, t.Len())
	known = make([]time.Time, t.Len())
	present = make([]bool, t.Len())
	for i := 0; i < t.Len(); i++ {
		switch x := t.Value(i, column).(type) {
		case nil:
			continue
		case time.Time:
			known[i] = x.UTC()
			present[i] = true
		default:
			s, err := cast.ToStringE(x)
			if err != nil {
				return nil, nil, nil, failure.Wrap(failure.DateParse, StageDates, err, "unsupported value in date column")
			}
			raw[i] = strings.TrimSpace(s)
			present[i] = raw[i] != ""
		}
	}
	return raw, known, present, nil
}

func parseWithLayout(raw []string, known []time.Time, layout string) ([]time.Time, error) {
	retval := make([]time.Time, len(raw))
	copy(retval, known)
	for i, s := range raw {
		if s == "" {
			continue
		}
		d, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			return nil, errors.Errorf("row %v value %q", i+1, s)
		}
		retval[i] = d.UTC()
	}
	return retval, nil
}

// parseInferred takes the layout of the first present value and applies it to all values.
// If that layout does not fit every value, each value is parsed on its own.
func parseInferred(raw []string, known []time.Time) ([]time.Time, string, error) {
	first := ""
	for _, s := range raw {
		if s != "" {
			first = s
			break
		}
	}
	if first == "" { // nothing to parse.
		retval := make([]time.Time, len(raw))
		copy(retval, known)
		return retval, "", nil
	}
	if layout, err := dateparse.ParseFormat(first); err == nil {
		if parsed, err := parseWithLayout(raw, known, layout); err == nil {
			return parsed, layout, nil
		}
	}
	retval := make([]time.Time, len(raw))
	copy(retval, known)
	for i, s := range raw {
		if s == "" {
			continue
		}
		d, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return nil, "", errors.Wrapf(err, "row %v value %q", i+1, s)
		}
		retval[i] = d.UTC()
	}
	return retval, "", nil
}
