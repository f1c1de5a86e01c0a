package source

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/retail-etl/failure"
	"github.com/relloyd/retail-etl/table"
)

const utf8Bom = "\ufeff"

type columnType int

const (
	columnTypeInt columnType = iota
	columnTypeFloat
	columnTypeString
)

// ReadCSV loads the whole file at path into a table.
// Cells whose trimmed text equals one of nullTokens become absent (nil).
// Each column is typed by its present values: all integers gives int64, all numbers gives
// float64, anything else stays as the raw string.
func ReadCSV(path string, nullTokens []string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, failure.Wrap(failure.Acquisition, stageRead, errors.Wrapf(ErrFileNotFound, "%q", path), "error reading dataset")
		}
		return nil, failure.Wrap(failure.Acquisition, stageRead, err, "error reading dataset")
	}
	defer f.Close()
	return readCSV(f, path, nullTokens)
}

func readCSV(in io.Reader, name string, nullTokens []string) (*table.Table, error) {
	malformed := func(err error) error {
		return failure.Wrap(failure.Acquisition, stageRead, errors.Wrapf(ErrMalformedFile, "%q: %v", name, err), "error reading dataset")
	}
	r := csv.NewReader(in)
	header, err := r.Read()
	if err == io.EOF {
		return nil, malformed(errors.New("no header row"))
	} else if err != nil {
		return nil, malformed(err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8Bom)
	t, err := table.NewTable(header)
	if err != nil {
		return nil, failure.Wrap(failure.Schema, stageRead, err, "error reading dataset header")
	}
	nulls := make(map[string]struct{}, len(nullTokens))
	for _, tok := range nullTokens {
		nulls[strings.TrimSpace(tok)] = struct{}{}
	}
	var rows [][]interface{}
	types := make([]columnType, len(header)) // columnTypeInt until proven otherwise.
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, malformed(err)
		}
		row := make([]interface{}, len(rec))
		for i, cell := range rec {
			trimmed := strings.TrimSpace(cell)
			if _, isNull := nulls[trimmed]; isNull {
				continue // leave nil
			}
			row[i] = cell
			types[i] = widen(types[i], trimmed)
		}
		rows = append(rows, row)
	}
	for _, row := range rows {
		for i, v := range row {
			if v == nil {
				continue
			}
			row[i] = convert(types[i], v.(string))
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, malformed(err)
		}
	}
	return t, nil
}

// widen returns the narrowest type that holds both the current column type and s.
func widen(current columnType, s string) columnType {
	switch current {
	case columnTypeInt:
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return columnTypeInt
		}
		fallthrough
	case columnTypeFloat:
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return columnTypeFloat
		}
	}
	return columnTypeString
}

func convert(t columnType, s string) interface{} {
	switch t {
	case columnTypeInt:
		i, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return i
	case columnTypeFloat:
		f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f
	default:
		return s
	}
}
