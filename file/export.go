package file

import (
	"github.com/pkg/errors"
	"github.com/relloyd/retail-etl/helper"
	"github.com/relloyd/retail-etl/logger"
	"github.com/relloyd/retail-etl/table"
)

// DateLayout is used for time values written to CSV.
const DateLayout = "2006-01-02"

// ExportConfig controls ExportTable.
type ExportConfig struct {
	Directory   string
	Prefix      string
	UseGzip     bool
	MaxFileRows int
}

// ExportTable writes t to one or more CSV files with a header row and returns the file names.
// Absent values are written as empty strings.
func ExportTable(log logger.Logger, cfg ExportConfig, t *table.Table) (files []string, err error) {
	out, err := NewCSVFileOutput(log, cfg.Directory, cfg.Prefix, "csv", cfg.MaxFileRows, cfg.UseGzip)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err == nil {
			files = out.ListOfOutputFiles
		}
	}()
	cols := t.Columns()
	out.SetHeader(cols)
	if t.Len() == 0 { // write the header alone so an empty result still produces a file.
		if err = out.writeHeaderOnly(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	rec := make([]string, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, v := range t.Values(i) {
			rec[j], err = helper.GetStringFromInterface(v, DateLayout)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %q", i+1, cols[j])
			}
		}
		if _, err = out.WriteToCSV(rec); err != nil {
			return nil, err
		}
	}
	log.Debug("exported ", out.RowCount(), " rows to ", len(out.ListOfOutputFiles), " CSV file(s)")
	return nil, nil
}

func (f *CSVFileOutput) writeHeaderOnly() error {
	if err := f.createNewCSVWriter(); err != nil {
		return err
	}
	if err := f.csvWriter.Write(f.headerRecord); err != nil {
		return errors.Wrapf(err, "unable to write header to CSV file %q", f.currentName)
	}
	return nil
}
