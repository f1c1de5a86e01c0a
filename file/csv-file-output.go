package file

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"regexp"

	"github.com/pkg/errors"
	"github.com/relloyd/retail-etl/logger"
)

var rexGzipExtension = regexp.MustCompile(`^(.*?)(\.*)(?i)(gzip|gz){0,}$`) // remove multiple leading '.' and trailing (case insensitive) "gz|gzip"

// CSVFileOutput is a Writer that outputs to an OS file that rotates after maxFileRows.
type CSVFileOutput struct {
	csvWriter         *csv.Writer
	log               logger.Logger
	directory         string
	prefix            string
	extension         string
	headerRecord      []string
	currentSuffixID   int
	currentName       string
	file              *os.File
	gzWriter          *gzip.Writer
	fWriter           *bufio.Writer
	useGzip           bool
	maxFileRows       int
	currentRowCount   int
	totalRowCount     int
	needNewCSVFile    bool
	needFileCleanup   bool
	needCSVCleanup    bool
	ListOfOutputFiles []string
}

// NewCSVFileOutput creates a new rotating CSV writer in outputDirectory, which is created if needed.
// Set maxFileRows to the number of rows you want in each file (excluding the header) or 0 for a single file.
// Setting useGzip compresses the output and makes the extension end with '.gz'.
func NewCSVFileOutput(log logger.Logger, outputDirectory string, fileNamePrefix string, fileNameExtension string, maxFileRows int, useGzip bool) (*CSVFileOutput, error) {
	if outputDirectory == "" {
		return nil, errors.New("missing output directory for CSV files")
	}
	if err := os.MkdirAll(outputDirectory, 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create CSV output directory %q", outputDirectory)
	}
	f := &CSVFileOutput{
		log:            log,
		directory:      outputDirectory,
		prefix:         fileNamePrefix,
		extension:      fileNameExtension,
		maxFileRows:    maxFileRows,
		useGzip:        useGzip,
		needNewCSVFile: true,
	}
	if useGzip {
		f.extension = rexGzipExtension.ReplaceAllString(f.extension, "$1.gz")
	}
	log.Debug("CSVFileOutput file prefix=", f.prefix, "; extension=", f.extension, "; maxFileRows=", f.maxFileRows, "; useGzip=", f.useGzip)
	return f, nil
}

// Write satisfies io.Writer so the csv.Writer can sit on top of the gzip stream or the OS file.
func (f *CSVFileOutput) Write(p []byte) (n int, err error) {
	if f.useGzip {
		return f.fWriter.Write(p)
	}
	return f.file.Write(p)
}

// SetHeader will store the supplied record for output at the top of each created CSV file.
func (f *CSVFileOutput) SetHeader(record []string) {
	f.headerRecord = record
}

// WriteToCSV writes record to the current CSV file.
// Return fileName if a new file is created else empty string "".
func (f *CSVFileOutput) WriteToCSV(record []string) (fileName string, err error) {
	if f.needNewCSVFile {
		if err = f.closeCSVFileAndReset(); err != nil {
			return "", err
		}
		if err = f.createNewCSVWriter(); err != nil {
			return "", err
		}
		fileName = f.currentName
		if f.headerRecord != nil {
			if err = f.csvWriter.Write(f.headerRecord); err != nil {
				return "", errors.Wrapf(err, "unable to write header to CSV file %q", f.currentName)
			}
		}
	}
	if err = f.csvWriter.Write(record); err != nil {
		return "", errors.Wrapf(err, "unable to write to CSV file %q", f.currentName)
	}
	f.currentRowCount++
	f.totalRowCount++
	if rotateCheck(f.maxFileRows, f.currentRowCount) {
		f.needNewCSVFile = true
	}
	return fileName, nil
}

// RowCount returns the number of records written across all files, excluding headers.
func (f *CSVFileOutput) RowCount() int {
	return f.totalRowCount
}

func rotateCheck(maxCount int, currentCount int) bool {
	return maxCount > 0 && currentCount >= maxCount
}

// Close flushes the CSV writer and closes the current OS file.
// It is safe to call more than once.
func (f *CSVFileOutput) Close() error {
	return f.closeCSVFileAndReset()
}

func (f *CSVFileOutput) fileFlush() error {
	f.csvWriter.Flush()
	if err := f.csvWriter.Error(); err != nil {
		return errors.Wrapf(err, "unable to flush CSV file %q", f.currentName)
	}
	if f.useGzip {
		if err := f.fWriter.Flush(); err != nil {
			return errors.Wrapf(err, "unable to flush CSV file %q", f.currentName)
		}
	}
	return nil
}

func (f *CSVFileOutput) fileCleanup() error {
	if f.useGzip {
		if err := f.gzWriter.Close(); err != nil {
			_ = f.file.Close()
			return errors.Wrapf(err, "unable to close gzip stream %q", f.currentName)
		}
	}
	if err := f.file.Close(); err != nil {
		return errors.Wrapf(err, "unable to close OS file %q", f.currentName)
	}
	return nil
}

// closeCSVFileAndReset will flush the CSV writer and close the OS file.
// It flags that a new file is required at next write time.
func (f *CSVFileOutput) closeCSVFileAndReset() error {
	if f.needCSVCleanup {
		f.needCSVCleanup = false
		if err := f.fileFlush(); err != nil {
			return err
		}
	}
	if f.needFileCleanup {
		f.needFileCleanup = false
		if err := f.fileCleanup(); err != nil {
			return err
		}
	}
	f.needNewCSVFile = true
	f.currentRowCount = 0
	return nil
}

func (f *CSVFileOutput) createNewCSVWriter() error {
	f.getNextFileName()
	f.log.Info("Creating new CSV file '", f.currentName, "'")
	var err error
	f.file, err = os.Create(f.currentName)
	if err != nil {
		return errors.Wrapf(err, "unable to create OS file with name %q", f.currentName)
	}
	if f.useGzip {
		f.gzWriter = gzip.NewWriter(f.file)
		f.fWriter = bufio.NewWriter(f.gzWriter)
	}
	f.needFileCleanup = true
	f.csvWriter = csv.NewWriter(f)
	f.needCSVCleanup = true
	f.needNewCSVFile = false
	return nil
}

// getNextFileName generates a new file name in currentName and records it in ListOfOutputFiles.
func (f *CSVFileOutput) getNextFileName() {
	f.currentSuffixID++
	f.currentName = path.Join(f.directory, fmt.Sprintf("%v_%06d.%v", f.prefix, f.currentSuffixID, f.extension))
	f.ListOfOutputFiles = append(f.ListOfOutputFiles, f.currentName)
}
