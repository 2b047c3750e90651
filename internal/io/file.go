package io

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/medviz/internal/dataframe"
)

// Format identifies a table file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ParseFormat parses a format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "csv":
		return FormatCSV, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported table format %q", name)
	}
}

// FormatFromPath picks the format from the file extension. Anything that
// is not .parquet or .pq is read as CSV.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return FormatParquet
	default:
		return FormatCSV
	}
}

// ReadFile reads the table at path. The CSV options apply to CSV input only.
func ReadFile(path string, options CSVOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var reader DataReader
	if FormatFromPath(path) == FormatParquet {
		reader = NewParquetReader(f, DefaultParquetOptions(), mem)
	} else {
		reader = NewCSVReader(f, options, mem)
	}

	df, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return df, nil
}

// WriteFile writes df to path in the given format, replacing any existing
// file. A failed write removes the file.
func WriteFile(path string, format Format, df *dataframe.DataFrame, options CSVOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	var writer DataWriter
	if format == FormatParquet {
		writer = NewParquetWriter(f, DefaultParquetOptions())
	} else {
		writer = NewCSVWriter(f, options)
	}

	if err := writer.Write(df); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
