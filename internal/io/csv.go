package io

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/paveg/medviz/internal/dataframe"
	"github.com/paveg/medviz/internal/series"
)

const (
	// Boolean string constants
	trueStr  = "true"
	falseStr = "false"

	boolType   = "bool"
	intType    = "int"
	floatType  = "float"
	stringType = "string"
)

// Read reads CSV data and returns a DataFrame. Empty fields become nulls.
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return dataframe.NewWithAllocator(r.mem), nil
	}

	var headers []string
	var dataRows [][]string

	if r.options.Header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		// Generate default column names
		numCols := len(records[0])
		headers = make([]string, numCols)
		for i := 0; i < numCols; i++ {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		dataRows = records
	}

	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	// Transpose data to work with columns
	numCols := len(headers)
	columns := make([][]string, numCols)
	for i := 0; i < numCols; i++ {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = strings.TrimSpace(row[i])
			}
		}
	}

	seriesList := make([]dataframe.ISeries, 0, numCols)
	for i, header := range headers {
		s, err := r.createSeriesFromStrings(header, columns[i])
		if err != nil {
			for _, created := range seriesList {
				created.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", header, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.NewWithAllocator(r.mem, seriesList...), nil
}

// createSeriesFromStrings creates a series from string data, inferring the appropriate type
func (r *CSVReader) createSeriesFromStrings(name string, data []string) (dataframe.ISeries, error) {
	valid := make([]bool, len(data))
	hasNull := false
	for i, value := range data {
		valid[i] = value != ""
		if !valid[i] {
			hasNull = true
		}
	}
	if !hasNull {
		valid = nil
	}

	switch inferDataType(data) {
	case boolType:
		return convertColumn(name, data, valid, r, func(s string) (bool, error) {
			return strings.EqualFold(s, trueStr), nil
		})
	case intType:
		return convertColumn(name, data, valid, r, func(s string) (int64, error) {
			return strconv.ParseInt(s, 10, 64)
		})
	case floatType:
		return convertColumn(name, data, valid, r, func(s string) (float64, error) {
			return strconv.ParseFloat(s, 64)
		})
	default:
		return convertColumn(name, data, valid, r, func(s string) (string, error) {
			return s, nil
		})
	}
}

// convertColumn parses every present value with parse and builds the series
func convertColumn[T any](
	name string, data []string, valid []bool, r *CSVReader, parse func(string) (T, error),
) (dataframe.ISeries, error) {
	values := make([]T, len(data))
	for i, value := range data {
		if value == "" {
			continue
		}
		parsed, err := parse(value)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		values[i] = parsed
	}

	s, err := series.NewWithValidity(name, values, valid, r.mem)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// inferDataType determines the most appropriate data type for the given string data
func inferDataType(data []string) string {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasNonEmptyValue := false

	for _, value := range data {
		if value == "" {
			continue // Skip empty values for type inference
		}
		hasNonEmptyValue = true

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}

		if canBeInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				canBeInt = false
			}
		}

		if canBeFloat {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeFloat = false
			}
		}
	}

	// If all values are empty, default to string
	if !hasNonEmptyValue {
		return stringType
	}

	// Return the most specific type
	switch {
	case canBeBool:
		return boolType
	case canBeInt:
		return intType
	case canBeFloat:
		return floatType
	default:
		return stringType
	}
}

// Write writes the DataFrame to CSV format
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter

	columns := df.Columns()

	if w.options.Header {
		if err := csvWriter.Write(columns); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	series := make([]dataframe.ISeries, len(columns))
	for j, name := range columns {
		series[j], _ = df.Column(name)
	}

	row := make([]string, len(columns))
	for i := 0; i < df.Len(); i++ {
		for j, s := range series {
			row[j] = s.GetAsString(i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
