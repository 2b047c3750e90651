package exam

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/medviz/internal/dataframe"
	"github.com/paveg/medviz/internal/io"
	"github.com/paveg/medviz/internal/validation"
)

// Load reads the examination table at path. CSV and Parquet are accepted,
// chosen by extension. Every column in RequiredColumns must be present.
func Load(path string, options io.CSVOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	df, err := io.ReadFile(path, options, mem)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateColumns(df, "Load", RequiredColumns...); err != nil {
		df.Release()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}
