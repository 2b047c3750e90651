package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/medviz/internal/dataframe"
	"github.com/paveg/medviz/internal/series"
)

// Read reads Parquet data and returns a DataFrame.
// int32 and float32 columns are widened to int64 and float64.
func (r *ParquetReader) Read() (*dataframe.DataFrame, error) {
	return r.ReadContext(context.Background())
}

// ReadContext is Read with a caller supplied context.
func (r *ParquetReader) ReadContext(ctx context.Context) (*dataframe.DataFrame, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	readProps := pqarrow.ArrowReadProperties{BatchSize: int64(r.options.BatchSize)}
	arrowReader, err := pqarrow.NewFileReader(pqReader, readProps, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	return r.arrowTableToDataFrame(table)
}

func (r *ParquetReader) arrowTableToDataFrame(table arrow.Table) (*dataframe.DataFrame, error) {
	schema := table.Schema()
	seriesList := make([]dataframe.ISeries, 0, table.NumCols())

	for i := 0; i < int(table.NumCols()); i++ {
		field := schema.Field(i)
		s, err := r.chunkedToSeries(field.Name, table.Column(i).Data())
		if err != nil {
			for _, created := range seriesList {
				created.Release()
			}
			return nil, fmt.Errorf("converting column %s: %w", field.Name, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.NewWithAllocator(r.mem, seriesList...), nil
}

func (r *ParquetReader) chunkedToSeries(name string, chunked *arrow.Chunked) (dataframe.ISeries, error) {
	//nolint:exhaustive // Only handling supported types
	switch chunked.DataType().ID() {
	case arrow.INT64:
		return collect(name, chunked, r.mem, func(a *array.Int64, i int) int64 { return a.Value(i) })
	case arrow.INT32:
		return collect(name, chunked, r.mem, func(a *array.Int32, i int) int64 { return int64(a.Value(i)) })
	case arrow.FLOAT64:
		return collect(name, chunked, r.mem, func(a *array.Float64, i int) float64 { return a.Value(i) })
	case arrow.FLOAT32:
		return collect(name, chunked, r.mem, func(a *array.Float32, i int) float64 { return float64(a.Value(i)) })
	case arrow.STRING:
		return collect(name, chunked, r.mem, func(a *array.String, i int) string { return a.Value(i) })
	case arrow.BOOL:
		return collect(name, chunked, r.mem, func(a *array.Boolean, i int) bool { return a.Value(i) })
	default:
		return nil, fmt.Errorf("unsupported Arrow type: %s", chunked.DataType())
	}
}

// collect flattens every chunk of a column into a single series, keeping nulls.
func collect[A arrow.Array, T any](
	name string, chunked *arrow.Chunked, mem memory.Allocator, value func(A, int) T,
) (dataframe.ISeries, error) {
	values := make([]T, 0, chunked.Len())
	valid := make([]bool, 0, chunked.Len())
	hasNull := false

	for _, chunk := range chunked.Chunks() {
		typed, ok := chunk.(A)
		if !ok {
			return nil, fmt.Errorf("unexpected chunk type %T", chunk)
		}
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				var zero T
				values = append(values, zero)
				valid = append(valid, false)
				hasNull = true
				continue
			}
			values = append(values, value(typed, i))
			valid = append(valid, true)
		}
	}

	if !hasNull {
		valid = nil
	}
	s, err := series.NewWithValidity(name, values, valid, mem)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Write writes the DataFrame to Parquet format.
func (w *ParquetWriter) Write(df *dataframe.DataFrame) error {
	table := w.dataFrameToArrowTable(df)
	defer table.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compressionCodec(w.options.Compression)),
		parquet.WithBatchSize(int64(w.options.BatchSize)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.NewGoAllocator()))

	// The file writer closes sinks that implement io.Closer; the caller owns w.writer.
	sink := struct{ io.Writer }{w.writer}

	writer, err := pqarrow.NewFileWriter(table.Schema(), sink, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	chunkSize := int64(w.options.BatchSize)
	if chunkSize <= 0 {
		chunkSize = DefaultBatchSize
	}
	if err := writer.WriteTable(table, chunkSize); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	return nil
}

func compressionCodec(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Codecs.Gzip
	case "lz4":
		return compress.Codecs.Lz4Raw
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

// dataFrameToArrowTable shares the series arrays with the returned table.
func (w *ParquetWriter) dataFrameToArrowTable(df *dataframe.DataFrame) arrow.Table {
	fields := make([]arrow.Field, 0, df.Width())
	columns := make([]arrow.Column, 0, df.Width())

	for _, name := range df.Columns() {
		col, _ := df.Column(name)
		arr := col.Array()

		field := arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		arr.Release()

		column := arrow.NewColumn(field, chunked)
		chunked.Release()

		fields = append(fields, field)
		columns = append(columns, *column)
	}

	table := array.NewTable(arrow.NewSchema(fields, nil), columns, int64(df.Len()))
	for i := range columns {
		columns[i].Release()
	}
	return table
}
