package dataframe

import (
	"cmp"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/medviz/internal/errors"
	"github.com/paveg/medviz/internal/validation"
)

// CountColumn is the name of the count column produced by CountBy
const CountColumn = "total"

// keySeparator joins key parts; it cannot appear in CSV-sourced text
const keySeparator = "\x1f"

// CountBy groups rows by the given key columns and counts the rows of each
// group. The result holds the key columns followed by an int64 "total"
// column, sorted ascending by the keys. Rows with a null key are skipped.
func (df *DataFrame) CountBy(keys ...string) (*DataFrame, error) {
	if len(keys) == 0 {
		return nil, errors.NewInvalidInputError("CountBy", "no key columns given")
	}
	if err := validation.ValidateColumns(df, "CountBy", keys...); err != nil {
		return nil, err
	}

	keySeries := make([]ISeries, len(keys))
	for i, key := range keys {
		keySeries[i] = df.columns[key]
	}

	groups := newGroupHashMap(df.Len())
	var sb strings.Builder

rows:
	for row := 0; row < df.Len(); row++ {
		sb.Reset()
		for i, s := range keySeries {
			if s.IsNull(row) {
				continue rows
			}
			if i > 0 {
				sb.WriteString(keySeparator)
			}
			sb.WriteString(s.GetAsString(row))
		}
		groups.Add(sb.String(), row)
	}

	comparers := make([]rowComparer, len(keySeries))
	for i, s := range keySeries {
		arr := s.Array()
		defer arr.Release()
		cmpFn, err := newRowComparer(arr)
		if err != nil {
			return nil, err
		}
		comparers[i] = cmpFn
	}

	order := make([]int, groups.Len())
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ra, rb := groups.groups[a].firstRow, groups.groups[b].firstRow
		for _, compare := range comparers {
			if c := compare(ra, rb); c != 0 {
				return c
			}
		}
		return 0
	})

	firstRows := make([]int, len(order))
	counts := make([]int64, len(order))
	for i, id := range order {
		firstRows[i] = groups.groups[id].firstRow
		counts[i] = groups.groups[id].count
	}

	mem := df.mem
	result := make([]ISeries, 0, len(keys)+1)
	for _, s := range keySeries {
		taken, err := takeSeries(s, firstRows, mem)
		if err != nil {
			for _, r := range result {
				r.Release()
			}
			return nil, err
		}
		result = append(result, taken)
	}

	total, err := newSeries(CountColumn, counts, nil, mem)
	if err != nil {
		for _, r := range result {
			r.Release()
		}
		return nil, err
	}
	result = append(result, total)

	return NewWithAllocator(mem, result...), nil
}

// rowComparer orders two rows of one column
type rowComparer func(a, b int) int

func newRowComparer(arr arrow.Array) (rowComparer, error) {
	switch typed := arr.(type) {
	case *array.Int64:
		return func(a, b int) int { return cmp.Compare(typed.Value(a), typed.Value(b)) }, nil
	case *array.Float64:
		return func(a, b int) int { return cmp.Compare(typed.Value(a), typed.Value(b)) }, nil
	case *array.String:
		return func(a, b int) int { return strings.Compare(typed.Value(a), typed.Value(b)) }, nil
	case *array.Boolean:
		return func(a, b int) int {
			va, vb := typed.Value(a), typed.Value(b)
			switch {
			case va == vb:
				return 0
			case !va:
				return -1
			default:
				return 1
			}
		}, nil
	default:
		return nil, errors.NewUnsupportedTypeError("CountBy", arr.DataType().String())
	}
}
