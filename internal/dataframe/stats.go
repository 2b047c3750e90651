package dataframe

import (
	"math"
	"slices"

	"github.com/paveg/medviz/internal/errors"
	"github.com/paveg/medviz/internal/parallel"
	"github.com/paveg/medviz/internal/validation"
	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Number is any element type a quantile can be taken over
type Number interface {
	constraints.Integer | constraints.Float
}

// QuantileSorted returns the q-th quantile of ascending values using linear
// interpolation between the two closest ranks. It returns NaN for no values.
func QuantileSorted[T Number](sorted []T, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return float64(sorted[0])
	}
	if q >= 1 {
		return float64(sorted[len(sorted)-1])
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return float64(sorted[lo])
	}
	w := pos - float64(lo)
	return float64(sorted[lo])*(1-w) + float64(sorted[hi])*w
}

// Quantiles returns the requested quantiles of a numeric column, skipping
// nulls. Each q must lie in [0, 1].
func (df *DataFrame) Quantiles(name string, qs ...float64) ([]float64, error) {
	for _, q := range qs {
		if err := validation.ValidateRange(q, 0, 1, "Quantile", "q"); err != nil {
			return nil, err
		}
	}

	values, valid, err := df.numericColumn("Quantile", name)
	if err != nil {
		return nil, err
	}

	present := make([]float64, 0, len(values))
	for i, v := range values {
		if valid[i] {
			present = append(present, v)
		}
	}
	slices.Sort(present)

	out := make([]float64, len(qs))
	for i, q := range qs {
		out[i] = QuantileSorted(present, q)
	}
	return out, nil
}

// Quantile returns a single quantile of a numeric column
func (df *DataFrame) Quantile(name string, q float64) (float64, error) {
	out, err := df.Quantiles(name, q)
	if err != nil {
		return math.NaN(), err
	}
	return out[0], nil
}

// CorrOptions controls how Corr spreads work across goroutines
type CorrOptions struct {
	// Pool runs column pairs in parallel when set
	Pool *parallel.WorkerPool
	// ParallelThreshold is the minimum row count before Pool is used
	ParallelThreshold int
}

// CorrMatrix is a symmetric Pearson correlation matrix over named columns
type CorrMatrix struct {
	Columns []string
	values  *mat.SymDense
}

// Size returns the number of rows (and columns) of the matrix
func (m *CorrMatrix) Size() int {
	return len(m.Columns)
}

// At returns the correlation between columns i and j
func (m *CorrMatrix) At(i, j int) float64 {
	return m.values.At(i, j)
}

// Rows returns the matrix as a dense row-major slice
func (m *CorrMatrix) Rows() [][]float64 {
	n := m.Size()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = m.values.At(i, j)
		}
	}
	return rows
}

// AllUndefined reports whether no entry of the matrix is a number
func (m *CorrMatrix) AllUndefined() bool {
	for i := 0; i < m.Size(); i++ {
		for j := 0; j <= i; j++ {
			if !math.IsNaN(m.values.At(i, j)) {
				return false
			}
		}
	}
	return true
}

type corrPair struct {
	i, j int
}

// Corr computes pairwise Pearson correlation over the numeric columns, in
// column order. Each pair uses the rows where both values are present; a
// pair with fewer than two such rows, or a constant column, yields NaN.
func (df *DataFrame) Corr(opts CorrOptions) (*CorrMatrix, error) {
	names := df.NumericColumns()
	if len(names) == 0 {
		return nil, errors.NewInvalidInputError("Corr", "no numeric columns")
	}

	values := make([][]float64, len(names))
	valid := make([][]bool, len(names))
	for k, name := range names {
		v, ok, err := df.numericColumn("Corr", name)
		if err != nil {
			return nil, err
		}
		values[k], valid[k] = v, ok
	}

	pairs := make([]corrPair, 0, len(names)*(len(names)+1)/2)
	for i := range names {
		for j := 0; j <= i; j++ {
			pairs = append(pairs, corrPair{i: i, j: j})
		}
	}

	compute := func(_ int, p corrPair) float64 {
		return pairCorrelation(values[p.i], values[p.j], valid[p.i], valid[p.j], p.i == p.j)
	}

	var results []float64
	if opts.Pool != nil && df.Len() >= opts.ParallelThreshold {
		results = parallel.ProcessIndexed(opts.Pool, pairs, compute)
		if err := opts.Pool.Err(); err != nil {
			return nil, errors.NewInternalError("Corr", err)
		}
	} else {
		results = make([]float64, len(pairs))
		for k, p := range pairs {
			results[k] = compute(k, p)
		}
	}

	sym := mat.NewSymDense(len(names), nil)
	for k, p := range pairs {
		sym.SetSym(p.i, p.j, results[k])
	}

	return &CorrMatrix{Columns: names, values: sym}, nil
}

func pairCorrelation(x, y []float64, xValid, yValid []bool, diagonal bool) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for r := range x {
		if xValid[r] && yValid[r] {
			xs = append(xs, x[r])
			ys = append(ys, y[r])
		}
	}

	if len(xs) < 2 || floats.Max(xs) == floats.Min(xs) || floats.Max(ys) == floats.Min(ys) {
		return math.NaN()
	}
	if diagonal {
		return 1
	}
	return stat.Correlation(xs, ys, nil)
}
