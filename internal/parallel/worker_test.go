package parallel_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/paveg/medviz/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	pool := parallel.NewWorkerPool(0)
	defer pool.Close()
	assert.Equal(t, runtime.NumCPU(), pool.Workers())

	pool2 := parallel.NewWorkerPool(4)
	defer pool2.Close()
	assert.Equal(t, 4, pool2.Workers())

	pool3 := parallel.NewWorkerPool(-1)
	defer pool3.Close()
	assert.Equal(t, runtime.NumCPU(), pool3.Workers())
}

func TestProcessIndexed(t *testing.T) {
	pool := parallel.NewWorkerPool(3)
	defer pool.Close()

	input := make([]int, 100)
	for i := range input {
		input[i] = i
	}

	results := parallel.ProcessIndexed(pool, input, func(idx int, x int) int {
		return idx*1000 + x*x
	})

	require.Len(t, results, 100)
	for i, r := range results {
		assert.Equal(t, i*1000+i*i, r)
	}
	require.NoError(t, pool.Err())
}

func TestProcessIndexedEmpty(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	results := parallel.ProcessIndexed(pool, []string{}, func(_ int, s string) int {
		return len(s)
	})
	assert.Nil(t, results)
}

func TestCancelledPool(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := parallel.NewWorkerPoolWithContext(ctx, 2)
	defer pool.Close()

	cancel()

	results := parallel.ProcessIndexed(pool, []int{1, 2, 3}, func(_ int, x int) int {
		return x
	})
	assert.Len(t, results, 3)
	require.ErrorIs(t, pool.Err(), context.Canceled)
}
