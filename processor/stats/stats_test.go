package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowOfThree(t *testing.T) {
	inputs := []float64{1, 2, 3, 4}

	avg := NewAverage(3)
	ext := NewExtremes(3)
	gen := NewExtremum[float64](3)

	wantAvg := []float64{1, 1.5, 2, 3}
	wantMax := []float64{1, 2, 3, 4}
	wantMin := []float64{1, 1, 1, 2}

	for i, x := range inputs {
		assert.InDelta(t, wantAvg[i], avg.Add(x), 1e-9, "average after %v", x)

		lo, hi := ext.Add(x)
		assert.Equal(t, wantMin[i], lo, "min after %v", x)
		assert.Equal(t, wantMax[i], hi, "max after %v", x)

		gen.Add(x)
		glo, ok := gen.Min()
		require.True(t, ok)
		ghi, _ := gen.Max()
		assert.Equal(t, wantMin[i], glo, "generic min after %v", x)
		assert.Equal(t, wantMax[i], ghi, "generic max after %v", x)
	}
}

func TestAverageWindowOfOne(t *testing.T) {
	avg := NewAverage(1)
	for _, x := range []float64{5, -2, 7} {
		assert.Equal(t, x, avg.Add(x))
	}
	assert.Equal(t, 1, avg.Len())
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		inputs []float64
		want   []float64
	}{
		{
			name:   "odd window",
			size:   3,
			inputs: []float64{5, 1, 3, 9, 7},
			// [5] [1 5] [1 3 5] [1 3 9] [3 7 9]
			want: []float64{5, 5, 3, 3, 7},
		},
		{
			name:   "even window averages the middle pair",
			size:   4,
			inputs: []float64{4, 2, 8, 6, 10},
			// [4] [2 4] [2 4 8] [2 4 6 8] [2 6 8 10]
			want: []float64{4, 3, 3, 5, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMedian(tt.size)
			for i, x := range tt.inputs {
				assert.Equal(t, tt.want[i], m.Add(x), "median after input %d", i)
			}
		})
	}
}

func TestExtremesRescanOnlyWhenNeeded(t *testing.T) {
	ext := NewExtremes(2)

	ext.Add(5)
	ext.Add(1)
	lo, hi := ext.Add(3) // evicts 5, the max
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 3.0, hi)

	lo, hi = ext.Add(4) // evicts 1, the min
	assert.Equal(t, 3.0, lo)
	assert.Equal(t, 4.0, hi)
}

func TestExtremesWindowOfOne(t *testing.T) {
	ext := NewExtremes(1)
	for _, x := range []float64{3, 9, -1} {
		lo, hi := ext.Add(x)
		assert.Equal(t, x, lo)
		assert.Equal(t, x, hi)
	}
}

func TestExtremumDuplicates(t *testing.T) {
	e := NewExtremum[int](3)
	for _, x := range []int{2, 2, 1} {
		e.Add(x)
	}
	assert.Equal(t, 2, e.Distinct())

	e.Add(5) // evicts one 2
	lo, _ := e.Min()
	hi, _ := e.Max()
	assert.Equal(t, 1, lo)
	assert.Equal(t, 5, hi)
	assert.Equal(t, 3, e.Distinct())

	e.Add(6) // evicts the other 2
	e.Add(7) // evicts 1
	lo, _ = e.Min()
	assert.Equal(t, 5, lo)
	assert.Equal(t, 3, e.Len())
}

func TestExtremumStrings(t *testing.T) {
	e := NewExtremum[string](2)
	_, ok := e.Min()
	assert.False(t, ok)

	e.Add("pear")
	e.Add("apple")
	e.Add("zucchini")

	lo, _ := e.Min()
	hi, _ := e.Max()
	assert.Equal(t, "apple", lo)
	assert.Equal(t, "zucchini", hi)
}

// bruteWindow recomputes every statistic from the last size values.
func bruteWindow(values []float64, size int) (mean, lo, hi float64) {
	if len(values) > size {
		values = values[len(values)-size:]
	}
	lo, hi = values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return sum / float64(len(values)), lo, hi
}

func TestWindowsMatchRecomputation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 500; trial++ {
		size := 1 + rng.Intn(6)
		avg := NewAverage(size)
		ext := NewExtremes(size)
		gen := NewExtremum[float64](size)

		var seen []float64
		n := 1 + rng.Intn(40)
		for i := 0; i < n; i++ {
			// small integers so that duplicates and evicted extremes are common
			x := float64(rng.Intn(10) - 5)
			seen = append(seen, x)

			wantMean, wantMin, wantMax := bruteWindow(seen, size)

			require.InDelta(t, wantMean, avg.Add(x), 1e-9, "trial %d size %d values %v", trial, size, seen)

			gotMin, gotMax := ext.Add(x)
			require.Equal(t, wantMin, gotMin, "trial %d size %d values %v", trial, size, seen)
			require.Equal(t, wantMax, gotMax, "trial %d size %d values %v", trial, size, seen)

			gen.Add(x)
			genMin, _ := gen.Min()
			genMax, _ := gen.Max()
			require.Equal(t, wantMin, genMin, "trial %d size %d values %v", trial, size, seen)
			require.Equal(t, wantMax, genMax, "trial %d size %d values %v", trial, size, seen)
			require.Equal(t, min(len(seen), size), gen.Len())
		}
	}
}
