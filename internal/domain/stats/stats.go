// Package stats computes descriptive statistics over day deltas.
package stats

import (
	"math"
	"sort"
)

// MinSample is the smallest N for which anything beyond N is computed.
const MinSample = 6

// Descriptive holds the statistics computed once a sample is large enough.
type Descriptive struct {
	Mean               float64
	StdDev             float64
	Median             float64
	Mode               int
	Min                int
	Max                int
	Q1                 float64
	Q2                 float64
	Q3                 float64
	SIQR               float64
	ConfidenceInterval float64
}

// Summary is the result for one set of deltas. Descriptive is nil when the
// sample is smaller than MinSample.
type Summary struct {
	N           int
	Descriptive *Descriptive
}

// Sufficient reports whether descriptive statistics were computed.
func (s Summary) Sufficient() bool { return s.Descriptive != nil }

// Describe summarizes deltas. The input order matters only for breaking
// ties in Mode.
func Describe(deltas []int) Summary {
	n := len(deltas)
	if n < MinSample {
		return Summary{N: n}
	}
	sorted := append([]int(nil), deltas...)
	sort.Ints(sorted)

	mean := Mean(sorted)
	sd := StdDev(sorted, mean)
	q1, q2, q3 := Quartiles(sorted)
	return Summary{
		N: n,
		Descriptive: &Descriptive{
			Mean:               mean,
			StdDev:             sd,
			Median:             MedianGrouped(sorted),
			Mode:               Mode(deltas),
			Min:                sorted[0],
			Max:                sorted[n-1],
			Q1:                 q1,
			Q2:                 q2,
			Q3:                 q3,
			SIQR:               (q3 - q1) / 2,
			ConfidenceInterval: ConfidenceInterval(sd, n),
		},
	}
}

// Mean is the arithmetic mean.
func Mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

// StdDev is the sample standard deviation (n-1 denominator).
func StdDev(xs []int, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := float64(x) - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// MedianGrouped is the median of continuous data grouped into unit-width
// intervals centred on each value. sorted must be ascending and non-empty.
func MedianGrouped(sorted []int) float64 {
	n := len(sorted)
	x := sorted[n/2]
	cf := sort.SearchInts(sorted, x)
	f := sort.SearchInts(sorted, x+1) - cf
	lower := float64(x) - 0.5
	return lower + (float64(n)/2-float64(cf))/float64(f)
}

// Quartiles uses the exclusive method: positions are interpolated over
// n+1 slots. sorted must be ascending with at least two values.
func Quartiles(sorted []int) (q1, q2, q3 float64) {
	n := len(sorted)
	m := n + 1
	q := [3]float64{}
	for i := 1; i <= 3; i++ {
		j := i * m / 4
		if j < 1 {
			j = 1
		} else if j > n-1 {
			j = n - 1
		}
		delta := i*m - 4*j
		q[i-1] = float64(sorted[j-1]*(4-delta)+sorted[j]*delta) / 4
	}
	return q[0], q[1], q[2]
}

// Mode is the most frequent value; ties go to the one seen first.
func Mode(xs []int) int {
	counts := make(map[int]int, len(xs))
	best, bestCount := 0, 0
	for _, x := range xs {
		counts[x]++
	}
	for _, x := range xs {
		if c := counts[x]; c > bestCount {
			best, bestCount = x, c
		}
	}
	return best
}

// ConfidenceInterval is 0.95 times the standard error.
func ConfidenceInterval(sd float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return 0.95 * (sd / math.Sqrt(float64(n)))
}
