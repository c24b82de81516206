// Package indicator computes derived series (moving averages, RSI, z-scores,
// momentum, correlations) from close-price columns. All functions are pure:
// they read a slice, return a new Series, and never mutate their input.
//
// Every windowed computation uses a simple trailing window. The value at
// index t depends only on data at indices <= t.
package indicator

import "math"

// Series is a derived sequence aligned index-for-index with its source
// column. Entries with insufficient trailing history are undefined rather
// than approximated.
type Series struct {
	values  []float64
	defined []bool
}

func newSeries(n int) Series {
	return Series{
		values:  make([]float64, n),
		defined: make([]bool, n),
	}
}

func (s Series) set(i int, v float64) {
	s.values[i] = v
	s.defined[i] = true
}

// Len returns the number of entries.
func (s Series) Len() int { return len(s.values) }

// Value returns the entry at index i and whether it is defined.
func (s Series) Value(i int) (float64, bool) {
	if i < 0 || i >= len(s.values) {
		return 0, false
	}
	return s.values[i], s.defined[i]
}

// Last returns the final entry and whether it is defined. An empty series
// has no last entry.
func (s Series) Last() (float64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.Value(len(s.values) - 1)
}

// Undefined returns a Series of length n with every entry undefined.
func Undefined(n int) Series {
	return newSeries(n)
}

// Set marks the entry at index i as defined with value v.
func (s Series) Set(i int, v float64) {
	s.set(i, v)
}

// FromValues wraps a fully-defined slice in a Series.
func FromValues(values []float64) Series {
	s := newSeries(len(values))
	copy(s.values, values)
	for i := range s.defined {
		s.defined[i] = true
	}
	return s
}

// SMA computes the arithmetic mean of the trailing window closes. Entries
// before the first full window are undefined.
func SMA(closes []float64, window int) Series {
	s := newSeries(len(closes))
	if window <= 0 {
		return s
	}
	var sum float64
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			s.set(i, sum/float64(window))
		}
	}
	return s
}

// RollingMax computes the maximum close over the trailing window. Entries
// before the first full window are undefined.
func RollingMax(closes []float64, window int) Series {
	s := newSeries(len(closes))
	if window <= 0 {
		return s
	}
	for i := window - 1; i < len(closes); i++ {
		m := closes[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			if closes[j] > m {
				m = closes[j]
			}
		}
		s.set(i, m)
	}
	return s
}

// RollingStd computes the trailing sample standard deviation (divisor n-1)
// over the window. The window must be at least 2 for any entry to be defined.
func RollingStd(closes []float64, window int) Series {
	s := newSeries(len(closes))
	if window < 2 {
		return s
	}
	for i := window - 1; i < len(closes); i++ {
		var mean float64
		for j := i - window + 1; j <= i; j++ {
			mean += closes[j]
		}
		mean /= float64(window)

		var ss float64
		for j := i - window + 1; j <= i; j++ {
			d := closes[j] - mean
			ss += d * d
		}
		s.set(i, math.Sqrt(ss/float64(window-1)))
	}
	return s
}

// RSI computes the relative strength index from simple trailing averages of
// gains and loss magnitudes over the period. The first defined entry is at
// index period (the first delta appears at index 1).
//
// When the average loss is zero but gains exist, RSI saturates to exactly
// 100. When both averages are zero (a flat window) the entry is undefined.
func RSI(closes []float64, period int) Series {
	s := newSeries(len(closes))
	if period <= 0 || len(closes) < 2 {
		return s
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := period; i < len(closes); i++ {
		var avgGain, avgLoss float64
		for j := i - period + 1; j <= i; j++ {
			avgGain += gains[j]
			avgLoss += losses[j]
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)

		switch {
		case avgLoss == 0 && avgGain == 0:
			// Flat window: relative strength is 0/0, undefined.
		case avgLoss == 0:
			s.set(i, 100)
		default:
			rs := avgGain / avgLoss
			s.set(i, 100-100/(1+rs))
		}
	}
	return s
}

// ZScore computes (close - SMA(window)) / RollingStd(window). Entries are
// undefined wherever either input is undefined, and also where the standard
// deviation is exactly zero.
func ZScore(closes []float64, window int) Series {
	s := newSeries(len(closes))
	mean := SMA(closes, window)
	std := RollingStd(closes, window)
	for i := range closes {
		m, ok1 := mean.Value(i)
		sd, ok2 := std.Value(i)
		if !ok1 || !ok2 || sd == 0 {
			continue
		}
		s.set(i, (closes[i]-m)/sd)
	}
	return s
}

// PctChange computes (v[t] - v[t-lag]) / v[t-lag]. The first lag entries are
// undefined, as is any entry whose base value is zero.
func PctChange(values []float64, lag int) Series {
	s := newSeries(len(values))
	if lag <= 0 {
		return s
	}
	for i := lag; i < len(values); i++ {
		base := values[i-lag]
		if base == 0 {
			continue
		}
		s.set(i, (values[i]-base)/base)
	}
	return s
}

// Correlation computes the Pearson correlation between two aligned series
// over the entries where both are defined. It reports false when fewer than
// two pairs overlap or when either side has zero variance.
func Correlation(a, b Series) (float64, bool) {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}

	var xs, ys []float64
	for i := 0; i < n; i++ {
		x, ok1 := a.Value(i)
		y, ok2 := b.Value(i)
		if ok1 && ok2 {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return 0, false
	}

	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(len(xs))
	meanY /= float64(len(ys))

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}

// AutocorrLag1 computes the Pearson correlation between a series and itself
// shifted by one step, over the overlapping region.
func AutocorrLag1(s Series) (float64, bool) {
	n := s.Len()
	if n < 3 {
		return 0, false
	}
	lagged := newSeries(n)
	for i := 1; i < n; i++ {
		if v, ok := s.Value(i - 1); ok {
			lagged.set(i, v)
		}
	}
	return Correlation(lagged, s)
}
