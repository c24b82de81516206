// Package theory runs fixed statistical tests over a daily price series and
// reports whether each market theory's predicted pattern appears in the
// data. The tests are read-only: nothing here simulates trades.
package theory

import (
	"fmt"

	"tradelab/internal/domain"
	"tradelab/internal/indicator"
)

// Verdict is the immutable outcome of one theory test.
type Verdict struct {
	Theory         string             `json:"theory"`
	Metrics        map[string]float64 `json:"metrics"`
	Interpretation string             `json:"interpretation"`
	MakesSense     bool               `json:"makes_sense"`
}

// Theory names as they appear in verdicts.
const (
	NameEMH           = "Efficient Market Hypothesis"
	NameMomentum      = "Momentum Theory"
	NameMeanReversion = "Mean Reversion"
	NameValue         = "Value Investing"
	NameTechnical     = "Technical Analysis"
)

// RunAll evaluates every theory against the series and returns the verdicts
// for which enough data existed. A theory that cannot run (for example Value
// without a forward P/E) is omitted, never reported with empty fields.
func RunAll(s *domain.Series, fund domain.Fundamentals) []Verdict {
	type test func() (Verdict, error)
	tests := []test{
		func() (Verdict, error) { return EMH(s) },
		func() (Verdict, error) { return Momentum(s) },
		func() (Verdict, error) { return MeanReversion(s) },
		func() (Verdict, error) { return Value(s, fund) },
		func() (Verdict, error) { return Technical(s) },
	}

	var verdicts []Verdict
	for _, run := range tests {
		v, err := run()
		if err != nil {
			continue
		}
		verdicts = append(verdicts, v)
	}
	return verdicts
}

// EMH tests whether daily returns look like a random walk: lag-1
// autocorrelation with magnitude under 0.05.
func EMH(s *domain.Series) (Verdict, error) {
	if s == nil || s.Len() == 0 {
		return Verdict{}, domain.ErrNoData
	}

	returns := indicator.PctChange(s.Closes(), 1)
	autocorr, ok := indicator.AutocorrLag1(returns)
	if !ok {
		return Verdict{}, fmt.Errorf("emh: autocorrelation: %w", domain.ErrInsufficientData)
	}

	isRandomWalk := autocorr > -0.05 && autocorr < 0.05
	interp := "stock shows momentum/reversal patterns"
	if isRandomWalk {
		interp = "stock follows a random walk"
	}
	return Verdict{
		Theory:         NameEMH,
		Metrics:        map[string]float64{"autocorrelation": autocorr},
		Interpretation: interp,
		MakesSense:     isRandomWalk,
	}, nil
}

// Momentum tests whether past monthly returns predict future ones. The
// trailing 3-month mean return, lagged one month, is correlated against the
// rolling 12-month mean, led one month. At least 12 monthly observations are
// required; the verdict passes when the correlation exceeds 0.1.
func Momentum(s *domain.Series) (Verdict, error) {
	if s == nil || s.Len() == 0 {
		return Verdict{}, domain.ErrNoData
	}

	monthly := monthlyReturns(s)
	if len(monthly) < 12 {
		return Verdict{}, fmt.Errorf("momentum: %d monthly returns: %w", len(monthly), domain.ErrInsufficientData)
	}

	past3 := shift(indicator.SMA(monthly, 3), 1)
	future12 := shift(indicator.SMA(monthly, 12), -1)

	corr, ok := indicator.Correlation(past3, future12)
	if !ok {
		return Verdict{}, fmt.Errorf("momentum: correlation: %w", domain.ErrInsufficientData)
	}

	hasMomentum := corr > 0.1
	interp := "no clear momentum pattern"
	if hasMomentum {
		interp = "stock shows momentum patterns"
	}
	return Verdict{
		Theory:         NameMomentum,
		Metrics:        map[string]float64{"momentum_correlation": corr},
		Interpretation: interp,
		MakesSense:     hasMomentum,
	}, nil
}

// MeanReversion tests whether extreme z-scores are followed by reverting
// 5-bar returns. Passing requires stretched-high bars to show negative
// forward returns and stretched-low bars positive ones. An empty bucket is
// reported as insufficient samples and fails the verdict; it is never
// counted as a zero return.
func MeanReversion(s *domain.Series) (Verdict, error) {
	if s == nil || s.Len() == 0 {
		return Verdict{}, domain.ErrNoData
	}

	closes := s.Closes()
	z := indicator.ZScore(closes, 20)

	var sumHigh, sumLow float64
	var nHigh, nLow int
	for i := 0; i < len(closes); i++ {
		zi, ok := z.Value(i)
		if !ok {
			continue
		}
		if i+5 >= len(closes) || closes[i] == 0 {
			continue // forward return unavailable
		}
		fwd := (closes[i+5] - closes[i]) / closes[i]
		if zi > 2 {
			sumHigh += fwd
			nHigh++
		} else if zi < -2 {
			sumLow += fwd
			nLow++
		}
	}

	metrics := map[string]float64{
		"samples_high": float64(nHigh),
		"samples_low":  float64(nLow),
	}
	if nHigh == 0 || nLow == 0 {
		return Verdict{
			Theory:         NameMeanReversion,
			Metrics:        metrics,
			Interpretation: "insufficient samples of extreme z-scores",
			MakesSense:     false,
		}, nil
	}

	meanHigh := sumHigh / float64(nHigh)
	meanLow := sumLow / float64(nLow)
	metrics["reversion_after_high"] = meanHigh
	metrics["reversion_after_low"] = meanLow

	showsReversion := meanHigh < 0 && meanLow > 0
	interp := "no clear mean reversion"
	if showsReversion {
		interp = "stock shows mean reversion"
	}
	return Verdict{
		Theory:         NameMeanReversion,
		Metrics:        metrics,
		Interpretation: interp,
		MakesSense:     showsReversion,
	}, nil
}

// Value tests the low-P/E heuristic. The forward P/E comes from an external
// fundamentals source; without it the theory cannot run. A P/E under 15
// marks a value stock, and with at least a year of bars the verdict also
// requires the trailing-252-bar return to exceed 10%.
func Value(s *domain.Series, fund domain.Fundamentals) (Verdict, error) {
	if !fund.HasForwardPE {
		return Verdict{}, fmt.Errorf("value: forward P/E unavailable: %w", domain.ErrInsufficientData)
	}

	isValueStock := fund.ForwardPE < 15
	metrics := map[string]float64{"pe_ratio": fund.ForwardPE}
	if fund.HasPriceToBook {
		metrics["pb_ratio"] = fund.PriceToBook
	}

	valueWorks := isValueStock
	if s != nil && s.Len() > 252 {
		closes := s.Closes()
		base := closes[len(closes)-1-252]
		if base != 0 {
			annual := closes[len(closes)-1]/base - 1
			metrics["trailing_year_return"] = annual
			valueWorks = isValueStock && annual > 0.10
		}
	}

	interp := "stock appears overvalued"
	if isValueStock {
		interp = "stock appears undervalued"
	}
	return Verdict{
		Theory:         NameValue,
		Metrics:        metrics,
		Interpretation: interp,
		MakesSense:     valueWorks,
	}, nil
}

// Technical combines the 50/200-bar golden cross, a price-above-both-MAs
// check, and 14-period RSI oversold/overbought levels. Averages that are
// still undefined read as zero and an undefined RSI reads as a neutral 50,
// mirroring loose chart-scanner conventions. Interpretation priority:
// oversold, overbought, bullish golden cross, bearish below MAs, neutral.
func Technical(s *domain.Series) (Verdict, error) {
	if s == nil || s.Len() == 0 {
		return Verdict{}, domain.ErrNoData
	}

	closes := s.Closes()
	price := closes[len(closes)-1]

	sma50, _ := indicator.SMA(closes, 50).Last()
	sma200, _ := indicator.SMA(closes, 200).Last()
	rsi := 50.0
	if v, ok := indicator.RSI(closes, 14).Last(); ok {
		rsi = v
	}

	goldenCross := sma50 > sma200
	priceAboveMAs := price > sma50 && price > sma200
	oversold := rsi < 30
	overbought := rsi > 70

	var interp string
	switch {
	case oversold:
		interp = "oversold - potential buy signal"
	case overbought:
		interp = "overbought - potential sell signal"
	case goldenCross && priceAboveMAs:
		interp = "bullish trend - golden cross"
	case !goldenCross && !priceAboveMAs:
		interp = "bearish trend - below moving averages"
	default:
		interp = "neutral technical position"
	}

	return Verdict{
		Theory: NameTechnical,
		Metrics: map[string]float64{
			"current_price":   price,
			"sma_50":          sma50,
			"sma_200":         sma200,
			"rsi":             rsi,
			"golden_cross":    boolMetric(goldenCross),
			"price_above_mas": boolMetric(priceAboveMAs),
			"oversold":        boolMetric(oversold),
			"overbought":      boolMetric(overbought),
		},
		Interpretation: interp,
		MakesSense:     priceAboveMAs && !overbought,
	}, nil
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// monthlyReturns resamples the series to month-end closes and returns the
// month-over-month percentage changes.
func monthlyReturns(s *domain.Series) []float64 {
	var monthEnds []float64
	lastKey := -1
	for i := 0; i < s.Len(); i++ {
		b := s.At(i)
		key := b.Timestamp.Year()*12 + int(b.Timestamp.Month())
		if key != lastKey {
			monthEnds = append(monthEnds, b.Close)
			lastKey = key
		} else {
			monthEnds[len(monthEnds)-1] = b.Close
		}
	}

	var returns []float64
	for i := 1; i < len(monthEnds); i++ {
		if monthEnds[i-1] == 0 {
			continue
		}
		returns = append(returns, monthEnds[i]/monthEnds[i-1]-1)
	}
	return returns
}

// shift moves a series by k steps: positive k lags (entry t reads the value
// from t-k), negative k leads. Vacated entries are undefined.
func shift(s indicator.Series, k int) indicator.Series {
	out := indicator.Undefined(s.Len())
	for i := 0; i < s.Len(); i++ {
		src := i - k
		if v, ok := s.Value(src); ok {
			out.Set(i, v)
		}
	}
	return out
}
