// Package strategy turns free-text trading rules into structured, evaluable
// buy/sell conditions and checks them against a price series.
package strategy

import (
	"regexp"
	"strconv"
	"strings"
)

// ConditionKind identifies one of the fixed rule families the parser can
// extract.
type ConditionKind string

const (
	KindDip        ConditionKind = "dip"         // buy: close fell N% from the trailing high
	KindPriceBelow ConditionKind = "price_below" // buy: close under an absolute price
	KindRSIBelow   ConditionKind = "rsi_below"   // buy: RSI under a threshold
	KindRise       ConditionKind = "rise"        // sell: close rose N% from the entry price
	KindPriceAbove ConditionKind = "price_above" // sell: close over an absolute price
	KindRSIAbove   ConditionKind = "rsi_above"   // sell: RSI over a threshold
)

// Condition is a single evaluable rule. Exactly one of Percent, Price, or
// Value is meaningful depending on Kind.
type Condition struct {
	Kind    ConditionKind
	Percent float64
	Price   float64
	Value   float64
}

// DefaultCapital is used when the text carries no capital amount.
const DefaultCapital = 10000

// Spec is the structured form of a strategy description. It is immutable
// after Parse.
type Spec struct {
	BuyConditions  []Condition
	SellConditions []Condition
	InitialCapital float64
	Description    string
}

// The extraction patterns run in fixed source order (dip, RSI, price for
// buys; rise, RSI, price for sells). Whichever family matches first wins its
// slot; at most one condition per family is extracted.
var (
	percentRe    = regexp.MustCompile(`(\d+\.?\d*)\s*%|(\d+\.?\d*)\s*percent`)
	rsiBelowRe   = regexp.MustCompile(`rsi.*below\s*(\d+)`)
	rsiAboveRe   = regexp.MustCompile(`rsi.*above\s*(\d+)`)
	priceBelowRe = regexp.MustCompile(`below\s*\$?(\d+\.?\d*)`)
	priceAboveRe = regexp.MustCompile(`above\s*\$?(\d+\.?\d*)`)
	capitalRe    = regexp.MustCompile(`\$?(\d+\.?\d*)\s*(?:initial|starting|capital|money|with|invest)`)
)

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func extractPercent(text string) (float64, bool) {
	m := percentRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	g := m[1]
	if g == "" {
		g = m[2]
	}
	v, err := strconv.ParseFloat(g, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Parse extracts a Spec from a strategy description. It is a best-effort
// keyword extractor, not a language model: it never fails, and text with no
// recognizable pattern yields empty condition lists (a buy list that stays
// empty means the position can never be entered).
func Parse(text string) Spec {
	spec := Spec{
		InitialCapital: DefaultCapital,
		Description:    text,
	}
	lower := strings.ToLower(text)

	// Buy side.
	if containsAny(lower, "dip", "drop", "fall", "decline") {
		if pct, ok := extractPercent(lower); ok && pct != 0 {
			spec.BuyConditions = append(spec.BuyConditions, Condition{Kind: KindDip, Percent: pct})
		}
	}
	if strings.Contains(lower, "rsi") && strings.Contains(lower, "below") &&
		strings.Index(lower, "rsi") < strings.Index(lower, "below") {
		if m := rsiBelowRe.FindStringSubmatch(lower); m != nil {
			v, _ := strconv.ParseFloat(m[1], 64)
			spec.BuyConditions = append(spec.BuyConditions, Condition{Kind: KindRSIBelow, Value: v})
		}
	}
	if strings.Contains(lower, "below") &&
		(!strings.Contains(lower, "rsi") || strings.Index(lower, "rsi") > strings.Index(lower, "below")) {
		if m := priceBelowRe.FindStringSubmatch(lower); m != nil {
			p, _ := strconv.ParseFloat(m[1], 64)
			spec.BuyConditions = append(spec.BuyConditions, Condition{Kind: KindPriceBelow, Price: p})
		}
	}

	// Sell side.
	if containsAny(lower, "rise", "gain", "increase", "profit") {
		if pct, ok := extractPercent(lower); ok && pct != 0 {
			spec.SellConditions = append(spec.SellConditions, Condition{Kind: KindRise, Percent: pct})
		}
	}
	if strings.Contains(lower, "rsi") && strings.Contains(lower, "above") {
		if m := rsiAboveRe.FindStringSubmatch(lower); m != nil {
			v, _ := strconv.ParseFloat(m[1], 64)
			spec.SellConditions = append(spec.SellConditions, Condition{Kind: KindRSIAbove, Value: v})
		}
	}
	if strings.Contains(lower, "above") {
		before, _, _ := strings.Cut(lower, "above")
		if !strings.Contains(before, "rsi") {
			if m := priceAboveRe.FindStringSubmatch(lower); m != nil {
				p, _ := strconv.ParseFloat(m[1], 64)
				spec.SellConditions = append(spec.SellConditions, Condition{Kind: KindPriceAbove, Price: p})
			}
		}
	}

	// Initial capital.
	if m := capitalRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			spec.InitialCapital = v
		}
	}

	return spec
}
