package strategy

import "testing"

func TestParseDip(t *testing.T) {
	spec := Parse("Buy when it dips 10 percent")

	if len(spec.BuyConditions) != 1 {
		t.Fatalf("BuyConditions = %v, want exactly one", spec.BuyConditions)
	}
	c := spec.BuyConditions[0]
	if c.Kind != KindDip || c.Percent != 10 {
		t.Errorf("buy condition = %+v, want dip(10)", c)
	}
	if len(spec.SellConditions) != 0 {
		t.Errorf("SellConditions = %v, want none", spec.SellConditions)
	}
	if spec.InitialCapital != DefaultCapital {
		t.Errorf("InitialCapital = %v, want default %v", spec.InitialCapital, DefaultCapital)
	}
}

func TestParseRSIWithCapital(t *testing.T) {
	spec := Parse("Buy when RSI below 30, sell when RSI above 70, 5000 starting capital")

	if len(spec.BuyConditions) != 1 || spec.BuyConditions[0].Kind != KindRSIBelow || spec.BuyConditions[0].Value != 30 {
		t.Errorf("BuyConditions = %+v, want [rsi_below(30)]", spec.BuyConditions)
	}
	if len(spec.SellConditions) != 1 || spec.SellConditions[0].Kind != KindRSIAbove || spec.SellConditions[0].Value != 70 {
		t.Errorf("SellConditions = %+v, want [rsi_above(70)]", spec.SellConditions)
	}
	if spec.InitialCapital != 5000 {
		t.Errorf("InitialCapital = %v, want 5000", spec.InitialCapital)
	}
}

func TestParsePriceLevels(t *testing.T) {
	spec := Parse("buy below 100, sell above 120")

	if len(spec.BuyConditions) != 1 || spec.BuyConditions[0].Kind != KindPriceBelow || spec.BuyConditions[0].Price != 100 {
		t.Errorf("BuyConditions = %+v, want [price_below(100)]", spec.BuyConditions)
	}
	if len(spec.SellConditions) != 1 || spec.SellConditions[0].Kind != KindPriceAbove || spec.SellConditions[0].Price != 120 {
		t.Errorf("SellConditions = %+v, want [price_above(120)]", spec.SellConditions)
	}
}

func TestParseDollarPrices(t *testing.T) {
	spec := Parse("Buy below $95.50, sell above $110.25")

	if len(spec.BuyConditions) != 1 || spec.BuyConditions[0].Price != 95.5 {
		t.Errorf("BuyConditions = %+v, want [price_below(95.5)]", spec.BuyConditions)
	}
	if len(spec.SellConditions) != 1 || spec.SellConditions[0].Price != 110.25 {
		t.Errorf("SellConditions = %+v, want [price_above(110.25)]", spec.SellConditions)
	}
}

func TestParseDropAndRise(t *testing.T) {
	spec := Parse("Buy when price drops 5%, sell when it rises 10%")

	if len(spec.BuyConditions) != 1 || spec.BuyConditions[0].Kind != KindDip {
		t.Fatalf("BuyConditions = %+v, want [dip]", spec.BuyConditions)
	}
	// Both families share the same percentage extractor: the first
	// percentage literal in the text wins for each side.
	if spec.BuyConditions[0].Percent != 5 {
		t.Errorf("dip percent = %v, want 5", spec.BuyConditions[0].Percent)
	}
	if len(spec.SellConditions) != 1 || spec.SellConditions[0].Kind != KindRise || spec.SellConditions[0].Percent != 5 {
		t.Errorf("SellConditions = %+v, want [rise(5)]", spec.SellConditions)
	}
}

func TestParseUnrecognizedTextYieldsEmptySpec(t *testing.T) {
	spec := Parse("hold forever and hope for the best")

	if len(spec.BuyConditions) != 0 || len(spec.SellConditions) != 0 {
		t.Errorf("conditions = %v / %v, want both empty", spec.BuyConditions, spec.SellConditions)
	}
	if spec.InitialCapital != DefaultCapital {
		t.Errorf("InitialCapital = %v, want default", spec.InitialCapital)
	}
	if spec.Description == "" {
		t.Error("Description not preserved")
	}
}

func TestParseRSIAfterBelowIsPriceRule(t *testing.T) {
	// "below" precedes "rsi", so the buy side is a price level, not an RSI
	// threshold.
	spec := Parse("buy below 50 when rsi is weak")

	if len(spec.BuyConditions) != 1 || spec.BuyConditions[0].Kind != KindPriceBelow {
		t.Errorf("BuyConditions = %+v, want [price_below(50)]", spec.BuyConditions)
	}
}

func TestParseCapitalWithDollarSign(t *testing.T) {
	spec := Parse("buy below 10, invest $2500 with conviction")
	if spec.InitialCapital != 2500 {
		t.Errorf("InitialCapital = %v, want 2500", spec.InitialCapital)
	}
}
