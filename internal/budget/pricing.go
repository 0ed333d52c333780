package budget

import "github.com/shopspring/decimal"

// ModelPricing holds per-model token prices in USD per million tokens.
type ModelPricing struct {
	InputPerMTok  decimal.Decimal
	OutputPerMTok decimal.Decimal
}

var million = decimal.NewFromInt(1_000_000)

// Cost calculates the USD cost of one call at this pricing.
func (p ModelPricing) Cost(inputTokens, outputTokens int64) decimal.Decimal {
	in := decimal.NewFromInt(inputTokens).Mul(p.InputPerMTok).Div(million)
	out := decimal.NewFromInt(outputTokens).Mul(p.OutputPerMTok).Div(million)
	return in.Add(out)
}

// DefaultPricing contains built-in pricing for Claude models (USD per
// million tokens).
var DefaultPricing = map[string]ModelPricing{
	"claude-opus-4-6": {
		InputPerMTok:  decimal.NewFromFloat(5),
		OutputPerMTok: decimal.NewFromFloat(25),
	},
	"claude-sonnet-4-5": {
		InputPerMTok:  decimal.NewFromFloat(3),
		OutputPerMTok: decimal.NewFromFloat(15),
	},
	"claude-haiku-4-5": {
		InputPerMTok:  decimal.NewFromFloat(1),
		OutputPerMTok: decimal.NewFromFloat(5),
	},
}
