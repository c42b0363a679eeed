package llm

// price is USD per million tokens.
type price struct{ in, out float64 }

// prices for the default and alias models, USD per 1M tokens.
var prices = map[string]price{
	"claude-haiku-4-5":        {1, 5},
	"claude-sonnet-4-5":       {3, 15},
	"gpt-4.1-mini":            {0.4, 1.6},
	"gpt-4.1-nano":            {0.1, 0.4},
	"gemini-2.5-flash":        {0.3, 2.5},
	"gemini-2.5-pro":          {1.25, 10},
	"google/gemini-2.5-flash": {0.3, 2.5},
}

// EstimateCost returns the USD cost of a call, or false for an unpriced
// model.
func EstimateCost(model string, inputTokens, outputTokens int) (float64, bool) {
	p, ok := prices[model]
	if !ok {
		return 0, false
	}
	return (float64(inputTokens)*p.in + float64(outputTokens)*p.out) / 1e6, true
}
