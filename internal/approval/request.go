package approval

import (
	"github.com/shopspring/decimal"

	"walletconsole/internal/models"
)

// Params are the two user-adjustable evaluation knobs. Nil means "use the
// configured default".
type Params struct {
	SlippageBps    *int
	GasEstimateUSD *decimal.Decimal
}

// Defaults are fixed at startup from configuration. The asset pair is a
// display/usability fallback for suggestions that omit their legs, not a
// risk decision.
type Defaults struct {
	AssetFrom      string
	AssetTo        string
	SlippageBps    int
	GasEstimateUSD decimal.Decimal
}

// BuildEvaluationRequest translates a suggestion plus the user's parameters
// into the evaluator's input. Missing assets fall back to the defaults, a
// missing amount becomes 0, and amount/gas are clamped non-negative.
// Slippage is passed through as-is; range validation belongs to the
// evaluator.
func BuildEvaluationRequest(s models.Suggestion, p Params, d Defaults) models.EvaluationRequest {
	req := models.EvaluationRequest{
		AssetFrom:      d.AssetFrom,
		AssetTo:        d.AssetTo,
		SlippageBps:    d.SlippageBps,
		GasEstimateUSD: d.GasEstimateUSD,
	}
	if s.AssetFrom != nil && *s.AssetFrom != "" {
		req.AssetFrom = *s.AssetFrom
	}
	if s.AssetTo != nil && *s.AssetTo != "" {
		req.AssetTo = *s.AssetTo
	}
	if s.AmountUSD != nil {
		req.SuggestedAmountUSD = *s.AmountUSD
	}
	if p.SlippageBps != nil {
		req.SlippageBps = *p.SlippageBps
	}
	if p.GasEstimateUSD != nil {
		req.GasEstimateUSD = *p.GasEstimateUSD
	}
	if req.SuggestedAmountUSD.IsNegative() {
		req.SuggestedAmountUSD = decimal.Zero
	}
	if req.GasEstimateUSD.IsNegative() {
		req.GasEstimateUSD = decimal.Zero
	}
	return req
}
