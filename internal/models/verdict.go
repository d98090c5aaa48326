package models

import "github.com/shopspring/decimal"

// VerdictApproved is the only status the workflow acts on. Everything else
// (rejected or any future backend vocabulary) means "do not record".
const VerdictApproved = "approved"

// EvaluationRequest is the input to POST /v1/approvals/evaluate.
type EvaluationRequest struct {
	AssetFrom          string          `json:"asset_from"`
	AssetTo            string          `json:"asset_to"`
	SuggestedAmountUSD decimal.Decimal `json:"suggested_amount_usd"`
	SlippageBps        int             `json:"slippage_bps"`
	GasEstimateUSD     decimal.Decimal `json:"gas_estimate_usd"`
}

// Verdict is the risk evaluator's answer. CappedAmountUSD is the sanctioned
// amount after caps; the console never recomputes it.
type Verdict struct {
	Status          string          `json:"status"`
	CapNotes        []string        `json:"cap_notes"`
	Violations      []string        `json:"violations"`
	CappedAmountUSD decimal.Decimal `json:"capped_amount_usd"`
}

// Approved reports whether the verdict sanctions recording a decision.
func (v Verdict) Approved() bool {
	return v.Status == VerdictApproved
}
