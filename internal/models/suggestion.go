package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Suggestion is a backend-proposed trade awaiting review. The backend owns
// the record; the console never mutates it.
type Suggestion struct {
	ID         int64            `json:"id"`
	CreatedAt  time.Time        `json:"created_at"`
	Rule       string           `json:"rule"`
	AssetFrom  *string          `json:"asset_from,omitempty"`
	AssetTo    *string          `json:"asset_to,omitempty"`
	AmountUSD  *decimal.Decimal `json:"amount_usd,omitempty"`
	Confidence *float64         `json:"confidence,omitempty"`
	ParamsJSON *string          `json:"params_json,omitempty"`
	Reasoning  *string          `json:"reasoning,omitempty"`
}
