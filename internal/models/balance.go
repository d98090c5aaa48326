package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the latest captured snapshot for one asset.
type Balance struct {
	ID         int64            `json:"id"`
	CapturedAt time.Time        `json:"captured_at"`
	Asset      string           `json:"asset"`
	Balance    decimal.Decimal  `json:"balance"`
	USDPrice   *decimal.Decimal `json:"usd_price,omitempty"`
	USDValue   *decimal.Decimal `json:"usd_value,omitempty"`
	Source     *string          `json:"source,omitempty"`
}
