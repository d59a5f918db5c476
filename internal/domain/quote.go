package domain

import "github.com/shopspring/decimal"

// RateTier es la granularidad de precio elegida para una renta.
type RateTier string

const (
	RateTierHourly  RateTier = "hourly"
	RateTierDaily   RateTier = "daily"
	RateTierWeekly  RateTier = "weekly"
	RateTierMonthly RateTier = "monthly"
)

// Quote es el resultado del cálculo de precio de una renta. El depósito
// se suma una sola vez, nunca se multiplica por cantidad ni duración.
type Quote struct {
	Tier      RateTier        `json:"tier"`
	Units     int64           `json:"units"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Deposit   decimal.Decimal `json:"deposit"`
	Total     decimal.Decimal `json:"total"`
}
