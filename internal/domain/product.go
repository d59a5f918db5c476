package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateTable agrupa las tarifas opcionales de un producto. Un puntero nil
// significa que el producto no ofrece esa granularidad de renta.
type RateTable struct {
	Hourly          *decimal.Decimal `json:"hourly_rate,omitempty"`
	Daily           *decimal.Decimal `json:"daily_rate,omitempty"`
	Weekly          *decimal.Decimal `json:"weekly_rate,omitempty"`
	Monthly         *decimal.Decimal `json:"monthly_rate,omitempty"`
	SecurityDeposit *decimal.Decimal `json:"security_deposit,omitempty"`
}

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rates     RateTable `json:"rates"`
	CreatedAt time.Time `json:"created_at"`
}
