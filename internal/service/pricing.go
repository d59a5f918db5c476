package service

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"gearrent/internal/domain"
)

// ErrUnpriceable indica que ninguna tarifa aplica a la ventana pedida.
// Es distinto de un precio cero: el checkout debe bloquearse.
var ErrUnpriceable = errors.New("no applicable rate tier")

const (
	millisPerHour = int64(time.Hour / time.Millisecond)
	millisPerDay  = 24 * millisPerHour
)

// DurationDays calcula la duración en días con ceil sobre la resta en
// milisegundos: cualquier día parcial cuenta como día completo.
func DurationDays(start, end time.Time) int64 {
	return ceilDiv(end.Sub(start).Milliseconds(), millisPerDay)
}

// CalculateQuote selecciona la tarifa aplicable y calcula el total.
//
// La cascada de selección es estricta y su orden es observable en los
// precios, incluido el paso final donde la tarifa diaria aplica fuera de
// su banda de ≤7 días cuando ninguna otra coincidió:
//
//	1. ≤1 día y hay tarifa por hora   -> horas (mínimo 1)
//	2. ≤7 días y hay tarifa diaria    -> días
//	3. ≤30 días y hay tarifa semanal  -> semanas = ceil(días/7)
//	4. hay tarifa mensual             -> meses = ceil(días/30)
//	5. hay tarifa diaria              -> días
//	6. sin tarifa aplicable           -> ErrUnpriceable
//
// El orden de la ventana (end > start) y quantity >= 1 se validan en la
// capa HTTP, no aquí.
func CalculateQuote(start, end time.Time, quantity int64, rates domain.RateTable) (domain.Quote, error) {
	days := DurationDays(start, end)

	var (
		tier      domain.RateTier
		units     int64
		unitPrice decimal.Decimal
	)
	switch {
	case days <= 1 && rates.Hourly != nil:
		hours := ceilDiv(end.Sub(start).Milliseconds(), millisPerHour)
		if hours < 1 {
			hours = 1
		}
		tier, units = domain.RateTierHourly, hours
		unitPrice = rates.Hourly.Mul(decimal.NewFromInt(hours))
	case days <= 7 && rates.Daily != nil:
		tier, units = domain.RateTierDaily, days
		unitPrice = rates.Daily.Mul(decimal.NewFromInt(days))
	case days <= 30 && rates.Weekly != nil:
		weeks := ceilDiv(days, 7)
		tier, units = domain.RateTierWeekly, weeks
		unitPrice = rates.Weekly.Mul(decimal.NewFromInt(weeks))
	case rates.Monthly != nil:
		months := ceilDiv(days, 30)
		tier, units = domain.RateTierMonthly, months
		unitPrice = rates.Monthly.Mul(decimal.NewFromInt(months))
	case rates.Daily != nil:
		tier, units = domain.RateTierDaily, days
		unitPrice = rates.Daily.Mul(decimal.NewFromInt(days))
	default:
		return domain.Quote{}, ErrUnpriceable
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(quantity))
	deposit := decimal.Zero
	if rates.SecurityDeposit != nil {
		// El depósito se suma una sola vez, sin escalar por cantidad
		// ni duración.
		deposit = *rates.SecurityDeposit
	}

	return domain.Quote{
		Tier:      tier,
		Units:     units,
		UnitPrice: unitPrice,
		Subtotal:  subtotal,
		Deposit:   deposit,
		Total:     subtotal.Add(deposit),
	}, nil
}

func ceilDiv(n, d int64) int64 {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}
