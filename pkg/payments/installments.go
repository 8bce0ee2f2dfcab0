// Package payments converts a cash price into the table of credit-card
// installment options offered at checkout.
package payments

import (
	"github.com/shopspring/decimal"
)

// MaxInstallments is the number of rows every schedule carries.
const MaxInstallments = 12

type Installment struct {
	Count          int             `json:"count"`
	PerInstallment decimal.Decimal `json:"perInstallment"`
	Total          decimal.Decimal `json:"total"`
}

var oneHundred = decimal.NewFromInt(100)

// Schedule returns the full 1..12 installment table for a price under the
// tenant's monthly interest rate (percent). The single-installment row is
// always the cash price, never marked up. A zero rate means interest-free
// installments; it is a valid configuration, not a missing one.
//
// No row is ever filtered out here; hiding uneconomically small installments
// is a presentation concern.
func Schedule(price, monthlyRatePercent decimal.Decimal) []Installment {
	rows := make([]Installment, 0, MaxInstallments)
	rows = append(rows, Installment{Count: 1, PerInstallment: price, Total: price})

	total := price
	if monthlyRatePercent.IsPositive() {
		total = price.Mul(decimal.NewFromInt(1).Add(monthlyRatePercent.Div(oneHundred)))
	}
	for count := 2; count <= MaxInstallments; count++ {
		rows = append(rows, Installment{
			Count:          count,
			PerInstallment: total.Div(decimal.NewFromInt(int64(count))).Round(2),
			Total:          total,
		})
	}
	return rows
}
