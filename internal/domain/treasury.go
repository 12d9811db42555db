package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TreasuryEntryKind string

const (
	TreasuryEntryRevenue         TreasuryEntryKind = "REVENUE"
	TreasuryEntryCancellationFee TreasuryEntryKind = "CANCELLATION_FEE"
)

// TreasuryEntry is one append-only credit in the company ledger.
type TreasuryEntry struct {
	ID          int32             `json:"id"`
	Kind        TreasuryEntryKind `json:"kind"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	OrderID     *int32            `json:"order_id,omitempty"`
	CreatedOn   time.Time         `json:"created_on"`
}

// CompanyTreasury is the singleton projection over the entry log: the
// accumulated totals, recomputable as the sum of all entries. Lazily created
// on first credit.
type CompanyTreasury struct {
	ID                    int32           `json:"id"`
	TotalRevenue          decimal.Decimal `json:"total_revenue"`
	TotalCancellationFees decimal.Decimal `json:"total_cancellation_fees"`
	UpdatedOn             time.Time       `json:"updated_on"`
}

func (t *CompanyTreasury) Balance() decimal.Decimal {
	return t.TotalRevenue.Add(t.TotalCancellationFees)
}
