package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// City carries the per-city fee policy. All fee components are optional:
// a nil pointer means the city does not charge that fee.
type City struct {
	ID                    int32            `json:"id"`
	Name                  string           `json:"name"`
	DeliveryFeePerVehicle *decimal.Decimal `json:"delivery_fee_per_vehicle,omitempty"`
	ServiceFeePercent     *decimal.Decimal `json:"service_fee_percent,omitempty"`
	UrgentFee             *decimal.Decimal `json:"urgent_fee,omitempty"`
	CancellationFee       *decimal.Decimal `json:"cancellation_fee,omitempty"`
	CreatedOn             time.Time        `json:"created_on"`
}
