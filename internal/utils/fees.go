package utils

import (
	"time"

	"github.com/shopspring/decimal"

	"rentwheels-backend/internal/domain"
)

// GracePeriod is the window after order creation during which cancellation
// incurs no fee. Fixed policy, not configurable per city.
const GracePeriod = 4 * 24 * time.Hour

var oneHundred = decimal.NewFromInt(100)

// ComputeSubtotal returns unitPrice * count.
func ComputeSubtotal(unitPrice decimal.Decimal, count int32) (decimal.Decimal, error) {
	if unitPrice.IsNegative() {
		return decimal.Zero, domain.Validationf("unit price must be non-negative, got %s", unitPrice)
	}
	if count <= 0 {
		return decimal.Zero, domain.Validationf("vehicles count must be positive, got %d", count)
	}
	return unitPrice.Mul(decimal.NewFromInt32(count)), nil
}

// ComputeTotal adds the city-configured fees onto the subtotal. Every fee
// component is optional; a nil pointer contributes zero. The urgent fee is
// only charged when the order is urgent.
func ComputeTotal(subtotal decimal.Decimal, deliveryFeePerVehicle, serviceFeePercent, urgentFee *decimal.Decimal, count int32, isUrgent bool) decimal.Decimal {
	total := subtotal
	if deliveryFeePerVehicle != nil {
		total = total.Add(deliveryFeePerVehicle.Mul(decimal.NewFromInt32(count)))
	}
	if serviceFeePercent != nil {
		total = total.Add(serviceFeePercent.Mul(subtotal).Div(oneHundred))
	}
	if isUrgent && urgentFee != nil {
		total = total.Add(*urgentFee)
	}
	return total
}

// TotalsMatch reports whether the client-computed total agrees with the
// server-computed one within the tolerance. The server total is authoritative;
// small rounding differences from the client are tolerated, not rejected.
func TotalsMatch(serverTotal, clientTotal, tolerance decimal.Decimal) bool {
	return serverTotal.Sub(clientTotal).Abs().LessThanOrEqual(tolerance)
}

// ComputeCancellationFee returns the fee for cancelling an order created at
// orderCreatedAt, per the city policy. Nil means no charge: either the order
// is still inside the grace period, or the city configures no fee.
func ComputeCancellationFee(city *domain.City, orderCreatedAt, now time.Time) *decimal.Decimal {
	if now.Sub(orderCreatedAt) <= GracePeriod {
		return nil
	}
	return city.CancellationFee
}
