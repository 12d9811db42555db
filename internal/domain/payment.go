package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentState string

const (
	PaymentStatePending  PaymentState = "PENDING"
	PaymentStatePaid     PaymentState = "PAID"
	PaymentStateFailed   PaymentState = "FAILED"
	PaymentStateRefunded PaymentState = "REFUNDED"
)

// OrderPayment is the single payment record of an order. Created at order
// creation in PENDING. Transitions are one-way; REFUNDED is only reachable
// from PAID.
type OrderPayment struct {
	ID             int32           `json:"id"`
	OrderID        int32           `json:"order_id"`
	Method         PaymentMethod   `json:"method"`
	Total          decimal.Decimal `json:"total"`
	State          PaymentState    `json:"state"`
	GatewayOrderID string          `json:"gateway_order_id,omitempty"`
	CreatedOn      time.Time       `json:"created_on"`
	UpdatedOn      time.Time       `json:"updated_on"`
}

// MarkPaid is the payment-capture checkpoint: confirmation for PayPal,
// customer receipt for cash.
func (p *OrderPayment) MarkPaid(now time.Time) error {
	if p.State != PaymentStatePending {
		return Conflictf("payment for order %d is %s, not %s", p.OrderID, p.State, PaymentStatePending)
	}
	p.State = PaymentStatePaid
	p.UpdatedOn = now
	return nil
}

func (p *OrderPayment) MarkFailed(now time.Time) error {
	if p.State != PaymentStatePending {
		return Conflictf("payment for order %d is %s, not %s", p.OrderID, p.State, PaymentStatePending)
	}
	p.State = PaymentStateFailed
	p.UpdatedOn = now
	return nil
}

// MarkRefunded is legal only from PAID; calling it on an already refunded
// payment is a no-op so refund settlement stays idempotent.
func (p *OrderPayment) MarkRefunded(now time.Time) error {
	if p.State == PaymentStateRefunded {
		return nil
	}
	if p.State != PaymentStatePaid {
		return Conflictf("payment for order %d is %s and cannot be refunded", p.OrderID, p.State)
	}
	p.State = PaymentStateRefunded
	p.UpdatedOn = now
	return nil
}

type CancellationFeeState string

const (
	CancellationFeeNotYet CancellationFeeState = "NOT_YET"
	CancellationFeePaid   CancellationFeeState = "PAID"
)

// OrderCancellationFee exists only when an order was cancelled after the
// grace period in a city with a nonzero cancellation fee.
type OrderCancellationFee struct {
	ID         int32                `json:"id"`
	CustomerID int32                `json:"customer_id"`
	OrderID    int32                `json:"order_id"`
	Fee        decimal.Decimal      `json:"fee"`
	State      CancellationFeeState `json:"state"`
	CreatedOn  time.Time            `json:"created_on"`
	UpdatedOn  time.Time            `json:"updated_on"`
}

type RefundState string

const (
	RefundStatePending RefundState = "PENDING"
	RefundStateSuccess RefundState = "SUCCESS"
	RefundStateFailed  RefundState = "FAILED"
)

// RefundablePaypalAmount is created only for PayPal orders being cancelled
// with a positive refundable amount. Refundable = order total minus
// cancellation fees, never negative.
type RefundablePaypalAmount struct {
	ID               int32           `json:"id"`
	OrderID          int32           `json:"order_id"`
	OrderTotal       decimal.Decimal `json:"order_total"`
	CancellationFees decimal.Decimal `json:"cancellation_fees"`
	Refundable       decimal.Decimal `json:"refundable"`
	State            RefundState     `json:"state"`
	CreatedOn        time.Time       `json:"created_on"`
	UpdatedOn        time.Time       `json:"updated_on"`
}
