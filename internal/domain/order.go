package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderState string

const (
	OrderStatePending          OrderState = "PENDING"
	OrderStateConfirmed        OrderState = "CONFIRMED"
	OrderStateOnWay            OrderState = "ON_WAY"
	OrderStateCustomerReceived OrderState = "CUSTOMER_RECEIVED"
	OrderStateCompleted        OrderState = "COMPLETED"
)

// CancellationStatus is orthogonal to OrderState: cancelling an order leaves
// the lifecycle state where it was and records the cancellation here.
type CancellationStatus string

const (
	CancellationNone      CancellationStatus = "NONE"
	CancellationRequested CancellationStatus = "REQUESTED"
	CancellationSettled   CancellationStatus = "SETTLED"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodPaypal PaymentMethod = "PAYPAL"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodPaypal
}

type Order struct {
	ID            int32              `json:"id"`
	PublicCode    string             `json:"public_code"`
	CustomerID    int32              `json:"customer_id"`
	SubCategoryID int32              `json:"sub_category_id"`
	CityID        int32              `json:"city_id"`
	DateFrom      time.Time          `json:"date_from"`
	DateTo        time.Time          `json:"date_to"`
	VehiclesCount int32              `json:"vehicles_count"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Total         decimal.Decimal    `json:"total"`
	Notes         string             `json:"notes"`
	PassportImage string             `json:"passport_image"`
	HotelName     string             `json:"hotel_name"`
	HotelAddress  string             `json:"hotel_address"`
	HotelPhone    string             `json:"hotel_phone"`
	IsUrgent      bool               `json:"is_urgent"`
	PaymentMethod PaymentMethod      `json:"payment_method"`
	State         OrderState         `json:"state"`
	Cancellation  CancellationStatus `json:"cancellation"`
	CreatedOn     time.Time          `json:"created_on"`
	CreatedBy     int32              `json:"created_by"`
	UpdatedOn     time.Time          `json:"updated_on"`
	UpdatedBy     int32              `json:"updated_by"`
}

// Cancelled reports whether a cancellation has been recorded against the
// order, regardless of its lifecycle state.
func (o *Order) Cancelled() bool {
	return o.Cancellation == CancellationRequested || o.Cancellation == CancellationSettled
}

func (o *Order) transition(from, to OrderState, by int32, now time.Time) error {
	if o.Cancelled() {
		return Conflictf("order %s is cancelled", o.PublicCode)
	}
	if o.State != from {
		return Conflictf("invalid state transition: order %s is %s, not %s", o.PublicCode, o.State, from)
	}
	o.State = to
	o.UpdatedOn = now
	o.UpdatedBy = by
	return nil
}

// Confirm moves the order from PENDING to CONFIRMED. The caller is
// responsible for having validated vehicle availability and assignment.
func (o *Order) Confirm(by int32, now time.Time) error {
	return o.transition(OrderStatePending, OrderStateConfirmed, by, now)
}

func (o *Order) MarkOnWay(by int32, now time.Time) error {
	return o.transition(OrderStateConfirmed, OrderStateOnWay, by, now)
}

func (o *Order) MarkCustomerReceived(by int32, now time.Time) error {
	return o.transition(OrderStateOnWay, OrderStateCustomerReceived, by, now)
}

func (o *Order) Complete(by int32, now time.Time) error {
	return o.transition(OrderStateCustomerReceived, OrderStateCompleted, by, now)
}

// Cancel records the cancellation without touching the lifecycle state.
// Illegal once completed or already cancelled.
func (o *Order) Cancel(by int32, now time.Time) error {
	if o.State == OrderStateCompleted {
		return Conflictf("order %s is completed and cannot be cancelled", o.PublicCode)
	}
	if o.Cancelled() {
		return Conflictf("order %s is already cancelled", o.PublicCode)
	}
	o.Cancellation = CancellationRequested
	o.UpdatedOn = now
	o.UpdatedBy = by
	return nil
}

// SettleCancellation marks the cancellation as fully settled (refund resolved
// or nothing owed).
func (o *Order) SettleCancellation(by int32, now time.Time) error {
	if o.Cancellation != CancellationRequested {
		return Conflictf("order %s has no pending cancellation", o.PublicCode)
	}
	o.Cancellation = CancellationSettled
	o.UpdatedOn = now
	o.UpdatedBy = by
	return nil
}

// OrderVehicle records which concrete vehicle units were assigned to an order
// at confirmation time. Created once, never mutated.
type OrderVehicle struct {
	OrderID   int32     `json:"order_id"`
	VehicleID int32     `json:"vehicle_id"`
	CreatedOn time.Time `json:"created_on"`
}

// OrderTotals is an immutable fee breakdown snapshot captured at creation.
type OrderTotals struct {
	ID          int32           `json:"id"`
	OrderID     int32           `json:"order_id"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ServiceFee  decimal.Decimal `json:"service_fee"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	UrgentFee   decimal.Decimal `json:"urgent_fee"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	CreatedOn   time.Time       `json:"created_on"`
}
