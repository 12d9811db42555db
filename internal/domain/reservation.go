package domain

import "time"

type ReservationState string

const (
	ReservationStillBooked ReservationState = "STILL_BOOKED"
	ReservationCancelled   ReservationState = "CANCELLED"
)

// ReservedVehiclePerDay is one (vehicle, calendar day) row marking that
// vehicle unavailable for that day. Rows are created only at order
// confirmation, one per vehicle per day of the reservation span, and are only
// ever mutated to CANCELLED when the order is cancelled. DateFrom and DateTo
// are always the same single day.
type ReservedVehiclePerDay struct {
	ID            int32            `json:"id"`
	VehicleID     int32            `json:"vehicle_id"`
	SubCategoryID int32            `json:"sub_category_id"`
	VehicleCode   string           `json:"vehicle_code"` // snapshot at confirmation time
	OrderID       int32            `json:"order_id"`
	DateFrom      time.Time        `json:"date_from"`
	DateTo        time.Time        `json:"date_to"`
	State         ReservationState `json:"state"`
	CreatedOn     time.Time        `json:"created_on"`
}

// DayCount is one day of the availability calendar: how many vehicles of a
// sub-category are booked on that day.
type DayCount struct {
	Day    time.Time `json:"day"`
	Booked int32     `json:"booked"`
}
