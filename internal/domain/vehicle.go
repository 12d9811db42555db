package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type VehicleStatus string

const (
	VehicleStatusAvailable        VehicleStatus = "AVAILABLE"
	VehicleStatusRented           VehicleStatus = "RENTED"
	VehicleStatusUnderMaintenance VehicleStatus = "UNDER_MAINTENANCE"
)

// Vehicle is a catalog entity; the order engine only ever flips its status
// between AVAILABLE and RENTED.
type Vehicle struct {
	ID            int32         `json:"id"`
	Code          string        `json:"code"`
	SubCategoryID int32         `json:"sub_category_id"`
	Status        VehicleStatus `json:"status"`
	CreatedOn     time.Time     `json:"created_on"`
	UpdatedOn     time.Time     `json:"updated_on"`
}

// SubCategory is a class of interchangeable vehicles sharing one price and
// availability pool.
type SubCategory struct {
	ID         int32           `json:"id"`
	CategoryID int32           `json:"category_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CreatedOn  time.Time       `json:"created_on"`
}
