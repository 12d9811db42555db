package repository

import (
	"context"
	"time"

	"rentwheels-backend/internal/domain"
)

// Transactor runs a function inside a single database transaction. The open
// transaction travels in the context, so any repository call made with that
// context joins it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int32) (*domain.Order, error)
	GetByPublicCode(ctx context.Context, code string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	ListByCustomer(ctx context.Context, customerID int32, state string, page, pageSize int32) ([]domain.Order, int32, error)
	ListStalePendingPaypal(ctx context.Context, olderThan time.Time) ([]domain.Order, error)
	ListReturnsDueBy(ctx context.Context, deadline time.Time) ([]domain.Order, error)

	AddOrderVehicles(ctx context.Context, orderID int32, vehicleIDs []int32) error
	ListOrderVehicles(ctx context.Context, orderID int32) ([]int32, error)

	CreateTotals(ctx context.Context, totals *domain.OrderTotals) error
	GetTotalsByOrder(ctx context.Context, orderID int32) (*domain.OrderTotals, error)
}

type ReservationRepository interface {
	CreateBatch(ctx context.Context, rows []domain.ReservedVehiclePerDay) error
	// CancelByOrder flips every still-booked row of the order to CANCELLED.
	// Rows already cancelled are left alone, so the call is idempotent.
	CancelByOrder(ctx context.Context, orderID int32) (int64, error)
	HasSubCategoryConflict(ctx context.Context, subCategoryID int32, dateFrom, dateTo time.Time) (bool, error)
	HasVehicleConflict(ctx context.Context, vehicleID int32, dateFrom, dateTo time.Time) (bool, error)
	CountBookedPerDay(ctx context.Context, subCategoryID int32, dateFrom, dateTo time.Time) ([]domain.DayCount, error)
}

type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *domain.OrderPayment) error
	GetPaymentByOrder(ctx context.Context, orderID int32) (*domain.OrderPayment, error)
	UpdatePayment(ctx context.Context, p *domain.OrderPayment) error

	CreateCancellationFee(ctx context.Context, f *domain.OrderCancellationFee) error
	GetCancellationFeeByOrder(ctx context.Context, orderID int32) (*domain.OrderCancellationFee, error)
	UpdateCancellationFee(ctx context.Context, f *domain.OrderCancellationFee) error

	CreateRefundable(ctx context.Context, r *domain.RefundablePaypalAmount) error
	GetRefundableByOrder(ctx context.Context, orderID int32) (*domain.RefundablePaypalAmount, error)
	UpdateRefundable(ctx context.Context, r *domain.RefundablePaypalAmount) error
}

type TreasuryRepository interface {
	// AddEntry appends a ledger entry and folds it into the singleton
	// projection row, creating the row on first use.
	AddEntry(ctx context.Context, entry *domain.TreasuryEntry) error
	Get(ctx context.Context) (*domain.CompanyTreasury, error)
	ListEntries(ctx context.Context, page, pageSize int32) ([]domain.TreasuryEntry, int32, error)
}

type VehicleRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Vehicle, error)
	ListBySubCategory(ctx context.Context, subCategoryID int32) ([]domain.Vehicle, error)
	UpdateStatus(ctx context.Context, id int32, status domain.VehicleStatus) error
}

type CatalogRepository interface {
	GetCity(ctx context.Context, id int32) (*domain.City, error)
	GetSubCategory(ctx context.Context, id int32) (*domain.SubCategory, error)
	GetCustomer(ctx context.Context, id int32) (*domain.Customer, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, customerID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, customerID int32) error
}
