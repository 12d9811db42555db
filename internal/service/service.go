package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/security"
)

// CreateOrderInput is everything a caller supplies to open an order. The
// client total is advisory: the server recomputes the authoritative total and
// only tolerates a small rounding difference.
type CreateOrderInput struct {
	CustomerID    int32
	SubCategoryID int32
	CityID        int32
	DateFrom      time.Time
	DateTo        time.Time
	VehiclesCount int32
	ClientTotal   decimal.Decimal
	Notes         string
	PassportImage string
	HotelName     string
	HotelAddress  string
	HotelPhone    string
	IsUrgent      bool
	PaymentMethod domain.PaymentMethod
}

// CreateOrderResult carries the persisted order plus, for PayPal orders, the
// gateway approval link the customer must visit.
type CreateOrderResult struct {
	Order       *domain.Order
	ApproveLink string
}

type OrderService interface {
	CreateOrder(ctx context.Context, actor *security.Principal, input CreateOrderInput) (*CreateOrderResult, error)
	ConfirmOrder(ctx context.Context, actor *security.Principal, orderID int32, vehicleIDs []int32) (*domain.Order, error)
	MarkOnWay(ctx context.Context, actor *security.Principal, orderID int32) (*domain.Order, error)
	MarkCustomerReceived(ctx context.Context, actor *security.Principal, orderID int32) (*domain.Order, error)
	CompleteOrder(ctx context.Context, actor *security.Principal, orderID int32) (*domain.Order, error)
	CancelOrder(ctx context.Context, actor *security.Principal, orderID int32) (*domain.Order, error)
	ProcessRefund(ctx context.Context, actor *security.Principal, orderID int32, outcome domain.RefundState) (*domain.RefundablePaypalAmount, error)
	GetOrder(ctx context.Context, actor *security.Principal, orderID int32) (*domain.Order, error)
	ListOrders(ctx context.Context, actor *security.Principal, customerID int32, state string, page, pageSize int32) ([]domain.Order, int32, error)
}

type AvailabilityService interface {
	// HasConflict is the sub-category scoped pre-check used at order creation.
	HasConflict(ctx context.Context, subCategoryID int32, dateFrom, dateTo time.Time) (bool, error)
	// HasVehicleConflict is the per-unit check used at confirmation.
	HasVehicleConflict(ctx context.Context, vehicleID int32, dateFrom, dateTo time.Time) (bool, error)
	// Calendar returns per-day booked counts for a sub-category.
	Calendar(ctx context.Context, subCategoryID int32, dateFrom, dateTo time.Time) ([]domain.DayCount, error)
}

type TreasuryService interface {
	AddRevenue(ctx context.Context, amount decimal.Decimal, description string, orderID *int32) error
	AddCancellationFee(ctx context.Context, amount decimal.Decimal, description string, orderID *int32) error
	GetTreasury(ctx context.Context) (*domain.CompanyTreasury, error)
	ListEntries(ctx context.Context, page, pageSize int32) ([]domain.TreasuryEntry, int32, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, customerID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, customerID, notificationID int32) error
}

// GatewayOrder is the gateway's handle for a created payment order.
type GatewayOrder struct {
	GatewayOrderID string
	ApproveLink    string
}

// GatewayCapture is the outcome of capturing an approved gateway order.
type GatewayCapture struct {
	TransactionID string
	Status        string // the core only inspects COMPLETED vs anything else
}

const GatewayCaptureCompleted = "COMPLETED"

// PaymentGateway is the PayPal-shaped collaborator boundary. The core treats
// it as a black box: create an order, capture it, inspect success/failure.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, reference string, amount decimal.Decimal, currency string) (*GatewayOrder, error)
	CaptureOrder(ctx context.Context, gatewayOrderID string) (*GatewayCapture, error)
}
