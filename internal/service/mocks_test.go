package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"rentwheels-backend/internal/domain"
)

// fakeTx runs the function directly; transaction semantics are the
// repository layer's concern, not under test here.
type fakeTx struct{}

func (fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockOrderRepo struct{ mock.Mock }

func (m *MockOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepo) GetByID(ctx context.Context, id int32) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepo) GetByPublicCode(ctx context.Context, code string) (*domain.Order, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepo) Update(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepo) ListByCustomer(ctx context.Context, customerID int32, state string, page, pageSize int32) ([]domain.Order, int32, error) {
	args := m.Called(ctx, customerID, state, page, pageSize)
	var orders []domain.Order
	if args.Get(0) != nil {
		orders = args.Get(0).([]domain.Order)
	}
	return orders, args.Get(1).(int32), args.Error(2)
}

func (m *MockOrderRepo) ListStalePendingPaypal(ctx context.Context, olderThan time.Time) ([]domain.Order, error) {
	args := m.Called(ctx, olderThan)
	var orders []domain.Order
	if args.Get(0) != nil {
		orders = args.Get(0).([]domain.Order)
	}
	return orders, args.Error(1)
}

func (m *MockOrderRepo) ListReturnsDueBy(ctx context.Context, deadline time.Time) ([]domain.Order, error) {
	args := m.Called(ctx, deadline)
	var orders []domain.Order
	if args.Get(0) != nil {
		orders = args.Get(0).([]domain.Order)
	}
	return orders, args.Error(1)
}

func (m *MockOrderRepo) AddOrderVehicles(ctx context.Context, orderID int32, vehicleIDs []int32) error {
	return m.Called(ctx, orderID, vehicleIDs).Error(0)
}

func (m *MockOrderRepo) ListOrderVehicles(ctx context.Context, orderID int32) ([]int32, error) {
	args := m.Called(ctx, orderID)
	var ids []int32
	if args.Get(0) != nil {
		ids = args.Get(0).([]int32)
	}
	return ids, args.Error(1)
}

func (m *MockOrderRepo) CreateTotals(ctx context.Context, t *domain.OrderTotals) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockOrderRepo) GetTotalsByOrder(ctx context.Context, orderID int32) (*domain.OrderTotals, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderTotals), args.Error(1)
}

type MockReservationRepo struct{ mock.Mock }

func (m *MockReservationRepo) CreateBatch(ctx context.Context, rows []domain.ReservedVehiclePerDay) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *MockReservationRepo) CancelByOrder(ctx context.Context, orderID int32) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationRepo) HasSubCategoryConflict(ctx context.Context, subCategoryID int32, dateFrom, dateTo time.Time) (bool, error) {
	args := m.Called(ctx, subCategoryID, dateFrom, dateTo)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepo) HasVehicleConflict(ctx context.Context, vehicleID int32, dateFrom, dateTo time.Time) (bool, error) {
	args := m.Called(ctx, vehicleID, dateFrom, dateTo)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepo) CountBookedPerDay(ctx context.Context, subCategoryID int32, dateFrom, dateTo time.Time) ([]domain.DayCount, error) {
	args := m.Called(ctx, subCategoryID, dateFrom, dateTo)
	var counts []domain.DayCount
	if args.Get(0) != nil {
		counts = args.Get(0).([]domain.DayCount)
	}
	return counts, args.Error(1)
}

type MockPaymentRepo struct{ mock.Mock }

func (m *MockPaymentRepo) CreatePayment(ctx context.Context, p *domain.OrderPayment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepo) GetPaymentByOrder(ctx context.Context, orderID int32) (*domain.OrderPayment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderPayment), args.Error(1)
}

func (m *MockPaymentRepo) UpdatePayment(ctx context.Context, p *domain.OrderPayment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepo) CreateCancellationFee(ctx context.Context, f *domain.OrderCancellationFee) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockPaymentRepo) GetCancellationFeeByOrder(ctx context.Context, orderID int32) (*domain.OrderCancellationFee, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderCancellationFee), args.Error(1)
}

func (m *MockPaymentRepo) UpdateCancellationFee(ctx context.Context, f *domain.OrderCancellationFee) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockPaymentRepo) CreateRefundable(ctx context.Context, r *domain.RefundablePaypalAmount) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockPaymentRepo) GetRefundableByOrder(ctx context.Context, orderID int32) (*domain.RefundablePaypalAmount, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefundablePaypalAmount), args.Error(1)
}

func (m *MockPaymentRepo) UpdateRefundable(ctx context.Context, r *domain.RefundablePaypalAmount) error {
	return m.Called(ctx, r).Error(0)
}

type MockVehicleRepo struct{ mock.Mock }

func (m *MockVehicleRepo) GetByID(ctx context.Context, id int32) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}

func (m *MockVehicleRepo) ListBySubCategory(ctx context.Context, subCategoryID int32) ([]domain.Vehicle, error) {
	args := m.Called(ctx, subCategoryID)
	var vehicles []domain.Vehicle
	if args.Get(0) != nil {
		vehicles = args.Get(0).([]domain.Vehicle)
	}
	return vehicles, args.Error(1)
}

func (m *MockVehicleRepo) UpdateStatus(ctx context.Context, id int32, status domain.VehicleStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

type MockCatalogRepo struct{ mock.Mock }

func (m *MockCatalogRepo) GetCity(ctx context.Context, id int32) (*domain.City, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.City), args.Error(1)
}

func (m *MockCatalogRepo) GetSubCategory(ctx context.Context, id int32) (*domain.SubCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SubCategory), args.Error(1)
}

func (m *MockCatalogRepo) GetCustomer(ctx context.Context, id int32) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

type MockNotificationRepo struct{ mock.Mock }

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	return m.Called(ctx, note).Error(0)
}

func (m *MockNotificationRepo) List(ctx context.Context, customerID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, customerID, page, pageSize)
	var notes []domain.Notification
	if args.Get(0) != nil {
		notes = args.Get(0).([]domain.Notification)
	}
	return notes, args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, customerID int32) error {
	return m.Called(ctx, id, customerID).Error(0)
}

type MockTreasuryService struct{ mock.Mock }

func (m *MockTreasuryService) AddRevenue(ctx context.Context, amount decimal.Decimal, description string, orderID *int32) error {
	return m.Called(ctx, amount, description, orderID).Error(0)
}

func (m *MockTreasuryService) AddCancellationFee(ctx context.Context, amount decimal.Decimal, description string, orderID *int32) error {
	return m.Called(ctx, amount, description, orderID).Error(0)
}

func (m *MockTreasuryService) GetTreasury(ctx context.Context) (*domain.CompanyTreasury, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompanyTreasury), args.Error(1)
}

func (m *MockTreasuryService) ListEntries(ctx context.Context, page, pageSize int32) ([]domain.TreasuryEntry, int32, error) {
	args := m.Called(ctx, page, pageSize)
	var entries []domain.TreasuryEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.TreasuryEntry)
	}
	return entries, args.Get(1).(int32), args.Error(2)
}

type MockPaymentGateway struct{ mock.Mock }

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, reference string, amount decimal.Decimal, currency string) (*GatewayOrder, error) {
	args := m.Called(ctx, reference, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GatewayOrder), args.Error(1)
}

func (m *MockPaymentGateway) CaptureOrder(ctx context.Context, gatewayOrderID string) (*GatewayCapture, error) {
	args := m.Called(ctx, gatewayOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GatewayCapture), args.Error(1)
}
