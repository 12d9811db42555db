package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/security"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	testNow   = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	adminUser = &security.Principal{UserID: 99, Name: "ops", Roles: []string{security.RoleAdmin}}
	customer7 = &security.Principal{UserID: 7, Name: "alice"}
)

type orderFixture struct {
	orderRepo       *MockOrderRepo
	reservationRepo *MockReservationRepo
	paymentRepo     *MockPaymentRepo
	vehicleRepo     *MockVehicleRepo
	catalogRepo     *MockCatalogRepo
	noteRepo        *MockNotificationRepo
	treasury        *MockTreasuryService
	gateway         *MockPaymentGateway
	svc             *orderService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orderRepo:       new(MockOrderRepo),
		reservationRepo: new(MockReservationRepo),
		paymentRepo:     new(MockPaymentRepo),
		vehicleRepo:     new(MockVehicleRepo),
		catalogRepo:     new(MockCatalogRepo),
		noteRepo:        new(MockNotificationRepo),
		treasury:        new(MockTreasuryService),
		gateway:         new(MockPaymentGateway),
	}
	svc := NewOrderService(fakeTx{}, f.orderRepo, f.reservationRepo, f.paymentRepo,
		f.vehicleRepo, f.catalogRepo, f.noteRepo, f.treasury, f.gateway,
		"USD", dec("0.50"))
	f.svc = svc.(*orderService)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *orderFixture) assertAll(t *testing.T) {
	t.Helper()
	f.orderRepo.AssertExpectations(t)
	f.reservationRepo.AssertExpectations(t)
	f.paymentRepo.AssertExpectations(t)
	f.vehicleRepo.AssertExpectations(t)
	f.catalogRepo.AssertExpectations(t)
	f.treasury.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
}

// 2 vehicles at 50/unit in a city with 10 delivery, 5% service and 15 urgent
// fee: subtotal 100, total 140 when urgent.
func testCity() *domain.City {
	return &domain.City{
		ID:                    3,
		Name:                  "Hurghada",
		DeliveryFeePerVehicle: decPtr("10.00"),
		ServiceFeePercent:     decPtr("5"),
		UrgentFee:             decPtr("15.00"),
		CancellationFee:       decPtr("25.00"),
	}
}

func testCreateInput(method domain.PaymentMethod) CreateOrderInput {
	return CreateOrderInput{
		CustomerID:    7,
		SubCategoryID: 4,
		CityID:        3,
		DateFrom:      day(2026, 6, 10),
		DateTo:        day(2026, 6, 12),
		VehiclesCount: 2,
		ClientTotal:   dec("140.00"),
		IsUrgent:      true,
		PaymentMethod: method,
	}
}

func (f *orderFixture) expectCatalog() {
	f.catalogRepo.On("GetCustomer", mock.Anything, int32(7)).Return(&domain.Customer{ID: 7, Name: "alice"}, nil)
	f.catalogRepo.On("GetCity", mock.Anything, int32(3)).Return(testCity(), nil)
	f.catalogRepo.On("GetSubCategory", mock.Anything, int32(4)).Return(
		&domain.SubCategory{ID: 4, Name: "Scooter 125cc", Price: dec("50.00")}, nil)
}

func TestCreateOrder_Cash(t *testing.T) {
	f := newOrderFixture(t)
	f.expectCatalog()
	f.reservationRepo.On("HasSubCategoryConflict", mock.Anything, int32(4), day(2026, 6, 10), day(2026, 6, 12)).
		Return(false, nil)
	f.orderRepo.On("Create", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.State == domain.OrderStatePending &&
			o.Cancellation == domain.CancellationNone &&
			o.Subtotal.Equal(dec("100.00")) &&
			o.Total.Equal(dec("140.00")) &&
			o.PublicCode != ""
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Order).ID = 42
	}).Return(nil)
	f.orderRepo.On("CreateTotals", mock.Anything, mock.MatchedBy(func(tt *domain.OrderTotals) bool {
		return tt.OrderID == 42 &&
			tt.Subtotal.Equal(dec("100.00")) &&
			tt.DeliveryFee.Equal(dec("20.00")) &&
			tt.ServiceFee.Equal(dec("5.00")) &&
			tt.UrgentFee.Equal(dec("15.00")) &&
			tt.GrandTotal.Equal(dec("140.00"))
	})).Return(nil)
	f.paymentRepo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p *domain.OrderPayment) bool {
		return p.OrderID == 42 && p.State == domain.PaymentStatePending && p.Total.Equal(dec("140.00"))
	})).Return(nil)

	result, err := f.svc.CreateOrder(context.Background(), customer7, testCreateInput(domain.PaymentMethodCash))
	require.NoError(t, err)
	assert.Equal(t, int32(42), result.Order.ID)
	assert.Empty(t, result.ApproveLink)
	f.assertAll(t)
	f.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_TotalMismatchRejected(t *testing.T) {
	f := newOrderFixture(t)
	f.expectCatalog()
	f.reservationRepo.On("HasSubCategoryConflict", mock.Anything, int32(4), day(2026, 6, 10), day(2026, 6, 12)).
		Return(false, nil)

	input := testCreateInput(domain.PaymentMethodCash)
	input.ClientTotal = dec("120.00") // server computes 140.00

	_, err := f.svc.CreateOrder(context.Background(), customer7, input)
	assert.True(t, domain.IsValidation(err))
	f.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder_WithinToleranceAccepted(t *testing.T) {
	f := newOrderFixture(t)
	f.expectCatalog()
	f.reservationRepo.On("HasSubCategoryConflict", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(false, nil)
	f.orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.orderRepo.On("CreateTotals", mock.Anything, mock.Anything).Return(nil)
	f.paymentRepo.On("CreatePayment", mock.Anything, mock.Anything).Return(nil)

	input := testCreateInput(domain.PaymentMethodCash)
	input.ClientTotal = dec("140.40")

	_, err := f.svc.CreateOrder(context.Background(), customer7, input)
	assert.NoError(t, err)
}

func TestCreateOrder_AvailabilityConflictRejected(t *testing.T) {
	f := newOrderFixture(t)
	f.expectCatalog()
	f.reservationRepo.On("HasSubCategoryConflict", mock.Anything, int32(4), day(2026, 6, 10), day(2026, 6, 12)).
		Return(true, nil)

	_, err := f.svc.CreateOrder(context.Background(), customer7, testCreateInput(domain.PaymentMethodCash))
	assert.True(t, domain.IsConflict(err))
	f.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder_InputValidation(t *testing.T) {
	f := newOrderFixture(t)

	t.Run("reversed dates", func(t *testing.T) {
		input := testCreateInput(domain.PaymentMethodCash)
		input.DateFrom, input.DateTo = input.DateTo, input.DateFrom
		_, err := f.svc.CreateOrder(context.Background(), customer7, input)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("equal dates", func(t *testing.T) {
		input := testCreateInput(domain.PaymentMethodCash)
		input.DateTo = input.DateFrom
		_, err := f.svc.CreateOrder(context.Background(), customer7, input)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("zero vehicles", func(t *testing.T) {
		input := testCreateInput(domain.PaymentMethodCash)
		input.VehiclesCount = 0
		_, err := f.svc.CreateOrder(context.Background(), customer7, input)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("unknown payment method", func(t *testing.T) {
		input := testCreateInput("BITCOIN")
		_, err := f.svc.CreateOrder(context.Background(), customer7, input)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("other customer's order", func(t *testing.T) {
		other := &security.Principal{UserID: 8}
		_, err := f.svc.CreateOrder(context.Background(), other, testCreateInput(domain.PaymentMethodCash))
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestCreateOrder_PaypalGateway(t *testing.T) {
	t.Run("success stores gateway id and approve link", func(t *testing.T) {
		f := newOrderFixture(t)
		f.expectCatalog()
		f.reservationRepo.On("HasSubCategoryConflict", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(false, nil)
		f.orderRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Order).ID = 42
		}).Return(nil)
		f.orderRepo.On("CreateTotals", mock.Anything, mock.Anything).Return(nil)
		f.paymentRepo.On("CreatePayment", mock.Anything, mock.Anything).Return(nil)
		f.gateway.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, "USD").
			Return(&GatewayOrder{GatewayOrderID: "PP-123", ApproveLink: "https://paypal.test/approve"}, nil)
		f.paymentRepo.On("UpdatePayment", mock.Anything, mock.MatchedBy(func(p *domain.OrderPayment) bool {
			return p.GatewayOrderID == "PP-123" && p.State == domain.PaymentStatePending
		})).Return(nil)

		result, err := f.svc.CreateOrder(context.Background(), customer7, testCreateInput(domain.PaymentMethodPaypal))
		require.NoError(t, err)
		assert.Equal(t, "https://paypal.test/approve", result.ApproveLink)
		f.assertAll(t)
	})

	t.Run("failure marks payment failed and surfaces gateway error", func(t *testing.T) {
		f := newOrderFixture(t)
		f.expectCatalog()
		f.reservationRepo.On("HasSubCategoryConflict", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(false, nil)
		f.orderRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.orderRepo.On("CreateTotals", mock.Anything, mock.Anything).Return(nil)
		f.paymentRepo.On("CreatePayment", mock.Anything, mock.Anything).Return(nil)
		f.gateway.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, "USD").
			Return(nil, errors.New("sandbox unreachable"))
		f.paymentRepo.On("UpdatePayment", mock.Anything, mock.MatchedBy(func(p *domain.OrderPayment) bool {
			return p.State == domain.PaymentStateFailed
		})).Return(nil)

		_, err := f.svc.CreateOrder(context.Background(), customer7, testCreateInput(domain.PaymentMethodPaypal))
		assert.True(t, domain.IsExternalService(err))
		f.assertAll(t)
	})
}

func confirmableOrder(method domain.PaymentMethod) *domain.Order {
	return &domain.Order{
		ID:            42,
		PublicCode:    "ORD-AB12CD34",
		CustomerID:    7,
		SubCategoryID: 4,
		CityID:        3,
		DateFrom:      day(2026, 6, 10),
		DateTo:        day(2026, 6, 12),
		VehiclesCount: 2,
		Total:         dec("140.00"),
		PaymentMethod: method,
		State:         domain.OrderStatePending,
		Cancellation:  domain.CancellationNone,
		CreatedOn:     testNow.Add(-time.Hour),
	}
}

func availableVehicle(id int32, code string) *domain.Vehicle {
	return &domain.Vehicle{ID: id, Code: code, SubCategoryID: 4, Status: domain.VehicleStatusAvailable}
}

func TestConfirmOrder_HappyPath(t *testing.T) {
	f := newOrderFixture(t)
	order := confirmableOrder(domain.PaymentMethodPaypal)
	f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
	f.vehicleRepo.On("GetByID", mock.Anything, int32(11)).Return(availableVehicle(11, "SC-011"), nil)
	f.vehicleRepo.On("GetByID", mock.Anything, int32(12)).Return(availableVehicle(12, "SC-012"), nil)
	f.reservationRepo.On("HasVehicleConflict", mock.Anything, int32(11), day(2026, 6, 10), day(2026, 6, 12)).Return(false, nil)
	f.reservationRepo.On("HasVehicleConflict", mock.Anything, int32(12), day(2026, 6, 10), day(2026, 6, 12)).Return(false, nil)
	f.orderRepo.On("AddOrderVehicles", mock.Anything, int32(42), []int32{11, 12}).Return(nil)
	f.reservationRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(rows []domain.ReservedVehiclePerDay) bool {
		// 2 vehicles * 3 days, every row single-day and STILL_BOOKED
		if len(rows) != 6 {
			return false
		}
		for _, row := range rows {
			if !row.DateFrom.Equal(row.DateTo) || row.State != domain.ReservationStillBooked || row.OrderID != 42 {
				return false
			}
		}
		return true
	})).Return(nil)
	f.vehicleRepo.On("UpdateStatus", mock.Anything, int32(11), domain.VehicleStatusRented).Return(nil)
	f.vehicleRepo.On("UpdateStatus", mock.Anything, int32(12), domain.VehicleStatusRented).Return(nil)
	f.orderRepo.On("Update", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.State == domain.OrderStateConfirmed
	})).Return(nil)
	f.paymentRepo.On("GetPaymentByOrder", mock.Anything, int32(42)).Return(
		&domain.OrderPayment{OrderID: 42, Method: domain.PaymentMethodPaypal, State: domain.PaymentStatePending, GatewayOrderID: "PP-123"}, nil)
	f.gateway.On("CaptureOrder", mock.Anything, "PP-123").Return(
		&GatewayCapture{TransactionID: "TX-789", Status: GatewayCaptureCompleted}, nil)
	f.paymentRepo.On("UpdatePayment", mock.Anything, mock.MatchedBy(func(p *domain.OrderPayment) bool {
		return p.State == domain.PaymentStatePaid
	})).Return(nil)
	f.noteRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.ConfirmOrder(context.Background(), adminUser, 42, []int32{11, 12})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStateConfirmed, got.State)
	f.assertAll(t)
}

// Mocks for the vehicle-binding steps that precede the payment capture.
func (f *orderFixture) expectVehicleBinding() {
	f.vehicleRepo.On("GetByID", mock.Anything, int32(11)).Return(availableVehicle(11, "SC-011"), nil)
	f.vehicleRepo.On("GetByID", mock.Anything, int32(12)).Return(availableVehicle(12, "SC-012"), nil)
	f.reservationRepo.On("HasVehicleConflict", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.orderRepo.On("AddOrderVehicles", mock.Anything, int32(42), []int32{11, 12}).Return(nil)
	f.reservationRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	f.vehicleRepo.On("UpdateStatus", mock.Anything, mock.Anything, domain.VehicleStatusRented).Return(nil)
	f.orderRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
}

func TestConfirmOrder_CaptureFailures(t *testing.T) {
	pendingPayment := func(gatewayOrderID string) *domain.OrderPayment {
		return &domain.OrderPayment{
			OrderID:        42,
			Method:         domain.PaymentMethodPaypal,
			State:          domain.PaymentStatePending,
			GatewayOrderID: gatewayOrderID,
		}
	}

	t.Run("gateway error aborts confirmation", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodPaypal), nil)
		f.expectVehicleBinding()
		f.paymentRepo.On("GetPaymentByOrder", mock.Anything, int32(42)).Return(pendingPayment("PP-123"), nil)
		f.gateway.On("CaptureOrder", mock.Anything, "PP-123").Return(nil, errors.New("sandbox unreachable"))

		_, err := f.svc.ConfirmOrder(context.Background(), adminUser, 42, []int32{11, 12})
		assert.True(t, domain.IsExternalService(err))
		f.paymentRepo.AssertNotCalled(t, "UpdatePayment", mock.Anything, mock.Anything)
	})

	t.Run("incomplete capture aborts confirmation", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodPaypal), nil)
		f.expectVehicleBinding()
		f.paymentRepo.On("GetPaymentByOrder", mock.Anything, int32(42)).Return(pendingPayment("PP-123"), nil)
		f.gateway.On("CaptureOrder", mock.Anything, "PP-123").Return(
			&GatewayCapture{Status: "DECLINED"}, nil)

		_, err := f.svc.ConfirmOrder(context.Background(), adminUser, 42, []int32{11, 12})
		assert.True(t, domain.IsExternalService(err))
		f.paymentRepo.AssertNotCalled(t, "UpdatePayment", mock.Anything, mock.Anything)
	})

	t.Run("missing gateway order id", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodPaypal), nil)
		f.expectVehicleBinding()
		f.paymentRepo.On("GetPaymentByOrder", mock.Anything, int32(42)).Return(pendingPayment(""), nil)

		_, err := f.svc.ConfirmOrder(context.Background(), adminUser, 42, []int32{11, 12})
		assert.True(t, domain.IsConflict(err))
		f.gateway.AssertNotCalled(t, "CaptureOrder", mock.Anything, mock.Anything)
	})
}

func TestConfirmOrder_Preconditions(t *testing.T) {
	t.Run("admin only", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.ConfirmOrder(context.Background(), customer7, 42, []int32{11, 12})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("wrong vehicle count", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodCash), nil)
		_, err := f.svc.ConfirmOrder(context.Background(), adminUser, 42, []int32{11})
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("duplicate vehicle ids", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodCash), nil)
		_, err := f.svc.ConfirmOrder(context.Background(), adminUser, 42, []int32{11, 11})
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("not pending", func(t *testing.T) {
		f := newOrderFixture(t)
		order := confirmableOrder(domain.PaymentMethodCash)
		order.State = domain.OrderStateConfirmed
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
		_, err := f.svc.ConfirmOrder(context.Background(), adminUser, 42, []int32{11, 12})
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newOrderFixture(t)
		order := confirmableOrder(domain.PaymentMethodCash)
		order.Cancellation = domain.CancellationRequested
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
		_, err := f.svc.ConfirmOrder(context.Background(), adminUser, 42, []int32{11, 12})
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("vehicle from another sub-category", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodCash), nil)
		wrong := availableVehicle(11, "SC-011")
		wrong.SubCategoryID = 5
		f.vehicleRepo.On("GetByID", mock.Anything, int32(11)).Return(wrong, nil)
		_, err := f.svc.ConfirmOrder(context.Background(), adminUser, 42, []int32{11, 12})
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("vehicle not available", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodCash), nil)
		rented := availableVehicle(11, "SC-011")
		rented.Status = domain.VehicleStatusRented
		f.vehicleRepo.On("GetByID", mock.Anything, int32(11)).Return(rented, nil)
		_, err := f.svc.ConfirmOrder(context.Background(), adminUser, 42, []int32{11, 12})
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("vehicle reservation conflict", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodCash), nil)
		f.vehicleRepo.On("GetByID", mock.Anything, int32(11)).Return(availableVehicle(11, "SC-011"), nil)
		f.reservationRepo.On("HasVehicleConflict", mock.Anything, int32(11), day(2026, 6, 10), day(2026, 6, 12)).
			Return(true, nil)
		_, err := f.svc.ConfirmOrder(context.Background(), adminUser, 42, []int32{11, 12})
		assert.True(t, domain.IsConflict(err))
		f.orderRepo.AssertNotCalled(t, "AddOrderVehicles", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestMarkCustomerReceived_CapturesCash(t *testing.T) {
	f := newOrderFixture(t)
	order := confirmableOrder(domain.PaymentMethodCash)
	order.State = domain.OrderStateOnWay
	f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
	f.orderRepo.On("Update", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.State == domain.OrderStateCustomerReceived
	})).Return(nil)
	f.paymentRepo.On("GetPaymentByOrder", mock.Anything, int32(42)).Return(
		&domain.OrderPayment{OrderID: 42, Method: domain.PaymentMethodCash, State: domain.PaymentStatePending}, nil)
	f.paymentRepo.On("UpdatePayment", mock.Anything, mock.MatchedBy(func(p *domain.OrderPayment) bool {
		return p.State == domain.PaymentStatePaid
	})).Return(nil)

	got, err := f.svc.MarkCustomerReceived(context.Background(), adminUser, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStateCustomerReceived, got.State)
	f.assertAll(t)
}

func TestCompleteOrder(t *testing.T) {
	t.Run("releases vehicles and credits revenue", func(t *testing.T) {
		f := newOrderFixture(t)
		order := confirmableOrder(domain.PaymentMethodCash)
		order.State = domain.OrderStateCustomerReceived
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
		f.paymentRepo.On("GetPaymentByOrder", mock.Anything, int32(42)).Return(
			&domain.OrderPayment{OrderID: 42, State: domain.PaymentStatePaid, Total: dec("140.00")}, nil)
		f.orderRepo.On("ListOrderVehicles", mock.Anything, int32(42)).Return([]int32{11, 12}, nil)
		f.vehicleRepo.On("UpdateStatus", mock.Anything, int32(11), domain.VehicleStatusAvailable).Return(nil)
		f.vehicleRepo.On("UpdateStatus", mock.Anything, int32(12), domain.VehicleStatusAvailable).Return(nil)
		f.orderRepo.On("Update", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
			return o.State == domain.OrderStateCompleted
		})).Return(nil)
		f.treasury.On("AddRevenue", mock.Anything, dec("140.00"), mock.Anything, mock.Anything).Return(nil)

		got, err := f.svc.CompleteOrder(context.Background(), adminUser, 42)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStateCompleted, got.State)
		f.assertAll(t)
	})

	t.Run("uncollected payment blocks completion", func(t *testing.T) {
		f := newOrderFixture(t)
		order := confirmableOrder(domain.PaymentMethodCash)
		order.State = domain.OrderStateCustomerReceived
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
		f.paymentRepo.On("GetPaymentByOrder", mock.Anything, int32(42)).Return(
			&domain.OrderPayment{OrderID: 42, State: domain.PaymentStatePending}, nil)

		_, err := f.svc.CompleteOrder(context.Background(), adminUser, 42)
		assert.True(t, domain.IsConflict(err))
		f.treasury.AssertNotCalled(t, "AddRevenue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCancelOrder_PendingCashInGrace(t *testing.T) {
	// Cancelling an unconfirmed cash order inside the grace window: no fee, no
	// refundable, cancellation settles immediately.
	f := newOrderFixture(t)
	order := confirmableOrder(domain.PaymentMethodCash)
	f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
	f.catalogRepo.On("GetCity", mock.Anything, int32(3)).Return(testCity(), nil)
	f.reservationRepo.On("CancelByOrder", mock.Anything, int32(42)).Return(int64(0), nil)
	f.orderRepo.On("Update", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.Cancellation == domain.CancellationSettled && o.State == domain.OrderStatePending
	})).Return(nil)
	f.noteRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.CancelOrder(context.Background(), customer7, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.CancellationSettled, got.Cancellation)
	f.paymentRepo.AssertNotCalled(t, "CreateCancellationFee", mock.Anything, mock.Anything)
	f.vehicleRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestCancelOrder_ConfirmedPaypalAfterGrace(t *testing.T) {
	// Confirmed PayPal order cancelled past the grace window: fee row, reduced
	// refundable, payment refunded, vehicles released, reservations cancelled,
	// cancellation stays REQUESTED until the refund settles.
	f := newOrderFixture(t)
	order := confirmableOrder(domain.PaymentMethodPaypal)
	order.State = domain.OrderStateConfirmed
	order.CreatedOn = testNow.Add(-6 * 24 * time.Hour)
	f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
	f.catalogRepo.On("GetCity", mock.Anything, int32(3)).Return(testCity(), nil)
	f.paymentRepo.On("CreateCancellationFee", mock.Anything, mock.MatchedBy(func(cf *domain.OrderCancellationFee) bool {
		return cf.OrderID == 42 && cf.Fee.Equal(dec("25.00")) && cf.State == domain.CancellationFeeNotYet
	})).Return(nil)
	f.paymentRepo.On("CreateRefundable", mock.Anything, mock.MatchedBy(func(ra *domain.RefundablePaypalAmount) bool {
		return ra.OrderID == 42 &&
			ra.OrderTotal.Equal(dec("140.00")) &&
			ra.CancellationFees.Equal(dec("25.00")) &&
			ra.Refundable.Equal(dec("115.00")) &&
			ra.State == domain.RefundStatePending
	})).Return(nil)
	f.paymentRepo.On("GetPaymentByOrder", mock.Anything, int32(42)).Return(
		&domain.OrderPayment{OrderID: 42, Method: domain.PaymentMethodPaypal, State: domain.PaymentStatePaid}, nil)
	f.paymentRepo.On("UpdatePayment", mock.Anything, mock.MatchedBy(func(p *domain.OrderPayment) bool {
		return p.State == domain.PaymentStateRefunded
	})).Return(nil)
	f.orderRepo.On("ListOrderVehicles", mock.Anything, int32(42)).Return([]int32{11, 12}, nil)
	f.vehicleRepo.On("UpdateStatus", mock.Anything, int32(11), domain.VehicleStatusAvailable).Return(nil)
	f.vehicleRepo.On("UpdateStatus", mock.Anything, int32(12), domain.VehicleStatusAvailable).Return(nil)
	f.reservationRepo.On("CancelByOrder", mock.Anything, int32(42)).Return(int64(6), nil)
	f.orderRepo.On("Update", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.Cancellation == domain.CancellationRequested && o.State == domain.OrderStateConfirmed
	})).Return(nil)
	f.noteRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.CancelOrder(context.Background(), adminUser, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.CancellationRequested, got.Cancellation)
	f.assertAll(t)
}

func TestCancelOrder_UncapturedPaypalSettlesImmediately(t *testing.T) {
	// A PayPal order whose payment was never captured has nothing to refund:
	// no refundable row, the payment keeps its state and the cancellation
	// settles in the same transaction. This is the path the stale-order sweep
	// takes for orders abandoned before approval.
	for _, state := range []domain.PaymentState{domain.PaymentStatePending, domain.PaymentStateFailed} {
		t.Run(string(state), func(t *testing.T) {
			f := newOrderFixture(t)
			order := confirmableOrder(domain.PaymentMethodPaypal)
			f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
			f.catalogRepo.On("GetCity", mock.Anything, int32(3)).Return(testCity(), nil)
			f.paymentRepo.On("GetPaymentByOrder", mock.Anything, int32(42)).Return(
				&domain.OrderPayment{OrderID: 42, Method: domain.PaymentMethodPaypal, State: state}, nil)
			f.reservationRepo.On("CancelByOrder", mock.Anything, int32(42)).Return(int64(0), nil)
			f.orderRepo.On("Update", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
				return o.Cancellation == domain.CancellationSettled
			})).Return(nil)
			f.noteRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

			got, err := f.svc.CancelOrder(context.Background(), customer7, 42)
			require.NoError(t, err)
			assert.Equal(t, domain.CancellationSettled, got.Cancellation)
			f.paymentRepo.AssertNotCalled(t, "CreateRefundable", mock.Anything, mock.Anything)
			f.paymentRepo.AssertNotCalled(t, "UpdatePayment", mock.Anything, mock.Anything)
			f.assertAll(t)
		})
	}
}

func TestCancelOrder_Rejections(t *testing.T) {
	t.Run("stranger may not cancel", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodCash), nil)
		stranger := &security.Principal{UserID: 8}
		_, err := f.svc.CancelOrder(context.Background(), stranger, 42)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("completed order", func(t *testing.T) {
		f := newOrderFixture(t)
		order := confirmableOrder(domain.PaymentMethodCash)
		order.State = domain.OrderStateCompleted
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
		_, err := f.svc.CancelOrder(context.Background(), customer7, 42)
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newOrderFixture(t)
		order := confirmableOrder(domain.PaymentMethodCash)
		order.Cancellation = domain.CancellationRequested
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
		_, err := f.svc.CancelOrder(context.Background(), customer7, 42)
		assert.True(t, domain.IsConflict(err))
	})
}

func cancelledPaypalOrder() *domain.Order {
	order := confirmableOrder(domain.PaymentMethodPaypal)
	order.State = domain.OrderStateConfirmed
	order.Cancellation = domain.CancellationRequested
	return order
}

func TestProcessRefund_Success(t *testing.T) {
	f := newOrderFixture(t)
	order := cancelledPaypalOrder()
	f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(order, nil)
	f.paymentRepo.On("GetRefundableByOrder", mock.Anything, int32(42)).Return(
		&domain.RefundablePaypalAmount{OrderID: 42, Refundable: dec("115.00"), State: domain.RefundStatePending}, nil)
	f.paymentRepo.On("UpdateRefundable", mock.Anything, mock.MatchedBy(func(ra *domain.RefundablePaypalAmount) bool {
		return ra.State == domain.RefundStateSuccess
	})).Return(nil)
	// Payment already refunded at cancellation time; MarkRefunded is a no-op.
	f.paymentRepo.On("GetPaymentByOrder", mock.Anything, int32(42)).Return(
		&domain.OrderPayment{OrderID: 42, State: domain.PaymentStateRefunded}, nil)
	f.paymentRepo.On("UpdatePayment", mock.Anything, mock.Anything).Return(nil)
	f.paymentRepo.On("GetCancellationFeeByOrder", mock.Anything, int32(42)).Return(
		&domain.OrderCancellationFee{ID: 5, OrderID: 42, Fee: dec("25.00"), State: domain.CancellationFeeNotYet}, nil)
	f.paymentRepo.On("UpdateCancellationFee", mock.Anything, mock.MatchedBy(func(cf *domain.OrderCancellationFee) bool {
		return cf.State == domain.CancellationFeePaid
	})).Return(nil)
	f.treasury.On("AddCancellationFee", mock.Anything, dec("25.00"), mock.Anything, mock.Anything).Return(nil)
	f.orderRepo.On("Update", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		return o.Cancellation == domain.CancellationSettled
	})).Return(nil)
	f.noteRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	refundable, err := f.svc.ProcessRefund(context.Background(), adminUser, 42, domain.RefundStateSuccess)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStateSuccess, refundable.State)
	f.assertAll(t)
}

func TestProcessRefund_Failed(t *testing.T) {
	f := newOrderFixture(t)
	f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(cancelledPaypalOrder(), nil)
	f.paymentRepo.On("GetRefundableByOrder", mock.Anything, int32(42)).Return(
		&domain.RefundablePaypalAmount{OrderID: 42, State: domain.RefundStatePending}, nil)
	f.paymentRepo.On("UpdateRefundable", mock.Anything, mock.MatchedBy(func(ra *domain.RefundablePaypalAmount) bool {
		return ra.State == domain.RefundStateFailed
	})).Return(nil)

	refundable, err := f.svc.ProcessRefund(context.Background(), adminUser, 42, domain.RefundStateFailed)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStateFailed, refundable.State)
	// A failed refund attempt leaves the cancellation open for retry.
	f.orderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.treasury.AssertNotCalled(t, "AddCancellationFee", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessRefund_Rejections(t *testing.T) {
	t.Run("admin only", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.ProcessRefund(context.Background(), customer7, 42, domain.RefundStateSuccess)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("invalid outcome", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.ProcessRefund(context.Background(), adminUser, 42, domain.RefundStatePending)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("no refundable amount", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(cancelledPaypalOrder(), nil)
		f.paymentRepo.On("GetRefundableByOrder", mock.Anything, int32(42)).Return(nil, nil)
		_, err := f.svc.ProcessRefund(context.Background(), adminUser, 42, domain.RefundStateSuccess)
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("already processed", func(t *testing.T) {
		f := newOrderFixture(t)
		f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(cancelledPaypalOrder(), nil)
		f.paymentRepo.On("GetRefundableByOrder", mock.Anything, int32(42)).Return(
			&domain.RefundablePaypalAmount{OrderID: 42, State: domain.RefundStateSuccess}, nil)
		_, err := f.svc.ProcessRefund(context.Background(), adminUser, 42, domain.RefundStateSuccess)
		assert.True(t, domain.IsConflict(err))
	})
}

func TestGetOrder_Authorization(t *testing.T) {
	f := newOrderFixture(t)
	f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodCash), nil)

	_, err := f.svc.GetOrder(context.Background(), customer7, 42)
	assert.NoError(t, err, "owner can read")

	f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodCash), nil)
	_, err = f.svc.GetOrder(context.Background(), adminUser, 42)
	assert.NoError(t, err, "admin can read")

	f.orderRepo.On("GetByID", mock.Anything, int32(42)).Return(confirmableOrder(domain.PaymentMethodCash), nil)
	stranger := &security.Principal{UserID: 8}
	_, err = f.svc.GetOrder(context.Background(), stranger, 42)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestListOrders_Authorization(t *testing.T) {
	f := newOrderFixture(t)
	f.orderRepo.On("ListByCustomer", mock.Anything, int32(7), "", int32(1), int32(20)).
		Return([]domain.Order{}, int32(0), nil)

	_, _, err := f.svc.ListOrders(context.Background(), customer7, 7, "", 0, 0)
	assert.NoError(t, err)

	_, _, err = f.svc.ListOrders(context.Background(), customer7, 8, "", 1, 20)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
