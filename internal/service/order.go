package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/logger"
	"rentwheels-backend/internal/repository"
	"rentwheels-backend/internal/security"
	"rentwheels-backend/internal/utils"
)

// ErrUnauthorized means the acting principal may not perform the operation on
// this order. It is not part of the domain error taxonomy; the transport
// layer maps it separately.
var ErrUnauthorized = errors.New("unauthorized")

type orderService struct {
	tx              repository.Transactor
	orderRepo       repository.OrderRepository
	reservationRepo repository.ReservationRepository
	paymentRepo     repository.PaymentRepository
	vehicleRepo     repository.VehicleRepository
	catalogRepo     repository.CatalogRepository
	noteRepo        repository.NotificationRepository
	treasury        TreasuryService
	gateway         PaymentGateway
	currency        string
	totalTolerance  decimal.Decimal
	now             func() time.Time
}

func NewOrderService(
	tx repository.Transactor,
	orderRepo repository.OrderRepository,
	reservationRepo repository.ReservationRepository,
	paymentRepo repository.PaymentRepository,
	vehicleRepo repository.VehicleRepository,
	catalogRepo repository.CatalogRepository,
	noteRepo repository.NotificationRepository,
	treasury TreasuryService,
	gateway PaymentGateway,
	currency string,
	totalTolerance decimal.Decimal,
) OrderService {
	return &orderService{
		tx:              tx,
		orderRepo:       orderRepo,
		reservationRepo: reservationRepo,
		paymentRepo:     paymentRepo,
		vehicleRepo:     vehicleRepo,
		catalogRepo:     catalogRepo,
		noteRepo:        noteRepo,
		treasury:        treasury,
		gateway:         gateway,
		currency:        currency,
		totalTolerance:  totalTolerance,
		now:             time.Now,
	}
}

func generateOrderCode() string {
	id := uuid.New()
	return "ORD-" + strings.ToUpper(hex.EncodeToString(id[:4]))
}

func (s *orderService) CreateOrder(ctx context.Context, actor *security.Principal, input CreateOrderInput) (*CreateOrderResult, error) {
	if !actor.IsAdmin() && actor.UserID != input.CustomerID {
		return nil, ErrUnauthorized
	}

	dateFrom := utils.NormalizeDate(input.DateFrom)
	dateTo := utils.NormalizeDate(input.DateTo)
	if !dateFrom.Before(dateTo) {
		return nil, domain.Validationf("reservation date range must satisfy from < to, got %s .. %s",
			dateFrom.Format("2006-01-02"), dateTo.Format("2006-01-02"))
	}
	if input.VehiclesCount <= 0 {
		return nil, domain.Validationf("vehicles count must be positive, got %d", input.VehiclesCount)
	}
	if !input.PaymentMethod.Valid() {
		return nil, domain.Validationf("unknown payment method %q", input.PaymentMethod)
	}
	if input.ClientTotal.IsNegative() {
		return nil, domain.Validationf("client total must be non-negative")
	}

	now := s.now().UTC()
	order := &domain.Order{
		PublicCode:    generateOrderCode(),
		CustomerID:    input.CustomerID,
		SubCategoryID: input.SubCategoryID,
		CityID:        input.CityID,
		DateFrom:      dateFrom,
		DateTo:        dateTo,
		VehiclesCount: input.VehiclesCount,
		Notes:         input.Notes,
		PassportImage: input.PassportImage,
		HotelName:     input.HotelName,
		HotelAddress:  input.HotelAddress,
		HotelPhone:    input.HotelPhone,
		IsUrgent:      input.IsUrgent,
		PaymentMethod: input.PaymentMethod,
		State:         domain.OrderStatePending,
		Cancellation:  domain.CancellationNone,
		CreatedOn:     now,
		CreatedBy:     actor.UserID,
		UpdatedOn:     now,
		UpdatedBy:     actor.UserID,
	}

	var payment *domain.OrderPayment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.catalogRepo.GetCustomer(ctx, input.CustomerID); err != nil {
			return err
		}
		city, err := s.catalogRepo.GetCity(ctx, input.CityID)
		if err != nil {
			return err
		}
		subCat, err := s.catalogRepo.GetSubCategory(ctx, input.SubCategoryID)
		if err != nil {
			return err
		}

		conflict, err := s.reservationRepo.HasSubCategoryConflict(ctx, input.SubCategoryID, dateFrom, dateTo)
		if err != nil {
			return err
		}
		if conflict {
			return domain.Conflictf("sub-category %d has conflicting reservations between %s and %s",
				input.SubCategoryID, dateFrom.Format("2006-01-02"), dateTo.Format("2006-01-02"))
		}

		subtotal, err := utils.ComputeSubtotal(subCat.Price, input.VehiclesCount)
		if err != nil {
			return err
		}
		total := utils.ComputeTotal(subtotal, city.DeliveryFeePerVehicle, city.ServiceFeePercent, city.UrgentFee,
			input.VehiclesCount, input.IsUrgent)
		if !utils.TotalsMatch(total, input.ClientTotal, s.totalTolerance) {
			return domain.Validationf("client total %s does not match server total %s", input.ClientTotal, total)
		}
		order.Subtotal = subtotal
		order.Total = total

		if err := s.orderRepo.Create(ctx, order); err != nil {
			return err
		}

		totals := &domain.OrderTotals{
			OrderID:     order.ID,
			Subtotal:    subtotal,
			ServiceFee:  feeComponent(city.ServiceFeePercent, func(p decimal.Decimal) decimal.Decimal { return p.Mul(subtotal).Div(decimal.NewFromInt(100)) }),
			DeliveryFee: feeComponent(city.DeliveryFeePerVehicle, func(d decimal.Decimal) decimal.Decimal { return d.Mul(decimal.NewFromInt32(input.VehiclesCount)) }),
			UrgentFee:   urgentComponent(city.UrgentFee, input.IsUrgent),
			GrandTotal:  total,
			CreatedOn:   now,
		}
		if err := s.orderRepo.CreateTotals(ctx, totals); err != nil {
			return err
		}

		payment = &domain.OrderPayment{
			OrderID:   order.ID,
			Method:    input.PaymentMethod,
			Total:     total,
			State:     domain.PaymentStatePending,
			CreatedOn: now,
			UpdatedOn: now,
		}
		return s.paymentRepo.CreatePayment(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	result := &CreateOrderResult{Order: order}

	// The gateway call happens only after the order and payment rows are
	// durable: a gateway failure degrades to a FAILED payment on a still
	// PENDING order instead of losing the record.
	if input.PaymentMethod == domain.PaymentMethodPaypal {
		logger.ExternalServiceCall("paypal", "CreateOrder", "order", order.PublicCode)
		gw, gwErr := s.gateway.CreateOrder(ctx, order.PublicCode, order.Total, s.currency)
		logger.ExternalServiceResult("paypal", "CreateOrder", gwErr, "order", order.PublicCode)
		if gwErr != nil {
			if markErr := payment.MarkFailed(s.now().UTC()); markErr == nil {
				if updErr := s.paymentRepo.UpdatePayment(ctx, payment); updErr != nil {
					logger.Error("Failed to record failed payment", "order", order.PublicCode, "error", updErr)
				}
			}
			return nil, domain.ExternalService("paypal", gwErr)
		}
		payment.GatewayOrderID = gw.GatewayOrderID
		payment.UpdatedOn = s.now().UTC()
		if err := s.paymentRepo.UpdatePayment(ctx, payment); err != nil {
			return nil, err
		}
		result.ApproveLink = gw.ApproveLink
	}

	return result, nil
}

func feeComponent(fee *decimal.Decimal, apply func(decimal.Decimal) decimal.Decimal) decimal.Decimal {
	if fee == nil {
		return decimal.Zero
	}
	return apply(*fee)
}

func urgentComponent(fee *decimal.Decimal, isUrgent bool) decimal.Decimal {
	if !isUrgent || fee == nil {
		return decimal.Zero
	}
	return *fee
}

// ConfirmOrder binds concrete vehicle units to a pending order. All
// preconditions are checked before any mutation; the unique index on
// (vehicle, day) backstops the availability check under concurrency.
func (s *orderService) ConfirmOrder(ctx context.Context, actor *security.Principal, orderID int32, vehicleIDs []int32) (*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	var order *domain.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Cancelled() {
			return domain.Conflictf("order %s is cancelled", order.PublicCode)
		}
		if order.State != domain.OrderStatePending {
			return domain.Conflictf("order %s is %s and cannot be confirmed", order.PublicCode, order.State)
		}

		if int32(len(vehicleIDs)) != order.VehiclesCount {
			return domain.Validationf("order %s needs exactly %d vehicles, got %d",
				order.PublicCode, order.VehiclesCount, len(vehicleIDs))
		}
		seen := make(map[int32]struct{}, len(vehicleIDs))
		for _, id := range vehicleIDs {
			if _, dup := seen[id]; dup {
				return domain.Validationf("duplicate vehicle id %d in assignment", id)
			}
			seen[id] = struct{}{}
		}

		now := s.now().UTC()
		vehicles := make([]*domain.Vehicle, 0, len(vehicleIDs))
		for _, id := range vehicleIDs {
			v, err := s.vehicleRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if v.Code == "" {
				return domain.Validationf("vehicle %d has no code", v.ID)
			}
			if v.Status != domain.VehicleStatusAvailable {
				return domain.Conflictf("vehicle %s is %s, not available", v.Code, v.Status)
			}
			if v.SubCategoryID != order.SubCategoryID {
				return domain.Validationf("vehicle %s belongs to sub-category %d, order %s needs %d",
					v.Code, v.SubCategoryID, order.PublicCode, order.SubCategoryID)
			}
			conflict, err := s.reservationRepo.HasVehicleConflict(ctx, v.ID, order.DateFrom, order.DateTo)
			if err != nil {
				return err
			}
			if conflict {
				return domain.Conflictf("vehicle %s has a conflicting reservation between %s and %s",
					v.Code, order.DateFrom.Format("2006-01-02"), order.DateTo.Format("2006-01-02"))
			}
			vehicles = append(vehicles, v)
		}

		if err := s.orderRepo.AddOrderVehicles(ctx, order.ID, vehicleIDs); err != nil {
			return err
		}

		var rows []domain.ReservedVehiclePerDay
		for _, v := range vehicles {
			utils.EachDay(order.DateFrom, order.DateTo, func(day time.Time) {
				rows = append(rows, domain.ReservedVehiclePerDay{
					VehicleID:     v.ID,
					SubCategoryID: v.SubCategoryID,
					VehicleCode:   v.Code,
					OrderID:       order.ID,
					DateFrom:      day,
					DateTo:        day,
					State:         domain.ReservationStillBooked,
					CreatedOn:     now,
				})
			})
		}
		if err := s.reservationRepo.CreateBatch(ctx, rows); err != nil {
			return err
		}

		for _, v := range vehicles {
			if err := s.vehicleRepo.UpdateStatus(ctx, v.ID, domain.VehicleStatusRented); err != nil {
				return err
			}
		}

		if err := order.Confirm(actor.UserID, now); err != nil {
			return err
		}
		if err := s.orderRepo.Update(ctx, order); err != nil {
			return err
		}

		// Confirmation is the payment-capture checkpoint for PayPal: the
		// approved gateway order is captured here, and a capture failure
		// rolls the whole confirmation back.
		payment, err := s.paymentRepo.GetPaymentByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if order.PaymentMethod == domain.PaymentMethodPaypal && payment.State == domain.PaymentStatePending {
			if payment.GatewayOrderID == "" {
				return domain.Conflictf("payment for order %s has no gateway order to capture", order.PublicCode)
			}
			logger.ExternalServiceCall("paypal", "CaptureOrder", "order", order.PublicCode)
			capture, capErr := s.gateway.CaptureOrder(ctx, payment.GatewayOrderID)
			logger.ExternalServiceResult("paypal", "CaptureOrder", capErr, "order", order.PublicCode)
			if capErr != nil {
				return domain.ExternalService("paypal", capErr)
			}
			if capture.Status != GatewayCaptureCompleted {
				return domain.ExternalService("paypal",
					fmt.Errorf("capture of gateway order %s returned status %s", payment.GatewayOrderID, capture.Status))
			}
			logger.Info("Captured gateway payment", "order", order.PublicCode, "transaction", capture.TransactionID)
			if err := payment.MarkPaid(now); err != nil {
				return err
			}
			if err := s.paymentRepo.UpdatePayment(ctx, payment); err != nil {
				return err
			}
		}

		s.notify(ctx, order, "Order Confirmed",
			fmt.Sprintf("Your order %s has been confirmed for %s to %s",
				order.PublicCode, order.DateFrom.Format("2006-01-02"), order.DateTo.Format("2006-01-02")),
			"ORDER_CONFIRMED")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) MarkOnWay(ctx context.Context, actor *security.Principal, orderID int32) (*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	var order *domain.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.MarkOnWay(actor.UserID, s.now().UTC()); err != nil {
			return err
		}
		return s.orderRepo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// MarkCustomerReceived is the cash-collection checkpoint: a pending cash
// payment is captured when the customer takes delivery.
func (s *orderService) MarkCustomerReceived(ctx context.Context, actor *security.Principal, orderID int32) (*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	var order *domain.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := order.MarkCustomerReceived(actor.UserID, now); err != nil {
			return err
		}
		if err := s.orderRepo.Update(ctx, order); err != nil {
			return err
		}

		payment, err := s.paymentRepo.GetPaymentByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if order.PaymentMethod == domain.PaymentMethodCash && payment.State == domain.PaymentStatePending {
			if err := payment.MarkPaid(now); err != nil {
				return err
			}
			if err := s.paymentRepo.UpdatePayment(ctx, payment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) CompleteOrder(ctx context.Context, actor *security.Principal, orderID int32) (*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	var order *domain.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := order.Complete(actor.UserID, now); err != nil {
			return err
		}

		payment, err := s.paymentRepo.GetPaymentByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if payment.State != domain.PaymentStatePaid {
			return domain.Conflictf("payment for order %s is %s; cannot complete before collection",
				order.PublicCode, payment.State)
		}

		vehicleIDs, err := s.orderRepo.ListOrderVehicles(ctx, order.ID)
		if err != nil {
			return err
		}
		for _, id := range vehicleIDs {
			if err := s.vehicleRepo.UpdateStatus(ctx, id, domain.VehicleStatusAvailable); err != nil {
				return err
			}
		}

		if err := s.orderRepo.Update(ctx, order); err != nil {
			return err
		}
		return s.treasury.AddRevenue(ctx, payment.Total,
			fmt.Sprintf("revenue from order %s", order.PublicCode), &order.ID)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder runs the whole cancellation workflow in one transaction: fee
// computation, refund bookkeeping, vehicle release and reservation
// cancellation either all happen or none do.
func (s *orderService) CancelOrder(ctx context.Context, actor *security.Principal, orderID int32) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && actor.UserID != order.CustomerID {
			return ErrUnauthorized
		}

		now := s.now().UTC()
		if err := order.Cancel(actor.UserID, now); err != nil {
			return err
		}

		city, err := s.catalogRepo.GetCity(ctx, order.CityID)
		if err != nil {
			return err
		}
		fee := decimal.Zero
		if feePtr := utils.ComputeCancellationFee(city, order.CreatedOn, now); feePtr != nil {
			fee = *feePtr
		}
		if fee.IsPositive() {
			cancellationFee := &domain.OrderCancellationFee{
				CustomerID: order.CustomerID,
				OrderID:    order.ID,
				Fee:        fee,
				State:      domain.CancellationFeeNotYet,
				CreatedOn:  now,
				UpdatedOn:  now,
			}
			if err := s.paymentRepo.CreateCancellationFee(ctx, cancellationFee); err != nil {
				return err
			}
		}

		refundPending := false
		if order.PaymentMethod == domain.PaymentMethodPaypal {
			payment, err := s.paymentRepo.GetPaymentByOrder(ctx, order.ID)
			if err != nil {
				return err
			}
			// Only a captured payment has money to give back. An uncaptured
			// PayPal payment keeps its state and owes no refund, so the
			// cancellation can settle right away.
			if payment.State == domain.PaymentStatePaid {
				refundable := order.Total.Sub(fee)
				if refundable.IsNegative() {
					refundable = decimal.Zero
				}
				if refundable.IsPositive() {
					row := &domain.RefundablePaypalAmount{
						OrderID:          order.ID,
						OrderTotal:       order.Total,
						CancellationFees: fee,
						Refundable:       refundable,
						State:            domain.RefundStatePending,
						CreatedOn:        now,
						UpdatedOn:        now,
					}
					if err := s.paymentRepo.CreateRefundable(ctx, row); err != nil {
						return err
					}
					refundPending = true
				}
				if err := payment.MarkRefunded(now); err != nil {
					return err
				}
				if err := s.paymentRepo.UpdatePayment(ctx, payment); err != nil {
					return err
				}
			}
		}

		// Vehicles are bound from confirmation onwards; release them.
		if order.State != domain.OrderStatePending {
			vehicleIDs, err := s.orderRepo.ListOrderVehicles(ctx, order.ID)
			if err != nil {
				return err
			}
			for _, id := range vehicleIDs {
				if err := s.vehicleRepo.UpdateStatus(ctx, id, domain.VehicleStatusAvailable); err != nil {
					return err
				}
			}
		}

		if _, err := s.reservationRepo.CancelByOrder(ctx, order.ID); err != nil {
			return err
		}

		// Nothing left to refund means the cancellation settles immediately.
		if !refundPending {
			if err := order.SettleCancellation(actor.UserID, now); err != nil {
				return err
			}
		}
		if err := s.orderRepo.Update(ctx, order); err != nil {
			return err
		}

		s.notify(ctx, order, "Order Cancelled",
			fmt.Sprintf("Order %s has been cancelled", order.PublicCode), "ORDER_CANCELLED")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ProcessRefund settles a pending PayPal refund. On success the company keeps
// the cancellation fee: the fee row flips to PAID and the treasury is
// credited, even though the rest of the total goes back to the customer.
func (s *orderService) ProcessRefund(ctx context.Context, actor *security.Principal, orderID int32, outcome domain.RefundState) (*domain.RefundablePaypalAmount, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if outcome != domain.RefundStateSuccess && outcome != domain.RefundStateFailed {
		return nil, domain.Validationf("refund outcome must be %s or %s, got %q",
			domain.RefundStateSuccess, domain.RefundStateFailed, outcome)
	}

	var refundable *domain.RefundablePaypalAmount
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		refundable, err = s.paymentRepo.GetRefundableByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if refundable == nil {
			return domain.Conflictf("order %s has no refundable amount", order.PublicCode)
		}
		if refundable.State != domain.RefundStatePending {
			return domain.Conflictf("refund for order %s is already %s", order.PublicCode, refundable.State)
		}

		now := s.now().UTC()
		refundable.State = outcome
		refundable.UpdatedOn = now
		if err := s.paymentRepo.UpdateRefundable(ctx, refundable); err != nil {
			return err
		}
		if outcome == domain.RefundStateFailed {
			return nil
		}

		payment, err := s.paymentRepo.GetPaymentByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := payment.MarkRefunded(now); err != nil {
			return err
		}
		if err := s.paymentRepo.UpdatePayment(ctx, payment); err != nil {
			return err
		}

		fee, err := s.paymentRepo.GetCancellationFeeByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if fee != nil && fee.State == domain.CancellationFeeNotYet {
			fee.State = domain.CancellationFeePaid
			fee.UpdatedOn = now
			if err := s.paymentRepo.UpdateCancellationFee(ctx, fee); err != nil {
				return err
			}
			if err := s.treasury.AddCancellationFee(ctx, fee.Fee,
				fmt.Sprintf("cancellation fee retained from order %s", order.PublicCode), &order.ID); err != nil {
				return err
			}
		}

		if err := order.SettleCancellation(actor.UserID, now); err != nil {
			return err
		}
		if err := s.orderRepo.Update(ctx, order); err != nil {
			return err
		}

		s.notify(ctx, order, "Refund Processed",
			fmt.Sprintf("Your refund of %s for order %s has been processed", refundable.Refundable, order.PublicCode),
			"REFUND_PROCESSED")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refundable, nil
}

func (s *orderService) GetOrder(ctx context.Context, actor *security.Principal, orderID int32) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.UserID != order.CustomerID {
		return nil, ErrUnauthorized
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, actor *security.Principal, customerID int32, state string, page, pageSize int32) ([]domain.Order, int32, error) {
	if !actor.IsAdmin() && actor.UserID != customerID {
		return nil, 0, ErrUnauthorized
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.orderRepo.ListByCustomer(ctx, customerID, state, page, pageSize)
}

// notify writes an in-app notification row; a failure here never aborts the
// surrounding order operation.
func (s *orderService) notify(ctx context.Context, order *domain.Order, title, message, kind string) {
	note := &domain.Notification{
		CustomerID: order.CustomerID,
		Title:      title,
		Message:    message,
		Attributes: map[string]string{
			"type":     kind,
			"order_id": fmt.Sprintf("%d", order.ID),
		},
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		logger.Error("Failed to create notification", "order", order.PublicCode, "error", err)
	}
}
