package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/repository"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreatePayment(ctx context.Context, p *domain.OrderPayment) error {
	query := `INSERT INTO order_payments (order_id, method, total, state, gateway_order_id, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		p.OrderID, p.Method, p.Total, p.State, p.GatewayOrderID, p.CreatedOn, p.UpdatedOn).Scan(&p.ID)
	if isUniqueViolation(err) {
		return domain.Conflictf("payment for order %d already exists", p.OrderID)
	}
	return err
}

func (r *paymentRepository) GetPaymentByOrder(ctx context.Context, orderID int32) (*domain.OrderPayment, error) {
	p := &domain.OrderPayment{}
	query := `SELECT id, order_id, method, total, state, gateway_order_id, created_on, updated_on
	          FROM order_payments WHERE order_id = $1`
	err := executor(ctx, r.db).QueryRowContext(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Total, &p.State, &p.GatewayOrderID, &p.CreatedOn, &p.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Validationf("payment for order %d not found", orderID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) UpdatePayment(ctx context.Context, p *domain.OrderPayment) error {
	query := `UPDATE order_payments SET state=$1, gateway_order_id=$2, updated_on=$3 WHERE id=$4`
	_, err := executor(ctx, r.db).ExecContext(ctx, query, p.State, p.GatewayOrderID, p.UpdatedOn, p.ID)
	return err
}

func (r *paymentRepository) CreateCancellationFee(ctx context.Context, f *domain.OrderCancellationFee) error {
	query := `INSERT INTO order_cancellation_fees (customer_id, order_id, fee, state, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		f.CustomerID, f.OrderID, f.Fee, f.State, f.CreatedOn, f.UpdatedOn).Scan(&f.ID)
	if isUniqueViolation(err) {
		return domain.Conflictf("cancellation fee for order %d already exists", f.OrderID)
	}
	return err
}

func (r *paymentRepository) GetCancellationFeeByOrder(ctx context.Context, orderID int32) (*domain.OrderCancellationFee, error) {
	f := &domain.OrderCancellationFee{}
	query := `SELECT id, customer_id, order_id, fee, state, created_on, updated_on
	          FROM order_cancellation_fees WHERE order_id = $1`
	err := executor(ctx, r.db).QueryRowContext(ctx, query, orderID).Scan(
		&f.ID, &f.CustomerID, &f.OrderID, &f.Fee, &f.State, &f.CreatedOn, &f.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // at most one per order; absence is a normal outcome
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *paymentRepository) UpdateCancellationFee(ctx context.Context, f *domain.OrderCancellationFee) error {
	query := `UPDATE order_cancellation_fees SET state=$1, updated_on=$2 WHERE id=$3`
	_, err := executor(ctx, r.db).ExecContext(ctx, query, f.State, f.UpdatedOn, f.ID)
	return err
}

func (r *paymentRepository) CreateRefundable(ctx context.Context, ra *domain.RefundablePaypalAmount) error {
	query := `INSERT INTO refundable_paypal_amounts (order_id, order_total, cancellation_fees, refundable, state, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		ra.OrderID, ra.OrderTotal, ra.CancellationFees, ra.Refundable, ra.State, ra.CreatedOn, ra.UpdatedOn).Scan(&ra.ID)
	if isUniqueViolation(err) {
		return domain.Conflictf("refundable amount for order %d already exists", ra.OrderID)
	}
	return err
}

func (r *paymentRepository) GetRefundableByOrder(ctx context.Context, orderID int32) (*domain.RefundablePaypalAmount, error) {
	ra := &domain.RefundablePaypalAmount{}
	query := `SELECT id, order_id, order_total, cancellation_fees, refundable, state, created_on, updated_on
	          FROM refundable_paypal_amounts WHERE order_id = $1`
	err := executor(ctx, r.db).QueryRowContext(ctx, query, orderID).Scan(
		&ra.ID, &ra.OrderID, &ra.OrderTotal, &ra.CancellationFees, &ra.Refundable, &ra.State, &ra.CreatedOn, &ra.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // only PayPal cancellations have one
	}
	if err != nil {
		return nil, err
	}
	return ra, nil
}

func (r *paymentRepository) UpdateRefundable(ctx context.Context, ra *domain.RefundablePaypalAmount) error {
	query := `UPDATE refundable_paypal_amounts SET state=$1, updated_on=$2 WHERE id=$3`
	_, err := executor(ctx, r.db).ExecContext(ctx, query, ra.State, ra.UpdatedOn, ra.ID)
	return err
}
