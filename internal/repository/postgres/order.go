package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/repository"
)

const orderColumns = `id, public_code, customer_id, sub_category_id, city_id, date_from, date_to,
	vehicles_count, subtotal, total, notes, passport_image, hotel_name, hotel_address, hotel_phone,
	is_urgent, payment_method, state, cancellation_status, created_on, created_by, updated_on, updated_by`

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (public_code, customer_id, sub_category_id, city_id, date_from, date_to,
	          vehicles_count, subtotal, total, notes, passport_image, hotel_name, hotel_address, hotel_phone,
	          is_urgent, payment_method, state, cancellation_status, created_on, created_by, updated_on, updated_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	          RETURNING id`
	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		o.PublicCode, o.CustomerID, o.SubCategoryID, o.CityID, o.DateFrom, o.DateTo,
		o.VehiclesCount, o.Subtotal, o.Total, o.Notes, o.PassportImage, o.HotelName, o.HotelAddress, o.HotelPhone,
		o.IsUrgent, o.PaymentMethod, o.State, o.Cancellation, o.CreatedOn, o.CreatedBy, o.UpdatedOn, o.UpdatedBy,
	).Scan(&o.ID)
	if isUniqueViolation(err) {
		return domain.Conflictf("order code %s already exists", o.PublicCode)
	}
	return err
}

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(&o.ID, &o.PublicCode, &o.CustomerID, &o.SubCategoryID, &o.CityID, &o.DateFrom, &o.DateTo,
		&o.VehiclesCount, &o.Subtotal, &o.Total, &o.Notes, &o.PassportImage, &o.HotelName, &o.HotelAddress, &o.HotelPhone,
		&o.IsUrgent, &o.PaymentMethod, &o.State, &o.Cancellation, &o.CreatedOn, &o.CreatedBy, &o.UpdatedOn, &o.UpdatedBy)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int32) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)
	o, err := scanOrder(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Validationf("order %d not found", id)
	}
	return o, err
}

func (r *orderRepository) GetByPublicCode(ctx context.Context, code string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE public_code = $1`, orderColumns)
	o, err := scanOrder(executor(ctx, r.db).QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Validationf("order %s not found", code)
	}
	return o, err
}

func (r *orderRepository) Update(ctx context.Context, o *domain.Order) error {
	query := `UPDATE orders SET state=$1, cancellation_status=$2, updated_on=$3, updated_by=$4 WHERE id=$5`
	_, err := executor(ctx, r.db).ExecContext(ctx, query, o.State, o.Cancellation, o.UpdatedOn, o.UpdatedBy, o.ID)
	return err
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID int32, state string, page, pageSize int32) ([]domain.Order, int32, error) {
	base := `FROM orders WHERE customer_id = $1`
	args := []any{customerID}
	argIdx := 2
	if state != "" {
		base += fmt.Sprintf(" AND state = $%d", argIdx)
		args = append(args, state)
		argIdx++
	}

	var count int32
	if err := executor(ctx, r.db).QueryRowContext(ctx, "SELECT count(*) "+base, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_on DESC LIMIT $%d OFFSET $%d", orderColumns, base, argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, count, rows.Err()
}

// ListStalePendingPaypal finds PayPal orders still PENDING with an uncaptured
// payment created before the cutoff. These are the orders the expiry sweep
// cancels.
func (r *orderRepository) ListStalePendingPaypal(ctx context.Context, olderThan time.Time) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders o WHERE o.state = $1 AND o.cancellation_status = $2
	          AND o.payment_method = $3 AND o.created_on < $4
	          AND EXISTS (SELECT 1 FROM order_payments p WHERE p.order_id = o.id AND p.state IN ($5, $6))`,
		qualifyOrderColumns("o"))
	rows, err := executor(ctx, r.db).QueryContext(ctx, query,
		domain.OrderStatePending, domain.CancellationNone, domain.PaymentMethodPaypal, olderThan,
		domain.PaymentStatePending, domain.PaymentStateFailed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// ListReturnsDueBy finds non-cancelled orders with the customer still holding
// the vehicles whose reservation ends on or before the deadline.
func (r *orderRepository) ListReturnsDueBy(ctx context.Context, deadline time.Time) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE state = $1 AND cancellation_status = $2 AND date_to <= $3`,
		orderColumns)
	rows, err := executor(ctx, r.db).QueryContext(ctx, query,
		domain.OrderStateCustomerReceived, domain.CancellationNone, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *orderRepository) AddOrderVehicles(ctx context.Context, orderID int32, vehicleIDs []int32) error {
	query := `INSERT INTO order_vehicles (order_id, vehicle_id, created_on) VALUES ($1, $2, $3)`
	now := time.Now().UTC()
	for _, vid := range vehicleIDs {
		if _, err := executor(ctx, r.db).ExecContext(ctx, query, orderID, vid, now); err != nil {
			if isUniqueViolation(err) {
				return domain.Conflictf("vehicle %d is already assigned to order %d", vid, orderID)
			}
			return err
		}
	}
	return nil
}

func (r *orderRepository) ListOrderVehicles(ctx context.Context, orderID int32) ([]int32, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx,
		`SELECT vehicle_id FROM order_vehicles WHERE order_id = $1 ORDER BY vehicle_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *orderRepository) CreateTotals(ctx context.Context, t *domain.OrderTotals) error {
	query := `INSERT INTO order_totals (order_id, subtotal, service_fee, delivery_fee, urgent_fee, grand_total, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		t.OrderID, t.Subtotal, t.ServiceFee, t.DeliveryFee, t.UrgentFee, t.GrandTotal, t.CreatedOn).Scan(&t.ID)
	if isUniqueViolation(err) {
		return domain.Conflictf("totals snapshot for order %d already exists", t.OrderID)
	}
	return err
}

func (r *orderRepository) GetTotalsByOrder(ctx context.Context, orderID int32) (*domain.OrderTotals, error) {
	t := &domain.OrderTotals{}
	query := `SELECT id, order_id, subtotal, service_fee, delivery_fee, urgent_fee, grand_total, created_on
	          FROM order_totals WHERE order_id = $1`
	err := executor(ctx, r.db).QueryRowContext(ctx, query, orderID).Scan(
		&t.ID, &t.OrderID, &t.Subtotal, &t.ServiceFee, &t.DeliveryFee, &t.UrgentFee, &t.GrandTotal, &t.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Validationf("totals snapshot for order %d not found", orderID)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// qualifyOrderColumns prefixes every order column with a table alias.
func qualifyOrderColumns(alias string) string {
	return alias + ".id, " + alias + ".public_code, " + alias + ".customer_id, " + alias + ".sub_category_id, " +
		alias + ".city_id, " + alias + ".date_from, " + alias + ".date_to, " + alias + ".vehicles_count, " +
		alias + ".subtotal, " + alias + ".total, " + alias + ".notes, " + alias + ".passport_image, " +
		alias + ".hotel_name, " + alias + ".hotel_address, " + alias + ".hotel_phone, " + alias + ".is_urgent, " +
		alias + ".payment_method, " + alias + ".state, " + alias + ".cancellation_status, " +
		alias + ".created_on, " + alias + ".created_by, " + alias + ".updated_on, " + alias + ".updated_by"
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
