package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/repository"
)

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

// CreateBatch inserts one row per (vehicle, day). The partial unique index on
// (vehicle_id, date_from) among STILL_BOOKED rows is what serializes
// concurrent confirmations: the second writer hits a unique violation here
// and its whole transaction rolls back.
func (r *reservationRepository) CreateBatch(ctx context.Context, rows []domain.ReservedVehiclePerDay) error {
	query := `INSERT INTO reserved_vehicles_per_days
	          (vehicle_id, sub_category_id, vehicle_code, order_id, date_from, date_to, state, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i := range rows {
		row := &rows[i]
		_, err := executor(ctx, r.db).ExecContext(ctx, query,
			row.VehicleID, row.SubCategoryID, row.VehicleCode, row.OrderID,
			row.DateFrom, row.DateTo, row.State, row.CreatedOn)
		if isUniqueViolation(err) {
			return domain.Conflictf("vehicle %s is already booked on %s",
				row.VehicleCode, row.DateFrom.Format("2006-01-02"))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *reservationRepository) CancelByOrder(ctx context.Context, orderID int32) (int64, error) {
	query := `UPDATE reserved_vehicles_per_days SET state = $1 WHERE order_id = $2 AND state = $3`
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		domain.ReservationCancelled, orderID, domain.ReservationStillBooked)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Conflict predicate: any still-booked row in scope, whose parent order is
// not completed, with [date_from, date_to] overlapping the request
// inclusively. Cancelled rows never block; completed orders never block.
const subCategoryConflictQuery = `SELECT EXISTS (
	SELECT 1 FROM reserved_vehicles_per_days r
	JOIN orders o ON o.id = r.order_id
	WHERE r.sub_category_id = $1
	  AND r.state = $2
	  AND o.state <> $3
	  AND r.date_from <= $5
	  AND r.date_to >= $4
)`

const vehicleConflictQuery = `SELECT EXISTS (
	SELECT 1 FROM reserved_vehicles_per_days r
	JOIN orders o ON o.id = r.order_id
	WHERE r.vehicle_id = $1
	  AND r.state = $2
	  AND o.state <> $3
	  AND r.date_from <= $5
	  AND r.date_to >= $4
)`

func (r *reservationRepository) hasConflict(ctx context.Context, query string, scopeID int32, dateFrom, dateTo time.Time) (bool, error) {
	var exists bool
	err := executor(ctx, r.db).QueryRowContext(ctx, query,
		scopeID, domain.ReservationStillBooked, domain.OrderStateCompleted, dateFrom, dateTo).Scan(&exists)
	return exists, err
}

func (r *reservationRepository) HasSubCategoryConflict(ctx context.Context, subCategoryID int32, dateFrom, dateTo time.Time) (bool, error) {
	return r.hasConflict(ctx, subCategoryConflictQuery, subCategoryID, dateFrom, dateTo)
}

func (r *reservationRepository) HasVehicleConflict(ctx context.Context, vehicleID int32, dateFrom, dateTo time.Time) (bool, error) {
	return r.hasConflict(ctx, vehicleConflictQuery, vehicleID, dateFrom, dateTo)
}

func (r *reservationRepository) CountBookedPerDay(ctx context.Context, subCategoryID int32, dateFrom, dateTo time.Time) ([]domain.DayCount, error) {
	query := `SELECT r.date_from, count(DISTINCT r.vehicle_id)
	          FROM reserved_vehicles_per_days r
	          JOIN orders o ON o.id = r.order_id
	          WHERE r.sub_category_id = $1
	            AND r.state = $2
	            AND o.state <> $3
	            AND r.date_from BETWEEN $4 AND $5
	          GROUP BY r.date_from
	          ORDER BY r.date_from`
	rows, err := executor(ctx, r.db).QueryContext(ctx, query,
		subCategoryID, domain.ReservationStillBooked, domain.OrderStateCompleted, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []domain.DayCount
	for rows.Next() {
		var dc domain.DayCount
		if err := rows.Scan(&dc.Day, &dc.Booked); err != nil {
			return nil, err
		}
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}
