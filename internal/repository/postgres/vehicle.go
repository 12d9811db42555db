package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/repository"
)

type vehicleRepository struct {
	db *sql.DB
}

func NewVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) GetByID(ctx context.Context, id int32) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	query := `SELECT id, code, sub_category_id, status, created_on, updated_on FROM vehicles WHERE id = $1`
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.Code, &v.SubCategoryID, &v.Status, &v.CreatedOn, &v.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Validationf("vehicle %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *vehicleRepository) ListBySubCategory(ctx context.Context, subCategoryID int32) ([]domain.Vehicle, error) {
	query := `SELECT id, code, sub_category_id, status, created_on, updated_on
	          FROM vehicles WHERE sub_category_id = $1 ORDER BY id`
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, subCategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.Code, &v.SubCategoryID, &v.Status, &v.CreatedOn, &v.UpdatedOn); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *vehicleRepository) UpdateStatus(ctx context.Context, id int32, status domain.VehicleStatus) error {
	query := `UPDATE vehicles SET status = $1, updated_on = $2 WHERE id = $3`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Validationf("vehicle %d not found", id)
	}
	return nil
}
