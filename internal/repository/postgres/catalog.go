package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/repository"
)

// catalogRepository serves the read-only city/sub-category/customer lookups
// the order engine depends on. Writes to these tables happen elsewhere.
type catalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetCity(ctx context.Context, id int32) (*domain.City, error) {
	c := &domain.City{}
	query := `SELECT id, name, delivery_fee_per_vehicle, service_fee_percent, urgent_fee, cancellation_fee, created_on
	          FROM cities WHERE id = $1`
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.DeliveryFeePerVehicle, &c.ServiceFeePercent, &c.UrgentFee, &c.CancellationFee, &c.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Validationf("city %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *catalogRepository) GetSubCategory(ctx context.Context, id int32) (*domain.SubCategory, error) {
	sc := &domain.SubCategory{}
	query := `SELECT id, category_id, name, price, created_on FROM sub_categories WHERE id = $1`
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&sc.ID, &sc.CategoryID, &sc.Name, &sc.Price, &sc.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Validationf("sub-category %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (r *catalogRepository) GetCustomer(ctx context.Context, id int32) (*domain.Customer, error) {
	c := &domain.Customer{}
	query := `SELECT id, name, email, phone, created_on FROM customers WHERE id = $1`
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Validationf("customer %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
