package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/repository"
)

type treasuryRepository struct {
	db *sql.DB
}

func NewTreasuryRepository(db *sql.DB) repository.TreasuryRepository {
	return &treasuryRepository{db: db}
}

// AddEntry appends to the entry log and folds the amount into the singleton
// projection row. The upsert lazily creates the row on the first credit; the
// projection stays recomputable as SUM over treasury_entries.
func (r *treasuryRepository) AddEntry(ctx context.Context, e *domain.TreasuryEntry) error {
	insert := `INSERT INTO treasury_entries (kind, amount, description, order_id, created_on)
	           VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := executor(ctx, r.db).QueryRowContext(ctx, insert,
		e.Kind, e.Amount, e.Description, e.OrderID, e.CreatedOn).Scan(&e.ID); err != nil {
		return err
	}

	var revenue, fees decimal.Decimal
	switch e.Kind {
	case domain.TreasuryEntryRevenue:
		revenue = e.Amount
	case domain.TreasuryEntryCancellationFee:
		fees = e.Amount
	default:
		return domain.Invariantf("unknown treasury entry kind %q", e.Kind)
	}

	upsert := `INSERT INTO company_treasury (id, total_revenue, total_cancellation_fees, updated_on)
	           VALUES (1, $1, $2, $3)
	           ON CONFLICT (id) DO UPDATE SET
	             total_revenue = company_treasury.total_revenue + EXCLUDED.total_revenue,
	             total_cancellation_fees = company_treasury.total_cancellation_fees + EXCLUDED.total_cancellation_fees,
	             updated_on = EXCLUDED.updated_on`
	_, err := executor(ctx, r.db).ExecContext(ctx, upsert, revenue, fees, time.Now().UTC())
	return err
}

func (r *treasuryRepository) Get(ctx context.Context) (*domain.CompanyTreasury, error) {
	t := &domain.CompanyTreasury{}
	query := `SELECT id, total_revenue, total_cancellation_fees, updated_on FROM company_treasury WHERE id = 1`
	err := executor(ctx, r.db).QueryRowContext(ctx, query).Scan(
		&t.ID, &t.TotalRevenue, &t.TotalCancellationFees, &t.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		// No credit has ever been recorded; report an empty ledger.
		return &domain.CompanyTreasury{ID: 1, TotalRevenue: decimal.Zero, TotalCancellationFees: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *treasuryRepository) ListEntries(ctx context.Context, page, pageSize int32) ([]domain.TreasuryEntry, int32, error) {
	var count int32
	if err := executor(ctx, r.db).QueryRowContext(ctx, `SELECT count(*) FROM treasury_entries`).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT id, kind, amount, description, order_id, created_on
	          FROM treasury_entries ORDER BY created_on DESC LIMIT $1 OFFSET $2`
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []domain.TreasuryEntry
	for rows.Next() {
		var e domain.TreasuryEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Amount, &e.Description, &e.OrderID, &e.CreatedOn); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, count, rows.Err()
}
