package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/repository"
)

type treasuryService struct {
	repo repository.TreasuryRepository
	now  func() time.Time
}

func NewTreasuryService(repo repository.TreasuryRepository) TreasuryService {
	return &treasuryService{repo: repo, now: time.Now}
}

func (s *treasuryService) AddRevenue(ctx context.Context, amount decimal.Decimal, description string, orderID *int32) error {
	return s.add(ctx, domain.TreasuryEntryRevenue, amount, description, orderID)
}

func (s *treasuryService) AddCancellationFee(ctx context.Context, amount decimal.Decimal, description string, orderID *int32) error {
	return s.add(ctx, domain.TreasuryEntryCancellationFee, amount, description, orderID)
}

func (s *treasuryService) add(ctx context.Context, kind domain.TreasuryEntryKind, amount decimal.Decimal, description string, orderID *int32) error {
	// The ledger is append-only credits; a negative amount can only be a bug
	// upstream.
	if amount.IsNegative() {
		return domain.Invariantf("treasury credit must be non-negative, got %s", amount)
	}
	entry := &domain.TreasuryEntry{
		Kind:        kind,
		Amount:      amount,
		Description: description,
		OrderID:     orderID,
		CreatedOn:   s.now().UTC(),
	}
	return s.repo.AddEntry(ctx, entry)
}

func (s *treasuryService) GetTreasury(ctx context.Context) (*domain.CompanyTreasury, error) {
	return s.repo.Get(ctx)
}

func (s *treasuryService) ListEntries(ctx context.Context, page, pageSize int32) ([]domain.TreasuryEntry, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.ListEntries(ctx, page, pageSize)
}
