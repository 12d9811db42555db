package service

import (
	"context"
	"time"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/repository"
	"rentwheels-backend/internal/utils"
)

type availabilityService struct {
	reservationRepo repository.ReservationRepository
}

func NewAvailabilityService(reservationRepo repository.ReservationRepository) AvailabilityService {
	return &availabilityService{reservationRepo: reservationRepo}
}

func (s *availabilityService) HasConflict(ctx context.Context, subCategoryID int32, dateFrom, dateTo time.Time) (bool, error) {
	from, to, err := normalizeRange(dateFrom, dateTo)
	if err != nil {
		return false, err
	}
	return s.reservationRepo.HasSubCategoryConflict(ctx, subCategoryID, from, to)
}

func (s *availabilityService) HasVehicleConflict(ctx context.Context, vehicleID int32, dateFrom, dateTo time.Time) (bool, error) {
	from, to, err := normalizeRange(dateFrom, dateTo)
	if err != nil {
		return false, err
	}
	return s.reservationRepo.HasVehicleConflict(ctx, vehicleID, from, to)
}

func (s *availabilityService) Calendar(ctx context.Context, subCategoryID int32, dateFrom, dateTo time.Time) ([]domain.DayCount, error) {
	from, to, err := normalizeRange(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	return s.reservationRepo.CountBookedPerDay(ctx, subCategoryID, from, to)
}

func normalizeRange(dateFrom, dateTo time.Time) (time.Time, time.Time, error) {
	from := utils.NormalizeDate(dateFrom)
	to := utils.NormalizeDate(dateTo)
	if to.Before(from) {
		return time.Time{}, time.Time{}, domain.Validationf("date range end %s is before start %s",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return from, to, nil
}
