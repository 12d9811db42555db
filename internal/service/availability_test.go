package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentwheels-backend/internal/domain"
)

func TestAvailabilityService_NormalizesTimestamps(t *testing.T) {
	repo := new(MockReservationRepo)
	svc := NewAvailabilityService(repo)

	// Timestamps with a time-of-day must reach the repository truncated to
	// whole days.
	repo.On("HasSubCategoryConflict", mock.Anything, int32(4), day(2026, 6, 10), day(2026, 6, 12)).
		Return(false, nil)

	conflict, err := svc.HasConflict(context.Background(), 4,
		time.Date(2026, 6, 10, 15, 30, 0, 0, time.UTC),
		time.Date(2026, 6, 12, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, conflict)
	repo.AssertExpectations(t)
}

func TestAvailabilityService_ReversedRangeRejected(t *testing.T) {
	repo := new(MockReservationRepo)
	svc := NewAvailabilityService(repo)

	_, err := svc.HasConflict(context.Background(), 4, day(2026, 6, 12), day(2026, 6, 10))
	assert.True(t, domain.IsValidation(err))
	repo.AssertNotCalled(t, "HasSubCategoryConflict", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAvailabilityService_SingleDayRangeAllowed(t *testing.T) {
	repo := new(MockReservationRepo)
	svc := NewAvailabilityService(repo)

	repo.On("CountBookedPerDay", mock.Anything, int32(4), day(2026, 6, 10), day(2026, 6, 10)).
		Return([]domain.DayCount{{Day: day(2026, 6, 10), Booked: 2}}, nil)

	days, err := svc.Calendar(context.Background(), 4, day(2026, 6, 10), day(2026, 6, 10))
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, int32(2), days[0].Booked)
}
