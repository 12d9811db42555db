package service

import (
	"context"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/repository"
)

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) GetNotifications(ctx context.Context, customerID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.List(ctx, customerID, page, pageSize)
}

func (s *notificationService) MarkAsRead(ctx context.Context, customerID, notificationID int32) error {
	return s.repo.MarkAsRead(ctx, notificationID, customerID)
}
