package jobs

import (
	"context"
	"fmt"
	"time"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/logger"
)

// ExpireStalePendingOrders cancels PayPal orders that have sat PENDING with no
// captured payment past the configured expiry window. Cancellation goes
// through the order service, so fee and refund bookkeeping apply as usual.
func (jr *JobRunner) ExpireStalePendingOrders() {
	jr.runWithRecovery("ExpireStalePendingOrders", func() {
		ctx := context.Background()

		cutoff := time.Now().UTC().Add(-time.Duration(jr.config.Orders.StalePaymentExpiryHours) * time.Hour)
		orders, err := jr.store.ListStalePendingPaypal(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to list stale pending orders", "error", err)
			return
		}
		if len(orders) == 0 {
			logger.Info("No stale pending orders found")
			return
		}

		actor := systemPrincipal()
		cancelled := 0
		for _, order := range orders {
			if _, err := jr.services.Order.CancelOrder(ctx, actor, order.ID); err != nil {
				logger.Error("Failed to cancel stale order",
					"order", order.PublicCode, "error", err)
				continue
			}
			cancelled++
			logger.Debug("Cancelled stale pending order",
				"order", order.PublicCode,
				"created_on", order.CreatedOn.Format("2006-01-02"))
		}

		logger.Info("Expired stale pending orders", "found", len(orders), "cancelled", cancelled)
	})
}

// SendReturnReminders notifies customers whose rental period ends within the
// next day and who still hold the vehicles.
func (jr *JobRunner) SendReturnReminders() {
	jr.runWithRecovery("SendReturnReminders", func() {
		ctx := context.Background()

		deadline := time.Now().UTC().Add(24 * time.Hour)
		orders, err := jr.store.ListReturnsDueBy(ctx, deadline)
		if err != nil {
			logger.Error("Failed to list returns due", "error", err)
			return
		}

		sent := 0
		for _, order := range orders {
			note := &domain.Notification{
				CustomerID: order.CustomerID,
				Title:      "Return Reminder",
				Message: fmt.Sprintf("Your rental %s is due back on %s",
					order.PublicCode, order.DateTo.Format("2006-01-02")),
				Attributes: map[string]string{
					"type":     "RETURN_REMINDER",
					"order_id": fmt.Sprintf("%d", order.ID),
				},
			}
			if err := jr.store.NotificationRepository.Create(ctx, note); err != nil {
				logger.Error("Failed to create return reminder",
					"order", order.PublicCode, "error", err)
				continue
			}
			sent++
		}

		logger.Info("Sent return reminders", "due", len(orders), "sent", sent)
	})
}
