package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	attrs, err := json.Marshal(n.Attributes)
	if err != nil {
		return err
	}

	query := `INSERT INTO notifications (customer_id, title, message, is_read, attributes, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if n.CreatedOn.IsZero() {
		n.CreatedOn = time.Now().UTC()
	}
	return executor(ctx, r.db).QueryRowContext(ctx, query,
		n.CustomerID, n.Title, n.Message, n.IsRead, attrs, n.CreatedOn).Scan(&n.ID)
}

func (r *notificationRepository) List(ctx context.Context, customerID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	var count int32
	countQuery := `SELECT count(*) FROM notifications WHERE customer_id = $1`
	if err := executor(ctx, r.db).QueryRowContext(ctx, countQuery, customerID).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT id, customer_id, title, message, is_read, attributes, created_on
	          FROM notifications WHERE customer_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, customerID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.CustomerID, &n.Title, &n.Message, &n.IsRead, &attrs, &n.CreatedOn); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, 0, err
			}
		}
		notes = append(notes, n)
	}
	return notes, count, rows.Err()
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, customerID int32) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND customer_id = $2`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, id, customerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Validationf("notification %d not found", id)
	}
	return nil
}
