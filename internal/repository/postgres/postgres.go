package postgres

import (
	"database/sql"

	"rentwheels-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.Transactor
	repository.OrderRepository
	repository.ReservationRepository
	repository.PaymentRepository
	repository.TreasuryRepository
	repository.VehicleRepository
	repository.CatalogRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		Transactor:             NewTxManager(db),
		OrderRepository:        NewOrderRepository(db),
		ReservationRepository:  NewReservationRepository(db),
		PaymentRepository:      NewPaymentRepository(db),
		TreasuryRepository:     NewTreasuryRepository(db),
		VehicleRepository:      NewVehicleRepository(db),
		CatalogRepository:      NewCatalogRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}
