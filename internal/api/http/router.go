// Package http is the REST transport for the order engine.
package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentwheels-backend/internal/security"
	"rentwheels-backend/internal/service"
)

// NewRouter wires every handler onto a gorilla router. All /api/v1 routes
// sit behind token auth; health is the only public endpoint.
func NewRouter(
	tm security.TokenManager,
	orders service.OrderService,
	availability service.AvailabilityService,
	treasury service.TreasuryService,
	notifications service.NotificationService,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(AuthMiddleware(tm))

	orderHandler := NewOrderHandler(orders)
	api.HandleFunc("/orders", orderHandler.Create).Methods("POST")
	api.HandleFunc("/orders", orderHandler.List).Methods("GET")
	api.HandleFunc("/orders/{id:[0-9]+}", orderHandler.Get).Methods("GET")
	api.HandleFunc("/orders/{id:[0-9]+}/confirm", orderHandler.Confirm).Methods("POST")
	api.HandleFunc("/orders/{id:[0-9]+}/on-way", orderHandler.MarkOnWay).Methods("POST")
	api.HandleFunc("/orders/{id:[0-9]+}/received", orderHandler.MarkCustomerReceived).Methods("POST")
	api.HandleFunc("/orders/{id:[0-9]+}/complete", orderHandler.Complete).Methods("POST")
	api.HandleFunc("/orders/{id:[0-9]+}/cancel", orderHandler.Cancel).Methods("POST")
	api.HandleFunc("/orders/{id:[0-9]+}/refund", orderHandler.ProcessRefund).Methods("POST")

	availabilityHandler := NewAvailabilityHandler(availability)
	api.HandleFunc("/availability", availabilityHandler.Check).Methods("GET")
	api.HandleFunc("/availability/calendar", availabilityHandler.Calendar).Methods("GET")

	treasuryHandler := NewTreasuryHandler(treasury)
	api.HandleFunc("/treasury", treasuryHandler.Get).Methods("GET")
	api.HandleFunc("/treasury/entries", treasuryHandler.ListEntries).Methods("GET")

	notificationHandler := NewNotificationHandler(notifications)
	api.HandleFunc("/notifications", notificationHandler.List).Methods("GET")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", notificationHandler.MarkAsRead).Methods("POST")

	return router
}
