package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"studiobook/internal/api"
	"studiobook/internal/auth"
	"studiobook/internal/config"
	"studiobook/internal/db"
	"studiobook/internal/repository"
	"studiobook/internal/service"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	availabilityRepo := repository.NewAvailabilityRepository(conn)
	bookingRepo := repository.NewBookingRepository(conn)
	jobRepo := repository.NewJobRepository(conn)
	adminAuthRepo := repository.NewAdminAuthRepository(conn)

	notifier := service.NewSenderService()
	var payments service.PaymentGateway
	if cfg.StripeSecretKey != "" && cfg.DepositCents > 0 {
		payments = service.NewStripeService(cfg.StripeSecretKey, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	}

	availabilitySvc := service.NewAvailabilityService(availabilityRepo, bookingRepo, cfg.MaxAdvanceDays)
	bookingSvc := service.NewBookingService(bookingRepo, availabilitySvc, notifier, payments, service.BookingPolicy{
		MaxAdvanceDays:  cfg.MaxAdvanceDays,
		CancelCutoff:    cfg.CancelCutoff,
		CheckInWindow:   cfg.CheckInWindow,
		DepositCents:    cfg.DepositCents,
		DepositCurrency: cfg.DepositCurrency,
	})
	calendarSvc := service.NewCalendarService(availabilityRepo, bookingRepo, cfg.LookaheadDays)
	jobSvc := service.NewJobService(jobRepo, cfg.NoShowGrace)
	adminAuthSvc := service.NewAdminAuthService(adminAuthRepo, cfg.JWTSecret)

	userHandler := api.NewUserHandler(bookingSvc, calendarSvc)
	adminHandler := api.NewAdminHandler(availabilitySvc, bookingSvc)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthSvc)
	stripeHandler := api.NewStripeWebhookHandler(cfg.StripeWebhookSecret, bookingSvc)

	c := cron.New()
	if _, err := c.AddFunc("*/5 * * * *", func() {
		if err := jobSvc.SweepBookingStatuses(); err != nil {
			log.Printf("Booking status sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule status sweep: %v", err)
	}
	if _, err := c.AddFunc("@hourly", func() {
		if err := jobSvc.PruneReferenceSequences(); err != nil {
			log.Printf("Reference sequence pruning failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule sequence pruning: %v", err)
	}
	c.Start()
	defer c.Stop()

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/calendar", userHandler.GetCalendar).Methods("GET")
	r.HandleFunc("/api/slots/next", userHandler.GetNextSlots).Methods("GET")
	r.HandleFunc("/api/slots/{date}", userHandler.GetSlots).Methods("GET")
	r.HandleFunc("/api/bookings", userHandler.CreateBooking).Methods("POST")
	r.HandleFunc("/api/bookings/{reference}", userHandler.GetBooking).Methods("GET")
	r.HandleFunc("/api/bookings/{reference}/cancel", userHandler.CancelBooking).Methods("POST")
	r.HandleFunc("/api/bookings/{reference}/reschedule", userHandler.RescheduleBooking).Methods("POST")
	r.HandleFunc("/api/stripe/webhook", stripeHandler.HandleWebhook).Methods("POST")

	r.HandleFunc("/admin/login", adminAuthHandler.Login).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware(cfg.JWTSecret))
	admin.HandleFunc("/admins", adminAuthHandler.CreateAdmin).Methods("POST")
	admin.HandleFunc("/availability", adminHandler.ListWindows).Methods("GET")
	admin.HandleFunc("/availability", adminHandler.CreateWindow).Methods("POST")
	admin.HandleFunc("/availability/bulk", adminHandler.BulkCreateWindows).Methods("POST")
	admin.HandleFunc("/availability/{date}", adminHandler.GetWindow).Methods("GET")
	admin.HandleFunc("/availability/{date}", adminHandler.UpdateWindow).Methods("PUT")
	admin.HandleFunc("/availability/{date}", adminHandler.DeleteWindow).Methods("DELETE")
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/bookings", adminHandler.CreateBooking).Methods("POST")
	admin.HandleFunc("/bookings/{id}/status", adminHandler.UpdateBookingStatus).Methods("PUT")
	admin.HandleFunc("/bookings/{id}/checkin", adminHandler.CheckInBooking).Methods("POST")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Printf("Server running on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handlers.LoggingHandler(os.Stdout, cors(r))))
}
