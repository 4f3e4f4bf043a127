package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config collects every knob the server reads from the environment.
// main calls godotenv.Load() before Load so a local .env file works too.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	// Booking policy.
	MaxAdvanceDays  int           // how far ahead a booking or lookup may reach
	LookaheadDays   int           // horizon for the next-available-slots scan
	CancelCutoff    time.Duration // minimum lead time for a customer cancellation
	CheckInWindow   time.Duration // tolerance around the slot time for check-in
	NoShowGrace     time.Duration // how long after the slot a no-show is declared
	DepositCents    int64         // 0 disables online deposits entirely
	DepositCurrency string

	// Stripe.
	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		MaxAdvanceDays:      getEnvInt("MAX_ADVANCE_BOOKING_DAYS", 30),
		LookaheadDays:       getEnvInt("NEXT_SLOTS_LOOKAHEAD_DAYS", 30),
		CancelCutoff:        getEnvMinutes("CANCEL_CUTOFF_MINUTES", 120),
		CheckInWindow:       getEnvMinutes("CHECKIN_WINDOW_MINUTES", 30),
		NoShowGrace:         getEnvMinutes("NO_SHOW_GRACE_MINUTES", 120),
		DepositCents:        int64(getEnvInt("BOOKING_DEPOSIT_CENTS", 0)),
		DepositCurrency:     getEnv("BOOKING_DEPOSIT_CURRENCY", "eur"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/bookings/confirmation?session_id={CHECKOUT_SESSION_ID}"),
		CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/bookings/failed?session_id={CHECKOUT_SESSION_ID}"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvMinutes(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Minute
}
