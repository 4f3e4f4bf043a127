package service

import (
	"fmt"
	"log"
	"time"

	"studiobook/internal/apperr"
	"studiobook/internal/db"
	"studiobook/internal/entities"
	"studiobook/internal/timegrid"
)

const (
	referencePrefix       = "BK"
	referenceMinuteLayout = "200601021504"
	maxReferencesPerMin   = 999
)

// BookingService owns the booking lifecycle: creation with conflict
// resolution, cancellation, rescheduling, check-in and admin transitions.
type BookingService struct {
	repo     BookingRepo
	windows  *AvailabilityService
	notifier Notifier
	payments PaymentGateway

	maxAdvanceDays  int
	cancelCutoff    time.Duration
	checkInWindow   time.Duration
	depositCents    int64
	depositCurrency string

	now func() time.Time
}

type BookingPolicy struct {
	MaxAdvanceDays  int
	CancelCutoff    time.Duration
	CheckInWindow   time.Duration
	DepositCents    int64
	DepositCurrency string
}

func NewBookingService(repo BookingRepo, windows *AvailabilityService, notifier Notifier, payments PaymentGateway, policy BookingPolicy) *BookingService {
	return &BookingService{
		repo:            repo,
		windows:         windows,
		notifier:        notifier,
		payments:        payments,
		maxAdvanceDays:  policy.MaxAdvanceDays,
		cancelCutoff:    policy.CancelCutoff,
		checkInWindow:   policy.CheckInWindow,
		depositCents:    policy.DepositCents,
		depositCurrency: policy.DepositCurrency,
		now:             time.Now,
	}
}

// slotInstant combines a date and a slot time into a point in time, in the
// same location the service clock runs in.
func (s *BookingService) slotInstant(date string, slot timegrid.TimeOfDay) time.Time {
	d, _ := time.Parse(dateLayout, date)
	loc := s.now().Location()
	return time.Date(d.Year(), d.Month(), d.Day(), int(slot)/60, int(slot)%60, 0, 0, loc)
}

// validateSlot checks that (date, slot) is a legal, free slot. excludeID
// lets a reschedule validate against records other than itself.
func (s *BookingService) validateSlot(date, slot string, excludeID int) (*db.AvailabilityWindow, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	today := dayOf(s.now())
	if d.Before(today) {
		return nil, apperr.New(apperr.KindValidation, "date is in the past")
	}
	if d.After(today.AddDate(0, 0, s.maxAdvanceDays)) {
		return nil, apperr.Newf(apperr.KindValidation, "date is more than %d days ahead", s.maxAdvanceDays)
	}

	slotT, err := timegrid.Parse(slot)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid time_slot", err)
	}
	if d.Equal(today) && slotT <= timegrid.FromTime(s.now()) {
		return nil, apperr.New(apperr.KindValidation, "time slot has already passed")
	}

	window, err := s.windows.FindForBooking(date)
	if err != nil {
		return nil, err
	}

	start, _ := timegrid.Parse(window.StartTime)
	end, _ := timegrid.Parse(window.EndTime)
	onGrid := false
	for _, t := range timegrid.GenerateSlots(start, end, window.SlotDuration) {
		if t == slotT {
			onGrid = true
			break
		}
	}
	if !onGrid {
		return nil, apperr.Newf(apperr.KindValidation, "%s is not a valid slot for %s", slot, date)
	}

	taken, err := s.repo.FindLiveBySlot(date, slot, excludeID)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		return nil, apperr.Newf(apperr.KindConflict, "slot %s on %s is already booked", slot, date)
	}
	return window, nil
}

// generateReference builds the next unique booking reference from the
// generation timestamp and an atomic per-minute sequence.
func (s *BookingService) generateReference() (string, error) {
	minuteKey := s.now().Format(referenceMinuteLayout)
	n, err := s.repo.NextReferenceSequence(minuteKey)
	if err != nil {
		return "", err
	}
	if n > maxReferencesPerMin {
		return "", apperr.Newf(apperr.KindExhaustedSequence,
			"booking reference space exhausted for minute %s", minuteKey)
	}
	return fmt.Sprintf("%s%s%d", referencePrefix, minuteKey, n), nil
}

// Create reserves a slot. When an online deposit is configured the booking
// starts pending with a checkout session attached; otherwise it is confirmed
// immediately. Notification failures never fail the creation.
func (s *BookingService) Create(req entities.BookingRequest) (*entities.BookingResponse, error) {
	if req.CustomerName == "" || req.CustomerEmail == "" {
		return nil, apperr.New(apperr.KindValidation, "customer_name and customer_email are required")
	}
	source := req.Source
	if source == "" {
		source = db.SourceOnline
	}
	if !db.ValidSource(source) {
		return nil, apperr.Newf(apperr.KindValidation, "unknown booking source %q", source)
	}

	if _, err := s.validateSlot(req.Date, req.TimeSlot, 0); err != nil {
		return nil, err
	}

	reference, err := s.generateReference()
	if err != nil {
		return nil, err
	}

	booking := &db.Booking{
		Reference:     reference,
		Date:          req.Date,
		TimeSlot:      req.TimeSlot,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Status:        db.StatusConfirmed,
		Source:        source,
		PaymentStatus: db.PaymentNone,
	}
	if req.CustomerNotes != "" {
		booking.CustomerNotes.String, booking.CustomerNotes.Valid = req.CustomerNotes, true
	}

	var checkoutURL string
	if s.depositCents > 0 && s.payments != nil && source == db.SourceOnline {
		url, sessionID, err := s.payments.CreateCheckoutSession(
			s.depositCents, s.depositCurrency, reference, req.CustomerEmail)
		if err != nil {
			return nil, fmt.Errorf("error creating checkout session: %w", err)
		}
		booking.Status = db.StatusPending
		booking.PaymentStatus = db.PaymentPending
		booking.StripeSessionID.String, booking.StripeSessionID.Valid = sessionID, true
		checkoutURL = url
	}

	if err := s.repo.Create(booking); err != nil {
		if isSlotTaken(err) {
			return nil, apperr.Newf(apperr.KindConflict, "slot %s on %s is already booked", req.TimeSlot, req.Date)
		}
		if isUnique(err) {
			return nil, apperr.Wrap(apperr.KindConflict, "booking could not be stored", err)
		}
		return nil, fmt.Errorf("error creating booking: %w", err)
	}

	if booking.Status == db.StatusConfirmed && s.notifier != nil {
		s.notifier.BookingStatusChanged(booking, db.StatusConfirmed)
	}

	resp := toBookingResponse(booking)
	resp.CheckoutURL = checkoutURL
	return resp, nil
}

// GetByReference returns a booking to the customer who owns it. The email
// must match so references alone cannot be fished for.
func (s *BookingService) GetByReference(reference, email string) (*entities.BookingResponse, error) {
	b, err := s.repo.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if b == nil || b.CustomerEmail != email {
		return nil, apperr.Newf(apperr.KindNotFound, "booking %s not found", reference)
	}
	return toBookingResponse(b), nil
}

// Cancel cancels a customer's booking. Cancelled and completed bookings are
// terminal, and a booking may not be cancelled within the cutoff before its
// slot unless the slot has already passed.
func (s *BookingService) Cancel(reference, email, reason string) (*entities.BookingResponse, error) {
	b, err := s.repo.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if b == nil || b.CustomerEmail != email {
		return nil, apperr.Newf(apperr.KindNotFound, "booking %s not found", reference)
	}
	if b.Status == db.StatusCancelled || b.Status == db.StatusCompleted {
		return nil, apperr.Newf(apperr.KindInvalidState, "booking %s is already %s", reference, b.Status)
	}

	slotT, _ := timegrid.Parse(b.TimeSlot)
	instant := s.slotInstant(b.Date, slotT)
	now := s.now()
	if now.Before(instant) && instant.Sub(now) < s.cancelCutoff {
		return nil, apperr.Newf(apperr.KindTooLateToCancel,
			"bookings can only be cancelled at least %d minutes in advance", int(s.cancelCutoff.Minutes()))
	}

	if b.PaymentStatus == db.PaymentPaid && s.payments != nil && b.StripeSessionID.Valid {
		if err := s.payments.RefundBySessionID(b.StripeSessionID.String); err != nil {
			return nil, fmt.Errorf("error refunding booking %s: %w", reference, err)
		}
		if err := s.repo.SetPaymentStatus(b.ID, db.PaymentRefunded); err != nil {
			return nil, err
		}
		b.PaymentStatus = db.PaymentRefunded
	}

	if err := s.repo.Cancel(b.ID, reason); err != nil {
		return nil, fmt.Errorf("error cancelling booking %s: %w", reference, err)
	}
	b.Status = db.StatusCancelled
	now = s.now()
	b.CancelledAt.Time, b.CancelledAt.Valid = now, true
	if reason != "" {
		b.CancellationReason.String, b.CancellationReason.Valid = reason, true
	}

	if s.notifier != nil {
		s.notifier.BookingStatusChanged(b, db.StatusCancelled)
	}
	return toBookingResponse(b), nil
}

// Reschedule moves a booking to a new slot, revalidating exactly as Create
// would but excluding the booking itself from the conflict check, so a no-op
// reschedule never conflicts with itself. The reference is preserved.
func (s *BookingService) Reschedule(reference, email, newDate, newSlot string) (*entities.BookingResponse, error) {
	b, err := s.repo.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if b == nil || b.CustomerEmail != email {
		return nil, apperr.Newf(apperr.KindNotFound, "booking %s not found", reference)
	}
	if b.Status == db.StatusCancelled || b.Status == db.StatusCompleted {
		return nil, apperr.Newf(apperr.KindInvalidState, "booking %s is already %s", reference, b.Status)
	}

	if _, err := s.validateSlot(newDate, newSlot, b.ID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSlot(b.ID, newDate, newSlot); err != nil {
		if isSlotTaken(err) {
			return nil, apperr.Newf(apperr.KindConflict, "slot %s on %s is already booked", newSlot, newDate)
		}
		return nil, fmt.Errorf("error rescheduling booking %s: %w", reference, err)
	}
	b.Date, b.TimeSlot = newDate, newSlot
	return toBookingResponse(b), nil
}

// CheckIn marks a confirmed booking as arrived. Allowed only on the booking
// date and within the configured window around the slot time.
func (s *BookingService) CheckIn(id int) (*entities.BookingResponse, error) {
	b, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "booking %d not found", id)
	}
	if b.Status != db.StatusConfirmed {
		return nil, apperr.Newf(apperr.KindInvalidState, "only confirmed bookings can be checked in, booking is %s", b.Status)
	}

	now := s.now()
	if b.Date != now.Format(dateLayout) {
		return nil, apperr.New(apperr.KindInvalidState, "check-in is only possible on the booking date")
	}
	slotT, _ := timegrid.Parse(b.TimeSlot)
	diff := now.Sub(s.slotInstant(b.Date, slotT))
	if diff < 0 {
		diff = -diff
	}
	if diff > s.checkInWindow {
		return nil, apperr.Newf(apperr.KindInvalidState,
			"check-in is only possible within %d minutes of the slot time", int(s.checkInWindow.Minutes()))
	}

	if err := s.repo.SetCheckedIn(b.ID); err != nil {
		return nil, fmt.Errorf("error checking in booking %d: %w", id, err)
	}
	b.CheckedInAt.Time, b.CheckedInAt.Valid = now, true
	return toBookingResponse(b), nil
}

// UpdateStatus applies an admin transition. Admins may move a booking freely
// between statuses; customer-facing restrictions do not apply here.
func (s *BookingService) UpdateStatus(id int, status string) (*entities.BookingResponse, error) {
	if !db.ValidStatus(status) {
		return nil, apperr.Newf(apperr.KindValidation, "unknown booking status %q", status)
	}
	b, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "booking %d not found", id)
	}
	if err := s.repo.SetStatus(id, status); err != nil {
		return nil, fmt.Errorf("error updating booking %d status: %w", id, err)
	}
	b.Status = status
	return toBookingResponse(b), nil
}

// List returns a filtered page of bookings for the admin view.
func (s *BookingService) List(filter entities.BookingFilter) (*entities.BookingList, error) {
	if filter.Date != "" {
		if _, err := parseDate(filter.Date); err != nil {
			return nil, err
		}
	}
	if filter.Status != "" && !db.ValidStatus(filter.Status) {
		return nil, apperr.Newf(apperr.KindValidation, "unknown booking status %q", filter.Status)
	}
	if filter.Source != "" && !db.ValidSource(filter.Source) {
		return nil, apperr.Newf(apperr.KindValidation, "unknown booking source %q", filter.Source)
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}

	bookings, total, err := s.repo.List(filter)
	if err != nil {
		return nil, err
	}
	list := &entities.BookingList{
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
		Bookings: make([]entities.BookingResponse, 0, len(bookings)),
	}
	for i := range bookings {
		list.Bookings = append(list.Bookings, *toBookingResponse(&bookings[i]))
	}
	return list, nil
}

// ConfirmPaymentBySession is called by the payment webhook once a checkout
// session completes. It confirms the pending booking and notifies the
// customer.
func (s *BookingService) ConfirmPaymentBySession(sessionID string) error {
	b, err := s.repo.GetByStripeSessionID(sessionID)
	if err != nil {
		return err
	}
	if b == nil {
		return apperr.Newf(apperr.KindNotFound, "no booking for checkout session %s", sessionID)
	}
	if b.Status != db.StatusPending {
		// The booking left pending before the webhook arrived, usually a
		// cancellation. Cancelled bookings never come back to life and the
		// slot may already belong to someone else, so the deposit is
		// refunded instead.
		if s.payments != nil {
			if err := s.payments.RefundBySessionID(sessionID); err != nil {
				return fmt.Errorf("error refunding late payment for session %s: %w", sessionID, err)
			}
			if err := s.repo.SetPaymentStatus(b.ID, db.PaymentRefunded); err != nil {
				return err
			}
		}
		log.Printf("Ignoring completed checkout session %s: booking %s is %s", sessionID, b.Reference, b.Status)
		return nil
	}
	if err := s.repo.UpdateStatusAndPaymentBySession(sessionID, db.StatusConfirmed, db.PaymentPaid); err != nil {
		return fmt.Errorf("error confirming payment for session %s: %w", sessionID, err)
	}
	b.Status = db.StatusConfirmed
	b.PaymentStatus = db.PaymentPaid
	if s.notifier != nil {
		s.notifier.BookingStatusChanged(b, db.StatusConfirmed)
	}
	return nil
}

// ExpireSessionBooking cancels a still-pending booking whose checkout
// session expired, freeing its slot.
func (s *BookingService) ExpireSessionBooking(sessionID string) error {
	b, err := s.repo.GetByStripeSessionID(sessionID)
	if err != nil {
		return err
	}
	if b == nil || b.Status != db.StatusPending {
		return nil
	}
	if err := s.repo.Cancel(b.ID, "checkout session expired"); err != nil {
		return fmt.Errorf("error expiring booking %s: %w", b.Reference, err)
	}
	log.Printf("Cancelled pending booking %s after checkout session expired", b.Reference)
	return nil
}

func toBookingResponse(b *db.Booking) *entities.BookingResponse {
	resp := &entities.BookingResponse{
		ID:            b.ID,
		Reference:     b.Reference,
		Date:          b.Date,
		TimeSlot:      b.TimeSlot,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		CustomerNotes: b.CustomerNotes.String,
		Status:        b.Status,
		Source:        b.Source,
		PaymentStatus: b.PaymentStatus,
		CreatedAt:     b.CreatedAt,
	}
	if b.CancelledAt.Valid {
		t := b.CancelledAt.Time
		resp.CancelledAt = &t
	}
	if b.CheckedInAt.Valid {
		t := b.CheckedInAt.Time
		resp.CheckedInAt = &t
	}
	return resp
}
