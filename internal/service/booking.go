package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/dukerupert/lavka/internal/domain"
	"github.com/dukerupert/lavka/internal/telemetry"
)

const bookingConfirmedMessage = "Booking confirmed"

// SubmitBooking validates, stores and announces a service booking.
// Failure semantics match SubmitOrder; bookings have no line items.
func (s *Submissions) SubmitBooking(ctx context.Context, req domain.BookingRequest) (*Result, error) {
	const op = "booking.submit"

	ve := validateStruct(s.validate, op, req)
	svc, ok := s.catalog.Get(req.ServiceID)
	if req.ServiceID != "" && (!ok || !svc.IsService()) {
		ve.Fields["serviceId"] = "is not a bookable service"
	}
	if len(ve.Fields) > 0 {
		return nil, s.reject(ctx, KindBooking, ve)
	}

	booking := &domain.ServiceBooking{
		ID:            uuid.New(),
		Reference:     s.refs.BookingReference(),
		Customer:      req.Customer,
		ServiceID:     svc.ID,
		ServiceTitle:  svc.Title,
		Date:          req.Date,
		Time:          req.Time,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Price:         svc.Price.Round(2),
		Status:        domain.StatusPending,
		CreatedAt:     s.now(),
	}

	storeCtx, finish := telemetry.StartSpan(context.WithoutCancel(ctx), "db.insert", "service_bookings")
	err := s.store.InsertBooking(storeCtx, booking)
	finish()
	if err != nil {
		return nil, s.fail(ctx, KindBooking, booking.Reference,
			domain.Internal(err, "booking.persist", "Failed to save booking"))
	}

	s.log(ctx).Info("booking stored",
		"reference", booking.Reference,
		"booking_id", booking.ID,
		"service_id", booking.ServiceID,
		"date", booking.Date,
		"time", booking.Time,
	)

	notifyErrs := s.notify(ctx, KindBooking,
		func(ctx context.Context) error { return s.notifier.NotifyBookingCustomer(ctx, booking) },
		func(ctx context.Context) error { return s.notifier.NotifyBookingOperator(ctx, booking) },
	)

	return s.respond(ctx, KindBooking, bookingConfirmedMessage, booking.ID, booking.Reference, booking.Status, notifyErrs), nil
}

// GetBooking looks up a booking by its reference. The most recent match wins.
func (s *Submissions) GetBooking(ctx context.Context, reference string) (*domain.ServiceBooking, error) {
	if !BookingReferencePattern.MatchString(reference) {
		return nil, ErrInvalidReference
	}

	booking, err := s.store.GetBookingByReference(ctx, reference)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, ErrBookingNotFound
		}
		return nil, domain.Internal(err, "booking.get", "Failed to load booking")
	}
	return booking, nil
}
