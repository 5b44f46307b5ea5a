// Package service implements the order and booking submission pipeline:
// validate, issue a reference, persist, then notify customer and operator.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/lavka/internal/domain"
	"github.com/dukerupert/lavka/internal/pricing"
	"github.com/dukerupert/lavka/internal/telemetry"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// DefaultNotifyTimeout bounds the joint wait on both notification sends.
	DefaultNotifyTimeout = 15 * time.Second
)

// Submission kinds, used in logs and metrics.
const (
	KindOrder   = "order"
	KindBooking = "booking"
)

// Notification recipients.
const (
	RecipientCustomer = "customer"
	RecipientOperator = "operator"
)

// Catalog resolves item ids to catalog entries.
type Catalog interface {
	Get(id string) (domain.CatalogItem, bool)
}

// Store persists submission records. Writes are independent; there is no
// transaction spanning an order and its items.
type Store interface {
	// InsertOrder stores the order row and fills in ID and CreatedAt.
	InsertOrder(ctx context.Context, order *domain.Order) error
	InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []domain.OrderItem) error
	// InsertBooking stores the booking row and fills in ID and CreatedAt.
	InsertBooking(ctx context.Context, booking *domain.ServiceBooking) error

	GetOrderByReference(ctx context.Context, reference string) (*domain.Order, error)
	GetBookingByReference(ctx context.Context, reference string) (*domain.ServiceBooking, error)
}

// Notifier sends the confirmation and alert emails for a stored record.
type Notifier interface {
	NotifyOrderCustomer(ctx context.Context, order *domain.Order) error
	NotifyOrderOperator(ctx context.Context, order *domain.Order) error
	NotifyBookingCustomer(ctx context.Context, booking *domain.ServiceBooking) error
	NotifyBookingOperator(ctx context.Context, booking *domain.ServiceBooking) error
}

// Result is the outcome of a stored submission. Success is always true when
// a Result is returned; EmailSent distinguishes full from degraded success.
type Result struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Reference string          `json:"reference"`
	ID        uuid.UUID       `json:"id"`
	Status    domain.Status   `json:"status"`
	Totals    *pricing.Result `json:"totals,omitempty"`
	EmailSent bool            `json:"emailSent"`

	NotificationErrors []*NotificationError `json:"-"`
}

// Degraded reports whether the record was stored but a notification failed.
func (r *Result) Degraded() bool {
	return r.Success && len(r.NotificationErrors) > 0
}

// Options tune a Submissions service. Zero values get defaults.
type Options struct {
	References    ReferenceGenerator
	NotifyTimeout time.Duration
	Logger        *slog.Logger
}

// Submissions runs the order and booking pipelines.
type Submissions struct {
	catalog       Catalog
	store         Store
	notifier      Notifier
	calc          *pricing.Calculator
	refs          ReferenceGenerator
	validate      *validator.Validate
	notifyTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// NewSubmissions creates the pipeline service.
func NewSubmissions(catalog Catalog, store Store, notifier Notifier, calc *pricing.Calculator, opts Options) *Submissions {
	if opts.References == nil {
		opts.References = RandomReferences{}
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = DefaultNotifyTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Submissions{
		catalog:       catalog,
		store:         store,
		notifier:      notifier,
		calc:          calc,
		refs:          opts.References,
		validate:      newValidator(),
		notifyTimeout: opts.NotifyTimeout,
		logger:        opts.Logger,
		now:           time.Now,
	}
}

func (s *Submissions) log(ctx context.Context) *slog.Logger {
	if id := domain.RequestIDFromContext(ctx); id != "" {
		return s.logger.With("request_id", id)
	}
	return s.logger
}

// notify sends both notifications concurrently and waits for both.
// The sends run on a context that ignores request cancellation but is
// bounded by the notify timeout.
func (s *Submissions) notify(ctx context.Context, kind string, customer, operator func(context.Context) error) []*NotificationError {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	var customerErr, operatorErr error

	// A plain Group: one failed send must not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		customerErr = customer(ctx)
		return nil
	})
	g.Go(func() error {
		operatorErr = operator(ctx)
		return nil
	})
	_ = g.Wait()

	telemetry.Business.RecordNotification(kind, RecipientCustomer, customerErr)
	telemetry.Business.RecordNotification(kind, RecipientOperator, operatorErr)

	var errs []*NotificationError
	if customerErr != nil {
		errs = append(errs, &NotificationError{Recipient: RecipientCustomer, Err: customerErr})
	}
	if operatorErr != nil {
		errs = append(errs, &NotificationError{Recipient: RecipientOperator, Err: operatorErr})
	}
	return errs
}

// respond combines the persisted record with the notification outcome.
func (s *Submissions) respond(ctx context.Context, kind, successMsg string, id uuid.UUID, reference string, status domain.Status, notifyErrs []*NotificationError) *Result {
	res := &Result{
		Success:            true,
		Message:            successMsg,
		Reference:          reference,
		ID:                 id,
		Status:             status,
		EmailSent:          len(notifyErrs) == 0,
		NotificationErrors: notifyErrs,
	}

	if res.Degraded() {
		res.Message = successMsg + ", but confirmation email could not be sent"
		for _, ne := range notifyErrs {
			s.log(ctx).Warn("notification failed",
				"kind", kind,
				"reference", reference,
				"recipient", ne.Recipient,
				"error", ne.Err,
			)
			telemetry.CaptureErrorFromContext(ctx, ne, map[string]interface{}{
				"kind":      kind,
				"reference": reference,
			})
		}
		telemetry.Business.RecordSubmission(kind, "degraded")
		return res
	}

	telemetry.Business.RecordSubmission(kind, "success")
	return res
}

func (s *Submissions) reject(ctx context.Context, kind string, ve *domain.ValidationError) error {
	s.log(ctx).Info("submission rejected",
		"kind", kind,
		"fields", ve.Summary(),
	)
	telemetry.Business.RecordSubmission(kind, "invalid")
	return ve
}

func (s *Submissions) fail(ctx context.Context, kind, reference string, err error) error {
	s.log(ctx).Error("failed to persist submission",
		"kind", kind,
		"reference", reference,
		"error", err,
	)
	telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{
		"kind":      kind,
		"reference": reference,
	})
	telemetry.Business.RecordSubmission(kind, "failed")
	return err
}
