package email

import (
	"embed"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/lavka/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

// EmailTemplate is the data for one kind of notification.
type EmailTemplate interface {
	Subject() string
	TemplateName() string
}

// OrderConfirmationEmail is sent to the customer after an order is stored.
type OrderConfirmationEmail struct {
	StoreName string
	Order     *domain.Order
}

func (e OrderConfirmationEmail) Subject() string {
	return "Order confirmation - " + e.Order.Reference
}

func (e OrderConfirmationEmail) TemplateName() string {
	return "order_confirmation.html"
}

// OrderAlertEmail tells the operator a new order arrived.
type OrderAlertEmail struct {
	StoreName string
	Order     *domain.Order
}

func (e OrderAlertEmail) Subject() string {
	return "New order " + e.Order.Reference + " from " + e.Order.Customer.Name
}

func (e OrderAlertEmail) TemplateName() string {
	return "order_alert.html"
}

// BookingConfirmationEmail is sent to the customer after a booking is stored.
type BookingConfirmationEmail struct {
	StoreName string
	Booking   *domain.ServiceBooking
}

func (e BookingConfirmationEmail) Subject() string {
	return "Booking confirmation - " + e.Booking.Reference
}

func (e BookingConfirmationEmail) TemplateName() string {
	return "booking_confirmation.html"
}

// BookingAlertEmail tells the operator a new booking arrived.
type BookingAlertEmail struct {
	StoreName string
	Booking   *domain.ServiceBooking
}

func (e BookingAlertEmail) Subject() string {
	return "New booking " + e.Booking.Reference + ": " + e.Booking.ServiceTitle
}

func (e BookingAlertEmail) TemplateName() string {
	return "booking_alert.html"
}

var templateNames = []string{
	OrderConfirmationEmail{}.TemplateName(),
	OrderAlertEmail{}.TemplateName(),
	BookingConfirmationEmail{}.TemplateName(),
	BookingAlertEmail{}.TemplateName(),
}

var templateFuncs = template.FuncMap{
	"money": formatMoney,
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2) + " " + domain.Currency
}

// parseTemplates builds one template set per notification, each pairing
// the shared layout with its own "content" block.
func parseTemplates() (map[string]*template.Template, error) {
	layout, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, layoutTemplate)
	if err != nil {
		return nil, err
	}

	sets := make(map[string]*template.Template, len(templateNames))
	for _, name := range templateNames {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, err
		}
		sets[name] = t
	}
	return sets, nil
}
