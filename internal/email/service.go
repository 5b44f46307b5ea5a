package email

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/dukerupert/lavka/internal/domain"
)

// Config holds addresses and branding for storefront notifications.
type Config struct {
	FromAddress     string
	FromName        string
	OperatorAddress string
	StoreName       string
}

// Service renders notifications and hands them to a Sender.
// It satisfies service.Notifier.
type Service struct {
	sender    Sender
	config    Config
	templates map[string]*template.Template
}

// NewService parses the embedded templates and creates a Service.
func NewService(sender Sender, config Config) (*Service, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	if config.StoreName == "" {
		config.StoreName = "Lavka"
	}

	return &Service{
		sender:    sender,
		config:    config,
		templates: tmpl,
	}, nil
}

// NotifyOrderCustomer sends the order confirmation to the customer.
func (s *Service) NotifyOrderCustomer(ctx context.Context, order *domain.Order) error {
	data := OrderConfirmationEmail{StoreName: s.config.StoreName, Order: order}
	if err := s.send(ctx, data, order.Customer.Email, s.config.OperatorAddress, order.Reference); err != nil {
		return fmt.Errorf("failed to send order confirmation email: %w", err)
	}
	return nil
}

// NotifyOrderOperator sends the new order alert to the operator.
func (s *Service) NotifyOrderOperator(ctx context.Context, order *domain.Order) error {
	if s.config.OperatorAddress == "" {
		return ErrNoOperatorAddress
	}
	data := OrderAlertEmail{StoreName: s.config.StoreName, Order: order}
	if err := s.send(ctx, data, s.config.OperatorAddress, order.Customer.Email, order.Reference); err != nil {
		return fmt.Errorf("failed to send order alert email: %w", err)
	}
	return nil
}

// NotifyBookingCustomer sends the booking confirmation to the customer.
func (s *Service) NotifyBookingCustomer(ctx context.Context, booking *domain.ServiceBooking) error {
	data := BookingConfirmationEmail{StoreName: s.config.StoreName, Booking: booking}
	if err := s.send(ctx, data, booking.Customer.Email, s.config.OperatorAddress, booking.Reference); err != nil {
		return fmt.Errorf("failed to send booking confirmation email: %w", err)
	}
	return nil
}

// NotifyBookingOperator sends the new booking alert to the operator.
func (s *Service) NotifyBookingOperator(ctx context.Context, booking *domain.ServiceBooking) error {
	if s.config.OperatorAddress == "" {
		return ErrNoOperatorAddress
	}
	data := BookingAlertEmail{StoreName: s.config.StoreName, Booking: booking}
	if err := s.send(ctx, data, s.config.OperatorAddress, booking.Customer.Email, booking.Reference); err != nil {
		return fmt.Errorf("failed to send booking alert email: %w", err)
	}
	return nil
}

func (s *Service) send(ctx context.Context, data EmailTemplate, to, replyTo, reference string) error {
	htmlBody, textBody, err := s.renderTemplate(data.TemplateName(), data)
	if err != nil {
		return err
	}

	email := &Email{
		To:       []string{to},
		From:     s.from(),
		ReplyTo:  replyTo,
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
		Headers:  map[string]string{"X-Lavka-Reference": reference},
	}

	_, err = s.sender.Send(ctx, email)
	return err
}

func (s *Service) from() string {
	if s.config.FromName == "" {
		return s.config.FromAddress
	}
	return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)
}

func (s *Service) renderTemplate(name string, data interface{}) (string, string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", "", ErrTemplateNotFound(name)
	}

	var htmlBuf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&htmlBuf, "email_layout", data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	htmlBody := htmlBuf.String()
	return htmlBody, generatePlainText(htmlBody), nil
}

// generatePlainText creates a simple plain text version from HTML
func generatePlainText(body string) string {
	text := body

	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = strings.ReplaceAll(text, "</div>", "\n")
	text = strings.ReplaceAll(text, "</tr>", "\n")
	text = strings.ReplaceAll(text, "</td>", " ")
	text = strings.ReplaceAll(text, "</h1>", "\n\n")
	text = strings.ReplaceAll(text, "</h2>", "\n\n")
	text = strings.ReplaceAll(text, "</h3>", "\n\n")

	// <title> text would otherwise duplicate the subject line
	if start := strings.Index(text, "<head>"); start >= 0 {
		if end := strings.Index(text, "</head>"); end > start {
			text = text[:start] + text[end+len("</head>"):]
		}
	}

	for strings.Contains(text, "<") && strings.Contains(text, ">") {
		start := strings.Index(text, "<")
		end := strings.Index(text, ">")
		if start >= 0 && end > start {
			text = text[:start] + text[end+1:]
		} else {
			break
		}
	}

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
