package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/lavka/internal/telemetry"
)

const postmarkEndpoint = "https://api.postmarkapp.com/email"

// PostmarkSender implements Sender using the Postmark HTTP API.
type PostmarkSender struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

type postmarkEmail struct {
	From     string           `json:"From"`
	To       string           `json:"To"`
	ReplyTo  string           `json:"ReplyTo,omitempty"`
	Subject  string           `json:"Subject"`
	HtmlBody string           `json:"HtmlBody,omitempty"`
	TextBody string           `json:"TextBody,omitempty"`
	Headers  []postmarkHeader `json:"Headers,omitempty"`
}

type postmarkHeader struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type postmarkResponse struct {
	To        string `json:"To"`
	MessageID string `json:"MessageID"`
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// NewPostmarkSender creates a Postmark sender. from is used when an email
// carries no From of its own.
func NewPostmarkSender(apiKey, from string) *PostmarkSender {
	return &PostmarkSender{
		apiKey:   apiKey,
		from:     from,
		endpoint: postmarkEndpoint,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &telemetry.HTTPTransport{},
		},
	}
}

// Send sends an email via Postmark and returns its MessageID.
func (p *PostmarkSender) Send(ctx context.Context, email *Email) (string, error) {
	if len(email.To) == 0 {
		return "", ErrNoRecipients
	}

	payload := postmarkEmail{
		From:     email.From,
		To:       strings.Join(email.To, ","),
		ReplyTo:  email.ReplyTo,
		Subject:  email.Subject,
		HtmlBody: email.HTMLBody,
		TextBody: email.TextBody,
	}
	if payload.From == "" {
		payload.From = p.from
	}

	if len(email.Headers) > 0 {
		headers := make([]postmarkHeader, 0, len(email.Headers))
		for name, value := range email.Headers {
			headers = append(headers, postmarkHeader{Name: name, Value: value})
		}
		payload.Headers = headers
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.apiKey)

	start := time.Now()
	resp, err := p.client.Do(req)
	telemetry.Business.ObserveEmail(ProviderPostmark, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result postmarkResponse
	if resp.StatusCode != http.StatusOK {
		perr := &ProviderError{Provider: ProviderPostmark, StatusCode: resp.StatusCode, Message: string(body)}
		if json.Unmarshal(body, &result) == nil && result.Message != "" {
			perr.Code = result.ErrorCode
			perr.Message = result.Message
		}
		return "", perr
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if result.ErrorCode != 0 {
		return "", &ProviderError{
			Provider:   ProviderPostmark,
			StatusCode: resp.StatusCode,
			Code:       result.ErrorCode,
			Message:    result.Message,
		}
	}

	return result.MessageID, nil
}
