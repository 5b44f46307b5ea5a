package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var m *BusinessMetrics

	assert.NotPanics(t, func() {
		m.RecordCatalogQuery("book", "newest", true, 3)
		m.RecordItemView("book")
		m.RecordCartMutation("add", decimal.NewFromInt(10))
		m.RecordSubmission("order", "stored")
		m.RecordOrder("card", decimal.NewFromInt(30), 2)
		m.RecordLineItemFailure()
		m.RecordNotification("order", "customer", errors.New("smtp down"))
		m.ObserveEmail("log", 0.01)
	})
}

func TestBusinessMetrics_Record(t *testing.T) {
	// Registered once on the default registry; the namespace keeps it apart
	// from anything else in the test binary.
	m := NewBusinessMetrics("lavka_test")

	m.RecordCatalogQuery("", "", false, 18)
	m.RecordCatalogQuery("book", "price-low", true, 4)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogQueries.WithLabelValues("all", "none", "no")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogQueries.WithLabelValues("book", "price-low", "yes")))

	m.RecordNotification("booking", "operator", nil)
	m.RecordNotification("booking", "operator", errors.New("timeout"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("booking", "operator", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("booking", "operator", "failed")))

	m.RecordLineItemFailure()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LineItemFailures))
}

func TestSentryDisabled(t *testing.T) {
	flush, err := InitSentry(SentryConfig{Enabled: false}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer flush()

	assert.False(t, IsEnabled())
	assert.NotPanics(t, func() {
		CaptureError(errors.New("ignored"))
		CaptureErrorFromContext(context.Background(), errors.New("ignored"), nil)
		AddBreadcrumb("cart", "add", nil)
	})

	ctx, finish := StartSpan(context.Background(), "op", "desc")
	finish()
	assert.Equal(t, context.Background(), ctx)

	called := false
	h := SentryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTPTransport_DefaultsWhenDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &HTTPTransport{}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}
