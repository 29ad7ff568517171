// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/pdiddy/truthfinder/pkg/types"
)

func init() {
	maxNetworkRetries = 0
}

func testClient(t *testing.T, h http.HandlerFunc) *StripeClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewStripe(types.PaymentConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 2 * time.Second},
		Endpoint:   ts.URL,
		SecretKey:  "sk_test_123",
		BaseURL:    "https://truthfinder.example/",
	}, nil)
}

func TestCreateCheckout(t *testing.T) {
	var form url.Values
	var auth, path string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		w.Write([]byte(`{"id":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	})

	co, err := c.CreateCheckout(context.Background(), "0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", co.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", co.URL)

	assert.Equal(t, "/v1/checkout/sessions", path)
	assert.Equal(t, "Bearer sk_test_123", auth)
	assert.Equal(t, "subscription", form.Get("mode"))
	assert.Equal(t, "399", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "usd", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "1", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "card", form.Get("payment_method_types[0]"))
	assert.Equal(t, "Historical Truth Finder Premium", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "0123456789abcdef", form.Get("client_reference_id"))
	assert.Equal(t, "month", form.Get("line_items[0][price_data][recurring][interval]"))
	assert.Equal(t, "0123456789abcdef", form.Get("metadata[user_hash]"))
	assert.Equal(t, "https://truthfinder.example/api/premium/activated?session_id={CHECKOUT_SESSION_ID}", form.Get("success_url"))
	assert.Equal(t, "https://truthfinder.example/", form.Get("cancel_url"))
}

func TestCreateCheckoutAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such price"}}`))
	})

	_, err := c.CreateCheckout(context.Background(), "0123456789abcdef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No such price")
	assert.Contains(t, err.Error(), "status 400")

	var se *stripe.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, stripe.ErrorTypeInvalidRequest, se.Type)
}

func TestCreateCheckoutMissingURL(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id":"cs_test_1"}`))
	})
	_, err := c.CreateCheckout(context.Background(), "0123456789abcdef")
	assert.Error(t, err)
}

func TestNotConfigured(t *testing.T) {
	c := NewStripe(types.PaymentConfig{Endpoint: "https://api.stripe.com"}, nil)
	assert.False(t, c.Configured())

	_, err := c.CreateCheckout(context.Background(), "0123456789abcdef")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.Confirm(context.Background(), "cs_test_1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    types.Identity
		wantErr error
	}{
		{
			name: "paid with metadata",
			body: `{"id":"cs_1","status":"complete","payment_status":"paid","metadata":{"user_hash":"0123456789abcdef"}}`,
			want: "0123456789abcdef",
		},
		{
			name: "falls back to client reference",
			body: `{"id":"cs_1","status":"complete","payment_status":"paid","client_reference_id":"fedcba9876543210","metadata":{}}`,
			want: "fedcba9876543210",
		},
		{
			name:    "still open",
			body:    `{"id":"cs_1","status":"open","payment_status":"unpaid","metadata":{"user_hash":"0123456789abcdef"}}`,
			wantErr: ErrNotPaid,
		},
		{
			name:    "complete but unpaid",
			body:    `{"id":"cs_1","status":"complete","payment_status":"unpaid","metadata":{"user_hash":"0123456789abcdef"}}`,
			wantErr: ErrNotPaid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				w.Write([]byte(tt.body))
			})

			id, err := c.Confirm(context.Background(), "cs_1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
			assert.Equal(t, "/v1/checkout/sessions/cs_1", path)
		})
	}
}

func TestConfirmRejectsBadSessionID(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})
	for _, id := range []string{"", "../charges", "cs?x=1"} {
		_, err := c.Confirm(context.Background(), id)
		assert.Error(t, err, id)
	}
}

func TestConfirmMissingIdentity(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id":"cs_1","status":"complete","payment_status":"paid"}`))
	})
	_, err := c.Confirm(context.Background(), "cs_1")
	assert.Error(t, err)
}
