// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package payment creates subscription checkouts and confirms them when the
// payment provider redirects the user back.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/pdiddy/truthfinder/internal/logging"
	"github.com/pdiddy/truthfinder/pkg/types"
)

// Sentinel errors.
var (
	ErrNotConfigured = errors.New("payment: no secret key configured")
	ErrNotPaid       = errors.New("payment: checkout not paid")
)

// CallbackPath is where the provider sends the user after paying.
const CallbackPath = "/api/premium/activated"

const (
	productName        = "Historical Truth Finder Premium"
	productDescription = "Monthly access to unlimited searches and AI analysis"
	metadataIdentity   = "user_hash"
)

// maxNetworkRetries is how often the Stripe backend retries a failed call.
var maxNetworkRetries int64 = 2

// Checkout is a created checkout session.
type Checkout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Provider is the subset of the payment provider the application uses.
type Provider interface {
	CreateCheckout(ctx context.Context, id types.Identity) (Checkout, error)
	Confirm(ctx context.Context, sessionID string) (types.Identity, error)
}

// StripeClient talks to the Stripe Checkout Sessions API.
type StripeClient struct {
	sessions   *session.Client
	secretKey  string
	baseURL    string
	priceCents int64
	currency   string
	log        logrus.FieldLogger
}

// NewStripe returns a client for cfg. Without a secret key every call returns
// ErrNotConfigured. cfg.Endpoint overrides the API base URL.
func NewStripe(cfg types.PaymentConfig, log logrus.FieldLogger) *StripeClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logging.Discard()
	}
	price := cfg.PriceCents
	if price <= 0 {
		price = 399
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		LeveledLogger:     log,
		MaxNetworkRetries: stripe.Int64(maxNetworkRetries),
		EnableTelemetry:   stripe.Bool(false),
	}
	if cfg.Endpoint != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(cfg.Endpoint, "/"))
	}

	return &StripeClient{
		sessions: &session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		secretKey:  cfg.SecretKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		priceCents: int64(price),
		currency:   currency,
		log:        log,
	}
}

// Configured reports whether checkouts can be created.
func (s *StripeClient) Configured() bool { return s.secretKey != "" }

// CreateCheckout starts a monthly subscription checkout for id and returns
// the URL to send the user to.
func (s *StripeClient) CreateCheckout(ctx context.Context, id types.Identity) (Checkout, error) {
	if !s.Configured() {
		return Checkout{}, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(s.currency),
				UnitAmount: stripe.Int64(s.priceCents),
				Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
					Interval: stripe.String("month"),
				},
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(productName),
					Description: stripe.String(productDescription),
				},
			},
		}},
		SuccessURL:        stripe.String(s.baseURL + CallbackPath + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.baseURL + "/"),
		ClientReferenceID: stripe.String(id.String()),
	}
	params.AddMetadata(metadataIdentity, id.String())
	params.Context = ctx

	sess, err := s.sessions.New(params)
	if err != nil {
		return Checkout{}, fmt.Errorf("creating checkout session: %w", describe(err))
	}
	if sess.URL == "" {
		return Checkout{}, fmt.Errorf("checkout session %s has no URL", sess.ID)
	}
	s.log.WithFields(logrus.Fields{"identity": id.Short(), "session": sess.ID}).Info("checkout session created")
	return Checkout{ID: sess.ID, URL: sess.URL}, nil
}

// Confirm fetches the checkout session and returns the identity it was paid
// for. It returns ErrNotPaid unless the session is complete and paid.
func (s *StripeClient) Confirm(ctx context.Context, sessionID string) (types.Identity, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	if sessionID == "" || strings.ContainsAny(sessionID, "/?#") {
		return "", fmt.Errorf("invalid checkout session id %q", sessionID)
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.sessions.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("retrieving checkout session: %w", describe(err))
	}

	paid := sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
	if sess.Status != stripe.CheckoutSessionStatusComplete || !paid {
		return "", fmt.Errorf("%w: session %s status=%s payment_status=%s", ErrNotPaid, sess.ID, sess.Status, sess.PaymentStatus)
	}

	id := sess.Metadata[metadataIdentity]
	if id == "" {
		id = sess.ClientReferenceID
	}
	if id == "" {
		return "", fmt.Errorf("checkout session %s carries no identity", sess.ID)
	}
	return types.Identity(id), nil
}

// describe flattens a Stripe API error into status, type and message and
// keeps it reachable through errors.As.
func describe(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return fmt.Errorf("status %d: %s: %s: %w", se.HTTPStatusCode, se.Type, se.Msg, err)
	}
	return err
}
