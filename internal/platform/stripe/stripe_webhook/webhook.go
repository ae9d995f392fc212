package stripe_webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/clubhouse/membership/pkg/types"
)

const (
	SignatureHeader = "Stripe-Signature"
	// MaxBodyBytes bounds what the webhook endpoint reads.
	MaxBodyBytes = 64 << 10

	EventCheckoutCompleted           = string(stripe.EventTypeCheckoutSessionCompleted)
	EventCheckoutAsyncPaymentSucceed = string(stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded)
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Event is a verified webhook delivery. Session is set for checkout.session.* events.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Raw     json.RawMessage
	Session *CheckoutSession
}

type CheckoutSession struct {
	ID                string
	PaymentStatus     string
	AmountTotal       types.Cents
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string
}

// Paid reports whether the session's funds have been captured.
func (s *CheckoutSession) Paid() bool {
	return s != nil && s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid)
}

type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Parse checks the Stripe-Signature header against payload and decodes the event.
func (v *Verifier) Parse(payload []byte, signature string) (*Event, error) {
	if v.secret == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", ErrInvalidSignature)
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Created: time.Unix(ev.Created, 0).UTC(),
		Raw:     json.RawMessage(payload),
	}
	if ev.Data == nil || ev.Data.Object == nil || ev.Data.Object["object"] != "checkout.session" {
		return out, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	out.Session = &CheckoutSession{
		ID:                s.ID,
		PaymentStatus:     string(s.PaymentStatus),
		AmountTotal:       types.Cents(s.AmountTotal),
		CustomerEmail:     s.CustomerEmail,
		ClientReferenceID: s.ClientReferenceID,
		Metadata:          s.Metadata,
	}
	if out.Session.CustomerEmail == "" && s.CustomerDetails != nil {
		out.Session.CustomerEmail = s.CustomerDetails.Email
	}
	return out, nil
}
