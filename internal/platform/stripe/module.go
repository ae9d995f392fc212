// Package stripe wires the Stripe checkout client and webhook verifier.
package stripe

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/clubhouse/membership/internal/platform/stripe/stripe_checkout"
	"github.com/clubhouse/membership/internal/platform/stripe/stripe_webhook"
	cfgpkg "github.com/clubhouse/membership/pkg/config"
)

var errNotConfigured = errors.New("stripe is not configured")

type unconfigured struct{}

func (unconfigured) CreateSession(context.Context, *stripe_checkout.SessionRequest) (*stripe_checkout.Session, error) {
	return nil, errNotConfigured
}

// NewSessionCreator returns the Stripe client, or a creator that always
// fails when no secret key is configured so the rest of the API still serves.
func NewSessionCreator(cfg *cfgpkg.Config, l *zap.SugaredLogger) stripe_checkout.SessionCreator {
	c, err := stripe_checkout.NewClient(cfg.Stripe.SecretKey)
	if err != nil {
		l.Warnw("online checkout disabled", "err", err)
		return unconfigured{}
	}
	return c
}

func NewVerifier(cfg *cfgpkg.Config, l *zap.SugaredLogger) *stripe_webhook.Verifier {
	if cfg.Stripe.WebhookSecret == "" {
		l.Warnw("stripe webhook secret is empty; all deliveries will be rejected")
	}
	return stripe_webhook.NewVerifier(cfg.Stripe.WebhookSecret)
}

var Module = fx.Options(
	fx.Provide(NewSessionCreator, NewVerifier),
)
