package webhook_handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/clubhouse/membership/internal/app/service/checkout"
	"github.com/clubhouse/membership/internal/app/service/membership"
	eventlog "github.com/clubhouse/membership/internal/app/service/payment_event_log"
	"github.com/clubhouse/membership/internal/app/service/pricing"
	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/internal/platform/stripe/stripe_webhook"
	"github.com/clubhouse/membership/pkg/logctx"
	"github.com/clubhouse/membership/pkg/metrics"
	"github.com/clubhouse/membership/pkg/types"
)

// Reasons recorded when a delivery is acknowledged without a write.
const (
	reasonUnhandledType  = "unhandled event type"
	reasonNotPaid        = "payment not settled"
	reasonNoMetadata     = "missing checkout metadata"
	reasonDropIn         = "drop-in pass, no member record"
	reasonUnknownRenewal = "renewal for unknown member"
)

// Registrar is what the handler needs from the membership service.
type Registrar interface {
	RegisterOnline(ctx context.Context, c *membership.OnlineConfirmation) (*models.Member, bool, error)
	RenewOnline(ctx context.Context, c *membership.OnlineConfirmation) (*models.Member, error)
}

type Handler struct {
	verifier *stripe_webhook.Verifier
	members  Registrar
	events   *eventlog.Service
	metrics  *metrics.Business
	log      *zap.SugaredLogger
}

func New(v *stripe_webhook.Verifier, members *membership.Service, events *eventlog.Service, m *metrics.Business, log *zap.SugaredLogger) *Handler {
	return &Handler{verifier: v, members: members, events: events, metrics: m, log: log}
}

type result struct {
	MemberID string `json:"member_id,omitempty"`
	Created  bool   `json:"created,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Handle verifies and applies one webhook delivery. It returns
// stripe_webhook.ErrInvalidSignature for unauthenticated payloads and any
// other error only when a redelivery could succeed.
func (h *Handler) Handle(ctx context.Context, payload []byte, signature string) (resErr error) {
	ev, err := h.verifier.Parse(payload, signature)
	if err != nil {
		h.metrics.WebhookEvent("unknown", "rejected")
		return err
	}
	log := logctx.FromCtx(ctx, h.log).With("event_id", ev.ID, "event_type", ev.Type)

	entry := &models.PaymentEventLog{
		ProviderID: string(types.PaymentProviderStripe),
		EventID:    ev.ID,
		EventType:  ev.Type,
		TraceID:    logctx.TraceID(ctx),
		EventTime:  ev.Created,
		Data:       datatypes.JSON(payload),
		Status:     models.PaymentEventLogStatusReceived,
	}
	if ev.Session != nil {
		entry.SessionID = ev.Session.ID
		entry.Flow = ev.Session.Metadata[checkout.MetaFlow]
		if k := ev.Session.Metadata[checkout.MetaMembershipKey]; k != "" {
			entry.MembershipKey = lo.ToPtr(k)
		}
	}
	received := *entry
	h.events.Save(ctx, &received)

	res := &result{}
	defer func() {
		status := models.PaymentEventLogStatusHandled
		switch {
		case resErr != nil:
			status = models.PaymentEventLogStatusHandleFailed
			res.Error = resErr.Error()
		case res.Error != "":
			status = models.PaymentEventLogStatusHandleFailed
		case res.MemberID == "" && res.Reason != "" && res.Reason != reasonDropIn:
			status = models.PaymentEventLogStatusIgnored
		}
		b, _ := json.Marshal(res)
		final := *entry
		final.Result = lo.ToPtr(datatypes.JSON(b))
		final.Status = status
		h.events.Save(ctx, &final)
		h.metrics.WebhookEvent(ev.Type, string(status))
	}()

	if ev.Type != stripe_webhook.EventCheckoutCompleted && ev.Type != stripe_webhook.EventCheckoutAsyncPaymentSucceed {
		res.Reason = reasonUnhandledType
		return nil
	}
	if ev.Session == nil || !ev.Session.Paid() {
		res.Reason = reasonNotPaid
		log.Infow("checkout session not paid yet")
		return nil
	}

	flow, conf, ok := checkout.Confirmation(ev.Session.Metadata)
	if !ok {
		res.Reason = reasonNoMetadata
		log.Warnw("paid checkout session without membership metadata", "session_id", ev.Session.ID)
		return nil
	}
	conf.AmountPaid = ev.Session.AmountTotal
	conf.PaidAt = ev.Created
	if conf.Email == "" {
		conf.Email = ev.Session.CustomerEmail
	}
	log = log.With("flow", flow, "membership_key", conf.MembershipKey)

	switch flow {
	case types.CheckoutFlowDropIn:
		res.Reason = reasonDropIn
		log.Infow("drop-in paid", "amount", conf.AmountPaid, "email", conf.Email)
		return nil
	case types.CheckoutFlowRegister:
		m, created, err := h.members.RegisterOnline(ctx, conf)
		if err != nil {
			return h.fail(log, res, err)
		}
		res.MemberID, res.Created = m.ID, created
	case types.CheckoutFlowRenew:
		m, err := h.members.RenewOnline(ctx, conf)
		if errors.Is(err, membership.ErrMemberNotFound) {
			res.Reason, res.Error = reasonUnknownRenewal, err.Error()
			log.Errorw("paid renewal for unknown member needs manual follow-up", "email", conf.Email)
			return nil
		}
		if err != nil {
			return h.fail(log, res, err)
		}
		res.MemberID = m.ID
	}
	log.Infow("webhook handled", "member_id", res.MemberID, "created", res.Created)
	return nil
}

// fail records err. Input errors are final and acknowledged; anything else
// is returned so the provider redelivers.
func (h *Handler) fail(log *zap.SugaredLogger, res *result, err error) error {
	if errors.Is(err, membership.ErrValidation) || errors.Is(err, pricing.ErrInvalidPlan) {
		res.Error = err.Error()
		log.Errorw("paid checkout could not be applied", "err", err)
		return nil
	}
	log.Errorw("webhook handling failed", "err", err)
	return fmt.Errorf("failed to apply checkout: %w", err)
}

var Module = fx.Options(
	fx.Provide(New),
)
