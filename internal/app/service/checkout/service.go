// Package checkout starts Stripe Checkout payments for registrations,
// renewals and drop-in passes. The amount always comes from the pricing
// table; the membership key minted here comes back in the webhook.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clubhouse/membership/internal/app/service/membership"
	"github.com/clubhouse/membership/internal/app/service/pricing"
	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/internal/platform/stripe/stripe_checkout"
	cfgpkg "github.com/clubhouse/membership/pkg/config"
	"github.com/clubhouse/membership/pkg/logctx"
	"github.com/clubhouse/membership/pkg/types"
)

// ErrUpstreamPayment means the payment provider call failed. Nothing was
// written; the caller may retry.
var ErrUpstreamPayment = errors.New("payment provider request failed")

type CreateSessionRequest struct {
	Flow       types.CheckoutFlow `json:"type" binding:"required"`
	Plan       string             `json:"plan" binding:"required"`
	SuccessURL string             `json:"successUrl" binding:"max=2048"`
	CancelURL  string             `json:"cancelUrl" binding:"max=2048"`
	Label      string             `json:"label" binding:"max=120"`

	Name                     string `json:"name" binding:"max=255"`
	Email                    string `json:"email" binding:"max=255"`
	StudentNumber            string `json:"studentNumber" binding:"max=64"`
	EmergencyContactName     string `json:"emergencyContactName" binding:"max=255"`
	EmergencyContactPhone    string `json:"emergencyContactPhone" binding:"max=64"`
	EmergencyContactRelation string `json:"emergencyContactRelation" binding:"max=64"`
	WaiverSigned             bool   `json:"waiverSigned"`
}

type CreateSessionResult struct {
	URL           string      `json:"url"`
	SessionID     string      `json:"sessionId"`
	MembershipKey string      `json:"membershipKey"`
	Amount        types.Cents `json:"amount"`
}

// MemberVerifier is the membership lookup used to refuse renewals for
// unknown emails before charging.
type MemberVerifier interface {
	Verify(ctx context.Context, email string) (*membership.VerifyResult, error)
}

type Service struct {
	cfg      *cfgpkg.Config
	stripe   stripe_checkout.SessionCreator
	members  MemberVerifier
	log      *zap.SugaredLogger
	origins  []string
	frontend string
}

func New(cfg *cfgpkg.Config, sc stripe_checkout.SessionCreator, members *membership.Service, log *zap.SugaredLogger) *Service {
	return newService(cfg, sc, members, log)
}

func newService(cfg *cfgpkg.Config, sc stripe_checkout.SessionCreator, members MemberVerifier, log *zap.SugaredLogger) *Service {
	return &Service{
		cfg:      cfg,
		stripe:   sc,
		members:  members,
		log:      log,
		origins:  cfg.RedirectOrigins(),
		frontend: strings.TrimRight(cfg.Frontend.Origin, "/"),
	}
}

// CreateSession validates the request, prices the plan and opens a Stripe
// Checkout session carrying everything the webhook needs in its metadata.
func (s *Service) CreateSession(ctx context.Context, r *CreateSessionRequest) (*CreateSessionResult, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: empty request", membership.ErrValidation)
	}
	plan := strings.ToLower(strings.TrimSpace(r.Plan))
	email := models.NormalizeEmail(r.Email)
	r.Email = email

	if !r.Flow.Valid() {
		return nil, fmt.Errorf("%w: unknown checkout type %q", membership.ErrValidation, r.Flow)
	}
	if (r.Flow == types.CheckoutFlowDropIn) != (plan == types.PlanDropIn) {
		return nil, fmt.Errorf("%w: plan %q does not match checkout type %q", pricing.ErrInvalidPlan, plan, r.Flow)
	}
	amount, err := pricing.CheckoutPrice(plan)
	if err != nil {
		return nil, err
	}
	if err := s.validateFlow(ctx, r, types.MembershipType(plan)); err != nil {
		return nil, err
	}

	paths := defaultPaths[r.Flow]
	success := withSessionID(sanitizeRedirect(r.SuccessURL, s.origins, s.frontend+paths.success))
	cancel := sanitizeRedirect(r.CancelURL, s.origins, s.frontend+paths.cancel)

	key := NewMembershipKey(email, plan)
	sess, err := s.stripe.CreateSession(ctx, &stripe_checkout.SessionRequest{
		Amount:            amount,
		Currency:          s.cfg.Stripe.Currency,
		ProductName:       s.productName(r.Flow, plan, r.Label),
		SuccessURL:        success,
		CancelURL:         cancel,
		CustomerEmail:     email,
		ClientReferenceID: key,
		Metadata:          buildMetadata(r.Flow, plan, key, r),
	})
	log := logctx.FromCtx(ctx, s.log)
	if err != nil {
		log.Errorw("checkout session creation failed", "flow", r.Flow, "plan", plan, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamPayment, err)
	}
	log.Infow("checkout session created", "flow", r.Flow, "plan", plan, "session_id", sess.ID, "membership_key", key, "amount", amount)
	return &CreateSessionResult{URL: sess.URL, SessionID: sess.ID, MembershipKey: key, Amount: amount}, nil
}

func (s *Service) validateFlow(ctx context.Context, r *CreateSessionRequest, t types.MembershipType) error {
	switch r.Flow {
	case types.CheckoutFlowRegister:
		fields := membership.MemberFields{
			Name:                     r.Name,
			Email:                    r.Email,
			StudentNumber:            r.StudentNumber,
			EmergencyContactName:     r.EmergencyContactName,
			EmergencyContactPhone:    r.EmergencyContactPhone,
			EmergencyContactRelation: r.EmergencyContactRelation,
			WaiverSigned:             r.WaiverSigned,
		}
		if err := membership.ValidateFields(&fields, t); err != nil {
			return err
		}
		if !r.WaiverSigned {
			return fmt.Errorf("%w: waiver must be signed", membership.ErrValidation)
		}
	case types.CheckoutFlowRenew:
		if r.Email == "" {
			return fmt.Errorf("%w: email is required", membership.ErrValidation)
		}
		res, err := s.members.Verify(ctx, r.Email)
		if err != nil {
			return err
		}
		if !res.Found {
			return membership.ErrMemberNotFound
		}
	}
	return nil
}

func (s *Service) productName(flow types.CheckoutFlow, plan, label string) string {
	name := strings.TrimSpace(label)
	if name == "" {
		switch flow {
		case types.CheckoutFlowDropIn:
			name = "Drop-in Pass"
		case types.CheckoutFlowRenew:
			name = planTitle(plan) + " Membership Renewal"
		default:
			name = planTitle(plan) + " Membership"
		}
	}
	if p := strings.TrimSpace(s.cfg.Stripe.ProductPrefix); p != "" {
		return p + " " + name
	}
	return name
}

func planTitle(plan string) string {
	switch types.MembershipType(plan) {
	case types.MembershipTypeTerm:
		return "Term"
	case types.MembershipTypeYear:
		return "Year"
	case types.MembershipTypeNonStudent:
		return "Non-student"
	}
	return plan
}
