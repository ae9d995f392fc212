package checkout

import (
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/clubhouse/membership/pkg/types"
)

// SessionIDPlaceholder is replaced by Stripe with the checkout session id.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

var defaultPaths = map[types.CheckoutFlow]struct{ success, cancel string }{
	types.CheckoutFlowRegister: {success: "/success", cancel: "/register"},
	types.CheckoutFlowRenew:    {success: "/renew-success", cancel: "/renew"},
	types.CheckoutFlowDropIn:   {success: "/success", cancel: "/drop-in"},
}

// sanitizeRedirect returns raw when it is an absolute http(s) URL on an
// allowed origin, otherwise fallback.
func sanitizeRedirect(raw string, allowed []string, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.User != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fallback
	}
	origin := u.Scheme + "://" + u.Host
	if !lo.ContainsBy(allowed, func(o string) bool { return strings.EqualFold(o, origin) }) {
		return fallback
	}
	return raw
}

// withSessionID appends the session id placeholder unless already present.
// The placeholder must stay unescaped, so it is appended as text.
func withSessionID(raw string) string {
	if strings.Contains(raw, SessionIDPlaceholder) {
		return raw
	}
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + "session_id=" + SessionIDPlaceholder
}
