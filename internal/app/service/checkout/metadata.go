package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/clubhouse/membership/internal/app/service/membership"
	"github.com/clubhouse/membership/pkg/tool"
	"github.com/clubhouse/membership/pkg/types"
)

// Checkout session metadata keys. The webhook reads the same keys back.
const (
	MetaFlow              = "flow"
	MetaPlan              = "plan"
	MetaMembershipKey     = "membershipKey"
	MetaEmail             = "email"
	MetaName              = "name"
	MetaStudentNumber     = "studentNumber"
	MetaEmergencyName     = "emergencyContactName"
	MetaEmergencyPhone    = "emergencyContactPhone"
	MetaEmergencyRelation = "emergencyContactRelation"
	MetaWaiverSigned      = "waiverSigned"
	MetaLabel             = "label"

	// Stripe rejects metadata values longer than this.
	maxMetaValueLen = 500
	keyPrefix       = "mk_"
)

// NewMembershipKey derives a key from the buyer and plan plus a fresh nonce,
// so every checkout attempt gets its own key.
func NewMembershipKey(email, plan string) string {
	sum := sha256.Sum256([]byte(email + "|" + plan + "|" + tool.GenerateUUIDV7()))
	return keyPrefix + hex.EncodeToString(sum[:16])
}

func buildMetadata(flow types.CheckoutFlow, plan, key string, r *CreateSessionRequest) map[string]string {
	md := map[string]string{
		MetaFlow:          string(flow),
		MetaPlan:          plan,
		MetaMembershipKey: key,
	}
	put := func(k, v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		md[k] = truncate(v, maxMetaValueLen)
	}
	put(MetaEmail, r.Email)
	put(MetaName, r.Name)
	put(MetaStudentNumber, r.StudentNumber)
	put(MetaEmergencyName, r.EmergencyContactName)
	put(MetaEmergencyPhone, r.EmergencyContactPhone)
	put(MetaEmergencyRelation, r.EmergencyContactRelation)
	put(MetaLabel, r.Label)
	if flow == types.CheckoutFlowRegister {
		md[MetaWaiverSigned] = strconv.FormatBool(r.WaiverSigned)
	}
	return md
}

// truncate cuts v to at most n bytes without splitting a UTF-8 sequence.
func truncate(v string, n int) string {
	if len(v) <= n {
		return v
	}
	for n > 0 && !utf8.RuneStart(v[n]) {
		n--
	}
	return v[:n]
}

// Confirmation rebuilds the payment confirmation from session metadata.
// It returns false when the metadata lacks the flow, plan or key.
func Confirmation(md map[string]string) (types.CheckoutFlow, *membership.OnlineConfirmation, bool) {
	flow := types.CheckoutFlow(md[MetaFlow])
	key := md[MetaMembershipKey]
	plan := md[MetaPlan]
	if !flow.Valid() || key == "" || plan == "" {
		return flow, nil, false
	}
	waiver, _ := strconv.ParseBool(md[MetaWaiverSigned])
	return flow, &membership.OnlineConfirmation{
		MembershipKey:  key,
		MembershipType: types.MembershipType(plan),
		MemberFields: membership.MemberFields{
			Name:                     md[MetaName],
			Email:                    md[MetaEmail],
			StudentNumber:            md[MetaStudentNumber],
			EmergencyContactName:     md[MetaEmergencyName],
			EmergencyContactPhone:    md[MetaEmergencyPhone],
			EmergencyContactRelation: md[MetaEmergencyRelation],
			WaiverSigned:             waiver,
		},
	}, true
}
