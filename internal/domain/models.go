// Package domain defines the core entities of the payment-to-access state
// machine: pending payment claims, the confirmed-purchase ledger, the
// per-user invite map, and the persisted snapshot that ties them together.
//
// All entities are plain serializable structs. Business rules live in the
// services layer; this package only encodes shapes and the small amount of
// derived knowledge that belongs to the types themselves (plan → channel
// expansion, method → currency).
package domain

import "time"

// Plan is the entitlement tier a purchase unlocks.
type Plan string

// Supported plans. PlanBoth unlocks both gated channels.
const (
	PlanVIP  Plan = "vip"
	PlanDark Plan = "dark"
	PlanBoth Plan = "both"
)

// Valid reports whether p is one of the supported plans.
func (p Plan) Valid() bool {
	switch p {
	case PlanVIP, PlanDark, PlanBoth:
		return true
	}
	return false
}

// ChannelTags expands a plan into the channel tags it entitles access to.
// Unknown plans expand to nothing.
func (p Plan) ChannelTags() []ChannelTag {
	switch p {
	case PlanVIP:
		return []ChannelTag{TagVIP}
	case PlanDark:
		return []ChannelTag{TagDark}
	case PlanBoth:
		return []ChannelTag{TagVIP, TagDark}
	}
	return nil
}

// Includes reports whether the plan entitles access to the given channel tag.
func (p Plan) Includes(tag ChannelTag) bool {
	for _, t := range p.ChannelTags() {
		if t == tag {
			return true
		}
	}
	return false
}

// ChannelTag names one of the gated channels independent of its numeric
// Telegram identifier, which is operator configuration.
type ChannelTag string

// The two gated channels.
const (
	TagVIP  ChannelTag = "vip"
	TagDark ChannelTag = "dark"
)

// Method is the payment method a user claims to have paid with.
type Method string

// Supported payment methods.
const (
	MethodUPI     Method = "upi"
	MethodCrypto  Method = "crypto"
	MethodRemitly Method = "remitly"
)

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodUPI, MethodCrypto, MethodRemitly:
		return true
	}
	return false
}

// Currency returns the display currency charged for the method.
func (m Method) Currency() string {
	if m == MethodCrypto {
		return "USD"
	}
	return "INR"
}

// SourceManualApproval marks ledger entries created by an admin approving a
// user-submitted payment proof, as opposed to a gateway event name.
const SourceManualApproval = "manual-approval"

// PendingPayment is one outstanding, unconfirmed payment claim created when a
// user submits proof of payment. It is owned exclusively by the payment
// service; other layers reference it by ID only.
//
// Lifecycle: created on proof submission, mutated by admin approve, removed
// once the access link has been sent or the claim is declined.
type PendingPayment struct {
	ID            string                `json:"id"`
	UserID        int64                 `json:"user_id"`
	Username      string                `json:"username"`
	Plan          Plan                  `json:"plan"`
	Method        Method                `json:"method"`
	Amount        float64               `json:"amount"`
	Currency      string                `json:"currency"`
	InviteCreated bool                  `json:"invite_created"`
	InviteLinks   map[ChannelTag]string `json:"invite_links,omitempty"`
	InviteSent    bool                  `json:"invite_sent"`
	CreatedAt     time.Time             `json:"created_at"`
}

// PurchaseRecord is an immutable, append-only ledger entry representing a
// confirmed payment. Once appended it is never mutated or removed; the join
// gatekeeper treats the ledger as the sole source of truth.
//
// UserID, Plan, Method, Amount and Currency are optional: gateway events whose
// notes lacked an identity still produce a record for audit purposes.
type PurchaseRecord struct {
	Time        time.Time         `json:"time"`
	UserID      int64             `json:"user_id,omitempty"`
	Username    string            `json:"username,omitempty"`
	Plan        Plan              `json:"plan,omitempty"`
	Method      Method            `json:"method,omitempty"`
	Amount      float64           `json:"amount,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	SourceEvent string            `json:"source_event"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// PlanPrices holds the per-method price points for one plan.
type PlanPrices struct {
	UPIINR    float64 `json:"upi_inr"`
	CryptoUSD float64 `json:"crypto_usd"`
	RemitINR  float64 `json:"remit_inr"`
}

// PaymentDisplay holds the operator-facing payment instructions shown to
// users: where to send money for each supported method.
type PaymentDisplay struct {
	UPIID         string `json:"upi_id,omitempty"`
	UPIQRURL      string `json:"upi_qr_url,omitempty"`
	CryptoAddress string `json:"crypto_address,omitempty"`
	CryptoNetwork string `json:"crypto_network,omitempty"`
	RemitlyInfo   string `json:"remitly_info,omitempty"`
}

// ConfigOverlay carries operator-adjustable overrides persisted alongside the
// rest of the state. At process start it is overlaid over compiled-in
// defaults; it is mutated only by authenticated admin commands.
type ConfigOverlay struct {
	Channels map[ChannelTag]int64 `json:"channels,omitempty"`
	Prices   map[Plan]PlanPrices  `json:"prices,omitempty"`
	Payment  PaymentDisplay       `json:"payment"`
}

// Snapshot is the whole persisted state of the service: the pending-payment
// set, the purchase ledger, the known-user set (broadcast fan-out only), the
// per-user invite map, and the config overlay.
//
// The snapshot must round-trip losslessly through the state store:
// load(save(s)) == s for every reachable state.
type Snapshot struct {
	PendingPayments map[string]*PendingPayment      `json:"pending_payments"`
	PurchaseLog     []PurchaseRecord                `json:"purchase_log"`
	KnownUsers      map[int64]bool                  `json:"known_users"`
	Invites         map[int64]map[ChannelTag]string `json:"sent_invites"`
	Config          ConfigOverlay                   `json:"config"`
}

// NewSnapshot returns an empty snapshot with all maps initialized.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		PendingPayments: map[string]*PendingPayment{},
		PurchaseLog:     []PurchaseRecord{},
		KnownUsers:      map[int64]bool{},
		Invites:         map[int64]map[ChannelTag]string{},
	}
}

// UserInvites returns the invite map for a user, creating it if absent.
func (s *Snapshot) UserInvites(userID int64) map[ChannelTag]string {
	m, ok := s.Invites[userID]
	if !ok {
		m = map[ChannelTag]string{}
		s.Invites[userID] = m
	}
	return m
}

// GatewayNotes is the typed view of the opaque notes bag attached to a
// gateway payment entity. Absence is explicit: a zero TelegramUserID or empty
// Plan means the note was missing or unparseable. Raw retains every note as a
// string for the ledger's audit trail.
type GatewayNotes struct {
	TelegramUserID int64
	Plan           Plan
	Raw            map[string]string
}

// HasIdentity reports whether the notes carried both a payer identity and a
// valid plan, i.e. whether invites can be issued without admin involvement.
func (n GatewayNotes) HasIdentity() bool {
	return n.TelegramUserID != 0 && n.Plan.Valid()
}
