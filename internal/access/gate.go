// AngelaMos | 2026
// gate.go

package access

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/middleware"
)

type Reason string

const (
	ReasonAdmin         Reason = "admin"
	ReasonSubscribed    Reason = "subscribed"
	ReasonAnonymous     Reason = "anonymous"
	ReasonNotSubscribed Reason = "not_subscribed"
)

type Decision struct {
	Granted bool
	Reason  Reason
}

type SubscriptionChecker interface {
	IsActive(ctx context.Context, userID, researchLineID string) (bool, error)
}

// Gate decides whether a viewer may read the full content of a research
// line. A nil viewer is anonymous.
type Gate struct {
	subscriptions SubscriptionChecker
}

func NewGate(subscriptions SubscriptionChecker) *Gate {
	return &Gate{subscriptions: subscriptions}
}

func (g *Gate) Decide(
	ctx context.Context,
	viewer *middleware.Identity,
	researchLineID string,
) (Decision, error) {
	decision, err := g.decide(ctx, viewer, researchLineID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return Decision{}, err
	}

	core.AddSpanEvent(ctx, "access.decision",
		attribute.String("research_line_id", researchLineID),
		attribute.Bool("granted", decision.Granted),
		attribute.String("reason", string(decision.Reason)),
	)
	return decision, nil
}

func (g *Gate) decide(
	ctx context.Context,
	viewer *middleware.Identity,
	researchLineID string,
) (Decision, error) {
	if viewer == nil || viewer.UserID == "" {
		return Decision{Granted: false, Reason: ReasonAnonymous}, nil
	}

	if viewer.IsAdmin() {
		return Decision{Granted: true, Reason: ReasonAdmin}, nil
	}

	active, err := g.subscriptions.IsActive(ctx, viewer.UserID, researchLineID)
	if err != nil {
		return Decision{}, fmt.Errorf("check subscription: %w", err)
	}
	if active {
		return Decision{Granted: true, Reason: ReasonSubscribed}, nil
	}

	return Decision{Granted: false, Reason: ReasonNotSubscribed}, nil
}

// ViewerFromContext returns the resolved identity on ctx, or nil for an
// anonymous request.
func ViewerFromContext(ctx context.Context) *middleware.Identity {
	identity, ok := middleware.GetIdentity(ctx)
	if !ok || identity.UserID == "" {
		return nil
	}
	return &identity
}

// LoginURL returns loginPath carrying next as the return target.
func LoginURL(loginPath, next string) string {
	return middleware.LoginURL(loginPath, next)
}

// State is the client-facing form of a Decision. A denied viewer gets a
// subscribe action and, when anonymous, a login URL.
type State struct {
	Granted      bool   `json:"granted"`
	Reason       Reason `json:"reason"`
	SubscribeURL string `json:"subscribe_url,omitempty"`
	LoginURL     string `json:"login_url,omitempty"`
}

func (d Decision) State(subscribeURL, loginURL string) State {
	state := State{Granted: d.Granted, Reason: d.Reason}
	if d.Granted {
		return state
	}

	state.SubscribeURL = subscribeURL
	if d.Reason == ReasonAnonymous {
		state.LoginURL = loginURL
	}
	return state
}
