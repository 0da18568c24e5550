package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// Decision is the outcome of an authorization check. Reason is set when
// Allowed is false.
type Decision struct {
	Allowed bool
	Role    domain.Role
	Reason  string
}

const (
	ReasonNotMember          = "not a member of the organization"
	ReasonMissingCapability  = "role lacks the required capability"
	ReasonMissingCallerIdent = "no caller identity"
)

// AuthorizationGate evaluates a caller's organization role against a
// capability. It never grants access it cannot prove.
type AuthorizationGate struct {
	Members MembershipDirectory
}

// Check is side-effect free. A lookup failure other than "no membership"
// is returned as an error alongside a denied decision.
func (g *AuthorizationGate) Check(
	ctx context.Context,
	userID string,
	organizationID string,
	capability domain.Capability,
) (Decision, error) {
	if userID == "" {
		return Decision{Reason: ReasonMissingCallerIdent}, nil
	}

	role, err := g.Members.GetRole(ctx, userID, organizationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Decision{Reason: ReasonNotMember}, nil
		}
		return Decision{Reason: "membership lookup failed"}, err
	}

	if !role.Allows(capability) {
		return Decision{Role: role, Reason: ReasonMissingCapability}, nil
	}
	return Decision{Allowed: true, Role: role}, nil
}

// Require is Check collapsed into an error: nil when allowed, ErrForbidden
// (wrapped with the reason) when denied.
func (g *AuthorizationGate) Require(
	ctx context.Context,
	userID string,
	organizationID string,
	capability domain.Capability,
) error {
	decision, err := g.Check(ctx, userID, organizationID, capability)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return g.deny(ctx, userID, organizationID, capability, decision)
	}
	return nil
}

func (g *AuthorizationGate) deny(
	ctx context.Context,
	userID string,
	organizationID string,
	capability domain.Capability,
	decision Decision,
) error {
	slogx.FromContext(ctx).Warn("authorization denied",
		slog.String("user_id", userID),
		slog.String("organization_id", organizationID),
		slog.String("capability", capability.String()),
		slog.String("reason", decision.Reason),
	)
	return fmt.Errorf("%w: %s", ErrForbidden, decision.Reason)
}
