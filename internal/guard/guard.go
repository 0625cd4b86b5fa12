package guard

// Package guard decides whether a protected view may render for the
// current session. Evaluation is pure: the only side effect a caller
// may derive from a decision is the navigation intent it carries.

import (
	domainauth "github.com/target/webui-auth/internal/domain/auth"
	"github.com/target/webui-auth/internal/ports"
)

// State is the observable outcome of evaluating a guard.
type State string

const (
	// StateLoading means session rehydration or an auth operation is in
	// progress; render a loading view and re-evaluate on the next change.
	StateLoading State = "loading"
	// StateAllowed means the guarded content may render.
	StateAllowed State = "allowed"
	// StateDenied means access is refused; Decision.Redirect says where
	// to send the user instead.
	StateDenied State = "denied"
)

// Reason qualifies a denial.
type Reason string

const (
	// ReasonUnauthenticated: no authenticated session.
	ReasonUnauthenticated Reason = "unauthenticated"
	// ReasonForbidden: authenticated, but the role does not satisfy the
	// view's requirement.
	ReasonForbidden Reason = "forbidden"
)

// Decision is the result of one guard evaluation.
type Decision struct {
	State    State
	Reason   Reason           // set only when State is StateDenied
	Redirect domainauth.Route // set only when State is StateDenied
}

// Evaluate gates a view on the session snapshot and an optional
// required role (empty means any authenticated user). It is idempotent
// and mutates nothing.
func Evaluate(snap domainauth.Snapshot, requiredRole domainauth.Role) Decision {
	if snap.IsLoading {
		return Decision{State: StateLoading}
	}
	if !snap.IsAuthenticated || snap.User == nil {
		return Decision{
			State:    StateDenied,
			Reason:   ReasonUnauthenticated,
			Redirect: domainauth.RouteLogin,
		}
	}
	if !snap.User.Role.Allows(requiredRole) {
		return Decision{
			State:    StateDenied,
			Reason:   ReasonForbidden,
			Redirect: domainauth.RouteHome,
		}
	}
	return Decision{State: StateAllowed}
}

// Apply issues the navigation intent carried by a denial. Loading and
// allowed decisions produce no intent.
func Apply(d Decision, nav ports.Navigator) {
	if d.State == StateDenied && nav != nil && d.Redirect != "" {
		nav.NavigateTo(d.Redirect)
	}
}
