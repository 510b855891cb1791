// Package gate is the pure access decision: given the caller's identity,
// the cached entitlement record and the requested route, produce one of
// four outcomes. No I/O, no clocks; fully table-testable.
package gate

import "github.com/open-rails/gatekit/entitlement"

// Outcome is the result of one access check.
type Outcome int

const (
	// Checking means no decision exists yet (first-ever check still in
	// flight). Consumers render a neutral state, never protected content.
	Checking Outcome = iota
	Allowed
	DeniedToLogin
	DeniedToPayment
)

func (o Outcome) String() string {
	switch o {
	case Checking:
		return "checking"
	case Allowed:
		return "allowed"
	case DeniedToLogin:
		return "denied-to-login"
	case DeniedToPayment:
		return "denied-to-payment"
	default:
		return "unknown"
	}
}

// AllowList is the set of routes reachable regardless of entitlement state.
type AllowList map[string]struct{}

// NewAllowList builds an allow-list from routes.
func NewAllowList(routes ...string) AllowList {
	a := make(AllowList, len(routes))
	for _, r := range routes {
		a[r] = struct{}{}
	}
	return a
}

// Contains reports whether route is always accessible.
func (a AllowList) Contains(route string) bool {
	_, ok := a[route]
	return ok
}

// DefaultAllowList returns the routes that stay reachable while locked:
// root, landing, login, register and the payment page itself.
func DefaultAllowList() AllowList {
	return NewAllowList("/", "/landing", "/login", "/register", "/payments")
}

// Decide applies the gate transition table.
//
// rec must already be validated by the caller: nil stands for "no usable
// record" (absent, corrupt, or owned by another identity). An anonymous
// caller is denied to login off the allow-list; a caller with no record yet
// is still checking; a locked or inactive record denies to payment.
func Decide(userID string, rec *entitlement.Record, route string, allow AllowList) Outcome {
	if allow.Contains(route) {
		return Allowed
	}
	if entitlement.NormalizeUserID(userID) == "" {
		return DeniedToLogin
	}
	if rec == nil {
		return Checking
	}
	if rec.IsLocked {
		return DeniedToPayment
	}
	if !rec.IsActive {
		// Not formally locked, but no active plan either: still kept off
		// protected routes.
		return DeniedToPayment
	}
	return Allowed
}
