package entitlement

import "errors"

// Resolution failure taxonomy. Resolver implementations wrap one of these
// sentinels so callers can classify with errors.Is without depending on the
// transport.
var (
	// ErrNetwork marks transport-level failures: connection refused, DNS,
	// timeouts, cancelled contexts.
	ErrNetwork = errors.New("entitlement: network failure")

	// ErrProtocol marks a reachable backend that answered wrongly: non-2xx
	// status or an unparseable payload.
	ErrProtocol = errors.New("entitlement: protocol failure")
)
