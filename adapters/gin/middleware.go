// Package gategin realizes gate outcomes as gin middleware: protected
// handlers never run before a decision exists, and denials become redirects.
package gategin

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/open-rails/gatekit/gate"
	"github.com/open-rails/gatekit/guard"
)

const (
	// DefaultLoginPath receives anonymous callers, with the original route
	// carried in the "from" query parameter.
	DefaultLoginPath = "/login"

	// DefaultPaymentPath receives locked or inactive callers.
	DefaultPaymentPath = "/payments"
)

type options struct {
	identity    IdentityFunc
	loginPath   string
	paymentPath string
}

// Option configures RequireEntitlement.
type Option func(*options)

// WithIdentity replaces how the current identity is read from the request.
func WithIdentity(fn IdentityFunc) Option {
	return func(o *options) { o.identity = fn }
}

// WithLoginPath changes the anonymous-caller redirect target.
func WithLoginPath(p string) Option {
	return func(o *options) { o.loginPath = p }
}

// WithPaymentPath changes the locked-caller redirect target.
func WithPaymentPath(p string) Option {
	return func(o *options) { o.paymentPath = p }
}

// RequireEntitlement gates every request through svc. Allowed requests run
// the handler chain; a check still in flight answers 204 so nothing
// protected is ever flashed; denials redirect to login or payments with
// the history entry replaced (302, no caching).
func RequireEntitlement(svc *guard.Service, opts ...Option) gin.HandlerFunc {
	o := options{
		identity:    IdentityFromContext(ContextUserKey),
		loginPath:   DefaultLoginPath,
		paymentPath: DefaultPaymentPath,
	}
	for _, fn := range opts {
		fn(&o)
	}

	return func(c *gin.Context) {
		route := c.Request.URL.Path
		userID := o.identity(c)

		switch svc.Check(c.Request.Context(), userID, route) {
		case gate.Allowed:
			c.Next()
		case gate.Checking:
			// Neutral state: no content, no deny screen, and nothing cached.
			c.Header("Cache-Control", "no-store")
			c.AbortWithStatus(http.StatusNoContent)
		case gate.DeniedToLogin:
			c.Header("Cache-Control", "no-store")
			c.Redirect(http.StatusFound, o.loginPath+"?from="+url.QueryEscape(route))
			c.Abort()
		case gate.DeniedToPayment:
			c.Header("Cache-Control", "no-store")
			c.Redirect(http.StatusFound, o.paymentPath)
			c.Abort()
		}
	}
}
