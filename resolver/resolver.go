// Package resolver performs the remote entitlement verification call and
// interprets its response into an access decision.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/open-rails/gatekit/entitlement"
	"github.com/sirupsen/logrus"
)

// maxBody caps how much of a response we will read.
const maxBody = 1 << 20

// Decision is the interpreted outcome of one verification call, before the
// scheduler stamps cache bookkeeping onto it.
type Decision struct {
	IsActive        bool
	IsLocked        bool
	ExpiresAtMs     int64 // 0 when the backend reported no expiry
	FreeTrialStatus entitlement.FreeTrialStatus
}

// Client resolves entitlements against GET {base}/entitlement/{userId}.
type Client struct {
	base   string
	client *http.Client
	log    logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.client = h }
}

// WithLogger sets the logger for resolution attempts.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the given service base URL. Trailing slashes on
// the base are ignored.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client: &http.Client{Timeout: 15 * time.Second},
		log:    logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// payload is the wire shape of the verification endpoint.
type payload struct {
	Active          bool     `json:"active"`
	ExpiresAt       *float64 `json:"expires_at"` // epoch seconds
	FreeTrialStatus *string  `json:"free_trial_status"`
}

// Resolve issues one verification request for userID.
// Transport failures wrap entitlement.ErrNetwork; a non-2xx status or an
// unparseable body wraps entitlement.ErrProtocol.
func (c *Client) Resolve(ctx context.Context, userID string) (Decision, error) {
	userID = entitlement.NormalizeUserID(userID)
	attempt := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{"attempt": attempt, "user": userID})

	u := c.base + "/entitlement/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: build request: %v", entitlement.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("entitlement check failed to reach backend")
		return Decision{}, fmt.Errorf("%w: %v", entitlement.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		log.WithError(err).Warn("entitlement check body read failed")
		return Decision{}, fmt.Errorf("%w: read body: %v", entitlement.ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("entitlement check rejected")
		return Decision{}, fmt.Errorf("%w: status %d", entitlement.ErrProtocol, resp.StatusCode)
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		log.WithError(err).Warn("entitlement check payload unparseable")
		return Decision{}, fmt.Errorf("%w: decode body: %v", entitlement.ErrProtocol, err)
	}

	d := interpret(p)
	log.WithFields(logrus.Fields{
		"active": d.IsActive,
		"locked": d.IsLocked,
		"trial":  string(d.FreeTrialStatus),
	}).Debug("entitlement check resolved")
	return d, nil
}

// interpret converts the wire payload into a decision. Locked holds only
// when there is no active plan and the free trial cannot grant access, so
// active and locked are mutually exclusive by construction.
func interpret(p payload) Decision {
	d := Decision{IsActive: p.Active}
	if p.FreeTrialStatus != nil {
		d.FreeTrialStatus = entitlement.FreeTrialStatus(*p.FreeTrialStatus)
	}
	d.IsLocked = !d.IsActive && d.FreeTrialStatus.Exhausted()
	if p.ExpiresAt != nil {
		d.ExpiresAtMs = int64(*p.ExpiresAt * 1000)
	}
	return d
}
