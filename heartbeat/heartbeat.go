// Package heartbeat keeps the backend warm while a session is open by
// pinging its health endpoint on an interval. Failures are silent: the
// heartbeat exists to prevent free-tier hosts from idling, nothing depends
// on its result.
package heartbeat

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultInterval matches the original client's ping cadence.
const DefaultInterval = 45 * time.Second

// Pinger GETs a URL on a fixed interval until its context ends.
type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
	log      logrus.FieldLogger
}

// Option configures a Pinger.
type Option func(*Pinger)

// WithInterval changes the ping cadence.
func WithInterval(d time.Duration) Option {
	return func(p *Pinger) { p.interval = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(p *Pinger) { p.client = h }
}

// WithLogger sets the logger for ping failures (logged at debug).
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pinger) { p.log = log }
}

// New creates a Pinger for url.
func New(url string, opts ...Option) *Pinger {
	p := &Pinger{
		url:      url,
		interval: DefaultInterval,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start launches the ping loop in a goroutine. It stops when ctx ends.
func (p *Pinger) Start(ctx context.Context) {
	if p.url == "" {
		return
	}
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.ping(ctx)
			}
		}
	}()
}

func (p *Pinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return
	}
	req.Header.Set("Cache-Control", "no-store")
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.WithError(err).Debug("heartbeat ping failed")
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
