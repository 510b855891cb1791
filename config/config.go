// Package config resolves the entitlement service settings once at process
// start, from the environment with per-environment defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment selects a set of defaults.
type Environment string

const (
	EnvLocal   Environment = "local"
	EnvDev     Environment = "dev"
	EnvStaging Environment = "staging"
	EnvProd    Environment = "prod"
)

// Settings is everything the guard needs from the host environment.
type Settings struct {
	// BaseURL of the entitlement service, without trailing slash.
	BaseURL string

	// Daily revalidation boundary, wall-clock in Timezone.
	BoundaryHour   int
	BoundaryMinute int
	Timezone       string

	// HeartbeatURL is pinged while a session is open. Empty disables it.
	HeartbeatURL string
}

// DefaultsFor returns the baked-in settings for a known environment.
func DefaultsFor(env Environment) (Settings, bool) {
	base := Settings{
		BoundaryHour:   7,
		BoundaryMinute: 0,
		Timezone:       "Asia/Kolkata",
	}
	switch env {
	case EnvLocal, EnvDev:
		base.BaseURL = "http://127.0.0.1:8000"
		return base, true
	case EnvStaging, EnvProd:
		base.BaseURL = "https://backend-app-k52v.onrender.com"
		base.HeartbeatURL = base.BaseURL + "/healthz"
		return base, true
	default:
		return Settings{}, false
	}
}

// Load resolves settings from the process environment. GATEKIT_ENV picks
// the defaults (local when unset); GATEKIT_BASE_URL, GATEKIT_BOUNDARY
// ("HH:MM"), GATEKIT_TIMEZONE and GATEKIT_HEARTBEAT_URL override them.
// A .env file in the working directory is honored when present.
func Load() (Settings, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	env := Environment(strings.ToLower(strings.TrimSpace(os.Getenv("GATEKIT_ENV"))))
	if env == "" {
		env = EnvLocal
	}
	s, ok := DefaultsFor(env)
	if !ok {
		return Settings{}, fmt.Errorf("config: unknown environment %q", env)
	}

	if v := strings.TrimSpace(os.Getenv("GATEKIT_BASE_URL")); v != "" {
		s.BaseURL = v
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")

	if v := strings.TrimSpace(os.Getenv("GATEKIT_BOUNDARY")); v != "" {
		hh, mm, err := parseBoundary(v)
		if err != nil {
			return Settings{}, err
		}
		s.BoundaryHour, s.BoundaryMinute = hh, mm
	}
	if v := strings.TrimSpace(os.Getenv("GATEKIT_TIMEZONE")); v != "" {
		s.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv("GATEKIT_HEARTBEAT_URL")); v != "" {
		s.HeartbeatURL = v
	}
	return s, nil
}

func parseBoundary(v string) (hh, mm int, err error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("config: boundary %q is not HH:MM", v)
	}
	hh, err = strconv.Atoi(parts[0])
	if err == nil {
		mm, err = strconv.Atoi(parts[1])
	}
	if err != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, 0, fmt.Errorf("config: boundary %q is not HH:MM", v)
	}
	return hh, mm, nil
}
