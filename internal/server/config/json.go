package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/clubhouse/internal/flagx"
	"github.com/dmitrijs2005/clubhouse/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Missing keys
// leave the corresponding Config field untouched.
type JsonConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http"`
	DatabaseDSN             string         `json:"database_dsn"`
	SessionSecret           string         `json:"session_secret"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	SessionSweepInterval    timex.Duration `json:"session_sweep_interval"`
	ClubPasscode            string         `json:"club_passcode"`
	AdminPasscode           string         `json:"admin_passcode"`
	BcryptCost              int            `json:"bcrypt_cost"`
	CookieSecure            *bool          `json:"cookie_secure"`
	LoginRateLimit          *int           `json:"login_rate_limit"`
	TrustedProxies          []string       `json:"trusted_proxies"`
}

// parseJson overlays values from the file named by -c / -config. Without the
// flag nothing is loaded. An unreadable file or invalid JSON panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SessionSecret, c.SessionSecret)
	setString(&config.ClubPasscode, c.ClubPasscode)
	setString(&config.AdminPasscode, c.AdminPasscode)

	if c.SessionValidityDuration.Duration > 0 {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.SessionSweepInterval.Duration > 0 {
		config.SessionSweepInterval = c.SessionSweepInterval.Duration
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.LoginRateLimit != nil {
		config.LoginRateLimit = *c.LoginRateLimit
	}
	if c.TrustedProxies != nil {
		config.TrustedProxies = c.TrustedProxies
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
