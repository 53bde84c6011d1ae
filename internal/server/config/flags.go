package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-s string   session cookie secret
//	-m string   membership (club) passcode
//	-x string   admin passcode
//	-t int      session validity, minutes
//	-r int      log-in attempts per IP per minute (0 disables)
//
// os.Args is filtered with flagx.FilterArgs first so that -c and -env,
// handled elsewhere, do not trip the parser.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-m", "-x", "-t", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret")
	fs.StringVar(&config.ClubPasscode, "m", config.ClubPasscode, "club passcode")
	fs.StringVar(&config.AdminPasscode, "x", config.AdminPasscode, "admin passcode")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session validity (in minutes)")
	fs.IntVar(&config.LoginRateLimit, "r", config.LoginRateLimit, "log-in attempts per IP per minute")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
		}
	})
}
