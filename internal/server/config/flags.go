package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/vitae/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-h string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-f string   token format: jwt or paseto
//	-t int      token validity, minutes (0 = no expiry)
//	-u string   public base URL used in activation links
//	-l string   lock backend: local or redis
//	-r string   redis address
//	-e string   environment: development or production
//
// Other flags on the command line (-c, -env) are filtered out with
// flagx.FilterArgs so that several flag sets can share os.Args.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-h", "-d", "-s", "-f", "-t", "-u", "-l", "-r", "-e"})

	fs := flag.NewFlagSet("vitae", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "h", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.TokenFormat, "f", config.TokenFormat, "token format (jwt|paseto)")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes, 0 = no expiry)")
	fs.StringVar(&config.PublicURL, "u", config.PublicURL, "public base URL")
	fs.StringVar(&config.LockBackend, "l", config.LockBackend, "lock backend (local|redis)")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.Env, "e", config.Env, "environment (development|production)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// only when given, so a sub-minute value from JSON or env survives
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		}
	})
	return nil
}
