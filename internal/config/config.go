// Package config centralizes application configuration. It follows a
// "clean" configuration pattern where all tunables live outside the
// code and are sourced from command-line flags with environment-variable
// fallbacks (12-factor friendly). Flags are defined first so that
// `-help` shows all available knobs and their defaults.
//
// Typical usage:
//
//	cfg := config.Load() // reads os.Args and os.Environ
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg := config.LoadFromArgs(fs, getenv, []string{"-db_driver=mssql"})
package config

import (
	"flag"
	"os"
	"strings"
)

// Config holds all process configuration derived from flags and
// environment variables. All fields are plain values so the struct
// can be safely copied and used across goroutines after construction.
type Config struct {
	// DB describes the target database. The DSN can be given directly or
	// fetched at startup from Secrets Manager by name; the secret wins
	// when both are set.
	DBDriver     string // Database driver: "mssql" or "postgres".
	DSN          string // Full DSN for the chosen driver.
	DBSecretName string // Secrets Manager secret holding the DSN.

	// AWS names the region and the bucket whose upload events this
	// process consumes.
	AWSRegion string // AWS region for all service clients.
	Bucket    string // Bucket holding the staged conversion files.

	// Notify controls the relocation emails.
	NotifyEnabled bool   // Send an email after each relocation.
	SenderEmail   string // Verified SES sender address.
	NotifyEmail   string // Recipient; empty means resolve per uploader.
	AppURL        string // Console base URL embedded in email links.
}

// LoadFromArgs builds a Config by defining flags on fs, wiring each flag
// to an environment-variable fallback via getenv, and then parsing args.
// This is the most testable entry point: callers supply a private FlagSet,
// a getenv func (often backed by a map), and a synthetic arg slice.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
//
// The returned Config is fully populated; no further mutation occurs.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	cfg := &Config{}

	// Inline helpers use the provided getenv to avoid touching process env.
	envOrDefaultFn := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	boolEnvOrDefaultFn := func(k string, d bool) bool {
		if v := strings.ToLower(getenv(k)); v != "" {
			switch v {
			case "1", "true", "yes", "on":
				return true
			case "0", "false", "no", "off":
				return false
			}
		}
		return d
	}

	// DB connectivity
	fs.StringVar(&cfg.DBDriver, "db_driver", envOrDefaultFn("DB_DRIVER", "mssql"), "Database driver: 'mssql' or 'postgres'.")
	fs.StringVar(&cfg.DSN, "dsn", getenv("DB_DSN"), "Full DSN for the chosen driver.")
	fs.StringVar(&cfg.DBSecretName, "db_secret", getenv("DB_SECRET_NAME"), "Secrets Manager secret holding the DSN (overrides -dsn).")

	// AWS wiring
	fs.StringVar(&cfg.AWSRegion, "region", envOrDefaultFn("AWS_REGION", "us-east-1"), "AWS region for all service clients.")
	fs.StringVar(&cfg.Bucket, "bucket", getenv("BUCKET"), "Bucket holding the staged conversion files.")

	// Notification
	fs.BoolVar(&cfg.NotifyEnabled, "notify", boolEnvOrDefaultFn("NOTIFY_ENABLED", false), "Send an email after each relocation.")
	fs.StringVar(&cfg.SenderEmail, "sender_email", getenv("SENDER_EMAIL"), "Verified SES sender address.")
	fs.StringVar(&cfg.NotifyEmail, "notify_email", getenv("NOTIFY_EMAIL"), "Recipient address; empty resolves the uploader.")
	fs.StringVar(&cfg.AppURL, "app_url", getenv("APP_URL"), "Console base URL embedded in email links.")

	// Parse the provided args (nil means no extra args).
	if args == nil {
		args = []string{}
	}
	_ = fs.Parse(args)
	return cfg
}

// LoadFrom is a compatibility wrapper around LoadFromArgs for call-sites
// that don't need to pass args explicitly (useful in some tests).
func LoadFrom(fs *flag.FlagSet, getenv func(string) string) *Config {
	return LoadFromArgs(fs, getenv, nil)
}

// Load is the production entry point. It wires the loader to the process
// flag set (flag.CommandLine), reads environment variables via os.Getenv,
// and parses os.Args[1:] as the CLI arguments.
func Load() *Config {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}
