// Package config loads server configuration from environment variables.
//
// CONFIGURATION SURFACE:
// Two values are load-bearing: the JWT signing secret and the database
// path. If the secret is missing or still at the placeholder value, the
// server boots into a degraded "configuration error" mode where every API
// route answers 503 — no feature is reachable until the operator fixes
// the environment and restarts. There is deliberately no retry path.
//
// A .env file in the working directory is loaded first (godotenv), then
// real environment variables override it. This keeps local development
// simple without requiring exported variables in every shell.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// SecretPlaceholder is the value shipped in .env.example. Leaving it in
// place means the deployment was never configured, which we treat the same
// as an empty secret.
const SecretPlaceholder = "change-me"

// Config holds everything the server needs to start.
type Config struct {
	Port   int
	DBPath string

	// JWTSecret signs session tokens. Empty or placeholder → the server
	// runs in configuration-error mode.
	JWTSecret string

	// AdminEmails is the fixed allow-list of identities granted the admin
	// role. AllowedEmails gates who may register at all. Both are static
	// process-wide configuration, not editable at runtime.
	AdminEmails   []string
	AllowedEmails []string

	// Optional GitHub OAuth sign-in. Both values empty → OAuth routes are
	// not registered and email/password remains the only way in.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Load reads configuration from .env (if present) and the environment.
// It never fails: missing values get defaults and misconfiguration is
// reported by Configured(), so main can still start the server in
// configuration-error mode instead of crash-looping.
func Load() Config {
	// Ignore the error — a missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		Port:               8080,
		DBPath:             "data/dailylog.db",
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AdminEmails:        splitEmails(os.Getenv("ADMIN_EMAILS")),
		AllowedEmails:      splitEmails(os.Getenv("ALLOWED_EMAILS")),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Port = port
		}
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	return cfg
}

// Configured reports whether the deployment has real credentials.
// A placeholder secret counts as unconfigured — it means someone copied
// .env.example without editing it.
func (c Config) Configured() bool {
	return c.JWTSecret != "" && c.JWTSecret != SecretPlaceholder
}

// splitEmails parses a comma-separated email list, trimming whitespace and
// lowercasing each entry so membership checks are case-insensitive.
// "winnie@tie.ust, Jac@tie.ust" → ["winnie@tie.ust", "jac@tie.ust"]
func splitEmails(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	emails := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			emails = append(emails, p)
		}
	}
	return emails
}
