// Package config loads application configuration from environment
// variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Required variables are enforced by must();
// scan-pipeline knobs have defaults so a minimal deployment only needs the
// core set.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	ScanDailyLimit  int            // free-tier scans per calendar day
	QuotaTZ         *time.Location // timezone deciding the quota calendar date
	AnalyzerURL     string         // analysis engine endpoint
	AnalyzerTimeout time.Duration  // hard deadline for one classification
	LocationURL     string         // geolocation endpoint (optional)
	LocationTimeout time.Duration  // deadline for the best-effort lookup
	SOSDetailMax    int            // max chars of analysis narrative in an SOS payload
}

// Load reads configuration from environment variables and returns a
// Config. Missing required variables cause the program to exit with a
// fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		ScanDailyLimit:  envInt("SCAN_DAILY_LIMIT", 10),
		QuotaTZ:         loadTZ(envStr("QUOTA_TIMEZONE", "UTC")),
		AnalyzerURL:     must("ANALYZER_URL"),
		AnalyzerTimeout: envDur("ANALYZER_TIMEOUT", 30*time.Second),
		LocationURL:     os.Getenv("LOCATION_URL"), // empty disables lookups
		LocationTimeout: envDur("LOCATION_TIMEOUT", 3*time.Second),
		SOSDetailMax:    envInt("SOS_DETAIL_MAX_LEN", 200),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatal().Str("var", key).Msg("missing required env var")
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatal().Str("var", key).Str("value", s).Msg("invalid int env var")
	}
	return n
}

// loadTZ resolves an IANA timezone name, exiting on bad input rather than
// silently metering quotas in the wrong zone.
func loadTZ(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatal().Str("tz", name).Err(err).Msg("invalid QUOTA_TIMEZONE")
	}
	return loc
}
