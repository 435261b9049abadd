package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses the matching-policy durations
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The matching-policy fields are deliberate,
// documented choices rather than constants: the reciprocal-matching rules
// (time window, frequency tolerance, duplicate window) have shifted over
// the life of this service and are kept tunable.
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

	MatchTimeWindow time.Duration // symmetric window for reciprocal matching (±)
	MatchFreqTolMHz float64       // allowed frequency difference when matching, in MHz
	DuplicateWindow time.Duration // trailing window in which repeat contacts to the same station are rejected
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. The matching-policy
// variables are optional and fall back to the documented defaults.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),      // environment (dev/test/prod)
		Port:           must("APP_PORT"),     // port to bind the HTTP server
		DBUser:         must("DB_USER"),      // database user
		DBPass:         os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:         must("DB_HOST"),      // database host
		DBPort:         must("DB_PORT"),      // database port
		DBName:         must("DB_NAME"),      // database name
		JWTSecret:      must("JWT_SECRET"),   // secret used for signing JWTs
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
		BcryptCost:     mustInt("BCRYPT_COST"),            // bcrypt cost factor

		MatchTimeWindow: envDurDef("MATCH_TIME_WINDOW", time.Hour),          // counterpart logged within ±1h
		MatchFreqTolMHz: envFloatDef("MATCH_FREQ_TOLERANCE_MHZ", 0.005),     // 5 kHz tolerance
		DuplicateWindow: envDurDef("CONTACT_DUPLICATE_WINDOW", time.Minute), // one contact per station per minute
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envDurDef reads an optional duration variable, falling back to def when
// the variable is unset, unparsable or non-positive.
func envDurDef(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("config: invalid duration for %s: %q, using %s", key, v, def)
		return def
	}
	return d
}

// envFloatDef reads an optional float variable, falling back to def when
// the variable is unset, unparsable or negative.
func envFloatDef(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		log.Printf("config: invalid float for %s: %q, using %v", key, v, def)
		return def
	}
	return f
}
