package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must() at load
// time; optional values fall back to sensible defaults so a bare .env with
// database credentials is enough to run locally.
type Config struct {
	Env               string        // application environment (e.g. "dev", "prod")
	Port              string        // HTTP port to listen on
	DBUser            string        // database username
	DBPass            string        // database password (optional)
	DBHost            string        // database host address
	DBPort            string        // database port number
	DBName            string        // database name
	GraphHopperAPIKey string        // GraphHopper cloud API key; empty disables the remote router
	RouteTimeout      time.Duration // per-request timeout for the routing provider
	ReservationTTLMin int           // minutes a bed hold stays active before lazy expiry
	HospitalCSVDir    string        // directory of hospital CSV files loaded at startup; empty skips ingestion
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"), // empty allowed
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		GraphHopperAPIKey: os.Getenv("GRAPHHOPPER_API_KEY"),
		RouteTimeout:      envDur("ROUTE_TIMEOUT", 5*time.Second),
		ReservationTTLMin: envInt("RESERVATION_TTL_MIN", 15),
		HospitalCSVDir:    os.Getenv("HOSPITAL_CSV_DIR"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, v)
	}
	return d
}
