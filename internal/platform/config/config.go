package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	// EncryptionKey is the base64 encoded 32-byte key for the email codec.
	// HashSalt feeds the deterministic search hash. Both are provisioned
	// once (see cmd/keygen); rotating the salt orphans every stored
	// search hash.
	EncryptionKey string
	HashSalt      string

	// MaxDaysAhead bounds how far in the future a ballot's draw date may be.
	MaxDaysAhead int

	// CivilTimeZone is the fixed calendar zone for all "today" computations.
	CivilTimeZone string
}

func Load() (Config, error) {
	// Missing .env is fine; real deployments use the process environment.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "tombola"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	maxDaysAhead := 30
	if raw := strings.TrimSpace(os.Getenv("LOTTERY_DRAW_DATE_MAX_DAYS_AHEAD")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse LOTTERY_DRAW_DATE_MAX_DAYS_AHEAD: %w", err)
		}
		maxDaysAhead = parsed
	}
	if maxDaysAhead <= 0 {
		return Config{}, errors.New("LOTTERY_DRAW_DATE_MAX_DAYS_AHEAD must be greater than 0")
	}

	zone := strings.TrimSpace(os.Getenv("CIVIL_TIMEZONE"))
	if zone == "" {
		zone = "Europe/Amsterdam"
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return Config{}, fmt.Errorf("load civil timezone %q: %w", zone, err)
	}

	return Config{
		ServiceName:   service,
		HTTPPort:      port,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		EncryptionKey: strings.TrimSpace(os.Getenv("ENCRYPTION_KEY")),
		HashSalt:      strings.TrimSpace(os.Getenv("HASH_SALT")),
		MaxDaysAhead:  maxDaysAhead,
		CivilTimeZone: zone,
	}, nil
}

// Location resolves the configured civil timezone. Load already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.CivilTimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
