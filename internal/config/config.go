// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server configures cmd/server.
type Server struct {
	Port           int           `env:"PORT" envDefault:"8080"`
	DBPath         string        `env:"DB_PATH" envDefault:"./data/knotcraft.db"`
	UsersDBPath    string        `env:"USERS_DB_PATH" envDefault:"./data/users.db"`
	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	SeedVendors    bool          `env:"SEED_VENDORS" envDefault:"true"`
	MetricsEnabled bool          `env:"METRICS_ENABLED" envDefault:"true"`
}

// Dashboard configures cmd/dashboard.
type Dashboard struct {
	ServerURL string `env:"KNOTCRAFT_SERVER_URL" envDefault:"http://localhost:8080"`
	// LocalDB holds device-local state: the session token and reminder scan markers.
	LocalDB string `env:"KNOTCRAFT_LOCAL_DB" envDefault:"./data/local.db"`
	// Locale formats currency and numbers in the rendered pages.
	Locale  string        `env:"KNOTCRAFT_LOCALE" envDefault:"en-US"`
	Timeout time.Duration `env:"KNOTCRAFT_TIMEOUT" envDefault:"10s"`
}

// ParseEnv populates target from the environment.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServer reads the server configuration.
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if len(cfg.JWTSecret) < 16 {
		return Server{}, fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	return cfg, nil
}

// LoadDashboard reads the dashboard client configuration.
func LoadDashboard() (Dashboard, error) {
	var cfg Dashboard
	if err := ParseEnv(&cfg); err != nil {
		return Dashboard{}, err
	}
	return cfg, nil
}
