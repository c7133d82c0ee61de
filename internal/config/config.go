package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Labtrack"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"labtrack"`
		MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins string        `envconfig:"CORS_ORIGINS" default:"*"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET"`
	}

	Scan struct {
		GapThreshold time.Duration `envconfig:"SCAN_GAP_THRESHOLD" default:"100ms"`
		MinLength    int           `envconfig:"SCAN_MIN_LENGTH" default:"2"`
		// Sector the terminal scan station is bound to. Empty means a tracking-only station.
		StationSector string `envconfig:"STATION_SECTOR"`
		StationActor  string `envconfig:"STATION_ACTOR" default:"station"`
	}

	Payments struct {
		URL            string `envconfig:"PAYMENTS_URL"`
		Token          string `envconfig:"PAYMENTS_TOKEN"`
		OrganizationID string `envconfig:"ORGANIZATION_ID"`
	}

	Attachments struct {
		// Sent as "Authorization: Token ..." when downloading attachment files.
		Token string `envconfig:"ATTACHMENTS_TOKEN"`
	}

	Workshop struct {
		DispatchSector string `envconfig:"DISPATCH_SECTOR" default:"Expedição"`
		CatalogFile    string `envconfig:"CATALOG_FILE"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// AllowedOrigins splits the comma separated CORS_ORIGINS value.
func (c *Config) AllowedOrigins() []string {
	var origins []string

	for _, o := range strings.Split(c.Server.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return origins
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Scan.MinLength < 1 {
		return nil, fmt.Errorf("SCAN_MIN_LENGTH must be at least 1, got %d", cfg.Scan.MinLength)
	}

	return &cfg, nil
}
