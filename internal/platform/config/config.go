// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token service) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Yomira identity server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL      string `env:"DATABASE_URL,required"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"20"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis) holding verification and recovery tokens
	RedisURL      string `env:"REDIS_URL,required"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`

	// Token signing and lifetimes
	JWTSecret            string        `env:"JWT_SECRET,required"`
	JWTIssuer            string        `env:"JWT_ISSUER"             envDefault:"yomira-auth"`
	AccessTokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL"       envDefault:"15m"`
	RefreshTokenTTL      time.Duration `env:"REFRESH_TOKEN_TTL"      envDefault:"720h"`
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"24h"`
	RecoveryTokenTTL     time.Duration `env:"RECOVERY_TOKEN_TTL"     envDefault:"24h"`
	ApprovalTokenTTL     time.Duration `env:"APPROVAL_TOKEN_TTL"     envDefault:"168h"`

	// BcryptCost is the work factor for password hashes (0 selects the library default).
	BcryptCost int `env:"BCRYPT_COST" envDefault:"0"`

	// Mail broker (RabbitMQ). Empty AMQP_URL keeps emails in the log.
	AMQPURL      string `env:"AMQP_URL"`
	MailExchange string `env:"MAIL_EXCHANGE" envDefault:"yomira.mail"`

	// Cross-Origin Resource Sharing
	ClientAddress string `env:"CLIENT_ADDRESS" envDefault:"http://localhost:3000"`
	ExtraOrigins  string `env:"EXTRA_ORIGINS"`

	// TrustedProxies lists the reverse proxies (IPs or CIDRs, comma-separated)
	// whose X-Forwarded-For and X-Real-IP headers are honoured.
	TrustedProxies string `env:"TRUSTED_PROXIES"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects combinations env tags cannot express.
func (c *Config) validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("config: JWT_SECRET must be at least 32 bytes")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("config: token lifetimes must be positive")
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return fmt.Errorf("config: ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}
	if c.RedisPoolSize <= 0 {
		return fmt.Errorf("config: REDIS_POOL_SIZE must be positive")
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MailEnabled reports whether emails are published to the broker.
func (c *Config) MailEnabled() bool {
	return c.AMQPURL != ""
}

// AllowedOrigins returns the client address followed by the comma-separated
// EXTRA_ORIGINS entries.
func (c *Config) AllowedOrigins() []string {
	origins := []string{}
	if address := strings.TrimRight(strings.TrimSpace(c.ClientAddress), "/"); address != "" {
		origins = append(origins, address)
	}
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES. A bare address is widened to a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := []netip.Prefix{}
	for _, entry := range strings.Split(c.TrustedProxies, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("config: invalid TRUSTED_PROXIES entry %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("config: invalid TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
