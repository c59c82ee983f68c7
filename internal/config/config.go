package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/meltforce/zeppvault/internal/models"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Zepp      ZeppConfig      `yaml:"zepp"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Modes     ModesConfig     `yaml:"modes"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// ZeppConfig holds the upstream Zepp cloud credentials and fetch options.
// Token is the logged-in apptoken; UserID the numeric account id. Region
// selects the API host (us, global, eu). CachePath is the sqlite file used
// to cache immutable past-day responses; empty disables caching.
// TZOffsetSeconds is the wearer's UTC offset; event timestamps sit at local
// midnight in that zone, so without it dates east of UTC resolve a day
// early. Zero means UTC.
type ZeppConfig struct {
	Token           string `yaml:"token"`
	UserID          string `yaml:"user_id"`
	Region          string `yaml:"region"`
	CachePath       string `yaml:"cache_path"`
	TZOffsetSeconds int    `yaml:"tz_offset_seconds"`
}

// TailscaleConfig enables serving over tsnet instead of a plain listener.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	AuthKey  string `yaml:"auth_key"`
	StateDir string `yaml:"state_dir"`
}

// ModesConfig extends the built-in mode code tables. Keys are upstream mode
// codes, values category names; unknown category names are rejected at load
// time rather than silently ignored.
type ModesConfig struct {
	Activity map[int]string `yaml:"activity"`
	Sleep    map[int]string `yaml:"sleep"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix ZEPPVAULT_ and underscore-separated paths:
//
//	ZEPPVAULT_SERVER_HOST, ZEPPVAULT_SERVER_PORT,
//	ZEPPVAULT_DB_HOST, ZEPPVAULT_DB_PORT, ZEPPVAULT_DB_NAME,
//	ZEPPVAULT_DB_USER, ZEPPVAULT_DB_PASSWORD, ZEPPVAULT_DB_SSLMODE,
//	ZEPPVAULT_AUTH_API_KEY,
//	ZEPPVAULT_ZEPP_TOKEN, ZEPPVAULT_ZEPP_USER_ID, ZEPPVAULT_ZEPP_REGION,
//	ZEPPVAULT_ZEPP_TZ_OFFSET, ZEPPVAULT_TS_AUTHKEY
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ZEPPVAULT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("ZEPPVAULT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ZEPPVAULT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("ZEPPVAULT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("ZEPPVAULT_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("ZEPPVAULT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("ZEPPVAULT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("ZEPPVAULT_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("ZEPPVAULT_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("ZEPPVAULT_ZEPP_TOKEN"); v != "" {
		cfg.Zepp.Token = v
	}
	if v := os.Getenv("ZEPPVAULT_ZEPP_USER_ID"); v != "" {
		cfg.Zepp.UserID = v
	}
	if v := os.Getenv("ZEPPVAULT_ZEPP_REGION"); v != "" {
		cfg.Zepp.Region = v
	}
	if v := os.Getenv("ZEPPVAULT_ZEPP_TZ_OFFSET"); v != "" {
		if off, err := strconv.Atoi(v); err == nil {
			cfg.Zepp.TZOffsetSeconds = off
		}
	}
	if v := os.Getenv("ZEPPVAULT_TS_AUTHKEY"); v != "" {
		cfg.Tailscale.AuthKey = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	switch c.Zepp.Region {
	case "", "us", "global", "eu":
	default:
		return fmt.Errorf("zepp.region must be one of us, global, eu")
	}
	// UTC offsets span -12h to +14h.
	if c.Zepp.TZOffsetSeconds < -12*3600 || c.Zepp.TZOffsetSeconds > 14*3600 {
		return fmt.Errorf("zepp.tz_offset_seconds %d is outside the valid UTC offset range", c.Zepp.TZOffsetSeconds)
	}
	for _, name := range c.Modes.Activity {
		if !models.ValidActivityCategory(name) {
			return fmt.Errorf("modes.activity: unknown category %q", name)
		}
	}
	for _, name := range c.Modes.Sleep {
		if !models.ValidSleepStageCategory(name) {
			return fmt.Errorf("modes.sleep: unknown category %q", name)
		}
	}
	return nil
}
