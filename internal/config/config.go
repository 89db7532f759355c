// Package config loads service configuration from a YAML file with
// environment overrides for credentials, so secrets stay out of the file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the full service configuration.
type Config struct {
	Listen      string   `yaml:"listen"`
	DataDir     string   `yaml:"dataDir"`
	BackupDir   string   `yaml:"backupDir"`
	UploadsDir  string   `yaml:"uploadsDir"`
	CORSOrigins []string `yaml:"corsOrigins"`

	Storage StorageConfig `yaml:"storage"`
	Backups BackupsConfig `yaml:"backups"`
	Admin   AdminConfig   `yaml:"admin"`
	SMTP    SMTPConfig    `yaml:"smtp"`
}

// StorageConfig selects and tunes the store backend.
type StorageConfig struct {
	// Backend is "badger" or "sqlite".
	Backend       string `yaml:"backend"`
	MinimumFreeGB uint   `yaml:"minimumFreeGB"`
}

// BackupsConfig tunes the backup manager.
type BackupsConfig struct {
	Compress bool `yaml:"compress"`
	// Keep is the retention count applied after admin-triggered backups.
	// Zero disables pruning.
	Keep int `yaml:"keep"`
	// CheckpointInterval is the period of the background checkpoint loop.
	CheckpointInterval Duration `yaml:"checkpointInterval"`
}

// Duration wraps time.Duration so YAML can carry "5m" style values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// AdminConfig holds the admin credentials. Environment variables
// ADMIN_USERNAME and ADMIN_PASSWORD override the file.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SMTPConfig holds contact-notification mail settings. SMTP_* environment
// variables override the file.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Load reads path, fills defaults, and applies environment overrides. A
// missing file is not an error; defaults plus environment apply.
func Load(path string) (Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	config.applyDefaults()
	config.applyEnv()

	if config.Storage.Backend != "badger" && config.Storage.Backend != "sqlite" {
		return Config{}, fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8000"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.BackupDir == "" {
		c.BackupDir = "./backups"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "./uploads"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "badger"
	}
	if c.Backups.CheckpointInterval == 0 {
		c.Backups.CheckpointInterval = Duration(5 * time.Minute)
	}
	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
	}
	if c.Admin.Password == "" {
		c.Admin.Password = "changeme"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ADMIN_USERNAME"); v != "" {
		c.Admin.Username = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		c.Admin.Password = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil && port > 0 {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		// App passwords are often pasted with spaces.
		c.SMTP.Password = strings.ReplaceAll(v, " ", "")
	}
	if v := os.Getenv("SMTP_FROM_EMAIL"); v != "" {
		c.SMTP.From = v
	}
	if v := os.Getenv("SMTP_TO_EMAIL"); v != "" {
		c.SMTP.To = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := []string{}
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			c.CORSOrigins = origins
		}
	}
}
