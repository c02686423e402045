// Package config loads the relay's settings from YAML, with environment
// variables layered on top, following shineum-smtp-proxy-lite's
// internal/config shape, plus a backward-compatible string-keyed Get
// accessor in the teacher's own Config.Get(name) style.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything cmd/relayd needs to start the listener, the
// queue processor, and the auth store.
type Config struct {
	Listen      string `yaml:"listen"`
	DataDir     string `yaml:"data_dir"`
	AuthFile    string `yaml:"auth_file"`
	RequireAuth bool   `yaml:"require_auth"`
	RelayPort   int    `yaml:"relay_port"`
	Logging     struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	opts map[string]string
}

func defaults() *Config {
	c := &Config{
		Listen:      "0.0.0.0:25",
		DataDir:     "data",
		AuthFile:    "data/auth.db",
		RequireAuth: true,
		RelayPort:   25,
	}
	c.Logging.Level = "info"
	return c
}

// Load reads path (if it exists) over the defaults and applies environment
// variable overrides. A missing file is not an error; it just leaves the
// defaults (and any env overrides) in place.
func Load(path string) (*Config, error) {
	c := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, c); err != nil {
			return nil, err
		}
	}

	c.applyEnvVars()
	c.buildOpts()
	return c, nil
}

func (c *Config) applyEnvVars() {
	if v := os.Getenv("RELAY_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("RELAY_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("RELAY_AUTH_FILE"); v != "" {
		c.AuthFile = v
	}
	if v := os.Getenv("RELAY_REQUIRE_AUTH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.RequireAuth = b
		}
	}
	if v := os.Getenv("RELAY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RelayPort = n
		}
	}
	if v := os.Getenv("RELAY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) buildOpts() {
	c.opts = map[string]string{
		"listen":       c.Listen,
		"data_dir":     c.DataDir,
		"auth_file":    c.AuthFile,
		"require_auth": strconv.FormatBool(c.RequireAuth),
		"relay_port":   strconv.Itoa(c.RelayPort),
		"logging.level": c.Logging.Level,
	}
}

// Get looks up a setting by its flat string key, for call sites ported
// from code that predates the typed Config fields.
func (c *Config) Get(name string) (string, bool) {
	v, ok := c.opts[name]
	return v, ok
}
