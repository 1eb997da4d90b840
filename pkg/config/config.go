// Copyright 2024-2026 Aiku AI

// Package config loads the YAML configuration file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	up "go.mau.fi/util/configupgrade"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"

	"github.com/aiku/slacktail/pkg/mute"
)

//go:embed example-config.yaml
var ExampleConfig string

// TokenEnv overrides slack.token when set.
const TokenEnv = "SLACK_TOKEN"

var ErrMissingToken = errors.New("slack.token is empty and " + TokenEnv + " is not set")

type Config struct {
	Slack   SlackConfig       `yaml:"slack"`
	Mute    mute.Rules        `yaml:"mute"`
	Output  OutputConfig      `yaml:"output"`
	Logging zeroconfig.Config `yaml:"logging"`

	location *time.Location `yaml:"-"`
}

type SlackConfig struct {
	Token  string `yaml:"token"`
	APIURL string `yaml:"api_url"`
	// PingInterval and ReadTimeout are in seconds.
	PingInterval int `yaml:"ping_interval"`
	ReadTimeout  int `yaml:"read_timeout"`
}

func (s SlackConfig) PingIntervalDuration() time.Duration {
	return time.Duration(s.PingInterval) * time.Second
}

func (s SlackConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

type OutputConfig struct {
	Color    bool   `yaml:"color"`
	Timezone string `yaml:"timezone"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// PostProcess applies environment overrides and resolves derived values.
func (c *Config) PostProcess() error {
	if token := os.Getenv(TokenEnv); token != "" {
		c.Slack.Token = token
	}
	c.location = time.Local
	if c.Output.Timezone != "" {
		loc, err := time.LoadLocation(c.Output.Timezone)
		if err != nil {
			return fmt.Errorf("output.timezone: %w", err)
		}
		c.location = loc
	}
	return nil
}

// Validate reports the first setting that would make the client unusable.
// Mute rules are checked by compiling them.
func (c *Config) Validate() error {
	if c.Slack.Token == "" {
		return ErrMissingToken
	}
	if c.Slack.PingInterval < 0 {
		return fmt.Errorf("slack.ping_interval must not be negative, got %d", c.Slack.PingInterval)
	}
	if c.Slack.ReadTimeout < 0 {
		return fmt.Errorf("slack.read_timeout must not be negative, got %d", c.Slack.ReadTimeout)
	}
	if c.Slack.PingInterval > 0 && c.Slack.ReadTimeout > 0 && c.Slack.ReadTimeout <= c.Slack.PingInterval {
		return fmt.Errorf("slack.read_timeout (%ds) must be longer than slack.ping_interval (%ds)",
			c.Slack.ReadTimeout, c.Slack.PingInterval)
	}
	if _, _, err := mute.Compile(c.Mute); err != nil {
		return err
	}
	return nil
}

// Location is the zone transcript timestamps are shown in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Logger builds the root logger from the logging block.
func (c *Config) Logger() (*zerolog.Logger, error) {
	log, err := c.Logging.Compile()
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return log, nil
}

func upgradeConfig(helper up.Helper) {
	helper.Copy(up.Str, "slack", "token")
	helper.Copy(up.Str, "slack", "api_url")
	helper.Copy(up.Int, "slack", "ping_interval")
	helper.Copy(up.Int, "slack", "read_timeout")
	helper.Copy(up.List, "mute", "channels")
	helper.Copy(up.List, "mute", "users")
	helper.Copy(up.Bool, "output", "color")
	helper.Copy(up.Str, "output", "timezone")
	helper.Copy(up.Map, "logging")
}

// Upgrader merges a config file over the example config, keeping the
// user's values for every known key.
var Upgrader = &up.StructUpgrader{
	SimpleUpgrader: up.SimpleUpgrader(upgradeConfig),
	Base:           ExampleConfig,
}

// Load reads path, merges it over the example config and parses the
// result. With save set, the merged file is written back when it changed.
func Load(path string, save bool) (*Config, error) {
	data, _, err := up.Do(path, save, Upgrader)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes an already merged config and post-processes it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.PostProcess(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteExample writes the example config to path, refusing to overwrite.
func WriteExample(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(ExampleConfig); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
