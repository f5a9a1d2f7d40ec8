// Package config loads taskbot settings from an optional YAML file
// with environment-variable overrides for deployment platforms that
// only expose env configuration.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	EnvDiscordToken = "DISCORD_TOKEN"
	EnvPort         = "PORT"

	DefaultPrefix     = "!task"
	DefaultPort       = 8080
	DefaultStorePath  = "data/tasks.json"
	DefaultGuildsPath = "data/guilds.json"
	DefaultLogLevel   = "info"
)

type Config struct {
	Discord struct {
		Token  string `yaml:"token"`
		Prefix string `yaml:"prefix"`
	} `yaml:"discord"`
	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`
	Store struct {
		Path           string `yaml:"path"`
		ResetOnCorrupt bool   `yaml:"reset_on_corrupt"`
	} `yaml:"store"`
	Guilds struct {
		Path string `yaml:"path"`
	} `yaml:"guilds"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() Config {
	var c Config
	c.Discord.Prefix = DefaultPrefix
	c.HTTP.Port = DefaultPort
	c.Store.Path = DefaultStorePath
	c.Guilds.Path = DefaultGuildsPath
	c.Log.Level = DefaultLogLevel
	return c
}

// Load reads the YAML file at path over the defaults, then applies env
// overrides. A missing file is fine; defaults and env still apply.
func Load(path string) (Config, error) {
	c := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "failed to read config %s", path)
		}
	} else if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}

	c.applyEnv()
	c.fillDefaults()
	return c, nil
}

func (c *Config) applyEnv() {
	if token := os.Getenv(EnvDiscordToken); token != "" {
		c.Discord.Token = token
	}
	if port := os.Getenv(EnvPort); port != "" {
		// An unparseable PORT falls back to the configured value.
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			c.HTTP.Port = n
		}
	}
}

func (c *Config) fillDefaults() {
	if c.Discord.Prefix == "" {
		c.Discord.Prefix = DefaultPrefix
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = DefaultPort
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.Guilds.Path == "" {
		c.Guilds.Path = DefaultGuildsPath
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
