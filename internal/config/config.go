// Package config loads the buflog TOML configuration and converts it to
// engine settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/abyssdigger/buflog"
)

// Config mirrors the TOML file:
//
//	log_dir = "/var/log/buflog"
//	flush_interval = "500us"
//	console_line_limit = 1000
//	console_color = "auto"
//
//	[loggers.UtilsLogger]
//	version = "1.0.0"
//	to_file = true
type Config struct {
	LogDir           string                   `toml:"log_dir" validate:"required"`
	FlushInterval    Duration                 `toml:"flush_interval"`
	ConsoleLineLimit int                      `toml:"console_line_limit" validate:"min=1"`
	ConsoleColor     string                   `toml:"console_color" validate:"oneof=auto always never"`
	Loggers          map[string]*LoggerConfig `toml:"loggers,omitempty"`
}

// LoggerConfig holds the construction-time options of one named logger.
type LoggerConfig struct {
	Version string `toml:"version"`
	ToFile  bool   `toml:"to_file"`
	Silent  bool   `toml:"silent"`
}

// Duration is a time.Duration written as a Go duration string ("500us").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// GetDefaultConfig returns the settings used when no file exists.
func GetDefaultConfig() *Config {
	return &Config{
		LogDir:           buflog.DEFAULT_LOG_DIR,
		FlushInterval:    Duration{buflog.DEFAULT_FLUSH_INTERVAL},
		ConsoleLineLimit: buflog.DEFAULT_CONSOLE_LINE_LIMIT,
		ConsoleColor:     "auto",
		Loggers:          make(map[string]*LoggerConfig),
	}
}

// LoadConfig reads, defaults and validates configPath. A missing file yields
// the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return config, nil
}

// Parse decodes TOML data, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("parsing config at line %d, column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.applyDefaults()

	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	def := GetDefaultConfig()
	if c.LogDir == "" {
		c.LogDir = def.LogDir
	}
	if c.FlushInterval.Duration == 0 {
		c.FlushInterval = def.FlushInterval
	}
	if c.ConsoleLineLimit == 0 {
		c.ConsoleLineLimit = def.ConsoleLineLimit
	}
	if c.ConsoleColor == "" {
		c.ConsoleColor = def.ConsoleColor
	}
	if c.Loggers == nil {
		c.Loggers = def.Loggers
	}
}

// Serialize renders the configuration as TOML.
func (c *Config) Serialize() ([]byte, error) {
	return toml.Marshal(c)
}

// RegistryConfig converts the file settings to engine settings. Collaborators
// (console writer, filesystem, clock) are left for buflog.New to default,
// except the console color mode.
func (c *Config) RegistryConfig() buflog.Config {
	mode, _ := buflog.ParseColorMode(c.ConsoleColor)
	return buflog.Config{
		LogDir:           c.LogDir,
		FlushInterval:    c.FlushInterval.Duration,
		ConsoleLineLimit: c.ConsoleLineLimit,
		Console:          buflog.NewConsole(os.Stderr, mode),
	}
}

// LoggerOptions returns the options and version configured for tag. Unknown
// tags log to file and are not silent.
func (c *Config) LoggerOptions(tag string) (buflog.LoggerOptions, string) {
	lc, ok := c.Loggers[tag]
	if !ok || lc == nil {
		return buflog.LoggerOptions{ToFile: true}, ""
	}
	return buflog.LoggerOptions{ToFile: lc.ToFile, Silent: lc.Silent}, lc.Version
}

// LoggerTags lists the configured logger tags in sorted order.
func (c *Config) LoggerTags() []string {
	tags := make([]string, 0, len(c.Loggers))
	for tag := range c.Loggers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
