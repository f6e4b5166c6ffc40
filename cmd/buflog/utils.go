package main

import (
	"fmt"

	"github.com/abyssdigger/buflog"
	"github.com/abyssdigger/buflog/internal/config"
	"github.com/urfave/cli/v3"
)

const cliTag = "buflog-cli"

// loadConfig reads the file named by --config and applies --log-dir.
func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dir := c.String("log-dir"); dir != "" {
		cfg.LogDir = dir
	}
	return cfg, nil
}

// openRegistry builds a registry from the configuration together with the
// CLI's own logger.
func openRegistry(cfg *config.Config, rc buflog.Config) (*buflog.Registry, *buflog.Logger) {
	reg := buflog.New(rc)
	return reg, namedLogger(reg, cfg, cliTag)
}

func namedLogger(reg *buflog.Registry, cfg *config.Config, tag string) *buflog.Logger {
	opts, version := cfg.LoggerOptions(tag)
	return reg.Get(tag, version, opts)
}

func levelFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "level",
		Aliases: []string{"l"},
		Usage:   "Severity: critical, error, warning, info or debug",
		Value:   "info",
	}
}

func tagFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "tag",
		Aliases: []string{"t"},
		Usage:   "Logger tag (also the log file name)",
		Value:   "main",
	}
}

func checkTag(tag string) error {
	if err := config.ValidateLoggerTag(tag); err != nil {
		return fmt.Errorf("invalid --tag: %w", err)
	}
	return nil
}

func parseLevel(s string) (buflog.LogLevel, error) {
	level, ok := buflog.ParseLevel(s)
	if !ok {
		return buflog.LVL_UNKNOWN, fmt.Errorf("unknown level %q", s)
	}
	return level, nil
}
