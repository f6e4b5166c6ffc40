package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

// EmitCommand creates the emit command
func EmitCommand() *cli.Command {
	return &cli.Command{
		Name:      "emit",
		Usage:     "Log one message and flush it to disk",
		ArgsUsage: "<words...>",
		Flags:     []cli.Flag{tagFlag(), levelFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return fmt.Errorf("nothing to emit")
			}
			return emit(c, c.String("tag"), c.String("level"), strings.Join(c.Args().Slice(), " "))
		},
	}
}

func emit(c *cli.Command, tag, levelName, text string) error {
	if err := checkTag(tag); err != nil {
		return err
	}
	level, err := parseLevel(levelName)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	reg, _ := openRegistry(cfg, cfg.RegistryConfig())
	l := namedLogger(reg, cfg, tag)
	l.Log(level, text)
	l.Close()
	return nil
}
