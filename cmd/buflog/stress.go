package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abyssdigger/buflog"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// StressCommand creates the stress command
func StressCommand() *cli.Command {
	return &cli.Command{
		Name:  "stress",
		Usage: "Log from many loggers concurrently and verify the files",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "loggers",
				Usage: "Number of concurrent loggers",
				Value: 16,
			},
			&cli.IntFlag{
				Name:  "messages",
				Usage: "Messages per logger",
				Value: 1000,
			},
			&cli.BoolFlag{
				Name:  "console",
				Usage: "Also print every message on the console",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return stress(ctx, c, c.Int("loggers"), c.Int("messages"))
		},
	}
}

func stress(ctx context.Context, c *cli.Command, loggers, messages int) error {
	if loggers < 1 || messages < 1 {
		return fmt.Errorf("loggers and messages must be positive")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rc := cfg.RegistryConfig()
	if !c.Bool("console") {
		rc.Console = buflog.NewConsole(io.Discard, buflog.COLOR_NEVER)
	}
	reg, cliLog := openRegistry(cfg, rc)

	started := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	paths := make([]string, loggers)
	for i := range loggers {
		l := reg.Get(fmt.Sprintf("stress-%03d", i), "", buflog.LoggerOptions{ToFile: true})
		paths[i] = l.Path()
		g.Go(func() error {
			for n := range messages {
				if err := ctx.Err(); err != nil {
					return err
				}
				l.Debug("message %d of %d", n+1, messages)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("stress run: %w", err)
	}
	cliLog.Info("logged %d message(s) in %s", loggers*messages, time.Since(started))
	reg.CloseAll()

	total := 0
	for _, path := range paths {
		n, err := countLines(path)
		if err != nil {
			return err
		}
		if n != messages {
			return fmt.Errorf("%s: %d line(s), want %d", path, n, messages)
		}
		total += n
	}
	global, err := countLines(reg.GlobalLogPath())
	if err != nil {
		return err
	}
	fmt.Printf("loggers: %d\nmessages: %d\nglobal log lines: %d\nelapsed: %s\n",
		loggers, total, global, time.Since(started))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}
