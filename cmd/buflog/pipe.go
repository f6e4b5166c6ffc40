package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
)

// PipeCommand creates the pipe command
func PipeCommand() *cli.Command {
	return &cli.Command{
		Name:  "pipe",
		Usage: "Log every line read from stdin",
		Flags: []cli.Flag{
			tagFlag(),
			levelFlag(),
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve prometheus metrics on this address (e.g. :9100)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			in := c.Root().Reader
			if in == nil {
				in = os.Stdin
			}
			return pipe(ctx, c, in)
		},
	}
}

func pipe(ctx context.Context, c *cli.Command, in io.Reader) error {
	if err := checkTag(c.String("tag")); err != nil {
		return err
	}
	level, err := parseLevel(c.String("level"))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	reg, cliLog := openRegistry(cfg, cfg.RegistryConfig())
	defer reg.CloseAll()

	if addr := c.String("metrics-addr"); addr != "" {
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(reg, collectors.NewGoCollector())
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				cliLog.Error("metrics server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				cliLog.Error("metrics server shutdown: %v", err)
			}
		}()
		cliLog.Info("serving metrics on %s/metrics", addr)
	}

	l := namedLogger(reg, cfg, c.String("tag"))
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lines := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		l.Log(level, scanner.Text())
		lines++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	cliLog.Info("piped %d line(s) into %s", lines, l.Path())
	return nil
}
