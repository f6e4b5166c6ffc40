package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "buflog",
		Usage: "Drive the buffered logging engine from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: "buflog.toml",
			},
			&cli.StringFlag{
				Name:  "log-dir",
				Usage: "Override the log directory from the configuration",
			},
		},
		Commands: []*cli.Command{
			EmitCommand(),
			PipeCommand(),
			StressCommand(),
			VersionCommand(),
		},
	}
}
