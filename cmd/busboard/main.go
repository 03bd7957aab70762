package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"busboard/internal/buildinfo"

	_ "time/tzdata"
)

func main() {
	if err := newCLI(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "busboard:", err)
		os.Exit(1)
	}
}

func newCLI(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "busboard",
		Usage:     "real-time arrivals for an OC Transpo stop",
		Version:   buildinfo.Read().Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a JSON, YAML or TOML config file",
			},
			&cli.StringFlag{
				Name:  "dotenv",
				Value: ".env",
				Usage: "dotenv file with credentials; ignored when missing",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "schedule source: fixture, file or octranspo",
			},
			&cli.StringFlag{
				Name:  "fixture",
				Usage: "route summary JSON file, implies --source file",
			},
			&cli.StringFlag{
				Name:  "stop",
				Usage: "stop number for the live source",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "environment: development, test or production",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log at debug level",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP board",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "listen port",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					if c.IsSet("port") {
						cfg.Port = c.Int("port")
					}

					coreApp, err := BuildApplication(cfg, stderr)
					if err != nil {
						return err
					}

					srv, api := CreateServer(coreApp, cfg)
					ctx, stop := signalContext(c.Context)
					defer stop()

					return Run(ctx, srv, coreApp, api)
				},
			},
			{
				Name:  "show",
				Usage: "fetch once and print the board",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-color",
						Usage: "disable ANSI colours",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}

					coreApp, err := BuildApplication(cfg, stderr)
					if err != nil {
						return err
					}

					return Show(c.Context, coreApp, stdout, !c.Bool("no-color") && isTerminal(stdout))
				},
			},
		},
	}
}
