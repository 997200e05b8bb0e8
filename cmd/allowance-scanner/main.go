// Command allowance-scanner drives the allowance discovery engine from the
// command line: one-shot discover/reset runs, a debug HTTP server for
// remote operators, an interactive console, and host stats.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if _, err := maxprocs.Set(); err != nil {
		fmt.Fprintf(os.Stderr, "allowance-scanner: automaxprocs: %v\n", err)
	}

	app := &cli.App{
		Name:  "allowance-scanner",
		Usage: "discover and cache ERC-20 Approval allowances across chains",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "allowance-scanner.toml", Usage: "path to TOML deployment config"},
			&cli.StringFlag{Name: "registry", Aliases: []string{"r"}, Value: "chains.yaml", Usage: "path to YAML chain/token registry"},
			&cli.StringFlag{Name: "log-file", Usage: "rotate logs to this file instead of stderr"},
		},
		Commands: []*cli.Command{
			discoverCommand,
			resetCommand,
			serveCommand,
			consoleCommand,
			statsCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "allowance-scanner:", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	var w io.Writer = colorable.NewColorableStderr()
	if path := c.String("log-file"); path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
	}
	return slog.New(slog.NewTextHandler(w, nil))
}
