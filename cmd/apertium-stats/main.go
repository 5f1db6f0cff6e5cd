// Package main provides the apertium-stats CLI entrypoint.
//
// Usage:
//
//	apertium-stats [--config FILE] <command> [options]
//
// The serve command runs the MCP server on stdio. The remaining commands
// run one request and print JSON to stdout.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dshills/apertium-stats-mcp/internal/mcp"
)

var (
	version   = mcp.ServerVersion
	buildTime = "unknown"
)

func main() {
	app := &cli.App{
		Name:           "apertium-stats",
		Usage:          "Structural statistics for Apertium linguistic packages",
		Version:        version,
		ExitErrHandler: exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				EnvVars: []string{"APERTIUM_STATS_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			statsCommand(),
			filesCommand(),
			classifyCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
