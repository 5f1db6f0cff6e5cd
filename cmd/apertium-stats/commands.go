package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/dshills/apertium-stats-mcp/internal/app"
	"github.com/dshills/apertium-stats-mcp/internal/classifier"
	"github.com/dshills/apertium-stats-mcp/internal/config"
	applog "github.com/dshills/apertium-stats-mcp/internal/log"
	"github.com/dshills/apertium-stats-mcp/internal/mcp"
	"github.com/dshills/apertium-stats-mcp/internal/service"
	"github.com/dshills/apertium-stats-mcp/internal/storage"
	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// Exit codes
const (
	exitFailure           = 1
	exitPackageNotFound   = 2
	exitNoRecognizedFiles = 3
	exitUsage             = 64
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			a, logger, err := loadApp(c)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn("shutdown failed", zap.Error(err))
				}
				_ = logger.Sync()
			}()

			server := mcp.NewServer(a.Service, logger.Named("mcp"))

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				errChan <- server.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
				cancel()
			case err := <-errChan:
				if err != nil {
					return cli.Exit(fmt.Sprintf("server error: %v", err), exitFailure)
				}
			}

			logger.Info("server stopped")
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Print statistics for a package, computing them when none are stored",
		ArgsUsage: "PACKAGE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Restrict to one file kind"},
			&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "List the package trunk recursively"},
			&cli.BoolFlag{Name: "recalculate", Usage: "Recompute even when stats are stored"},
		},
		Action: func(c *cli.Context) error {
			name, kind, err := packageArgs(c)
			if err != nil {
				return err
			}

			a, logger, err := loadApp(c)
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
				_ = logger.Sync()
			}()

			opts := service.Options{Recursive: c.Bool("recursive")}
			var res *service.Result
			if c.Bool("recalculate") {
				res, err = a.Service.CalculateStats(c.Context, name, kind, opts)
			} else {
				res, err = a.Service.GetStats(c.Context, name, kind, opts)
			}
			if err != nil {
				return exitFor(err)
			}
			return printJSON(res)
		},
	}
}

func filesCommand() *cli.Command {
	return &cli.Command{
		Name:      "files",
		Usage:     "List the files of a package with their revision, hash and kind",
		ArgsUsage: "PACKAGE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "List the package trunk recursively"},
			&cli.BoolFlag{Name: "all", Usage: "Include files with no recognized kind"},
		},
		Action: func(c *cli.Context) error {
			name, _, err := packageArgs(c)
			if err != nil {
				return err
			}

			a, logger, err := loadApp(c)
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
				_ = logger.Sync()
			}()

			files, err := a.Lister.List(c.Context, name, c.Bool("recursive"))
			if err != nil {
				return exitFor(err)
			}

			type fileRow struct {
				types.FileDescriptor
				Kind types.FileKind `json:"kind,omitempty"`
			}
			rows := make([]fileRow, 0, len(files))
			for _, f := range files {
				kind, ok := a.Classifier.Classify(f.Path)
				if !ok && !c.Bool("all") {
					continue
				}
				rows = append(rows, fileRow{FileDescriptor: f, Kind: kind})
			}
			return printJSON(map[string]interface{}{"name": name, "files": rows})
		},
	}
}

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Print the file kind of each path",
		ArgsUsage: "PATH...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("classify requires at least one path", exitUsage)
			}
			cls := classifier.Default()
			for _, path := range c.Args().Slice() {
				kind, ok := cls.Classify(path)
				if !ok {
					fmt.Printf("%s\t-\n", path)
					continue
				}
				fmt.Printf("%s\t%s\n", path, kind)
			}
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(_ *cli.Context) error {
			return printJSON(map[string]string{
				"version":    version,
				"build_time": buildTime,
				"build_mode": storage.BuildMode,
				"driver":     storage.DriverName,
			})
		},
	}
}

// loadApp loads config and builds the logger and components.
// The logger writes to stderr; stdout is reserved for output and MCP.
func loadApp(c *cli.Context) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load(config.ResolvePath(c.String("config")))
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), exitUsage)
	}

	level := cfg.LogLevel
	if l := c.String("log-level"); l != "" {
		level = l
	}
	logger, err := applog.New(level)
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), exitUsage)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), exitFailure)
	}
	return a, logger, nil
}

func packageArgs(c *cli.Context) (string, *types.FileKind, error) {
	if c.NArg() != 1 {
		return "", nil, cli.Exit("expected exactly one PACKAGE argument", exitUsage)
	}
	name, err := service.NormalizeName(c.Args().First())
	if err != nil {
		return "", nil, cli.Exit(err.Error(), exitUsage)
	}

	raw := c.String("kind")
	if raw == "" {
		return name, nil, nil
	}
	kind, err := types.ParseFileKind(raw)
	if err != nil {
		return "", nil, cli.Exit(err.Error(), exitUsage)
	}
	return name, &kind, nil
}

func exitFor(err error) error {
	switch {
	case errors.Is(err, types.ErrPackageNotFound):
		return cli.Exit(err.Error(), exitPackageNotFound)
	case errors.Is(err, types.ErrNoRecognizedFiles):
		return cli.Exit(err.Error(), exitNoRecognizedFiles)
	}
	return cli.Exit(err.Error(), exitFailure)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
