package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, loads config and serves until shutdown.
// It returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sponsors", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitConfigError
	}

	if *showVersion {
		fmt.Fprintf(stdout, "sponsors %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	logger := SetupLogger(cfg)
	logger.Info("starting sponsors",
		"version", Version,
		"config", *configPath,
		"driver", cfg.Database.Driver,
		"seed_file", cfg.Seed.File,
		"rate_limit", cfg.RateLimit.Enabled,
	)

	ctx := context.Background()
	server, err := NewServer(ctx, cfg, logger)
	if err != nil {
		return exitCode(logger, "failed to create server", err)
	}
	if err := server.Start(ctx); err != nil {
		return exitCode(logger, "server error", err)
	}
	return ExitSuccess
}

// exitCode logs err and returns the exit code it carries.
// Errors that are not ServerErrors count as configuration errors.
func exitCode(logger *slog.Logger, msg string, err error) int {
	var sErr *ServerError
	if !errors.As(err, &sErr) {
		logger.Error(msg, "error", err)
		return ExitConfigError
	}
	logger.Error(msg, "error", sErr.Err, "operation", sErr.Op, "exit_code", sErr.ExitCode)
	return sErr.ExitCode
}
