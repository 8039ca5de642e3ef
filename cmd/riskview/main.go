// Package main provides the command-line entry point for riskview.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mlhealth/riskview/internal/config"
	"github.com/mlhealth/riskview/internal/setup"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Cancel in-flight requests on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []config.Option
	if path := os.Getenv("RISKVIEW_CONFIG"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}

	cfg, err := config.NewManager(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riskview: %v\n", err)
		return 1
	}

	app, err := setup.NewApp(cfg, setup.AppOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "riskview: %v\n", err)
		return 1
	}
	defer app.Close()

	if err := setup.NewCLI(app).Run(ctx, args); err != nil {
		app.Logger.WithError(err).Debug("Command failed")
		return 1
	}
	return 0
}
