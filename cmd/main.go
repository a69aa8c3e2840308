package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/playsync/internal/shared"
	"github.com/desertthunder/playsync/internal/ui"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(ctx, os.Args); err != nil {
		stop()
		if errors.Is(err, ui.ErrCanceled) {
			logger.Warn("canceled")
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:        "version",
		Aliases:     []string{"V"},
		Usage:       "print the version",
		HideDefault: true,
		Local:       true,
	}
}
