package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/automation"
	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/fetcher"
	"github.com/Dpatt168/RoGrouper-sub001/internal/setup"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// SweepLogDir specifies where sweep log files are stored.
const SweepLogDir = "logs/sweep_logs"

func main() {
	app := &cli.Command{
		Name:  "sweep",
		Usage: "Suspension expiry sweep",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a single sweep and exit",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withSweeper(ctx, func(ctx context.Context, sweeper *automation.Sweeper, logger *zap.Logger) error {
						processed, restored := sweeper.Sweep(ctx)
						logger.Info("Sweep complete",
							zap.Int("processed", processed),
							zap.Int("restored", restored))

						return nil
					})
				},
			},
			{
				Name:  "watch",
				Usage: "Run sweeps on an interval until interrupted",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Time between sweeps",
						Value: time.Minute,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					interval := c.Duration("interval")

					return withSweeper(ctx, func(ctx context.Context, sweeper *automation.Sweeper, logger *zap.Logger) error {
						ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
						defer stop()

						ticker := time.NewTicker(interval)
						defer ticker.Stop()

						logger.Info("Sweep loop started", zap.Duration("interval", interval))

						for {
							processed, restored := sweeper.Sweep(ctx)
							logger.Info("Sweep complete",
								zap.Int("processed", processed),
								zap.Int("restored", restored))

							select {
							case <-ctx.Done():
								logger.Info("Sweep loop stopped")
								return nil
							case <-ticker.C:
							}
						}
					})
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// withSweeper bootstraps the application, builds a sweeper, and hands it to fn.
func withSweeper(
	ctx context.Context, fn func(ctx context.Context, sweeper *automation.Sweeper, logger *zap.Logger) error,
) error {
	app, err := setup.InitializeApp(ctx, SweepLogDir)
	if err != nil {
		return err
	}
	defer app.Cleanup(ctx)

	requestTimeout := time.Duration(app.Config.API.RequestTimeout) * time.Millisecond
	roleManager := fetcher.NewRoleManager(app.BotCookie, requestTimeout, app.Logger)

	sweeper := automation.NewSweeper(
		app.DB.Model().Automation(), app.DB.Model().Audit(), roleManager, app.Logger,
	)

	return fn(ctx, sweeper, app.Logger)
}
