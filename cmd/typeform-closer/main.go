package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/eclane/open-typeform/pkg/cmd"
	"github.com/eclane/open-typeform/pkg/log"
	"github.com/eclane/open-typeform/pkg/services"
	"github.com/eclane/open-typeform/pkg/store"
)

func main() {
	logger := log.WithModule("closer")

	command := &cli.Command{
		Name:                  "typeform-closer",
		Usage:                 "Close published forms past their close deadline",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Snapshot storage URL (a directory path or redis://...)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka or memory)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for the close sweep",
				Value:   "@every 1m",
				Sources: cli.EnvVars("CLOSE_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Open Typeform closer")

			snapshotter := cmd.NewSnapshotter(command.String("database-url"))

			formStore := store.NewStore(snapshotter, logger)
			if err := formStore.Open(ctx); err != nil {
				return err
			}

			defer func() {
				if err := formStore.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close form store", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "typeform-closer", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			formService := services.NewForm(formStore, eventBus, logger)

			closer, err := NewCloser(command.String("schedule"), formService, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := closer.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()

			return closer.Stop(context.Background())
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
