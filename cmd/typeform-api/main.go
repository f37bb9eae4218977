package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/eclane/open-typeform/pkg/cmd"
	"github.com/eclane/open-typeform/pkg/log"
	"github.com/eclane/open-typeform/pkg/store"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "typeform-api",
		Usage:                 "Create, manage and fill forms",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
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
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Open Typeform API")

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

			eventBus := cmd.NewEventBus(command.String("event-bus"), "typeform-api", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				formStore,
				eventBus,
			)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
