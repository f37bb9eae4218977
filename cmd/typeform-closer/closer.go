// Package main provides the scheduled closer that enforces form close
// deadlines.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/eclane/open-typeform/pkg/services"
)

// Closer periodically closes published forms whose close deadline has
// passed.
type Closer struct {
	schedule    string
	formService *services.Form
	cron        *cron.Cron
	logger      *slog.Logger
}

func NewCloser(schedule string, formService *services.Form, logger *slog.Logger) (*Closer, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	return &Closer{
		schedule:    schedule,
		formService: formService,
		logger:      logger.With("module", "closer", "cron", schedule),
	}, nil
}

func (c *Closer) Start(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Starting closer")

	c.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := c.cron.AddFunc(c.schedule, func() {
		c.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	c.cron.Start()

	return nil
}

func (c *Closer) run(ctx context.Context) {
	closed, err := c.formService.CloseDueForms(ctx, time.Now().UTC())
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to close due forms", "error", err)

		return
	}

	for _, form := range closed {
		c.logger.InfoContext(ctx, "Closed form past its deadline",
			"form_id", form.ID, "title", form.Title, "close_at", form.CloseAt)
	}

	if len(closed) == 0 {
		c.logger.DebugContext(ctx, "No forms due for closing")
	}
}

func (c *Closer) Stop(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Stopping closer")

	if c.cron != nil {
		c.cron.Stop()
	}

	return nil
}
