// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"fmt"
	"strings"

	"github.com/eclane/open-typeform/pkg/persistence"
	"github.com/eclane/open-typeform/pkg/persistence/file"
	"github.com/eclane/open-typeform/pkg/persistence/redis"
)

// NewSnapshotter picks a snapshot backend from the database URL scheme.
// redis:// URLs get the Redis backend; anything else is treated as a file
// path.
func NewSnapshotter(databaseURL string) persistence.Snapshotter {
	switch parseProvider(databaseURL) {
	case "redis":
		snapshotter, err := redis.NewSnapshotter(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create redis snapshotter: %w", err))
		}

		return snapshotter
	default:
		return file.NewSnapshotter(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
