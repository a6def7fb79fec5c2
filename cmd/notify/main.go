// Command notify emits a single pg_notify for a content id. It exists for
// local development: point it at the same database as the sentinel and watch
// the pipeline run without touching the forum.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nestlogic/forum-sentinel/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "notify failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	contentID := flag.Int64("id", 0, "content id to announce")
	channel := flag.String("channel", "", "channel override (defaults to the configured one)")
	flag.Parse()

	if *contentID <= 0 {
		return fmt.Errorf("a positive -id is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ch := cfg.Channel
	if *channel != "" {
		ch = *channel
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	payload := strconv.FormatInt(*contentID, 10)
	if _, err := conn.Exec(ctx, "SELECT pg_notify($1, $2)", ch, payload); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}

	fmt.Printf("notified channel %q with content id %s\n", ch, payload)
	return nil
}
