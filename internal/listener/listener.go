package listener

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/nestlogic/forum-sentinel/internal/dedup"
	"github.com/nestlogic/forum-sentinel/internal/domain"
	"github.com/nestlogic/forum-sentinel/internal/logger"
)

// Processor runs a detection pass for one content id.
type Processor interface {
	Process(ctx context.Context, contentID int64) error
}

// Listener maintains a LISTEN subscription on the notification channel and
// drives the pipeline once per received notification, strictly in arrival
// order. A malformed payload is logged and skipped; a transport failure ends
// the loop and is fatal to the process.
type Listener struct {
	conn      *pgx.Conn
	channel   string
	processor Processor
	seen      dedup.Store

	processed uint64
	failed    uint64
}

// New builds a listener over a dedicated connection. The seen store may be
// nil when deduplication is disabled.
func New(conn *pgx.Conn, channel string, processor Processor, seen dedup.Store) (*Listener, error) {
	if conn == nil {
		return nil, fmt.Errorf("listener connection must not be nil")
	}
	if strings.TrimSpace(channel) == "" {
		return nil, fmt.Errorf("notification channel must not be empty")
	}
	if processor == nil {
		return nil, fmt.Errorf("processor must not be nil")
	}

	return &Listener{
		conn:      conn,
		channel:   channel,
		processor: processor,
		seen:      seen,
	}, nil
}

// Run subscribes to the channel and blocks consuming notifications until the
// context is cancelled or the transport fails.
func (l *Listener) Run(ctx context.Context) error {
	ident := pgx.Identifier{l.channel}.Sanitize()
	if _, err := l.conn.Exec(ctx, "LISTEN "+ident); err != nil {
		return fmt.Errorf("listen on channel %s: %w", l.channel, err)
	}

	logger.InfoObj("listening for notifications", "listener_state", map[string]any{
		"channel": l.channel,
	})

	for {
		notification, err := l.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.InfoObj("listener loop exiting", "reason", ctx.Err())
				return ctx.Err()
			}
			return fmt.Errorf("wait for notification: %w", err)
		}

		l.handle(ctx, notification.Payload)
	}
}

// handle processes a single notification payload. All per-notification
// failures are recovered here; only the transport can end the loop.
func (l *Listener) handle(ctx context.Context, payload string) {
	contentID, err := parseContentID(payload)
	if err != nil {
		l.failed++
		logger.ErrorObj("notification skipped", "protocol_error", map[string]any{
			"channel": l.channel,
			"payload": payload,
			"error":   err.Error(),
		})
		return
	}

	if l.seen != nil {
		duplicate, err := l.seen.SeenContent(contentID)
		if err != nil {
			logger.WarnObj("dedup lookup failed", "dedup_error", map[string]any{
				"content_id": contentID,
				"error":      err.Error(),
			})
		} else if duplicate {
			logger.DebugObj("duplicate notification suppressed", "dedup_result", map[string]any{
				"content_id": contentID,
			})
			return
		}
	}

	if err := l.processor.Process(ctx, contentID); err != nil {
		l.failed++
		logger.ErrorObj("notification processing failed", "pipeline_error", map[string]any{
			"content_id":   contentID,
			"error":        err.Error(),
			"failed_total": l.failed,
		})
		return
	}

	l.processed++
	if l.seen != nil {
		if err := l.seen.MarkContent(contentID); err != nil {
			logger.WarnObj("dedup mark failed", "dedup_error", map[string]any{
				"content_id": contentID,
				"error":      err.Error(),
			})
		}
	}
	logger.DebugObj("notification processed", "listener_progress", map[string]any{
		"content_id":      contentID,
		"processed_total": l.processed,
	})
}

// parseContentID decodes the decimal content id carried by a notification.
func parseContentID(payload string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
	if err != nil {
		return 0, &domain.ProtocolError{Payload: payload, Err: errors.Unwrap(err)}
	}
	return id, nil
}
