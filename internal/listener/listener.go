// Package listener provides a Postgres LISTEN/NOTIFY consumer that reloads
// baselines when `footiq baselines import` publishes a change. It holds a
// dedicated pgx connection (not from the pool) listening on the
// `baselines_changed` channel.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Channel is the notification channel baseline imports publish on.
const Channel = "baselines_changed"

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// ChangeEvent is the JSON payload of pg_notify('baselines_changed', ...).
type ChangeEvent struct {
	Rows      int    `json:"rows"`
	Source    string `json:"source"`
	Timestamp int64  `json:"ts"`
}

// ReloadFunc re-reads baselines and installs them.
type ReloadFunc func(ctx context.Context) error

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Notify publishes a change event for listeners in other processes.
func Notify(ctx context.Context, db Execer, event ChangeEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, "SELECT pg_notify($1, $2)", Channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", Channel, err)
	}
	return nil
}

// Start opens a dedicated connection and listens on the baselines_changed
// channel. It reconnects automatically on connection loss and reloads once
// after every reconnect, since notifications sent while disconnected are
// lost. Blocks until ctx is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, reload ReloadFunc, logger *slog.Logger) {
	backoff := reconnectBackoff
	connected := false

	for {
		err := listenLoop(ctx, dbURL, reload, connected, logger)
		if ctx.Err() != nil {
			logger.Info("Baseline listener stopped (context cancelled)")
			return
		}
		connected = true

		logger.Error("Baseline listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, reload ReloadFunc, catchUp bool, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+Channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	logger.Info("Baseline listener connected", "channel", Channel)

	if catchUp {
		Handle(ctx, `{"source":"reconnect"}`, reload, logger)
	}

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		Handle(ctx, notification.Payload, reload, logger)
	}
}

// Handle processes one notification payload. An unparseable payload still
// triggers a reload; the event only feeds the log line.
func Handle(ctx context.Context, payload string, reload ReloadFunc, logger *slog.Logger) {
	var event ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.Warn("Failed to parse baseline event", "payload", payload, "error", err)
	}

	start := time.Now()
	if err := reload(ctx); err != nil {
		logger.Error("Baseline reload failed", "source", event.Source, "error", err)
		return
	}
	logger.Info("Baselines reloaded",
		"source", event.Source,
		"rows", event.Rows,
		"duration", time.Since(start).Round(time.Millisecond))
}
