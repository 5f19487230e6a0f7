package main

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"stock-reconciler/internal/config"
	"stock-reconciler/internal/core"
	"stock-reconciler/internal/db"
	"stock-reconciler/internal/obs"
	"stock-reconciler/internal/queue"
)

// reconciler is the long-running daemon. It LISTENs on a Postgres
// notification channel for location-key triggers (payload
// "item|warehouse|location") and feeds them to the per-key dispatcher.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := obs.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("database")
	}
	defer pool.Close()

	svc := core.NewReconcileService(pool, core.Settings{
		LookbackDays:   cfg.LookbackDays,
		LookaheadDays:  cfg.LookaheadDays,
		MergeBatchSize: cfg.MergeBatchSize,
	}, logger)

	dispatcher := queue.NewDispatcher(cfg.QueueCapacity, func(ctx context.Context, key core.LocationKey) {
		result, err := svc.Reconcile(ctx, key)
		if errors.Is(err, core.ErrAnchorMismatch) {
			// The balance moved mid-run; one retry with a fresh read.
			result, err = svc.Reconcile(ctx, key)
		}
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.WithField("key", key.String()).WithError(err).Error("reconciliation failed")
			}
			return
		}
		logger.WithFields(logrus.Fields{
			"key":     key.String(),
			"run_id":  result.RunID,
			"entries": result.Entries,
			"alert":   result.Balance.Alert,
		}).Info("reconciled")
	}, logger)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	logger.WithField("channel", cfg.NotifyChannel).Info("reconciler listening")
	listen(ctx, pool, cfg.NotifyChannel, dispatcher, logger)
}

// listen holds a dedicated connection on the notification channel and
// re-acquires it with backoff when it drops.
func listen(ctx context.Context, pool *pgxpool.Pool, channel string, dispatcher *queue.Dispatcher, logger *logrus.Logger) {
	for ctx.Err() == nil {
		if err := listenOnce(ctx, pool, channel, dispatcher); err != nil && ctx.Err() == nil {
			logger.WithError(err).Warn("listen connection lost, retrying")
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func listenOnce(ctx context.Context, pool *pgxpool.Pool, channel string, dispatcher *queue.Dispatcher) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return err
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		parts := strings.Split(notification.Payload, "|")
		if len(parts) != 3 {
			continue
		}
		key := core.LocationKey{ItemCode: parts[0], WarehouseCode: parts[1], LocationCode: parts[2]}
		if key.Incomplete() {
			continue
		}
		dispatcher.Enqueue(key)
	}
}
