package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"stock-reconciler/internal/config"
	"stock-reconciler/internal/core"
	"stock-reconciler/internal/db"
	"stock-reconciler/internal/obs"
)

// reconcile is the one-shot CLI: recompute a single location key, or every
// known key with -all. Exit code is non-zero when any key fails.
func main() {
	_ = godotenv.Load()

	var (
		item      = flag.String("item", "", "item code")
		warehouse = flag.String("warehouse", "", "warehouse code")
		location  = flag.String("location", "", "location code")
		all       = flag.Bool("all", false, "reconcile every known location key")
	)
	flag.Parse()

	cfg := config.Load()
	logger := obs.NewLogger(cfg.LogLevel)

	ctx := context.Background()
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

	if *all {
		batch, err := svc.ReconcileAll(ctx)
		if err != nil {
			logger.WithError(err).Fatal("batch reconciliation")
		}
		for _, r := range batch.Succeeded {
			printResult(r)
		}
		for key, err := range batch.Failed {
			fmt.Fprintf(os.Stderr, "%s: FAILED: %v\n", key, err)
		}
		fmt.Printf("%d succeeded, %d failed\n", len(batch.Succeeded), len(batch.Failed))
		if len(batch.Failed) > 0 {
			os.Exit(1)
		}
		return
	}

	key := core.LocationKey{ItemCode: *item, WarehouseCode: *warehouse, LocationCode: *location}
	if key.Incomplete() {
		fmt.Fprintln(os.Stderr, "usage: reconcile -item CODE -warehouse CODE -location CODE (or -all)")
		os.Exit(2)
	}

	result, err := svc.Reconcile(ctx, key)
	if err != nil {
		logger.WithField("key", key.String()).WithError(err).Fatal("reconciliation")
	}
	printResult(*result)
}

func printResult(r core.ReconcileResult) {
	fmt.Printf("%s: qty=%s cost=%s alert=%s entries=%d warnings=%d",
		r.Key, r.Balance.CurrentQty, r.Balance.AverageCost, r.Balance.Alert, r.Entries, len(r.Warnings))
	if r.StockoutFound {
		fmt.Printf(" stockout=%s", core.FormatDate(r.StockoutDate))
	}
	fmt.Println()
}
