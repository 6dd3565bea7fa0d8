package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maltedev/price-tracker/internal/config"
	"github.com/maltedev/price-tracker/internal/database"
	"github.com/maltedev/price-tracker/internal/export"
	"github.com/maltedev/price-tracker/internal/fetcher"
	"github.com/maltedev/price-tracker/internal/notify"
	"github.com/maltedev/price-tracker/internal/tracker"
	"github.com/maltedev/price-tracker/pkg/logger"
)

func main() {
	var (
		track      = flag.Bool("track", false, "Run a single tracking cycle and exit")
		schedule   = flag.Bool("schedule", false, "Run tracking cycles on the configured interval")
		summary    = flag.Bool("summary", false, "Print the latest price per site for each product")
		exportFmt  = flag.String("export", "", "Export price history (csv or json)")
		product    = flag.String("product", "", "Limit the operation to a single product name")
		history    = flag.Bool("history", false, "Print price history for -product")
		site       = flag.String("site", "", "Limit -history to a single site")
		days       = flag.Int("days", 30, "Lookback window in days for -history")
		useBrowser = flag.Bool("browser", false, "Fetch pages with a headless browser instead of plain HTTP")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).With("component", "tracker-cli")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("interrupted", "signal", sig.String())
		cancel()
	}()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	store := database.NewPriceStore(db, log)

	switch {
	case *track, *schedule:
		runTracking(ctx, cfg, store, log, *schedule, *product, *useBrowser)
	case *summary:
		printSummary(ctx, cfg, store, log, *product)
	case *history:
		printHistory(ctx, store, *product, *site, *days)
	case *exportFmt != "":
		exportHistory(ctx, store, *product, *exportFmt, log)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runTracking(ctx context.Context, cfg *config.Config, store *database.PriceStore, log *slog.Logger, schedule bool, productName string, useBrowser bool) {
	products := loadProducts(cfg, log, productName)

	var f fetcher.Fetcher
	var err error
	if useBrowser {
		opts := fetcher.DefaultBrowserOptions()
		opts.Timeout = cfg.Tracker.RequestTimeout
		f, err = fetcher.NewBrowserFetcher(opts, log)
	} else {
		policy := fetcher.DefaultRetryPolicy()
		policy.MaxAttempts = cfg.Tracker.MaxRetries
		f, err = fetcher.New(fetcher.Config{
			Timeout:    cfg.Tracker.RequestTimeout,
			Policy:     policy,
			UserAgents: cfg.Tracker.UserAgents,
			Logger:     log,
		})
	}
	if err != nil {
		log.Error("failed to create fetcher", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	tr := tracker.New(f, store, notify.NewLogNotifier(log), tracker.Thresholds{
		DropPercent: decimal.NewFromFloat(cfg.Tracker.DropPercent),
		DropAmount:  decimal.NewFromFloat(cfg.Tracker.DropAmount),
	}, log)

	if schedule {
		sched := tracker.NewScheduler(tr, products, cfg.Tracker.Interval, log)
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("scheduler stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	results := tr.TrackAll(ctx, products)
	for _, res := range results {
		for site, price := range res.Prices {
			fmt.Printf("%s [%s]: $%s\n", res.Product, site, price.StringFixed(2))
		}
		for _, alert := range res.Alerts {
			fmt.Printf("PRICE DROP: %s [%s] $%s -> $%s (-%s%%)\n",
				alert.Product, alert.Site,
				alert.PreviousPrice.StringFixed(2), alert.CurrentPrice.StringFixed(2),
				alert.PercentDrop.StringFixed(1))
		}
	}
}

func printSummary(ctx context.Context, cfg *config.Config, store *database.PriceStore, log *slog.Logger, productName string) {
	var names []string
	if productName != "" {
		names = []string{productName}
	} else {
		var err error
		names, err = store.ListProducts(ctx)
		if err != nil {
			log.Error("failed to list products", "error", err)
			os.Exit(1)
		}
	}

	if len(names) == 0 {
		fmt.Println("No tracked products.")
		return
	}

	for _, name := range names {
		prices, err := store.LatestPrices(ctx, name)
		if err != nil {
			log.Error("failed to get latest prices", "product", name, "error", err)
			continue
		}
		fmt.Printf("%s:\n", name)
		for site, latest := range prices {
			fmt.Printf("  %s: $%s (as of %s)\n", site, latest.Price.StringFixed(2), latest.RecordedAt.Format("2006-01-02 15:04"))
		}
	}
}

func printHistory(ctx context.Context, store *database.PriceStore, productName, site string, days int) {
	if productName == "" {
		fmt.Fprintln(os.Stderr, "-history requires -product")
		os.Exit(2)
	}

	records, err := store.History(ctx, productName, site, days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get history: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Printf("No price history for %q in the last %d days.\n", productName, days)
		return
	}

	for _, rec := range records {
		avail := "in stock"
		if !rec.Available {
			avail = "out of stock"
		}
		fmt.Printf("%s  %-10s  $%-10s %s\n",
			rec.RecordedAt.Format("2006-01-02 15:04"), rec.Site, rec.Price.StringFixed(2), avail)
	}
}

func exportHistory(ctx context.Context, store *database.PriceStore, productName, format string, log *slog.Logger) {
	if format != "csv" && format != "json" {
		fmt.Fprintln(os.Stderr, "-export must be csv or json")
		os.Exit(2)
	}

	records, err := store.AllRecords(ctx, productName)
	if err != nil {
		log.Error("failed to load records for export", "error", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("No records to export.")
		return
	}

	name := export.Filename(productName, format, time.Now())
	file, err := os.Create(name)
	if err != nil {
		log.Error("failed to create export file", "file", name, "error", err)
		os.Exit(1)
	}
	defer file.Close()

	if format == "csv" {
		err = export.WriteCSV(file, records)
	} else {
		err = export.WriteJSON(file, records)
	}
	if err != nil {
		log.Error("failed to write export", "file", name, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Exported %d records to %s\n", len(records), name)
}

func loadProducts(cfg *config.Config, log *slog.Logger, productName string) []config.Product {
	products, err := config.LoadProducts(cfg.Tracker.ProductsFile)
	if err != nil {
		log.Error("failed to load products", "file", cfg.Tracker.ProductsFile, "error", err)
		os.Exit(1)
	}

	if productName != "" {
		for _, p := range products {
			if p.Name == productName {
				return []config.Product{p}
			}
		}
		log.Error("product not configured", "product", productName)
		os.Exit(1)
	}

	return products
}
