package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/finance-intelligence/internal/api"
	"github.com/insightdelivered/finance-intelligence/internal/config"
	"github.com/insightdelivered/finance-intelligence/internal/logger"
	"github.com/insightdelivered/finance-intelligence/internal/models"
	"github.com/insightdelivered/finance-intelligence/internal/pipeline"
	"github.com/insightdelivered/finance-intelligence/internal/store"
	"github.com/insightdelivered/finance-intelligence/internal/writer"
)

const version = "1.0.0"

func main() {
	bankFlag := flag.String("bank", "", "Bank code: cibc, rbc, scotia, td, bmo (auto-detected if omitted)")
	outputFlag := flag.String("output", "", "Output directory for CSV files (defaults to the input file's directory)")
	headerFlag := flag.Bool("header", true, "Include column header row in CSV output")
	saveFlag := flag.Bool("save", false, "Persist extracted records to the database (DATABASE_URL)")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API server instead of converting files")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Finance Intelligence — statement extraction and analytics

Extracts transactions and payments from credit-card statement PDFs,
deduplicates them into Postgres and serves trend/forecast/anomaly
analytics over HTTP.

Usage:
  finance-intelligence [flags] <statement.pdf> [statement2.pdf ...]
  finance-intelligence -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert a statement to transactions.csv and payments.csv
  finance-intelligence statement.pdf

  # Convert several statements and persist new rows
  finance-intelligence -save jan.pdf feb.pdf mar.pdf

  # Run the API server
  DATABASE_URL=postgres://... finance-intelligence -serve

Supported banks:
  cibc      - CIBC credit-card statements (full parser)
  rbc, scotia, td, bmo - detected but not yet parsed
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("finance-intelligence v%s\n", version)
		return
	}

	log := logger.New()
	cfg := config.FromEnv()

	var bank models.BankCode
	if *bankFlag != "" {
		switch strings.ToLower(*bankFlag) {
		case "cibc":
			bank = models.BankCIBC
		case "rbc":
			bank = models.BankRBC
		case "scotia", "scotiabank":
			bank = models.BankScotia
		case "td":
			bank = models.BankTD
		case "bmo":
			bank = models.BankBMO
		default:
			log.Fatal().Str("bank", *bankFlag).Msg("unknown bank code")
		}
	}

	ctx := context.Background()

	var db *store.Store
	if *serveFlag || *saveFlag {
		if cfg.DatabaseURL == "" && *saveFlag {
			log.Fatal().Msg("DATABASE_URL is required with -save")
		}
		if cfg.DatabaseURL != "" {
			var err error
			db, err = store.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				log.Fatal().Err(err).Msg("database connection failed")
			}
			defer db.Close()
		}
	}

	if *serveFlag {
		h := &api.Handler{Store: db, Log: log, Bank: bank}
		app := api.NewApp(h)
		log.Info().Str("addr", cfg.ListenAddr).Msg("starting API server")
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ext := pipeline.New(log)
	ext.Bank = bank
	res := ext.Extract(flag.Args())

	for _, f := range res.Failed {
		log.Warn().Str("document", f.Path).Err(f.Err).Msg("document skipped")
	}
	log.Info().
		Int("transactions", len(res.Transactions)).
		Int("payments", len(res.Payments)).
		Msg("extraction complete")

	outDir := *outputFlag
	if outDir == "" {
		outDir = filepath.Dir(flag.Arg(0))
	}
	w := &writer.CSVWriter{IncludeHeader: *headerFlag}
	txPath := filepath.Join(outDir, "transactions.csv")
	payPath := filepath.Join(outDir, "payments.csv")
	if err := w.WriteTransactionsToFile(txPath, res.Transactions); err != nil {
		log.Fatal().Err(err).Msg("CSV write failed")
	}
	if err := w.WritePaymentsToFile(payPath, res.Payments); err != nil {
		log.Fatal().Err(err).Msg("CSV write failed")
	}
	log.Info().Str("transactions", txPath).Str("payments", payPath).Msg("wrote CSV output")

	if *saveFlag {
		if err := db.CreateTables(ctx); err != nil {
			log.Fatal().Err(err).Msg("schema setup failed")
		}
		insTx, err := db.UpsertTransactions(ctx, res.Transactions)
		if err != nil {
			log.Fatal().Err(err).Msg("transaction upsert failed")
		}
		insPay, err := db.UpsertPayments(ctx, res.Payments)
		if err != nil {
			log.Fatal().Err(err).Msg("payment upsert failed")
		}
		if err := db.CreateIndexesAndViews(ctx); err != nil {
			log.Fatal().Err(err).Msg("index/view setup failed")
		}
		log.Info().Int("transactions", insTx).Int("payments", insPay).Msg("inserted new rows")
	}
}
