// Package main runs a local emulator of the bank and ledger APIs for
// development and end-to-end testing of ledger-sync.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shunichi-ikebuchi/ledger-sync/internal/emulator/api"
	"github.com/shunichi-ikebuchi/ledger-sync/internal/emulator/store"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/pathutil"
)

const (
	defaultPort         = "8080"
	defaultDBPath       = "./data/emulator.db"
	defaultClientID     = "emulator-client"
	defaultClientSecret = "emulator-secret"
	defaultCustomerID   = "01010112345"
	defaultLedgerToken  = "emulator-token"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	port := getenv("PORT", defaultPort)
	dbPath := getenv("DB_PATH", defaultDBPath)
	fixturePath := os.Getenv("FIXTURE")

	paths := pathutil.New(pathutil.Config{DatabasePath: dbPath})
	if err := paths.EnsureParentDir(dbPath); err != nil {
		slog.Error("failed to create data directory", "error", err, "db_path", dbPath)
		os.Exit(1)
	}

	st, err := store.New(dbPath)
	if err != nil {
		slog.Error("failed to initialize store", "error", err, "db_path", dbPath)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	slog.Info("database initialized", "db_path", dbPath)

	if fixturePath != "" {
		fixture, err := store.LoadFixture(fixturePath)
		if err != nil {
			slog.Error("failed to load fixture", "error", err, "fixture", fixturePath)
			os.Exit(1)
		}
		if err := st.Seed(fixture); err != nil {
			slog.Error("failed to seed store", "error", err, "fixture", fixturePath)
			os.Exit(1)
		}
		slog.Info("fixture loaded", "fixture", fixturePath)
	}

	handler := api.NewRouter(st, api.Config{
		ClientID:     getenv("EMULATOR_CLIENT_ID", defaultClientID),
		ClientSecret: getenv("EMULATOR_CLIENT_SECRET", defaultClientSecret),
		CustomerID:   getenv("EMULATOR_CUSTOMER_ID", defaultCustomerID),
		LedgerToken:  getenv("EMULATOR_LEDGER_TOKEN", defaultLedgerToken),
		Logging:      true,
	})

	addr := fmt.Sprintf(":%s", port)
	slog.Info("starting ledger-sync emulator",
		"addr", addr,
		"bank_api_url", "http://localhost"+addr+api.BankPath,
		"bank_token_url", "http://localhost"+addr+api.TokenPath,
		"ledger_api_url", "http://localhost"+addr+api.LedgerPath,
	)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
