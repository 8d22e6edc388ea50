// Package syncer runs reconciliation passes against the bank and the ledger.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/config"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/enrich"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/gateway"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/identity"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/reconcile"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/report"
)

// ErrBudgetNotFound is returned when a configured budget does not exist in the ledger.
var ErrBudgetNotFound = errors.New("budget not found")

// History records the outcome of each budget sync.
type History interface {
	RecordRun(run db.Run) error
	RecordImports(budgetID, runID string, records []db.ImportRecord) error
	CheckScheme(budgetID, scheme string) error
}

// Options configures a Syncer.
type Options struct {
	DryRun bool
	Budget string           // restrict passes to this budget name
	Output io.Writer        // dry-run plans are written here
	Now    func() time.Time // defaults to time.Now
}

// Result is the outcome of one budget sync.
type Result struct {
	RunID      string
	Budget     string
	BudgetID   string
	Plan       reconcile.Plan
	Inserted   int
	Patched    int
	Duplicates []string
	DryRun     bool
	Err        error
}

// Pass is the outcome of one pass over all configured budgets.
type Pass struct {
	RunID   string
	Results []Result
}

// Failed returns the number of budgets that failed.
func (p Pass) Failed() int {
	n := 0
	for _, r := range p.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Syncer reconciles configured budgets.
type Syncer struct {
	bank     gateway.BankGateway
	ledger   gateway.LedgerGateway
	history  History
	settings *config.Settings
	resolver identity.Resolver
	opts     Options

	outputMu sync.Mutex
}

// New creates a new Syncer. history may be nil.
func New(bank gateway.BankGateway, ledger gateway.LedgerGateway, history History, settings *config.Settings, opts Options) *Syncer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	return &Syncer{
		bank:     bank,
		ledger:   ledger,
		history:  history,
		settings: settings,
		resolver: identity.NewResolver(settings.Scheme),
		opts:     opts,
	}
}

// RunPass syncs every configured budget once.
// A failing budget is logged and recorded; the others still run.
// The returned error is set only when the pass could not start.
func (s *Syncer) RunPass(ctx context.Context) (Pass, error) {
	pass := Pass{RunID: uuid.NewString()}
	logger := slog.With("run_id", pass.RunID)

	configs := s.settings.Budgets
	if s.opts.Budget != "" {
		cfg, ok := s.settings.Budget(s.opts.Budget)
		if !ok {
			return pass, fmt.Errorf("%w: budget %q is not configured", config.ErrConfigurationMissing, s.opts.Budget)
		}
		configs = []config.BudgetConfig{cfg}
	}

	logger.Info("Starting pass", "budgets", len(configs), "dry_run", s.opts.DryRun)

	budgets, err := s.ledger.ListBudgets(ctx)
	if err != nil {
		return pass, fmt.Errorf("failed to list budgets: %w", err)
	}

	bankAccounts, err := s.bank.ListAccounts(ctx)
	if err != nil {
		return pass, fmt.Errorf("failed to list bank accounts: %w", err)
	}

	pass.Results = make([]Result, len(configs))

	var g errgroup.Group
	g.SetLimit(max(1, s.settings.Concurrency))
	for i, cfg := range configs {
		i, cfg := i, cfg
		g.Go(func() error {
			result, err := s.runBudget(ctx, pass.RunID, budgets, bankAccounts, cfg)
			if err != nil {
				logger.Error("Budget sync failed", "budget", cfg.Name, "error", err)
				result.Err = err
			}
			pass.Results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("Pass completed", "budgets", len(configs), "failed", pass.Failed())
	return pass, nil
}

// RunBudget syncs a single budget, resolving it by name among budgets.
func (s *Syncer) RunBudget(ctx context.Context, budgets []model.Budget, cfg config.BudgetConfig) (Result, error) {
	bankAccounts, err := s.bank.ListAccounts(ctx)
	if err != nil {
		return Result{Budget: cfg.Name}, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	return s.runBudget(ctx, uuid.NewString(), budgets, bankAccounts, cfg)
}

func (s *Syncer) runBudget(ctx context.Context, runID string, budgets []model.Budget, bankAccounts []model.BankAccount, cfg config.BudgetConfig) (Result, error) {
	started := s.opts.Now()
	result := Result{RunID: runID, Budget: cfg.Name, DryRun: s.opts.DryRun}

	err := s.syncBudget(ctx, &result, budgets, bankAccounts, cfg)
	s.recordRun(result, started, err)
	return result, err
}

func (s *Syncer) syncBudget(ctx context.Context, result *Result, budgets []model.Budget, bankAccounts []model.BankAccount, cfg config.BudgetConfig) error {
	logger := slog.With("run_id", result.RunID, "budget", cfg.Name)

	budget, ok := findBudget(budgets, cfg.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrBudgetNotFound, cfg.Name)
	}
	result.BudgetID = budget.ID

	if err := cfg.CheckAccounts(); err != nil {
		return err
	}

	if s.history != nil {
		if err := s.history.CheckScheme(budget.ID, string(s.settings.Scheme)); err != nil {
			if !errors.Is(err, db.ErrSchemeChanged) {
				return err
			}
			logger.Warn("Identity scheme changed; previously imported transactions may be duplicated", "error", err)
		}
	}

	ledgerAccounts, err := s.ledger.ListAccounts(ctx, budget.ID)
	if err != nil {
		return fmt.Errorf("failed to list ledger accounts: %w", err)
	}

	accounts, warnings := reconcile.NewAccountMap(cfg.Accounts, ledgerAccounts, bankAccounts)
	for _, w := range warnings {
		logger.Warn("Account mapping", "warning", w)
	}
	if accounts.Len() == 0 {
		if cfg.Rules == nil {
			return fmt.Errorf("%w: budget %q has no usable account mapping", config.ErrConfigurationMissing, cfg.Name)
		}
		logger.Warn("No usable account mapping; enriching existing transactions only")
	}

	since := s.since(cfg.LookbackDays)
	logger.Debug("Fetching transactions", "since", since.Format(model.DateLayout), "accounts", accounts.Len())

	var bankTxns []model.BankTransaction
	for _, id := range accounts.BankAccountIDs() {
		txns, err := s.bank.ListTransactions(ctx, id, since)
		if err != nil {
			return fmt.Errorf("failed to list bank transactions: %w", err)
		}
		bankTxns = append(bankTxns, txns...)
	}

	ledgerTxns, err := s.ledger.ListTransactions(ctx, budget.ID, since)
	if err != nil {
		return fmt.Errorf("failed to list ledger transactions: %w", err)
	}

	var categories enrich.CategoryIndex
	if cfg.Rules == nil {
		logger.Info("No payee or category rules configured; inserting only")
	} else if len(cfg.Rules.Categories) > 0 {
		groups, err := s.ledger.ListCategories(ctx, budget.ID)
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}
		categories = enrich.NewCategoryIndex(groups)
	}

	plan := reconcile.Reconcile(reconcile.Input{
		Bank:       bankTxns,
		Ledger:     ledgerTxns,
		Accounts:   accounts,
		Resolver:   s.resolver,
		Rules:      cfg.Rules,
		Categories: categories,
		Orphans:    s.settings.Orphans,
	})
	result.Plan = plan

	for _, skip := range plan.Skipped {
		logger.Warn("Skipped bank transaction",
			"reason", skip.Reason,
			"account", skip.Transaction.SourceAccountID,
			"memo", skip.Transaction.Memo,
			"error", skip.Err,
		)
	}

	logger.Info("Reconciled",
		"bank", len(bankTxns),
		"ledger", len(ledgerTxns),
		"insert", len(plan.Insert),
		"patch", len(plan.Patch),
		"orphans", len(plan.Orphans),
		"unchanged", len(plan.Unchanged),
		"skipped", len(plan.Skipped),
	)

	if s.opts.DryRun {
		s.writePlan(cfg.Name, plan)
		return nil
	}

	if len(plan.Insert) > 0 {
		inserted, err := s.ledger.InsertTransactions(ctx, budget.ID, plan.Insert)
		if err != nil {
			return fmt.Errorf("failed to insert transactions: %w", err)
		}
		result.Duplicates = inserted.DuplicateImportIDs
		result.Inserted = len(plan.Insert) - len(inserted.DuplicateImportIDs)
		if len(inserted.DuplicateImportIDs) > 0 {
			logger.Warn("Ledger reported duplicate import ids", "count", len(inserted.DuplicateImportIDs))
		}
		s.recordImports(logger, budget.ID, result.RunID, plan.Insert, inserted.DuplicateImportIDs)
	}

	if len(plan.Patch) > 0 {
		if err := s.ledger.PatchTransactions(ctx, budget.ID, plan.Patch); err != nil {
			return fmt.Errorf("failed to patch transactions: %w", err)
		}
		result.Patched = len(plan.Patch)
	}

	logger.Info("Budget synced", "inserted", result.Inserted, "patched", result.Patched)
	return nil
}

// since returns the start of the lookback window as a calendar date.
func (s *Syncer) since(lookbackDays int) time.Time {
	now := s.opts.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -lookbackDays)
}

func (s *Syncer) writePlan(budget string, plan reconcile.Plan) {
	s.outputMu.Lock()
	defer s.outputMu.Unlock()
	fmt.Fprintf(s.opts.Output, "[DRY RUN] %s\n", report.FormatPlan(budget, plan))
}

func (s *Syncer) recordImports(logger *slog.Logger, budgetID, runID string, inserted []model.LedgerTransaction, duplicates []string) {
	if s.history == nil {
		return
	}

	dup := make(map[string]bool, len(duplicates))
	for _, id := range duplicates {
		dup[id] = true
	}

	records := make([]db.ImportRecord, 0, len(inserted))
	for _, txn := range inserted {
		if dup[txn.ImportID] {
			continue
		}
		records = append(records, db.ImportRecord{
			ImportID:        txn.ImportID,
			AccountID:       txn.AccountID,
			TransactionDate: txn.Date,
			Amount:          txn.Amount,
		})
	}

	if err := s.history.RecordImports(budgetID, runID, records); err != nil {
		logger.Error("Failed to record imports", "error", err)
	}
}

func (s *Syncer) recordRun(result Result, started time.Time, err error) {
	if s.history == nil {
		return
	}

	run := db.Run{
		RunID:          result.RunID,
		BudgetName:     result.Budget,
		BudgetID:       result.BudgetID,
		IdentityScheme: string(s.settings.Scheme),
		StartedAt:      started,
		FinishedAt:     s.opts.Now(),
		Inserted:       result.Inserted,
		Patched:        result.Patched,
		Flagged:        len(result.Plan.Orphans),
		Skipped:        len(result.Plan.Skipped),
		Status:         db.RunStatusOK,
	}
	switch {
	case err != nil:
		run.Status = db.RunStatusFailed
		run.Error = err.Error()
		run.Flagged = 0
	case result.DryRun:
		run.Status = db.RunStatusDryRun
	}

	if recErr := s.history.RecordRun(run); recErr != nil {
		slog.Error("Failed to record run", "run_id", result.RunID, "budget", result.Budget, "error", recErr)
	}
}

func findBudget(budgets []model.Budget, name string) (model.Budget, bool) {
	for _, b := range budgets {
		if b.Name == name {
			return b, true
		}
	}
	for _, b := range budgets {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return model.Budget{}, false
}
