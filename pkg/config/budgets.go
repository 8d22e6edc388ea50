package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/identity"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/reconcile"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/rules"
)

// ErrConfigurationMissing is returned when a budget lacks the configuration
// a pass needs.
var ErrConfigurationMissing = errors.New("configuration missing")

const (
	DefaultLookbackDays = 7

	OrphanPolicyFlag = "flag"
	OrphanPolicyOff  = "off"
)

var flagColors = map[string]bool{
	"red": true, "orange": true, "yellow": true, "green": true, "blue": true, "purple": true,
}

// BudgetsFile represents the YAML budget configuration file.
type BudgetsFile struct {
	IdentityScheme  string        `yaml:"identity_scheme"`
	OrphanPolicy    string        `yaml:"orphan_policy"`
	OrphanFlagColor string        `yaml:"orphan_flag_color"`
	LookbackDays    int           `yaml:"lookback_days"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Concurrency     int           `yaml:"concurrency"`
	Budgets         []BudgetEntry `yaml:"budgets"`
}

// BudgetEntry represents one budget in the YAML file.
type BudgetEntry struct {
	Name         string              `yaml:"name"`
	LookbackDays int                 `yaml:"lookback_days"`
	Accounts     []AccountEntry      `yaml:"accounts"`
	Payees       rules.PayeeRules    `yaml:"payees"`
	Categories   rules.CategoryRules `yaml:"categories"`
}

// AccountEntry links a ledger account note to a bank account number.
type AccountEntry struct {
	Note          string `yaml:"note"`
	AccountNumber string `yaml:"account_number"`
}

// Settings is the validated budget configuration.
type Settings struct {
	Scheme      identity.Scheme
	Orphans     reconcile.OrphanPolicy
	Interval    time.Duration
	Concurrency int
	Budgets     []BudgetConfig
}

// BudgetConfig is the validated configuration of one budget.
type BudgetConfig struct {
	Name         string
	LookbackDays int
	Accounts     []reconcile.AccountLink
	Rules        *rules.Set // nil when no rules are configured
}

// CheckAccounts returns ErrConfigurationMissing when the budget has neither
// an account link nor rules, leaving a pass nothing to do. A budget with
// rules but no links still enriches existing ledger transactions.
func (b BudgetConfig) CheckAccounts() error {
	if len(b.Accounts) == 0 && b.Rules == nil {
		return fmt.Errorf("%w: budget %q has no account mapping", ErrConfigurationMissing, b.Name)
	}
	return nil
}

// HasRules reports whether enrichment is configured.
func (b BudgetConfig) HasRules() bool {
	return b.Rules != nil
}

// Budget returns the configuration of the named budget.
func (s *Settings) Budget(name string) (BudgetConfig, bool) {
	for _, b := range s.Budgets {
		if b.Name == name {
			return b, true
		}
	}
	return BudgetConfig{}, false
}

// LoadBudgets reads and validates the budget configuration file.
func LoadBudgets(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read budgets file: %w", err)
	}

	settings, err := ParseBudgets(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// ParseBudgets parses and validates budget configuration YAML.
func ParseBudgets(data []byte) (*Settings, error) {
	var file BudgetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scheme, err := identity.ParseScheme(file.IdentityScheme)
	if err != nil {
		return nil, err
	}

	orphans, err := parseOrphanPolicy(file.OrphanPolicy, file.OrphanFlagColor)
	if err != nil {
		return nil, err
	}

	if file.LookbackDays < 0 {
		return nil, fmt.Errorf("lookback_days must not be negative")
	}
	if file.LookbackDays == 0 {
		file.LookbackDays = DefaultLookbackDays
	}
	if file.IntervalSeconds < 0 {
		return nil, fmt.Errorf("interval_seconds must not be negative")
	}
	if file.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency must not be negative")
	}
	if file.Concurrency == 0 {
		file.Concurrency = 1
	}

	settings := &Settings{
		Scheme:      scheme,
		Orphans:     orphans,
		Interval:    time.Duration(file.IntervalSeconds) * time.Second,
		Concurrency: file.Concurrency,
	}

	seen := make(map[string]bool)
	for i, entry := range file.Budgets {
		if entry.Name == "" {
			return nil, fmt.Errorf("budgets[%d]: name is required", i)
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("budgets[%d]: duplicate budget %q", i, entry.Name)
		}
		seen[entry.Name] = true

		budget, err := entry.toBudgetConfig(file.LookbackDays)
		if err != nil {
			return nil, fmt.Errorf("budget %q: %w", entry.Name, err)
		}
		settings.Budgets = append(settings.Budgets, budget)
	}

	if len(settings.Budgets) == 0 {
		return nil, fmt.Errorf("%w: no budgets configured", ErrConfigurationMissing)
	}

	return settings, nil
}

func (e BudgetEntry) toBudgetConfig(defaultLookback int) (BudgetConfig, error) {
	lookback := e.LookbackDays
	if lookback < 0 {
		return BudgetConfig{}, fmt.Errorf("lookback_days must not be negative")
	}
	if lookback == 0 {
		lookback = defaultLookback
	}

	links := make([]reconcile.AccountLink, 0, len(e.Accounts))
	for i, a := range e.Accounts {
		if a.Note == "" || a.AccountNumber == "" {
			return BudgetConfig{}, fmt.Errorf("accounts[%d]: note and account_number are required", i)
		}
		links = append(links, reconcile.AccountLink{Note: a.Note, AccountNumber: a.AccountNumber})
	}

	set, err := rules.NewSet(e.Payees, e.Categories)
	if err != nil {
		return BudgetConfig{}, err
	}

	return BudgetConfig{
		Name:         e.Name,
		LookbackDays: lookback,
		Accounts:     links,
		Rules:        set,
	}, nil
}

func parseOrphanPolicy(policy, color string) (reconcile.OrphanPolicy, error) {
	if color == "" {
		color = reconcile.DefaultFlagColor
	}
	if !flagColors[color] {
		return reconcile.OrphanPolicy{}, fmt.Errorf("invalid orphan_flag_color %q", color)
	}

	switch policy {
	case "", OrphanPolicyFlag:
		return reconcile.OrphanPolicy{Enabled: true, FlagColor: color}, nil
	case OrphanPolicyOff:
		return reconcile.OrphanPolicy{Enabled: false, FlagColor: color}, nil
	}
	return reconcile.OrphanPolicy{}, fmt.Errorf("unknown orphan_policy %q (expected %q or %q)", policy, OrphanPolicyFlag, OrphanPolicyOff)
}
