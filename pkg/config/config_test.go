package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/identity"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/reconcile"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/ynab"
)

const sampleBudgets = `
identity_scheme: content_hash
orphan_policy: flag
orphan_flag_color: purple
lookback_days: 10
interval_seconds: 300
concurrency: 2
budgets:
  - name: Household
    accounts:
      - note: sbanken:checking
        account_number: 97101234567
      - note: sbanken:savings
        account_number: "9710.76.54321"
    payees:
      Coffee Shop: [CFE]
      Cafe: [CFE]
    categories:
      Dining: [Cafe]
  - name: Business
    lookback_days: 30
    accounts:
      - note: sbanken:business
        account_number: "97100000000"
`

func TestParseBudgets(t *testing.T) {
	settings, err := ParseBudgets([]byte(sampleBudgets))
	require.NoError(t, err)

	require.Equal(t, identity.SchemeContentHash, settings.Scheme)
	require.Equal(t, reconcile.OrphanPolicy{Enabled: true, FlagColor: "purple"}, settings.Orphans)
	require.Equal(t, 5*time.Minute, settings.Interval)
	require.Equal(t, 2, settings.Concurrency)
	require.Len(t, settings.Budgets, 2)

	household, ok := settings.Budget("Household")
	require.True(t, ok)
	require.Equal(t, 10, household.LookbackDays)
	require.Equal(t, []reconcile.AccountLink{
		{Note: "sbanken:checking", AccountNumber: "97101234567"},
		{Note: "sbanken:savings", AccountNumber: "9710.76.54321"},
	}, household.Accounts)
	require.True(t, household.HasRules())
	require.Equal(t, "Coffee Shop", household.Rules.Payees[0].Name)

	payee, ok := household.Rules.Payees.Match("CFE 123")
	require.True(t, ok)
	require.Equal(t, "Coffee Shop", payee)

	business, ok := settings.Budget("Business")
	require.True(t, ok)
	require.Equal(t, 30, business.LookbackDays)
	require.False(t, business.HasRules())
	require.NoError(t, business.CheckAccounts())

	_, ok = settings.Budget("Missing")
	require.False(t, ok)
}

func TestParseBudgetsDefaults(t *testing.T) {
	settings, err := ParseBudgets([]byte("budgets:\n  - name: Solo\n"))
	require.NoError(t, err)

	require.Equal(t, identity.SchemeContentHash, settings.Scheme)
	require.Equal(t, reconcile.OrphanPolicy{Enabled: true, FlagColor: "red"}, settings.Orphans)
	require.Zero(t, settings.Interval)
	require.Equal(t, 1, settings.Concurrency)
	require.Equal(t, DefaultLookbackDays, settings.Budgets[0].LookbackDays)

	err = settings.Budgets[0].CheckAccounts()
	require.True(t, errors.Is(err, ErrConfigurationMissing))

	settings, err = ParseBudgets([]byte("budgets:\n  - name: Solo\n    payees:\n      Cafe: [CFE]\n"))
	require.NoError(t, err)
	require.NoError(t, settings.Budgets[0].CheckAccounts())
}

func TestParseBudgetsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown scheme", "identity_scheme: sha1\nbudgets: [{name: A}]"},
		{"unknown policy", "orphan_policy: maybe\nbudgets: [{name: A}]"},
		{"bad color", "orphan_flag_color: pink\nbudgets: [{name: A}]"},
		{"negative lookback", "lookback_days: -1\nbudgets: [{name: A}]"},
		{"negative interval", "interval_seconds: -5\nbudgets: [{name: A}]"},
		{"no budgets", "lookback_days: 3"},
		{"unnamed budget", "budgets: [{lookback_days: 3}]"},
		{"duplicate budget", "budgets: [{name: A}, {name: A}]"},
		{"incomplete account", "budgets: [{name: A, accounts: [{note: x}]}]"},
		{"invalid pattern", "budgets:\n  - name: A\n    payees:\n      Bad: [\"(\"]"},
		{"malformed yaml", "budgets: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBudgets([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestLoadBudgets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleBudgets), 0o644))

	settings, err := LoadBudgets(path)
	require.NoError(t, err)
	require.Len(t, settings.Budgets, 2)

	_, err = LoadBudgets(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadBudgetsExample(t *testing.T) {
	settings, err := LoadBudgets(filepath.Join("..", "..", "config", "budgets.yaml"))
	require.NoError(t, err)
	require.Equal(t, 2, settings.Concurrency)
	require.Equal(t, 5*time.Minute, settings.Interval)

	household, ok := settings.Budget("Household")
	require.True(t, ok)
	require.True(t, household.HasRules())
	require.Equal(t, DefaultLookbackDays, household.LookbackDays)

	business, ok := settings.Budget("Business")
	require.True(t, ok)
	require.False(t, business.HasRules())
	require.Equal(t, 14, business.LookbackDays)
}

func TestLoad(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("YNAB_ACCESS_TOKEN=token-from-file\nSBANKEN_CUSTOMER_ID=12345678901\n"), 0o600))

	t.Setenv("YNAB_ACCESS_TOKEN", "")
	t.Setenv("SBANKEN_CUSTOMER_ID", "")
	t.Setenv("SBANKEN_CLIENT_ID", "client")
	t.Setenv("YNAB_API_URL", "")
	t.Setenv("DEBUG", "true")
	// godotenv does not override variables already present in the environment.
	require.NoError(t, os.Unsetenv("YNAB_ACCESS_TOKEN"))
	require.NoError(t, os.Unsetenv("SBANKEN_CUSTOMER_ID"))

	cfg, err := Load(envPath)
	require.NoError(t, err)
	require.Equal(t, "token-from-file", cfg.Ynab.AccessToken)
	require.Equal(t, ynab.DefaultAPIURL, cfg.Ynab.APIURL)
	require.Equal(t, "12345678901", cfg.Sbanken.CustomerID)
	require.Equal(t, "client", cfg.Sbanken.ClientID)
	require.Equal(t, "./data", cfg.Paths.DataDir)
	require.True(t, cfg.Debug)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Ynab: YnabConfig{AccessToken: "t"}, Sbanken: SbankenConfig{ClientID: "c"}}

	require.NoError(t, cfg.Validate([]string{"ynab", "accessToken"}, []string{"sbanken", "clientId"}))

	err := cfg.Validate(
		[]string{"ynab", "accessToken"},
		[]string{"sbanken", "clientSecret"},
		[]string{"sbanken", "customerId"},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "sbanken.clientSecret")
	require.Contains(t, err.Error(), "sbanken.customerId")
	require.NotContains(t, err.Error(), "ynab.accessToken")
}
