package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
)

// accountsCmd represents the accounts command.
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List bank and budget accounts",
	Long: `List Sbanken accounts and the accounts of every YNAB budget.

Use the output to write the accounts section of the budget configuration:
each entry links a YNAB account note to a Sbanken account number.

Example:
  ledger-sync accounts`,
	Run: runAccounts,
}

func runAccounts(cmd *cobra.Command, args []string) {
	cfg := loadConfig(append(bankCredentials, ledgerCredentials...)...)
	ctx := context.Background()

	bankAccounts, err := newBankClient(cfg).ListAccounts(ctx)
	exitOnError(err, "failed to list bank accounts")
	writeBankAccounts(os.Stdout, bankAccounts)

	ledger := newLedgerClient(cfg)
	budgets, err := ledger.ListBudgets(ctx)
	exitOnError(err, "failed to list budgets")

	for _, b := range budgets {
		accounts, err := ledger.ListAccounts(ctx, b.ID)
		exitOnError(err, "failed to list accounts for budget "+b.Name)
		writeLedgerAccounts(os.Stdout, b.Name, accounts)
	}
	fmt.Println()
}

func writeBankAccounts(w io.Writer, accounts []model.BankAccount) {
	fmt.Fprintln(w, "\n=== Sbanken ===")
	for _, a := range accounts {
		fmt.Fprintf(w, "%-14s %-36s %s\n", a.Number, a.ID, a.Name)
	}
}

func writeLedgerAccounts(w io.Writer, budget string, accounts []model.LedgerAccount) {
	fmt.Fprintf(w, "\n=== %s ===\n", budget)
	for _, a := range accounts {
		note := a.Note
		if note == "" {
			note = "(no note)"
		}
		status := ""
		if a.Closed {
			status = " [closed]"
		}
		fmt.Fprintf(w, "%-36s %-30s %s%s\n", a.ID, a.Name, note, status)
	}
}
