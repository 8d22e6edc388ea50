package identity

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
)

func date(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestContentHashStable(t *testing.T) {
	a := model.BankTransaction{SourceAccountID: "100", OccurredOn: date("2024-01-05"), Amount: -5000, Memo: "CFE 42"}
	b := a
	b.SourceAccountID = "200"
	b.Cleared = model.Cleared

	ha, err := ContentHash(a)
	if err != nil {
		t.Fatalf("ContentHash() error = %v", err)
	}
	hb, err := ContentHash(b)
	if err != nil {
		t.Fatalf("ContentHash() error = %v", err)
	}
	if ha != hb {
		t.Errorf("identical tuples produced %q and %q", ha, hb)
	}

	sum := md5.Sum([]byte("2024-01-05|-5000|CFE 42"))
	if want := hex.EncodeToString(sum[:]); ha != want {
		t.Errorf("ContentHash() = %q, expected %q", ha, want)
	}
}

func TestContentHashChangesWithEachField(t *testing.T) {
	base := model.BankTransaction{OccurredOn: date("2024-01-05"), Amount: -5000, Memo: "CFE 42"}
	baseID, _ := ContentHash(base)

	tests := []struct {
		name   string
		mutate func(*model.BankTransaction)
	}{
		{"date", func(t *model.BankTransaction) { t.OccurredOn = date("2024-01-06") }},
		{"amount", func(t *model.BankTransaction) { t.Amount = -5001 }},
		{"memo", func(t *model.BankTransaction) { t.Memo = "CFE 43" }},
		{"memo removed", func(t *model.BankTransaction) { t.Memo = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := base
			tt.mutate(&txn)
			id, err := ContentHash(txn)
			if err != nil {
				t.Fatalf("ContentHash() error = %v", err)
			}
			if id == baseID {
				t.Errorf("changing %s did not change the import id", tt.name)
			}
		})
	}
}

func TestContentHashFieldBoundaries(t *testing.T) {
	tests := []struct {
		name string
		a, b model.BankTransaction
	}{
		{
			"amount digits moved into memo",
			model.BankTransaction{OccurredOn: date("2024-01-05"), Amount: -1000, Memo: "23 REMA 1000"},
			model.BankTransaction{OccurredOn: date("2024-01-05"), Amount: -10002, Memo: "3 REMA 1000"},
		},
		{
			"empty memo",
			model.BankTransaction{OccurredOn: date("2024-01-05"), Amount: -12, Memo: "3"},
			model.BankTransaction{OccurredOn: date("2024-01-05"), Amount: -123},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ha, err := ContentHash(tt.a)
			if err != nil {
				t.Fatalf("ContentHash() error = %v", err)
			}
			hb, err := ContentHash(tt.b)
			if err != nil {
				t.Fatalf("ContentHash() error = %v", err)
			}
			if ha == hb {
				t.Errorf("distinct transactions share import id %q", ha)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	withID := model.BankTransaction{OccurredOn: date("2024-01-05"), Amount: -5000, Memo: "CFE 42", ExternalID: "tx-991"}
	withoutID := withID
	withoutID.ExternalID = ""
	hash, _ := ContentHash(withoutID)

	tests := []struct {
		name     string
		scheme   Scheme
		txn      model.BankTransaction
		expected string
	}{
		{"hash ignores external id", SchemeContentHash, withID, hash},
		{"hash without external id", SchemeContentHash, withoutID, hash},
		{"bank id passthrough", SchemeBankID, withID, "tx-991"},
		{"bank id falls back to hash", SchemeBankID, withoutID, hash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewResolver(tt.scheme).Resolve(tt.txn)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if id != tt.expected {
				t.Errorf("Resolve() = %q, expected %q", id, tt.expected)
			}
		})
	}
}

func TestResolveMissingFields(t *testing.T) {
	for _, scheme := range []Scheme{SchemeContentHash, SchemeBankID} {
		_, err := NewResolver(scheme).Resolve(model.BankTransaction{Amount: 100})
		if !errors.Is(err, ErrIdentity) {
			t.Errorf("%s: Resolve() error = %v, expected ErrIdentity", scheme, err)
		}
	}
}

func TestParseScheme(t *testing.T) {
	tests := []struct {
		input     string
		expected  Scheme
		expectErr bool
	}{
		{"content_hash", SchemeContentHash, false},
		{"bank_id", SchemeBankID, false},
		{"", SchemeContentHash, false},
		{"sha1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScheme(tt.input)
			if (err != nil) != tt.expectErr {
				t.Fatalf("ParseScheme(%q) error = %v, expectErr = %v", tt.input, err, tt.expectErr)
			}
			if got != tt.expected {
				t.Errorf("ParseScheme(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}

	if SchemeContentHash.StableIdentity() || !SchemeBankID.StableIdentity() {
		t.Error("only bank_id should report a stable identity")
	}
}

func TestIsContentHash(t *testing.T) {
	hash, _ := ContentHash(model.BankTransaction{OccurredOn: date("2024-01-05"), Amount: 1})

	tests := []struct {
		id       string
		expected bool
	}{
		{hash, true},
		{"YNAB:-5000:2024-01-05:1", false},
		{"tx-991", false},
		{"zz" + hash[2:], false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsContentHash(tt.id); got != tt.expected {
			t.Errorf("IsContentHash(%q) = %v, expected %v", tt.id, got, tt.expected)
		}
	}
}
