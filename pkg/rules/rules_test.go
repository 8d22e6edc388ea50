package rules

import (
	"testing"

	"gopkg.in/yaml.v3"
)

const sampleRules = `
payees:
  Coffee Shop: [Coffee Shop, CFE]
  Cafe: [CFE]
  Grocer: "REMA\\s*1000"
  Bakery:
categories:
  Dining: [Cafe, Coffee Shop]
  Food: Grocer
`

type ruleFile struct {
	Payees     PayeeRules    `yaml:"payees"`
	Categories CategoryRules `yaml:"categories"`
}

func loadSample(t *testing.T) *Set {
	t.Helper()
	var f ruleFile
	if err := yaml.Unmarshal([]byte(sampleRules), &f); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	set, err := NewSet(f.Payees, f.Categories)
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}
	return set
}

func TestDecodeKeepsOrder(t *testing.T) {
	set := loadSample(t)

	names := []string{}
	for _, r := range set.Payees {
		names = append(names, r.Name)
	}
	expected := []string{"Coffee Shop", "Cafe", "Grocer", "Bakery"}
	if len(names) != len(expected) {
		t.Fatalf("decoded %d payees, expected %d", len(names), len(expected))
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("payee[%d] = %q, expected %q", i, names[i], expected[i])
		}
	}

	if len(set.Payees[3].Patterns) != 0 {
		t.Errorf("Bakery patterns = %v, expected none", set.Payees[3].Patterns)
	}
	if got := set.Categories[1].Payees; len(got) != 1 || got[0] != "Grocer" {
		t.Errorf("Food payees = %v, expected [Grocer]", got)
	}
}

func TestMatch(t *testing.T) {
	set := loadSample(t)

	tests := []struct {
		memo     string
		expected string
		ok       bool
	}{
		{"CFE 123", "Coffee Shop", true},
		{"cfe 123", "Coffee Shop", true},
		{"Visa COFFEE SHOP Oslo", "Coffee Shop", true},
		{"REMA 1000 GRUNERLOKKA", "Grocer", true},
		{"rema1000", "Grocer", true},
		{"Bakery on the corner", "Bakery", true},
		{"Unknown store", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.memo, func(t *testing.T) {
			got, ok := set.Payees.Match(tt.memo)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("Match(%q) = (%q, %v), expected (%q, %v)", tt.memo, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestPayeeNameMatchedLiterally(t *testing.T) {
	rules := PayeeRules{{Name: "A.B"}}
	if err := rules.Compile(); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, ok := rules.Match("AXB"); ok {
		t.Error("payee name should not be treated as a regular expression")
	}
	if got, ok := rules.Match("paid a.b today"); !ok || got != "A.B" {
		t.Errorf("Match() = (%q, %v), expected (A.B, true)", got, ok)
	}
}

func TestCategoryFor(t *testing.T) {
	set := loadSample(t)

	tests := []struct {
		payee    string
		expected string
		ok       bool
	}{
		{"Cafe", "Dining", true},
		{"Coffee Shop", "Dining", true},
		{"Grocer", "Food", true},
		{"Bakery", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.payee, func(t *testing.T) {
			got, ok := set.Categories.CategoryFor(tt.payee)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("CategoryFor(%q) = (%q, %v), expected (%q, %v)", tt.payee, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not a mapping", "payees: [a, b]"},
		{"duplicate payee", "payees:\n  A: [x]\n  A: [y]"},
		{"nested mapping", "payees:\n  A: {b: c}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f ruleFile
			if err := yaml.Unmarshal([]byte(tt.doc), &f); err == nil {
				t.Errorf("yaml.Unmarshal(%q) expected error", tt.doc)
			}
		})
	}
}

func TestNewSet(t *testing.T) {
	set, err := NewSet(nil, nil)
	if err != nil || set != nil {
		t.Errorf("NewSet(nil, nil) = (%v, %v), expected (nil, nil)", set, err)
	}

	_, err = NewSet(PayeeRules{{Name: "Bad", Patterns: []string{"("}}}, nil)
	if err == nil {
		t.Error("NewSet() with invalid pattern expected error")
	}
}
