// Package rules provides the ordered payee and category matching rules
// evaluated against transaction memos.
package rules

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// PayeeRule maps a payee name to the memo patterns that identify it.
// The payee name itself is always tried first, matched literally.
type PayeeRule struct {
	Name     string
	Patterns []string

	compiled []*regexp.Regexp
}

// PayeeRules is an ordered rule list. Earlier rules win.
type PayeeRules []PayeeRule

// CategoryRule lists the payees that belong to a category.
type CategoryRule struct {
	Name   string
	Payees []string
}

// CategoryRules is an ordered category list.
type CategoryRules []CategoryRule

// Set is the rule configuration of one budget. It is read-only once
// compiled.
type Set struct {
	Payees     PayeeRules
	Categories CategoryRules
}

// NewSet compiles payee patterns and returns a Set.
// It returns nil when both rule lists are empty.
func NewSet(payees PayeeRules, categories CategoryRules) (*Set, error) {
	if len(payees) == 0 && len(categories) == 0 {
		return nil, nil
	}
	if err := payees.Compile(); err != nil {
		return nil, err
	}
	return &Set{Payees: payees, Categories: categories}, nil
}

// Compile compiles every pattern case-insensitively.
func (p PayeeRules) Compile() error {
	for i := range p {
		rule := &p[i]
		rule.compiled = make([]*regexp.Regexp, 0, len(rule.Patterns)+1)
		rule.compiled = append(rule.compiled, regexp.MustCompile("(?i)"+regexp.QuoteMeta(rule.Name)))
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return fmt.Errorf("invalid pattern %q for payee %q: %w", pattern, rule.Name, err)
			}
			rule.compiled = append(rule.compiled, re)
		}
	}
	return nil
}

// Match returns the first payee whose name or patterns occur in memo.
// An empty memo never matches.
func (p PayeeRules) Match(memo string) (string, bool) {
	if memo == "" {
		return "", false
	}
	for _, rule := range p {
		for _, re := range rule.compiled {
			if re.MatchString(memo) {
				return rule.Name, true
			}
		}
	}
	return "", false
}

// CategoryFor returns the first category that lists payee.
func (c CategoryRules) CategoryFor(payee string) (string, bool) {
	if payee == "" {
		return "", false
	}
	for _, rule := range c {
		for _, name := range rule.Payees {
			if name == payee {
				return rule.Name, true
			}
		}
	}
	return "", false
}

// UnmarshalYAML decodes an ordered mapping of payee name to patterns.
func (p *PayeeRules) UnmarshalYAML(node *yaml.Node) error {
	entries, err := decodeOrdered(node, "payees")
	if err != nil {
		return err
	}
	out := make(PayeeRules, 0, len(entries))
	for _, e := range entries {
		out = append(out, PayeeRule{Name: e.key, Patterns: e.values})
	}
	*p = out
	return nil
}

// UnmarshalYAML decodes an ordered mapping of category name to payee names.
func (c *CategoryRules) UnmarshalYAML(node *yaml.Node) error {
	entries, err := decodeOrdered(node, "categories")
	if err != nil {
		return err
	}
	out := make(CategoryRules, 0, len(entries))
	for _, e := range entries {
		out = append(out, CategoryRule{Name: e.key, Payees: e.values})
	}
	*c = out
	return nil
}

type orderedEntry struct {
	key    string
	values []string
}

// decodeOrdered reads a mapping of string to string-or-list, keeping the
// order in which the keys were written.
func decodeOrdered(node *yaml.Node, section string) ([]orderedEntry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: line %d: expected a mapping", section, node.Line)
	}

	seen := make(map[string]bool)
	var entries []orderedEntry
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", section, keyNode.Line, err)
		}
		if key == "" {
			return nil, fmt.Errorf("%s: line %d: empty name", section, keyNode.Line)
		}
		if seen[key] {
			return nil, fmt.Errorf("%s: line %d: duplicate name %q", section, keyNode.Line, key)
		}
		seen[key] = true

		var values []string
		switch {
		case valueNode.Kind == yaml.ScalarNode && valueNode.Tag == "!!null":
		case valueNode.Kind == yaml.ScalarNode:
			values = []string{valueNode.Value}
		default:
			if err := valueNode.Decode(&values); err != nil {
				return nil, fmt.Errorf("%s: %q: line %d: %w", section, key, valueNode.Line, err)
			}
		}

		entries = append(entries, orderedEntry{key: key, values: values})
	}
	return entries, nil
}
