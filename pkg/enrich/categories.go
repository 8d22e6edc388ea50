package enrich

import (
	"log/slog"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
)

// CategoryIndex resolves category names to ledger category ids.
// Names can be given bare ("Dining") or qualified by group ("Food: Dining").
type CategoryIndex struct {
	ids map[string]string
}

// NewCategoryIndex builds an index from the ledger's category tree.
// Hidden and deleted categories are left out. When a bare name occurs in
// several groups the first one wins; the qualified form stays unambiguous.
func NewCategoryIndex(groups []model.CategoryGroup) CategoryIndex {
	ids := make(map[string]string)
	for _, group := range groups {
		if group.Hidden || group.Deleted {
			continue
		}
		for _, category := range group.Categories {
			if category.Hidden || category.Deleted {
				continue
			}
			ids[group.Name+": "+category.Name] = category.ID
			if existing, ok := ids[category.Name]; ok && existing != category.ID {
				slog.Debug("Ambiguous category name, keeping first",
					"category", category.Name,
					"group", group.Name,
				)
				continue
			}
			ids[category.Name] = category.ID
		}
	}
	return CategoryIndex{ids: ids}
}

// Lookup returns the id for a category name.
func (c CategoryIndex) Lookup(name string) (string, bool) {
	id, ok := c.ids[name]
	return id, ok
}

// Len returns the number of indexed names.
func (c CategoryIndex) Len() int {
	return len(c.ids)
}
