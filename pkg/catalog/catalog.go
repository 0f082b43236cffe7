// Package catalog holds the ordered list of categories votes can be cast for.
// The order matters: it is the final tie-break when two categories have equal
// counts and equally new votes in a cell.
package catalog

import (
	"fmt"

	"github.com/kass/go-geo-dominance/pkg/models"
)

// Category is one votable option, e.g. a brewery
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Catalog is an immutable ordered set of categories
type Catalog struct {
	categories []Category
	byID       map[string]int
}

// New validates and wraps categories. IDs must be non-empty and unique.
func New(categories []Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, &models.ConfigError{Field: "categories", Reason: "must not be empty"}
	}

	c := &Catalog{
		categories: make([]Category, len(categories)),
		byID:       make(map[string]int, len(categories)),
	}
	copy(c.categories, categories)

	for i, cat := range c.categories {
		if cat.ID == "" {
			return nil, &models.ConfigError{Field: "categories", Reason: fmt.Sprintf("entry %d has no id", i)}
		}
		if _, dup := c.byID[cat.ID]; dup {
			return nil, &models.ConfigError{Field: "categories", Reason: fmt.Sprintf("duplicate id %q", cat.ID)}
		}
		c.byID[cat.ID] = i
	}
	return c, nil
}

// Default returns the Munich brewery catalog
func Default() *Catalog {
	c, err := New(DefaultCategories())
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCategories lists the built-in breweries in tie-break order
func DefaultCategories() []Category {
	return []Category{
		{ID: "augustiner", Name: "Augustiner", Color: "#C75C3D"},
		{ID: "paulaner", Name: "Paulaner", Color: "#2C3E50"},
		{ID: "hofbraeu", Name: "Hofbräu", Color: "#1F6FEB"},
		{ID: "loewenbraeu", Name: "Löwenbräu", Color: "#F39C12"},
		{ID: "spaten", Name: "Spaten", Color: "#8E44AD"},
		{ID: "hacker", Name: "Hacker-Pschorr", Color: "#27AE60"},
		{ID: "weihenstephan", Name: "Weihenstephaner", Color: "#E74C3C"},
		{ID: "erdinger", Name: "Erdinger", Color: "#34495E"},
		{ID: "tegernseer", Name: "Tegernseer", Color: "#16A085"},
		{ID: "schweiger", Name: "Schweiger", Color: "#D35400"},
	}
}

// IDs returns the category ids in catalog order
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.categories))
	for i, cat := range c.categories {
		ids[i] = cat.ID
	}
	return ids
}

// Categories returns a copy of the categories
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *Catalog) Lookup(id string) (Category, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

func (c *Catalog) Len() int {
	return len(c.categories)
}
