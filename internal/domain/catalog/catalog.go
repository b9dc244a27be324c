// Package catalog holds the server's authoritative item prices. It is the only
// source of truth for pricing; nothing a caller sends can override it.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateItem = errors.New("catalog: duplicate item id")
	ErrInvalidPrice  = errors.New("catalog: unit price must be positive with at most two decimal places")
	ErrInvalidName   = errors.New("catalog: item name is required")
)

type Item struct {
	ID        int
	UnitPrice decimal.Decimal
	Name      string
}

// Catalog is immutable once built and safe for concurrent readers.
type Catalog struct {
	items map[int]Item
}

func New(items ...Item) (*Catalog, error) {
	byID := make(map[int]Item, len(items))
	for _, it := range items {
		if _, dup := byID[it.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateItem, it.ID)
		}
		if !it.UnitPrice.IsPositive() || !it.UnitPrice.Equal(it.UnitPrice.Round(2)) {
			return nil, fmt.Errorf("%w: item %d has %s", ErrInvalidPrice, it.ID, it.UnitPrice.String())
		}
		if it.Name == "" {
			return nil, fmt.Errorf("%w: item %d", ErrInvalidName, it.ID)
		}
		byID[it.ID] = it
	}
	return &Catalog{items: byID}, nil
}

// Default returns the storefront's built-in items.
func Default() *Catalog {
	c, err := New(
		Item{ID: 1, UnitPrice: decimal.RequireFromString("15.00"), Name: "T-Shirt Black M Size"},
		Item{ID: 2, UnitPrice: decimal.RequireFromString("20.00"), Name: "Jeans Skirt S Size"},
		Item{ID: 3, UnitPrice: decimal.RequireFromString("18.00"), Name: "Cargo Pants Camo L size"},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup fails with a checkout.KindUnknownItem error when id is absent.
func (c *Catalog) Lookup(id int) (Item, error) {
	it, ok := c.items[id]
	if !ok {
		return Item{}, checkout.UnknownItem(id)
	}
	return it, nil
}

func (c *Catalog) Len() int { return len(c.items) }

// Items returns a copy of the catalog ordered by id.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
