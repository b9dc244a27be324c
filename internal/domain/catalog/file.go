package catalog

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type fileItem struct {
	ID    int    `yaml:"id"`
	Price string `yaml:"price"`
	Name  string `yaml:"name"`
}

type fileCatalog struct {
	Items []fileItem `yaml:"items"`
}

// LoadFile reads a YAML catalog of the form:
//
//	items:
//	  - id: 1
//	    price: "15.00"
//	    name: T-Shirt Black M Size
//
// Prices are strings so they never pass through a binary float.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds a catalog from YAML bytes.
func Parse(raw []byte) (*Catalog, error) {
	var doc fileCatalog
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	items := make([]Item, 0, len(doc.Items))
	for _, fi := range doc.Items {
		price, err := decimal.NewFromString(fi.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidPrice, fi.ID, err)
		}
		items = append(items, Item{ID: fi.ID, UnitPrice: price, Name: fi.Name})
	}
	return New(items...)
}
