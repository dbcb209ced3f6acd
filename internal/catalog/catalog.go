package catalog

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is a validated, immutable product catalog with indexed lookups.
type Catalog struct {
	store      StoreConfig
	products   []ProductConfig
	kits       []KitConfig
	productIdx map[int]int
	kitIdx     map[int]int
}

// Load reads and validates a catalog document. An empty path loads the
// embedded default catalog.
func Load(path string) (*Catalog, error) {
	content := defaultCatalog
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
		content = data
	}

	doc, err := NewParser().Parse(content)
	if err != nil {
		return nil, err
	}

	return New(doc)
}

// New builds a Catalog from an already parsed document.
func New(doc *Document) (*Catalog, error) {
	if doc == nil {
		return nil, fmt.Errorf("catalog document is required")
	}
	if err := NewValidator().Validate(doc); err != nil {
		return nil, err
	}

	c := &Catalog{
		store:      doc.Store,
		products:   doc.Products,
		kits:       doc.Kits,
		productIdx: make(map[int]int, len(doc.Products)),
		kitIdx:     make(map[int]int, len(doc.Kits)),
	}
	for i, product := range doc.Products {
		c.productIdx[product.ID] = i
	}
	for i, kit := range doc.Kits {
		c.kitIdx[kit.ID] = i
	}

	return c, nil
}

func (c *Catalog) StoreName() string {
	return c.store.Name
}

// Products returns all products in document order.
func (c *Catalog) Products() []ProductConfig {
	return c.products
}

// Product looks up a product by ID.
func (c *Catalog) Product(id int) (ProductConfig, bool) {
	i, ok := c.productIdx[id]
	if !ok {
		return ProductConfig{}, false
	}
	return c.products[i], true
}

// Kits returns all prebuilt kits in document order.
func (c *Catalog) Kits() []KitConfig {
	return c.kits
}

// Kit looks up a kit by ID.
func (c *Catalog) Kit(id int) (KitConfig, bool) {
	i, ok := c.kitIdx[id]
	if !ok {
		return KitConfig{}, false
	}
	return c.kits[i], true
}
