package catalog

// Package catalog provides catalog document validation.

import (
	"fmt"
	"strings"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(doc *Document) error {
	if err := v.validateStore(&doc.Store); err != nil {
		return fmt.Errorf("store validation failed: %w", err)
	}

	if len(doc.Products) == 0 {
		return fmt.Errorf("at least one product is required")
	}

	productIDs := make(map[int]bool)
	for i, product := range doc.Products {
		if err := v.validateProduct(&product); err != nil {
			return fmt.Errorf("product %d validation failed: %w", i, err)
		}

		if productIDs[product.ID] {
			return fmt.Errorf("duplicate product ID: %d", product.ID)
		}
		productIDs[product.ID] = true
	}

	kitIDs := make(map[int]bool)
	for i, kit := range doc.Kits {
		if err := v.validateKit(&kit, productIDs); err != nil {
			return fmt.Errorf("kit %d validation failed: %w", i, err)
		}

		if kitIDs[kit.ID] {
			return fmt.Errorf("duplicate kit ID: %d", kit.ID)
		}
		kitIDs[kit.ID] = true
	}

	return nil
}

func (v *Validator) validateStore(store *StoreConfig) error {
	if strings.TrimSpace(store.Name) == "" {
		return fmt.Errorf("store name is required")
	}

	if store.Currency != "inr" {
		return fmt.Errorf("only INR currency is supported")
	}

	return nil
}

func (v *Validator) validateProduct(product *ProductConfig) error {
	if product.ID <= 0 {
		return fmt.Errorf("product ID must be positive")
	}

	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("product name is required")
	}

	if product.UnitPrice <= 0 {
		return fmt.Errorf("product unit price must be positive")
	}

	// Reference prices come from retail listings and are not required
	// to exceed the selling price, only to be present.
	if product.ReferencePrice <= 0 {
		return fmt.Errorf("product reference price must be positive")
	}

	return nil
}

func (v *Validator) validateKit(kit *KitConfig, productIDs map[int]bool) error {
	if kit.ID <= 0 {
		return fmt.Errorf("kit ID must be positive")
	}

	if strings.TrimSpace(kit.Name) == "" {
		return fmt.Errorf("kit name is required")
	}

	if kit.UnitPrice <= 0 {
		return fmt.Errorf("kit unit price must be positive")
	}

	if kit.ReferencePrice <= 0 {
		return fmt.Errorf("kit reference price must be positive")
	}

	if len(kit.Items) == 0 {
		return fmt.Errorf("kit must contain at least one item")
	}

	seen := make(map[int]bool)
	for i, item := range kit.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("item %d quantity must be positive", i)
		}
		if !productIDs[item.ProductID] {
			return fmt.Errorf("item %d references unknown product ID: %d", i, item.ProductID)
		}
		if seen[item.ProductID] {
			return fmt.Errorf("duplicate kit item product ID: %d", item.ProductID)
		}
		seen[item.ProductID] = true
	}

	return nil
}
