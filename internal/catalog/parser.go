package catalog

// Package catalog provides catalog.yaml parsing functionality.

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type Document struct {
	Store    StoreConfig     `yaml:"store"`
	Products []ProductConfig `yaml:"products"`
	Kits     []KitConfig     `yaml:"kits"`
}

type StoreConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

type ProductConfig struct {
	ID             int    `yaml:"id"`
	Name           string `yaml:"name"`
	Unit           string `yaml:"unit"`
	Category       string `yaml:"category"`
	Subcategory    string `yaml:"subcategory"`
	UnitPrice      int    `yaml:"unit_price"`
	ReferencePrice int    `yaml:"reference_price"`
}

type KitConfig struct {
	ID             int             `yaml:"id"`
	Name           string          `yaml:"name"`
	Description    string          `yaml:"description"`
	UnitPrice      int             `yaml:"unit_price"`
	ReferencePrice int             `yaml:"reference_price"`
	Items          []KitItemConfig `yaml:"items"`
}

type KitItemConfig struct {
	ProductID int `yaml:"product_id"`
	Quantity  int `yaml:"quantity"`
}

// Savings is the gap between the reference price and the selling price.
func (p ProductConfig) Savings() int {
	return p.ReferencePrice - p.UnitPrice
}

func (k KitConfig) Savings() int {
	return k.ReferencePrice - k.UnitPrice
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(content []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &doc, nil
}

func (p *Parser) ParseFromString(content string) (*Document, error) {
	return p.Parse([]byte(content))
}
