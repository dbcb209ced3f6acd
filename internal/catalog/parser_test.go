package catalog

import (
	"testing"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid document",
			yaml: `
store:
  name: "Test Store"
  currency: "inr"
products:
  - id: 1
    name: "Test Atta"
    unit: "5 kg"
    category: kitchen
    subcategory: atta
    unit_price: 313
    reference_price: 340
kits:
  - id: 1
    name: "Test Kit"
    description: "A test kit"
    unit_price: 499
    reference_price: 699
    items:
      - product_id: 1
        quantity: 2
`,
			wantErr: false,
		},
		{
			name:    "invalid yaml",
			yaml:    "invalid: yaml: content:",
			wantErr: true,
		},
	}

	parser := NewParser()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.ParseFromString(tt.yaml)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if doc == nil {
				t.Error("expected document but got nil")
				return
			}

			if doc.Store.Name != "Test Store" {
				t.Errorf("expected store name 'Test Store', got '%s'", doc.Store.Name)
			}

			if len(doc.Products) != 1 {
				t.Errorf("expected 1 product, got %d", len(doc.Products))
			}

			if len(doc.Kits) != 1 || len(doc.Kits[0].Items) != 1 {
				t.Errorf("expected 1 kit with 1 item, got %+v", doc.Kits)
			}
		})
	}
}

func TestProductSavings(t *testing.T) {
	product := ProductConfig{UnitPrice: 313, ReferencePrice: 340}
	if got := product.Savings(); got != 27 {
		t.Errorf("expected savings 27, got %d", got)
	}
}
