package subscription

import (
	"strings"
	"testing"
	"time"

	"github.com/onecrateapp/onecrate/internal/cart"
	"github.com/onecrateapp/onecrate/internal/catalog"
	"github.com/onecrateapp/onecrate/internal/pricing"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	c, err := catalog.New(&catalog.Document{
		Store: catalog.StoreConfig{Name: "Test Store", Currency: "inr"},
		Products: []catalog.ProductConfig{
			{ID: 1, Name: "Atta", Unit: "5 kg", UnitPrice: 313, ReferencePrice: 340},
			{ID: 2, Name: "Salt", Unit: "1 kg", UnitPrice: 29, ReferencePrice: 30},
			{ID: 3, Name: "Oil", Unit: "1 ltr", UnitPrice: 194, ReferencePrice: 220},
		},
		Kits: []catalog.KitConfig{
			{
				ID:             1,
				Name:           "Basic Staples Kit",
				UnitPrice:      499,
				ReferencePrice: 699,
				Items: []catalog.KitItemConfig{
					{ProductID: 1, Quantity: 1},
					{ProductID: 2, Quantity: 2},
					{ProductID: 3, Quantity: 1},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	return c
}

func TestBuildFromCart(t *testing.T) {
	t.Parallel()

	builder := NewBuilder(pricing.NewPricer(1, 500))
	ledger := cart.Ledger{1: 2, 2: 1}

	req, err := builder.BuildFromCart("Monthly Staples", ledger, testCatalog(t))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if req.SubscriptionName != "Monthly Staples" {
		t.Errorf("unexpected name: %q", req.SubscriptionName)
	}
	if len(req.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(req.Items))
	}
	if req.Items[0].ProductID != 1 || req.Items[0].Quantity != 2 || req.Items[0].Price != 313 {
		t.Errorf("unexpected first item: %+v", req.Items[0])
	}
	if req.Subtotal != 2*313+29 {
		t.Errorf("unexpected subtotal: %d", req.Subtotal)
	}
	if req.GrandTotal != req.Subtotal+req.PlatformFee {
		t.Errorf("grand total mismatch: %+v", req)
	}
	if req.TotalSavings != req.TotalMRP-req.Subtotal {
		t.Errorf("savings mismatch: %+v", req)
	}
	if req.CreatedAt.IsZero() {
		t.Error("expected a submission timestamp")
	}
	if since := time.Since(req.CreatedAt); since < 0 || since > time.Minute {
		t.Errorf("submission timestamp not near now: %v", req.CreatedAt)
	}
}

func TestBuildFromCartRequiresName(t *testing.T) {
	t.Parallel()

	builder := NewBuilder(pricing.NewPricer(1, 500))

	_, err := builder.BuildFromCart("   ", cart.Ledger{1: 1}, testCatalog(t))
	if err == nil || !strings.Contains(err.Error(), "subscription name") {
		t.Fatalf("expected name error, got %v", err)
	}
}

func TestBuildFromCartRequiresItems(t *testing.T) {
	t.Parallel()

	builder := NewBuilder(pricing.NewPricer(1, 500))

	_, err := builder.BuildFromCart("Monthly Staples", cart.New(), testCatalog(t))
	if err == nil || !strings.Contains(err.Error(), "cart is empty") {
		t.Fatalf("expected empty cart error, got %v", err)
	}
}

func TestBuildFromCartUnknownProduct(t *testing.T) {
	t.Parallel()

	builder := NewBuilder(pricing.NewPricer(1, 500))

	_, err := builder.BuildFromCart("Monthly Staples", cart.Ledger{99: 1}, testCatalog(t))
	if err == nil {
		t.Fatalf("expected error for unknown product")
	}
}

func TestBuildFromKit(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	kit, _ := cat.Kit(1)

	builder := NewBuilder(pricing.NewPricer(1, 500))

	req, err := builder.BuildFromKit("", kit, cat, 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if req.SubscriptionName != "Basic Staples Kit" {
		t.Errorf("expected kit name as default, got %q", req.SubscriptionName)
	}
	if req.Subtotal != 499 || req.TotalMRP != 699 || req.TotalSavings != 200 {
		t.Errorf("unexpected totals: %+v", req)
	}
	if req.GrandTotal != 500 {
		t.Errorf("expected grand total 500, got %d", req.GrandTotal)
	}
	if req.TotalItems != 4 {
		t.Errorf("expected 4 items, got %d", req.TotalItems)
	}
	if req.CreatedAt.IsZero() {
		t.Error("expected a submission timestamp")
	}

	// 499 split across 3 lines, rounded half up.
	for _, item := range req.Items {
		if item.Price != 166 {
			t.Errorf("expected even split price 166, got %+v", item)
		}
	}
}
