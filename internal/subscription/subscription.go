// Package subscription builds recurring-order requests from carts and
// prebuilt kits.
package subscription

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/onecrateapp/onecrate/internal/cart"
	"github.com/onecrateapp/onecrate/internal/catalog"
	"github.com/onecrateapp/onecrate/internal/pricing"
)

// Item is a single subscription line as the fulfilment backend expects it.
type Item struct {
	ProductID int    `json:"productId" validate:"gt=0"`
	Name      string `json:"name" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Price     int    `json:"price" validate:"gte=0"`
	MRP       int    `json:"mrp" validate:"gte=0"`
	Unit      string `json:"unit"`
}

// Request is the recurring-order payload sent to the fulfilment backend.
// Item prices are snapshots taken at build time; later catalog changes
// do not affect an already-built request.
type Request struct {
	SubscriptionName string    `json:"subscriptionName" validate:"required"`
	Items            []Item    `json:"items" validate:"required,min=1,dive"`
	TotalItems       int       `json:"totalItems" validate:"gt=0"`
	Subtotal         int       `json:"subtotal" validate:"gt=0"`
	PlatformFee      int       `json:"platformFee" validate:"gte=0"`
	TotalMRP         int       `json:"totalMRP" validate:"gte=0"`
	TotalSavings     int       `json:"totalSavings"`
	GrandTotal       int       `json:"grandTotal" validate:"gt=0"`
	CreatedAt        time.Time `json:"createdAt,omitzero"`
}

// Builder assembles and validates subscription requests.
type Builder struct {
	pricer   *pricing.Pricer
	validate *validator.Validate
}

func NewBuilder(pricer *pricing.Pricer) *Builder {
	return &Builder{
		pricer:   pricer,
		validate: validator.New(),
	}
}

// BuildFromCart prices the ledger and produces a subscription request.
func (b *Builder) BuildFromCart(name string, ledger cart.Ledger, cat *catalog.Catalog) (*Request, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("subscription name is required")
	}
	if ledger.IsEmpty() {
		return nil, fmt.Errorf("cart is empty")
	}

	snap, err := b.pricer.Snapshot(ledger, cat)
	if err != nil {
		return nil, err
	}

	req := &Request{
		SubscriptionName: name,
		TotalItems:       snap.TotalItems,
		Subtotal:         snap.Subtotal,
		PlatformFee:      snap.PlatformFee,
		TotalMRP:         snap.TotalReference,
		TotalSavings:     snap.TotalSavings,
		GrandTotal:       snap.GrandTotal,
		CreatedAt:        time.Now().UTC(),
	}
	for _, line := range snap.Lines {
		req.Items = append(req.Items, Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
			MRP:       line.ReferencePrice,
			Unit:      line.Unit,
		})
	}

	if err := b.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid subscription request: %w", err)
	}
	return req, nil
}

// BuildFromKit produces a subscription request for a prebuilt kit. The
// kit sells at its own bundle price, so per-item prices are an even
// split of the bundle across its lines; the order totals always use
// the bundle figures, not the sum of the split.
func (b *Builder) BuildFromKit(name string, kit catalog.KitConfig, cat *catalog.Catalog, platformFee int) (*Request, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = kit.Name
	}
	if len(kit.Items) == 0 {
		return nil, fmt.Errorf("kit %d has no items", kit.ID)
	}

	perLinePrice := pricing.RoundHalfUp(kit.UnitPrice, len(kit.Items))
	perLineMRP := pricing.RoundHalfUp(kit.ReferencePrice, len(kit.Items))

	req := &Request{
		SubscriptionName: name,
		PlatformFee:      platformFee,
		Subtotal:         kit.UnitPrice,
		TotalMRP:         kit.ReferencePrice,
		TotalSavings:     kit.Savings(),
		GrandTotal:       kit.UnitPrice + platformFee,
		CreatedAt:        time.Now().UTC(),
	}
	for _, item := range kit.Items {
		product, ok := cat.Product(item.ProductID)
		if !ok {
			return nil, fmt.Errorf("kit %d references unknown product %d", kit.ID, item.ProductID)
		}
		req.Items = append(req.Items, Item{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			Price:     perLinePrice,
			MRP:       perLineMRP,
			Unit:      product.Unit,
		})
		req.TotalItems += item.Quantity
	}

	if err := b.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid subscription request: %w", err)
	}
	return req, nil
}
