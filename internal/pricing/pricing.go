// Package pricing computes cart totals, savings, and spend-tier nudges.
package pricing

import (
	"fmt"

	"github.com/onecrateapp/onecrate/internal/cart"
	"github.com/onecrateapp/onecrate/internal/catalog"
)

// Pricer computes order totals from the catalog's selling and reference
// prices. All amounts are whole rupees.
type Pricer struct {
	platformFee   int
	thresholdStep int
}

func NewPricer(platformFee, thresholdStep int) *Pricer {
	return &Pricer{
		platformFee:   platformFee,
		thresholdStep: thresholdStep,
	}
}

// Line is one priced cart entry.
type Line struct {
	ProductID      int    `json:"productId"`
	Name           string `json:"name"`
	Unit           string `json:"unit"`
	Quantity       int    `json:"quantity"`
	UnitPrice      int    `json:"unitPrice"`
	ReferencePrice int    `json:"referencePrice"`
	LineTotal      int    `json:"lineTotal"`
}

// Snapshot is the full priced view of a cart. The platform fee applies
// once per order, so an empty cart's grand total is the fee alone.
type Snapshot struct {
	Lines          []Line `json:"lines"`
	TotalItems     int    `json:"totalItems"`
	Subtotal       int    `json:"subtotal"`
	TotalReference int    `json:"totalReference"`
	TotalSavings   int    `json:"totalSavings"`
	PlatformFee    int    `json:"platformFee"`
	GrandTotal     int    `json:"grandTotal"`
}

// TopUp describes how far the order is from the next spend tier.
type TopUp struct {
	Amount   int `json:"amount"`
	NextTier int `json:"nextTier"`
}

// Snapshot prices every ledger entry against the catalog. An entry
// whose product is no longer in the catalog is an error, not a skip.
func (p *Pricer) Snapshot(ledger cart.Ledger, cat *catalog.Catalog) (Snapshot, error) {
	var snap Snapshot

	for _, entry := range ledger.Entries() {
		product, ok := cat.Product(entry.ProductID)
		if !ok {
			return Snapshot{}, fmt.Errorf("product %d not found in catalog", entry.ProductID)
		}

		line := Line{
			ProductID:      product.ID,
			Name:           product.Name,
			Unit:           product.Unit,
			Quantity:       entry.Quantity,
			UnitPrice:      product.UnitPrice,
			ReferencePrice: product.ReferencePrice,
			LineTotal:      product.UnitPrice * entry.Quantity,
		}

		snap.Lines = append(snap.Lines, line)
		snap.TotalItems += entry.Quantity
		snap.Subtotal += line.LineTotal
		snap.TotalReference += product.ReferencePrice * entry.Quantity
	}

	snap.TotalSavings = snap.TotalReference - snap.Subtotal
	snap.PlatformFee = p.platformFee
	snap.GrandTotal = snap.Subtotal + snap.PlatformFee

	return snap, nil
}

// SuggestedTopUp reports the gap to the next spend tier. No suggestion
// is made for an empty order or one already sitting on a tier boundary.
func (p *Pricer) SuggestedTopUp(grandTotal int) (TopUp, bool) {
	if grandTotal <= 0 || p.thresholdStep <= 0 {
		return TopUp{}, false
	}

	remainder := grandTotal % p.thresholdStep
	if remainder == 0 {
		return TopUp{}, false
	}

	gap := p.thresholdStep - remainder
	return TopUp{
		Amount:   gap,
		NextTier: grandTotal + gap,
	}, true
}

// RoundHalfUp divides amount by parts, rounding halves away from zero.
// Used when spreading a kit price across its items.
func RoundHalfUp(amount, parts int) int {
	if parts <= 0 {
		return 0
	}
	return (amount*2 + parts) / (parts * 2)
}
