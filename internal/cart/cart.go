// Package cart holds the per-session product ledger.
package cart

import (
	"fmt"
	"sort"
)

// Ledger maps product IDs to quantities. A product is present iff its
// quantity is positive.
type Ledger map[int]int

// Entry is a single ledger line, ordered by product ID.
type Entry struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// Event describes a ledger mutation, suitable for user-facing notices.
type Event struct {
	ProductID int    `json:"productId"`
	Quantity  int    `json:"quantity"`
	Message   string `json:"message"`
}

func New() Ledger {
	return make(Ledger)
}

// Add increments the quantity for a product by one.
func (l Ledger) Add(productID int, name string) Event {
	l[productID]++
	return Event{
		ProductID: productID,
		Quantity:  l[productID],
		Message:   fmt.Sprintf("Added %s to cart", name),
	}
}

// Remove decrements the quantity for a product by one and drops the
// line once it reaches zero. Removing an absent product is a no-op and
// yields an empty event.
func (l Ledger) Remove(productID int, name string) Event {
	qty, ok := l[productID]
	if !ok {
		return Event{}
	}

	qty--
	if qty <= 0 {
		qty = 0
		delete(l, productID)
	} else {
		l[productID] = qty
	}

	return Event{
		ProductID: productID,
		Quantity:  qty,
		Message:   fmt.Sprintf("Removed %s from cart", name),
	}
}

// Quantity returns the current quantity for a product, zero if absent.
func (l Ledger) Quantity(productID int) int {
	return l[productID]
}

// Clear empties the ledger.
func (l Ledger) Clear() Event {
	for id := range l {
		delete(l, id)
	}
	return Event{Message: "Cart cleared"}
}

// TotalItems returns the sum of all quantities.
func (l Ledger) TotalItems() int {
	total := 0
	for _, qty := range l {
		total += qty
	}
	return total
}

// IsEmpty reports whether the ledger holds no items.
func (l Ledger) IsEmpty() bool {
	return len(l) == 0
}

// Entries returns the ledger lines sorted by product ID.
func (l Ledger) Entries() []Entry {
	entries := make([]Entry, 0, len(l))
	for id, qty := range l {
		if qty <= 0 {
			continue
		}
		entries = append(entries, Entry{ProductID: id, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ProductID < entries[j].ProductID
	})
	return entries
}

// Clone returns an independent copy of the ledger.
func (l Ledger) Clone() Ledger {
	cloned := make(Ledger, len(l))
	for id, qty := range l {
		cloned[id] = qty
	}
	return cloned
}
