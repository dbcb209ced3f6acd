package cart

import (
	"strings"
	"testing"
)

func TestAddIncrementsQuantity(t *testing.T) {
	t.Parallel()

	ledger := New()

	event := ledger.Add(7, "Tata Salt 1kg")
	if ledger.Quantity(7) != 1 {
		t.Fatalf("expected quantity 1, got %d", ledger.Quantity(7))
	}
	if !strings.Contains(event.Message, "Tata Salt 1kg") {
		t.Fatalf("unexpected event message: %q", event.Message)
	}

	ledger.Add(7, "Tata Salt 1kg")
	if ledger.Quantity(7) != 2 {
		t.Fatalf("expected quantity 2, got %d", ledger.Quantity(7))
	}
}

func TestRemoveDropsLineAtZero(t *testing.T) {
	t.Parallel()

	ledger := New()
	ledger.Add(3, "Aashirvaad Atta 5kg")
	ledger.Add(3, "Aashirvaad Atta 5kg")

	event := ledger.Remove(3, "Aashirvaad Atta 5kg")
	if ledger.Quantity(3) != 1 {
		t.Fatalf("expected quantity 1, got %d", ledger.Quantity(3))
	}
	if event.Message != "Removed Aashirvaad Atta 5kg from cart" {
		t.Fatalf("unexpected event message: %q", event.Message)
	}
	if event.Quantity != 1 {
		t.Fatalf("expected remaining quantity 1 in event, got %d", event.Quantity)
	}

	event = ledger.Remove(3, "Aashirvaad Atta 5kg")
	if _, ok := ledger[3]; ok {
		t.Fatalf("expected line to be dropped at zero")
	}
	if event.Quantity != 0 {
		t.Fatalf("expected remaining quantity 0 in event, got %d", event.Quantity)
	}
	if !ledger.IsEmpty() {
		t.Fatalf("expected empty ledger")
	}
}

func TestRemoveAbsentProductIsNoOp(t *testing.T) {
	t.Parallel()

	ledger := New()
	event := ledger.Remove(99, "anything")

	if len(ledger) != 0 {
		t.Fatalf("expected no entries, got %d", len(ledger))
	}
	if event.Message != "" {
		t.Fatalf("expected no event for an absent product, got %q", event.Message)
	}
}

func TestTotalItemsSumsQuantities(t *testing.T) {
	t.Parallel()

	ledger := New()
	ledger.Add(1, "a")
	ledger.Add(1, "a")
	ledger.Add(2, "b")

	if got := ledger.TotalItems(); got != 3 {
		t.Fatalf("expected 3 items, got %d", got)
	}
}

func TestEntriesSortedByProductID(t *testing.T) {
	t.Parallel()

	ledger := Ledger{9: 1, 2: 3, 5: 2}

	entries := ledger.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []Entry{{2, 3}, {5, 2}, {9, 1}} {
		if entries[i] != want {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want, entries[i])
		}
	}
}

func TestClearEmptiesLedger(t *testing.T) {
	t.Parallel()

	ledger := Ledger{1: 2, 4: 1}
	event := ledger.Clear()

	if !ledger.IsEmpty() {
		t.Fatalf("expected empty ledger after clear")
	}
	if event.Message != "Cart cleared" {
		t.Fatalf("unexpected event message: %q", event.Message)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	ledger := Ledger{1: 2}
	cloned := ledger.Clone()
	cloned.Add(1, "a")

	if ledger.Quantity(1) != 2 {
		t.Fatalf("clone mutated the original ledger")
	}
}
