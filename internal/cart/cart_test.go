package cart

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAddMergesEquivalentLines(t *testing.T) {
	c := New()

	first, err := c.Add("latte", map[string]string{"size": "Large"}, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	merged, err := c.Add("latte", map[string]string{"size": "Large"}, 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if c.Len() != 1 {
		t.Fatalf("expected 1 line after merge, got %d", c.Len())
	}
	if merged.ID != first.ID {
		t.Errorf("merge must keep the existing line identity: got %s, want %s", merged.ID, first.ID)
	}
	if merged.Quantity != 3 {
		t.Errorf("expected quantity 3 after merge, got %d", merged.Quantity)
	}
}

func TestAddMergeQuantitySumsAcrossManyAdds(t *testing.T) {
	c := New()
	opts := map[string]string{"size": "Small", "sugar": "None"}

	var firstID string
	total := 0
	for i, qty := range []int{1, 4, 2, 3} {
		li, err := c.Add("americano", opts, qty)
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		if i == 0 {
			firstID = li.ID
		} else if li.ID != firstID {
			t.Fatalf("identity changed on merge %d: got %s, want %s", i, li.ID, firstID)
		}
		total += qty
	}

	if c.Len() != 1 {
		t.Fatalf("expected a single merged line, got %d", c.Len())
	}
	if got := c.Items()[0].Quantity; got != total {
		t.Errorf("expected quantity %d, got %d", total, got)
	}
}

func TestAddKeepsNonEquivalentLinesSeparate(t *testing.T) {
	c := New()

	adds := []struct {
		item string
		opts map[string]string
		qty  int
	}{
		{"latte", map[string]string{"size": "Large"}, 1},
		{"latte", map[string]string{"size": "Small"}, 2},
		{"latte", map[string]string{"size": "Large", "temp": "Iced"}, 1},
		{"mocha", map[string]string{"size": "Large"}, 3},
	}
	for i, a := range adds {
		if _, err := c.Add(a.item, a.opts, a.qty); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	if c.Len() != len(adds) {
		t.Fatalf("expected %d distinct lines, got %d", len(adds), c.Len())
	}
	for i, li := range c.Items() {
		if li.Quantity != adds[i].qty {
			t.Errorf("line %d: expected quantity %d, got %d", i, adds[i].qty, li.Quantity)
		}
	}
}

func TestAddRejectsInvalidQuantity(t *testing.T) {
	c := New()
	for _, qty := range []int{0, -1} {
		if _, err := c.Add("latte", nil, qty); err != ErrInvalidQuantity {
			t.Errorf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
	if c.Len() != 0 {
		t.Errorf("rejected add must not mutate the cart")
	}
}

func TestRemoveUnknownIDIsNoOp(t *testing.T) {
	c := New()
	li, _ := c.Add("latte", map[string]string{"size": "Large"}, 1)

	c.Remove("no-such-line")

	if c.Len() != 1 {
		t.Fatalf("remove of unknown id changed cart size: %d", c.Len())
	}
	if got := c.Items()[0]; got.ID != li.ID || got.Quantity != 1 {
		t.Errorf("remove of unknown id changed cart contents: %+v", got)
	}
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	a, _ := c.Add("latte", nil, 1)
	c.Add("mocha", nil, 2)

	c.Remove(a.ID)
	if c.Len() != 1 {
		t.Fatalf("expected 1 line after remove, got %d", c.Len())
	}
	if c.Items()[0].MenuItemID != "mocha" {
		t.Errorf("removed the wrong line")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cart after clear, got %d lines", c.Len())
	}
}

func TestTotal(t *testing.T) {
	prices := map[string]decimal.Decimal{
		"latte": decimal.NewFromFloat(4.00),
		"mocha": decimal.NewFromFloat(4.30),
	}
	priceFor := func(id string) (decimal.Decimal, bool) {
		p, ok := prices[id]
		return p, ok
	}

	c := New()
	if got := c.Total(priceFor); !got.IsZero() {
		t.Errorf("empty cart total should be 0, got %s", got)
	}

	c.Add("latte", nil, 2)
	c.Add("mocha", nil, 1)
	c.Add("unpriced", nil, 5)

	want := decimal.NewFromFloat(12.30)
	if got := c.Total(priceFor); !got.Equal(want) {
		t.Errorf("expected total %s, got %s", want, got)
	}
}

func TestItemsReturnsCopies(t *testing.T) {
	c := New()
	c.Add("latte", map[string]string{"size": "Large"}, 1)

	items := c.Items()
	items[0].Selected["size"] = "Small"
	items[0].Quantity = 99

	got := c.Items()[0]
	if got.Selected["size"] != "Large" || got.Quantity != 1 {
		t.Errorf("mutating the returned slice must not affect the cart: %+v", got)
	}
}
