// Package cart implements the draft cart: the local, unsaved order one
// operator assembles before submission. It has no network dependency and
// is never shared between operators.
package cart

import (
	"errors"
	"maps"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidQuantity is returned when a line is added with quantity < 1.
var ErrInvalidQuantity = errors.New("quantity must be >= 1")

// LineItem is one entry of the draft. Two lines are equivalent when they
// reference the same menu item with an identical selected-option mapping;
// equivalent adds merge by summing quantity instead of duplicating lines.
type LineItem struct {
	ID         string
	MenuItemID string
	Selected   map[string]string
	Quantity   int
}

// equivalent reports whether an add for (menuItemID, selected) should
// merge into this line.
func (li LineItem) equivalent(menuItemID string, selected map[string]string) bool {
	return li.MenuItemID == menuItemID && maps.Equal(li.Selected, selected)
}

// Cart holds draft line items in insertion order.
type Cart struct {
	items []LineItem
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add appends a line or merges it into an equivalent existing one. On
// merge the existing line keeps its identity and its quantity grows by
// qty; otherwise a new line with a fresh id is appended.
func (c *Cart) Add(menuItemID string, selected map[string]string, qty int) (LineItem, error) {
	if qty < 1 {
		return LineItem{}, ErrInvalidQuantity
	}
	if selected == nil {
		selected = map[string]string{}
	}
	for i := range c.items {
		if c.items[i].equivalent(menuItemID, selected) {
			c.items[i].Quantity += qty
			return c.copyItem(i), nil
		}
	}
	c.items = append(c.items, LineItem{
		ID:         uuid.NewString(),
		MenuItemID: menuItemID,
		Selected:   maps.Clone(selected),
		Quantity:   qty,
	})
	return c.copyItem(len(c.items) - 1), nil
}

// Remove drops the line with the given id. Removing an unknown id is a
// no-op.
func (c *Cart) Remove(lineID string) {
	for i := range c.items {
		if c.items[i].ID == lineID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// Items returns a copy of the cart contents in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	for i := range c.items {
		out[i] = c.copyItem(i)
	}
	return out
}

// Total sums quantity times unit price across all lines. priceFor
// decouples the cart from catalog storage; lines it cannot resolve
// contribute zero.
func (c *Cart) Total(priceFor func(menuItemID string) (decimal.Decimal, bool)) decimal.Decimal {
	total := decimal.Zero
	for _, li := range c.items {
		price, ok := priceFor(li.MenuItemID)
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return total
}

func (c *Cart) copyItem(i int) LineItem {
	li := c.items[i]
	li.Selected = maps.Clone(li.Selected)
	return li
}
