// Package catalog holds the menu item model and the built-in fallback
// menu. The catalog is read-only to this client; it is managed by the
// gateway's admin endpoints.
package catalog

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/beanbar-pos/client/internal/enum"
	"github.com/beanbar-pos/client/internal/gateway"
)

// Errors returned by catalog validation.
var (
	ErrNegativePrice  = errors.New("price must be non-negative")
	ErrNoOptionValues = errors.New("option values are required")
	ErrUnknownKind    = errors.New("unknown option kind")
	ErrUnknownOption  = errors.New("selected option does not exist on item")
	ErrBadOptionValue = errors.New("selected value is not permitted for option")
)

// OptionSpec describes one configurable aspect of a menu item, e.g. size
// or sugar level. Values are the permitted selections in display order.
type OptionSpec struct {
	ID           string
	Name         string
	Kind         string
	Values       []string
	Default      string
	DefaultCheck bool
}

// Validate enforces the option invariants: a known kind, and a non-empty
// value list for every kind except checkbox (which is implicitly
// true/false).
func (o OptionSpec) Validate() error {
	switch o.Kind {
	case enum.OptionKindSugar, enum.OptionKindTemperature,
		enum.OptionKindSize, enum.OptionKindCustom:
		if len(o.Values) == 0 {
			return fmt.Errorf("option %q: %w", o.Name, ErrNoOptionValues)
		}
	case enum.OptionKindCheckbox:
		// values may be empty; selection is "true"/"false"
	default:
		return fmt.Errorf("option %q: %w: %q", o.Name, ErrUnknownKind, o.Kind)
	}
	return nil
}

// ResolvedDefault returns the initial selection for this option: the
// declared default when present, otherwise the first permitted value, or
// "false" for an unchecked checkbox.
func (o OptionSpec) ResolvedDefault() string {
	if o.Kind == enum.OptionKindCheckbox {
		if o.DefaultCheck {
			return "true"
		}
		return "false"
	}
	if o.Default != "" {
		return o.Default
	}
	if len(o.Values) > 0 {
		return o.Values[0]
	}
	return ""
}

// MenuItem is one orderable product. BackendID links it to the gateway's
// product row; items from the built-in fallback menu have none and cannot
// be submitted.
type MenuItem struct {
	ID            string
	BackendID     *int64
	Name          string
	SecondaryName string
	Price         decimal.Decimal
	ImageURL      string
	Options       []OptionSpec
}

// Validate checks the item and all of its options.
func (m MenuItem) Validate() error {
	if m.Price.IsNegative() {
		return fmt.Errorf("item %q: %w", m.Name, ErrNegativePrice)
	}
	for _, opt := range m.Options {
		if err := opt.Validate(); err != nil {
			return fmt.Errorf("item %q: %w", m.Name, err)
		}
	}
	return nil
}

// ValidateSelection checks a draft line's selected options against this
// item: every key must name one of the item's options and every value
// must be permitted for it.
func (m MenuItem) ValidateSelection(selected map[string]string) error {
	for optID, value := range selected {
		opt, ok := m.optionByID(optID)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownOption, optID)
		}
		if opt.Kind == enum.OptionKindCheckbox {
			if value != "true" && value != "false" {
				return fmt.Errorf("%w: option %q value %q", ErrBadOptionValue, opt.Name, value)
			}
			continue
		}
		if !contains(opt.Values, value) {
			return fmt.Errorf("%w: option %q value %q", ErrBadOptionValue, opt.Name, value)
		}
	}
	return nil
}

// DefaultSelection seeds a full option map for an order form.
func (m MenuItem) DefaultSelection() map[string]string {
	sel := make(map[string]string, len(m.Options))
	for _, opt := range m.Options {
		sel[opt.ID] = opt.ResolvedDefault()
	}
	return sel
}

func (m MenuItem) optionByID(id string) (OptionSpec, bool) {
	for _, opt := range m.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return OptionSpec{}, false
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// FromProducts converts gateway product rows into menu items, skipping
// rows marked unavailable. Gateway products carry no option specs, so the
// converted items are plain.
func FromProducts(products []gateway.Product) []MenuItem {
	items := make([]MenuItem, 0, len(products))
	for _, p := range products {
		if !p.Available.Bool() {
			continue
		}
		id := p.ID
		items = append(items, MenuItem{
			ID:            strconv.FormatInt(p.ID, 10),
			BackendID:     &id,
			Name:          p.Name,
			SecondaryName: p.CategoryName,
			Price:         p.BasePrice,
			ImageURL:      p.ImageURL,
		})
	}
	return items
}
