package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/beanbar-pos/client/internal/enum"
)

// Default returns the built-in menu used when the product fetch fails or
// comes back empty. It keeps the terminal usable offline; its items have
// no backend product id and cannot be submitted as an order.
func Default() []MenuItem {
	sizeOpt := func(id string) OptionSpec {
		return OptionSpec{
			ID:      id,
			Name:    "Size",
			Kind:    enum.OptionKindSize,
			Values:  []string{"Small", "Medium", "Large"},
			Default: "Medium",
		}
	}
	tempOpt := func(id string) OptionSpec {
		return OptionSpec{
			ID:      id,
			Name:    "Temperature",
			Kind:    enum.OptionKindTemperature,
			Values:  []string{"Hot", "Iced"},
			Default: "Hot",
		}
	}
	sugarOpt := func(id string) OptionSpec {
		return OptionSpec{
			ID:      id,
			Name:    "Sugar",
			Kind:    enum.OptionKindSugar,
			Values:  []string{"None", "Less", "Normal", "Extra"},
			Default: "Normal",
		}
	}

	return []MenuItem{
		{
			ID:    "default-espresso",
			Name:  "Espresso",
			Price: decimal.NewFromFloat(2.50),
			Options: []OptionSpec{
				sizeOpt("espresso-size"),
				sugarOpt("espresso-sugar"),
			},
		},
		{
			ID:    "default-americano",
			Name:  "Americano",
			Price: decimal.NewFromFloat(3.00),
			Options: []OptionSpec{
				sizeOpt("americano-size"),
				tempOpt("americano-temp"),
				sugarOpt("americano-sugar"),
			},
		},
		{
			ID:    "default-latte",
			Name:  "Latte",
			Price: decimal.NewFromFloat(4.00),
			Options: []OptionSpec{
				sizeOpt("latte-size"),
				tempOpt("latte-temp"),
				sugarOpt("latte-sugar"),
				{
					ID:     "latte-oat",
					Name:   "Oat Milk",
					Kind:   enum.OptionKindCheckbox,
					Values: []string{"true", "false"},
				},
			},
		},
		{
			ID:    "default-cappuccino",
			Name:  "Cappuccino",
			Price: decimal.NewFromFloat(3.80),
			Options: []OptionSpec{
				sizeOpt("cappuccino-size"),
				sugarOpt("cappuccino-sugar"),
			},
		},
		{
			ID:    "default-mocha",
			Name:  "Mocha",
			Price: decimal.NewFromFloat(4.30),
			Options: []OptionSpec{
				sizeOpt("mocha-size"),
				tempOpt("mocha-temp"),
			},
		},
		{
			ID:    "default-tea",
			Name:  "Black Tea",
			Price: decimal.NewFromFloat(2.80),
			Options: []OptionSpec{
				tempOpt("tea-temp"),
				sugarOpt("tea-sugar"),
			},
		},
	}
}
