// Package order holds the client-side model of a persisted order as the
// store, gateway, and realtime channel share it.
package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/beanbar-pos/client/internal/gateway"
)

// LineItem is an immutable snapshot of one ordered product: reference,
// resolved name, and resolved unit price at order time.
type LineItem struct {
	ID        int64
	ProductID *int64
	Name      string
	Quantity  int
	UnitPrice *decimal.Decimal
}

// Order is a persisted, gateway-assigned record moving through the
// fulfillment pipeline. Only Status ever changes after creation, and only
// after gateway confirmation.
type Order struct {
	ID        int64
	Number    int
	UserID    *int64
	Total     *decimal.Decimal
	Status    string
	CreatedAt time.Time
	Items     []LineItem
}

// createdAtFormats are tried in order when parsing gateway timestamps.
var createdAtFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// FromGateway converts a gateway order row into the client model.
func FromGateway(o gateway.Order) Order {
	items := make([]LineItem, len(o.Items))
	for i, it := range o.Items {
		name := ""
		if it.ProductItemName != nil {
			name = *it.ProductItemName
		}
		items[i] = LineItem{
			ID:        it.ID,
			ProductID: it.ProductItemID,
			Name:      name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		}
	}
	return Order{
		ID:        o.ID,
		Number:    o.OrderNumber,
		UserID:    o.UserID,
		Total:     o.Total,
		Status:    o.Status,
		CreatedAt: parseCreatedAt(o.CreatedAt),
		Items:     items,
	}
}

// FromGatewayList converts a full fetch response.
func FromGatewayList(rows []gateway.Order) []Order {
	orders := make([]Order, len(rows))
	for i, row := range rows {
		orders[i] = FromGateway(row)
	}
	return orders
}

func parseCreatedAt(s string) time.Time {
	for _, layout := range createdAtFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
