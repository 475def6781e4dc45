package gateway

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is a catalog row as the gateway serves it.
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	BasePrice    decimal.Decimal `json:"base_price"`
	ImageURL     string          `json:"image_url"`
	CategoryName string          `json:"category_name"`
	Available    Availability    `json:"available"`
}

// Availability tolerates the gateway's loose typing for the available
// flag: it may arrive as a bool, a 0/1 number, or null (meaning
// available). Resolved once here instead of at every call site.
type Availability struct {
	set   bool
	value bool
}

// Bool reports availability; absent means available.
func (a Availability) Bool() bool {
	if !a.set {
		return true
	}
	return a.value
}

func (a *Availability) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		a.set = false
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		a.set, a.value = true, b
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	a.set, a.value = true, n == 1
	return nil
}

func (a Availability) MarshalJSON() ([]byte, error) {
	if !a.set {
		return []byte("null"), nil
	}
	return json.Marshal(a.value)
}

// ProductInput is the body for creating or updating a catalog row
// (admin-only, request shaping handled here).
type ProductInput struct {
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	BasePrice    decimal.Decimal `json:"base_price"`
	ImageURL     string          `json:"image_url,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	Available    bool            `json:"available"`
}

// Order is a persisted order as the gateway serves it.
type Order struct {
	ID          int64            `json:"id"`
	OrderNumber int              `json:"order_number,omitempty"`
	UserID      *int64           `json:"user_id"`
	Total       *decimal.Decimal `json:"total"`
	Status      string           `json:"status"`
	CreatedAt   string           `json:"created_at"`
	UserName    *string          `json:"user_name,omitempty"`
	UserEmail   *string          `json:"user_email,omitempty"`
	Items       []OrderItem      `json:"items"`
}

// OrderItem is one line of a persisted order. Price and name are resolved
// snapshots; product_item_id may be null for products removed since.
type OrderItem struct {
	ID              int64            `json:"id"`
	OrderID         int64            `json:"order_id"`
	ProductItemID   *int64           `json:"product_item_id"`
	Quantity        int              `json:"quantity"`
	Price           *decimal.Decimal `json:"price"`
	ProductItemName *string          `json:"product_item_name"`
}

// OrderItemInput is one line of an order submission.
type OrderItemInput struct {
	ProductItemID int64 `json:"product_item_id"`
	Quantity      int   `json:"quantity"`
}

type createOrderRequest struct {
	Items []OrderItemInput `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// Profile is the user object optionally returned by login.
type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// loginResponse covers every token shape the gateway is known to return.
// Token extraction checks the four locations in a fixed priority order.
type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	Data        struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
	} `json:"data"`
	User *Profile `json:"user"`
}

func (r loginResponse) token() string {
	switch {
	case r.Token != "":
		return r.Token
	case r.AccessToken != "":
		return r.AccessToken
	case r.Data.Token != "":
		return r.Data.Token
	case r.Data.AccessToken != "":
		return r.Data.AccessToken
	}
	return ""
}

// LoginResult is the extracted outcome of a login call.
type LoginResult struct {
	Token string
	User  *Profile
}
