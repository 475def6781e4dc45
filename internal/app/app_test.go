package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanbar-pos/client/internal/config"
	"github.com/beanbar-pos/client/internal/enum"
	"github.com/beanbar-pos/client/internal/order"
	"github.com/beanbar-pos/client/internal/session"
	"github.com/beanbar-pos/client/internal/status"
)

// fakeBackend speaks just enough of the sync gateway contract for the
// app-level flows, with switches to simulate failures.
type fakeBackend struct {
	*httptest.Server
	requests     atomic.Int64
	failProducts atomic.Bool
	failStatus   atomic.Bool
	createBodies chan []byte
	statusPuts   chan string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		createBodies: make(chan []byte, 4),
		statusPuts:   make(chan string, 4),
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			fb.requests.Add(1)
			next.ServeHTTP(w, req)
		})
	})

	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok-login",
			"user":  map[string]any{"id": 3, "name": "Bea", "email": "bea@example.com", "role": "barista"},
		})
	})
	r.Get("/api/products", func(w http.ResponseWriter, req *http.Request) {
		if fb.failProducts.Load() {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database down"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "name": "Latte", "base_price": "4.00", "category_name": "Coffee", "available": true},
			{"id": 2, "name": "Mocha", "base_price": "4.30", "category_name": "Coffee", "available": true},
		})
	})
	r.Get("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{
				"id": 42, "order_number": 7, "user_id": 3, "total": "8.00",
				"status": "pending", "created_at": "2026-08-30T10:00:00Z",
				"items": []map[string]any{},
			},
		})
	})
	r.Get("/api/orders/me", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{})
	})
	r.Post("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		fb.createBodies <- body
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 99, "status": "pending", "created_at": "2026-08-30T10:05:00Z",
			"items": []map[string]any{},
		})
	})
	r.Put("/api/orders/{id}/status", func(w http.ResponseWriter, req *http.Request) {
		if fb.failStatus.Load() {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "stale transition"})
			return
		}
		var body struct {
			Status string `json:"status"`
		}
		json.NewDecoder(req.Body).Decode(&body)
		fb.statusPuts <- body.Status
		writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
	})

	fb.Server = httptest.NewServer(r)
	t.Cleanup(fb.Close)
	return fb
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func newTestApp(t *testing.T, fb *fakeBackend) *App {
	t.Helper()
	cfg := config.Config{
		APIBaseURL:     fb.URL,
		SessionPath:    filepath.Join(t.TempDir(), "session.json"),
		RequestTimeout: time.Second,
	}
	a, err := New(cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	return a
}

func loginAsBarista(t *testing.T, a *App) {
	t.Helper()
	require.NoError(t, a.Session.SetCredential("tok-test", &session.Profile{
		ID: 3, Name: "Bea", Role: enum.RoleBarista,
	}))
}

func TestLoginPersistsCredentialAndProfile(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)

	require.NoError(t, a.Login(context.Background(), "bea@example.com", "secret"))
	assert.Equal(t, "tok-login", a.Session.Credential())
	assert.Equal(t, enum.RoleBarista, a.Session.Role())
}

func TestRefreshCatalogPopulatesStore(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)

	require.NoError(t, a.RefreshCatalog(context.Background()))
	items := a.Store.MenuItems()
	require.Len(t, items, 2)
	assert.Equal(t, "Latte", items[0].Name)
	require.NotNil(t, items[0].BackendID)
	assert.Equal(t, int64(1), *items[0].BackendID)
}

func TestRefreshCatalogFallsBackToDefaultMenu(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)
	fb.failProducts.Store(true)

	err := a.RefreshCatalog(context.Background())
	require.Error(t, err)

	// the terminal stays usable on the built-in menu
	items := a.Store.MenuItems()
	require.NotEmpty(t, items)
	for _, item := range items {
		assert.Nil(t, item.BackendID, "default menu items cannot be submitted")
	}
}

func TestAddToCartValidatesAgainstCatalog(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)
	require.NoError(t, a.RefreshCatalog(context.Background()))

	_, err := a.AddToCart("no-such-item", nil, 1)
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	_, err = a.AddToCart("1", map[string]string{"size": "venti"}, 1)
	assert.Error(t, err, "selection must match the item's option specs")

	li, err := a.AddToCart("1", nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, li.Quantity)
	assert.Equal(t, "8.00", a.CartTotal().StringFixed(2))
}

func TestSubmitDraftEmptyCart(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)

	_, err := a.SubmitDraft(context.Background())
	assert.ErrorIs(t, err, ErrEmptyDraft)
	assert.Zero(t, fb.requests.Load(), "empty draft must not reach the network")
}

func TestSubmitDraftRejectsUnresolvableItemsBeforeNetwork(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)
	loginAsBarista(t, a)

	// default menu only: nothing resolves to a backend product
	a.Store.UpsertCatalog(nil)
	items := a.Store.MenuItems()
	require.NotEmpty(t, items)
	_, err := a.AddToCart(items[0].ID, items[0].DefaultSelection(), 1)
	require.NoError(t, err)

	before := fb.requests.Load()
	_, err = a.SubmitDraft(context.Background())
	assert.ErrorIs(t, err, ErrUnresolvedItem)
	assert.Equal(t, before, fb.requests.Load(), "rejection happens before any network call")
	assert.Equal(t, 1, a.Cart.Len(), "failed submission leaves the draft intact")
}

func TestSubmitDraftClearsCartAndRefreshes(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)
	loginAsBarista(t, a)
	require.NoError(t, a.RefreshCatalog(context.Background()))

	_, err := a.AddToCart("1", nil, 2)
	require.NoError(t, err)
	_, err = a.AddToCart("2", nil, 1)
	require.NoError(t, err)

	created, err := a.SubmitDraft(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(99), created.ID)
	assert.Zero(t, a.Cart.Len())

	var sent struct {
		Items []struct {
			ProductItemID int64 `json:"product_item_id"`
			Quantity      int   `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(<-fb.createBodies, &sent))
	require.Len(t, sent.Items, 2)
	assert.Equal(t, int64(1), sent.Items[0].ProductItemID)
	assert.Equal(t, 2, sent.Items[0].Quantity)

	// the post-submit refresh landed
	_, ok := a.Store.OrderByID(42)
	assert.True(t, ok)
}

func TestChangeStatusRequiresBaristaRole(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)
	require.NoError(t, a.Session.SetCredential("tok-test", &session.Profile{Role: enum.RoleCustomer}))
	a.Store.SetOrders([]order.Order{{ID: 42, Status: enum.OrderStatusPending}})

	before := fb.requests.Load()
	err := a.ChangeStatus(context.Background(), 42, enum.OrderStatusPreparing)
	assert.ErrorIs(t, err, status.ErrRoleNotAllowed)
	assert.Equal(t, before, fb.requests.Load())

	o, _ := a.Store.OrderByID(42)
	assert.Equal(t, enum.OrderStatusPending, o.Status)
}

func TestChangeStatusTwoPhaseCommit(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)
	loginAsBarista(t, a)
	a.Store.SetOrders([]order.Order{{ID: 42, Status: enum.OrderStatusPending}})

	// gateway rejection leaves the store untouched
	fb.failStatus.Store(true)
	err := a.ChangeStatus(context.Background(), 42, enum.OrderStatusPreparing)
	require.Error(t, err)
	o, _ := a.Store.OrderByID(42)
	assert.Equal(t, enum.OrderStatusPending, o.Status)

	// confirmed transition is applied locally
	fb.failStatus.Store(false)
	require.NoError(t, a.ChangeStatus(context.Background(), 42, enum.OrderStatusPreparing))
	o, _ = a.Store.OrderByID(42)
	assert.Equal(t, enum.OrderStatusPreparing, o.Status)
	assert.Equal(t, enum.OrderStatusPreparing, <-fb.statusPuts)
}

func TestChangeStatusRejectsIllegalTransition(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)
	loginAsBarista(t, a)
	a.Store.SetOrders([]order.Order{{ID: 42, Status: enum.OrderStatusPending}})

	before := fb.requests.Load()
	err := a.ChangeStatus(context.Background(), 42, enum.OrderStatusReady)
	assert.ErrorIs(t, err, status.ErrInvalidTransition)
	assert.Equal(t, before, fb.requests.Load(), "illegal transitions never reach the gateway")
}

func TestChangeStatusUnknownOrder(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)
	loginAsBarista(t, a)

	err := a.ChangeStatus(context.Background(), 7, enum.OrderStatusPreparing)
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestAdvanceOrderWalksThePipeline(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)
	loginAsBarista(t, a)
	a.Store.SetOrders([]order.Order{{ID: 42, Status: enum.OrderStatusPending}})

	for _, want := range []string{
		enum.OrderStatusPreparing,
		enum.OrderStatusReady,
		enum.OrderStatusCompleted,
	} {
		require.NoError(t, a.AdvanceOrder(context.Background(), 42))
		o, _ := a.Store.OrderByID(42)
		assert.Equal(t, want, o.Status)
	}

	err := a.AdvanceOrder(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoForwardAction)
}

func TestRefreshOrders(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)
	loginAsBarista(t, a)

	require.NoError(t, a.RefreshOrders(context.Background()))
	o, ok := a.Store.OrderByID(42)
	require.True(t, ok)
	assert.Equal(t, 7, o.Number)
	assert.Equal(t, enum.OrderStatusPending, o.Status)

	require.NoError(t, a.RefreshMyOrders(context.Background()))
	assert.Empty(t, a.Store.Orders())
}

func TestLogoutDropsCredential(t *testing.T) {
	fb := newFakeBackend(t)
	a := newTestApp(t, fb)
	loginAsBarista(t, a)

	require.NoError(t, a.Logout())
	assert.Empty(t, a.Session.Credential())
	assert.Nil(t, a.Session.User())
}
