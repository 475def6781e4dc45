// Package app wires the ordering core together and exposes the actions a
// view embeds: login, catalog/order refresh, draft assembly and
// submission, and status transitions. Every error is recovered here and
// turned into a return value the view can surface; nothing propagates as
// a fault.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/beanbar-pos/client/internal/cart"
	"github.com/beanbar-pos/client/internal/catalog"
	"github.com/beanbar-pos/client/internal/config"
	"github.com/beanbar-pos/client/internal/gateway"
	"github.com/beanbar-pos/client/internal/notify"
	"github.com/beanbar-pos/client/internal/order"
	"github.com/beanbar-pos/client/internal/realtime"
	"github.com/beanbar-pos/client/internal/session"
	"github.com/beanbar-pos/client/internal/status"
	"github.com/beanbar-pos/client/internal/store"
)

// Errors returned by app actions.
var (
	ErrEmptyDraft       = errors.New("draft order is empty")
	ErrUnresolvedItem   = errors.New("line item does not resolve to a gateway product")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrUnknownOrder     = errors.New("order not found in store")
	ErrNoForwardAction  = errors.New("order has no forward action")
)

// App is one client's ordering core. Each view process (terminal,
// barista queue, pickup board, profile) builds its own App around its own
// store replica; replicas converge only through the gateway and the
// realtime channel.
type App struct {
	Session  *session.Store
	Store    *store.Store
	Cart     *cart.Cart
	Gateway  *gateway.Client
	Channel  *realtime.Channel
	Notifier notify.Notifier

	cfg config.Config
	log zerolog.Logger
}

// New builds a fully wired App. notifier may be nil, in which case
// notifications go to the log.
func New(cfg config.Config, logger zerolog.Logger, notifier notify.Notifier) (*App, error) {
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	sess, err := session.NewStore(cfg.SessionPath, logger)
	if err != nil {
		return nil, err
	}
	if err := sess.Load(); err != nil {
		logger.Warn().Err(err).Msg("could not load persisted session")
	}

	st := store.New(logger)
	gw := gateway.New(cfg.APIBaseURL, cfg.RequestTimeout, sess, logger)
	ch := realtime.New(cfg.WSURL, st, notifier, logger)

	return &App{
		Session:  sess,
		Store:    st,
		Cart:     cart.New(),
		Gateway:  gw,
		Channel:  ch,
		Notifier: notifier,
		cfg:      cfg,
		log:      logger,
	}, nil
}

// Start runs the realtime channel, keyed to the session's credential
// signal, until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	if a.cfg.WSURL == "" {
		a.log.Warn().Msg("no websocket URL configured, live updates disabled")
		return
	}
	go a.Channel.Run(ctx, a.Session.Watch())
}

// Degraded reports whether live updates are unavailable and views should
// fall back to manual fetch.
func (a *App) Degraded() bool {
	return !a.Channel.Connected()
}

// ── Auth ──

// Login authenticates against the gateway, persists the credential, and
// (via the session's change signal) brings the realtime channel up.
func (a *App) Login(ctx context.Context, email, password string) error {
	result, err := a.Gateway.Login(ctx, email, password)
	if err != nil {
		return err
	}
	var profile *session.Profile
	if result.User != nil {
		profile = &session.Profile{
			ID:    result.User.ID,
			Name:  result.User.Name,
			Email: result.User.Email,
			Role:  result.User.Role,
		}
	}
	return a.Session.SetCredential(result.Token, profile)
}

// Logout drops the credential; the realtime channel tears down on the
// resulting signal.
func (a *App) Logout() error {
	return a.Session.Clear()
}

// ── Catalog ──

// RefreshCatalog fetches the product list. A failed or empty fetch falls
// back to the built-in default menu so the terminal stays usable; the
// fetch error is still returned for the view to surface.
func (a *App) RefreshCatalog(ctx context.Context) error {
	products, err := a.Gateway.ListProducts(ctx)
	if err != nil {
		a.Store.UpsertCatalog(nil)
		return err
	}
	a.Store.UpsertCatalog(catalog.FromProducts(products))
	return nil
}

// CreateProduct forwards an admin catalog addition and refreshes.
func (a *App) CreateProduct(ctx context.Context, input gateway.ProductInput) error {
	if _, err := a.Gateway.CreateProduct(ctx, input); err != nil {
		return err
	}
	return a.RefreshCatalog(ctx)
}

// UpdateProduct forwards an admin catalog update and refreshes.
func (a *App) UpdateProduct(ctx context.Context, id int64, input gateway.ProductInput) error {
	if _, err := a.Gateway.UpdateProduct(ctx, id, input); err != nil {
		return err
	}
	return a.RefreshCatalog(ctx)
}

// DeleteProduct forwards an admin catalog removal and refreshes.
func (a *App) DeleteProduct(ctx context.Context, id int64) error {
	if err := a.Gateway.DeleteProduct(ctx, id); err != nil {
		return err
	}
	return a.RefreshCatalog(ctx)
}

// ── Orders ──

// RefreshOrders fetches every visible order into the store. The fetch is
// sequence-guarded: a response that raced a confirmed local mutation is
// discarded and retried once.
func (a *App) RefreshOrders(ctx context.Context) error {
	return a.refreshOrders(ctx, a.Gateway.ListOrders)
}

// RefreshMyOrders fetches only the session user's orders (profile view).
func (a *App) RefreshMyOrders(ctx context.Context) error {
	return a.refreshOrders(ctx, a.Gateway.ListMyOrders)
}

func (a *App) refreshOrders(ctx context.Context, fetch func(context.Context) ([]gateway.Order, error)) error {
	for attempt := 0; attempt < 2; attempt++ {
		begun := a.Store.BeginFetch()
		rows, err := fetch(ctx)
		if err != nil {
			return err
		}
		if a.Store.SetOrdersAt(begun, order.FromGatewayList(rows)) {
			return nil
		}
	}
	return fmt.Errorf("order fetch kept racing local mutations")
}

// ── Draft cart ──

// AddToCart validates a configured item against the catalog and merges
// it into the draft.
func (a *App) AddToCart(menuItemID string, selected map[string]string, qty int) (cart.LineItem, error) {
	item, ok := a.Store.MenuItemByID(menuItemID)
	if !ok {
		return cart.LineItem{}, fmt.Errorf("%w: %q", ErrMenuItemNotFound, menuItemID)
	}
	if err := item.ValidateSelection(selected); err != nil {
		return cart.LineItem{}, err
	}
	return a.Cart.Add(menuItemID, selected, qty)
}

// CartTotal prices the draft against the current catalog.
func (a *App) CartTotal() decimal.Decimal {
	return a.Cart.Total(a.Store.PriceFor)
}

// SubmitDraft turns the draft into a persisted order. Every line must
// resolve to a gateway product id before any network call; on rejection
// or gateway failure the cart is left untouched. On success the cart is
// cleared and the order list refreshed.
func (a *App) SubmitDraft(ctx context.Context) (order.Order, error) {
	lines := a.Cart.Items()
	if len(lines) == 0 {
		return order.Order{}, ErrEmptyDraft
	}

	inputs := make([]gateway.OrderItemInput, len(lines))
	for i, li := range lines {
		item, ok := a.Store.MenuItemByID(li.MenuItemID)
		if !ok || item.BackendID == nil {
			return order.Order{}, fmt.Errorf("%w: %q", ErrUnresolvedItem, li.MenuItemID)
		}
		inputs[i] = gateway.OrderItemInput{
			ProductItemID: *item.BackendID,
			Quantity:      li.Quantity,
		}
	}

	created, err := a.Gateway.CreateOrder(ctx, inputs)
	if err != nil {
		return order.Order{}, err
	}

	a.Cart.Clear()
	if err := a.RefreshOrders(ctx); err != nil {
		a.log.Warn().Err(err).Msg("order list refresh after submit failed")
	}
	return order.FromGateway(created), nil
}

// ── Status transitions ──

// ChangeStatus runs the two-phase status commit: validate the
// action+role combination, ask the gateway, and only on a 2xx apply the
// change locally. After confirmation the transition is also emitted over
// the realtime channel for low-latency propagation, best effort.
func (a *App) ChangeStatus(ctx context.Context, orderID int64, next string) error {
	current, ok := a.Store.OrderByID(orderID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOrder, orderID)
	}
	if err := status.CanTrigger(a.Session.Role(), current.Status, next); err != nil {
		return err
	}

	if err := a.Gateway.UpdateOrderStatus(ctx, orderID, next); err != nil {
		return err
	}

	a.Store.ApplyStatusUpdate(orderID, next)
	if err := a.Channel.EmitStatusUpdate(orderID, next); err != nil &&
		!errors.Is(err, realtime.ErrNotConnected) {
		a.log.Debug().Err(err).Msg("realtime status emit skipped")
	}
	return nil
}

// AdvanceOrder moves an order one step along the pipeline using the
// single forward action defined for its current status.
func (a *App) AdvanceOrder(ctx context.Context, orderID int64) error {
	current, ok := a.Store.OrderByID(orderID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOrder, orderID)
	}
	next, _, ok := status.NextAction(current.Status)
	if !ok {
		return fmt.Errorf("%w: status %s", ErrNoForwardAction, current.Status)
	}
	return a.ChangeStatus(ctx, orderID, next)
}
