// Package realtime maintains the live push connection to the gateway and
// projects inbound order events onto the store. The connection's
// existence is a pure function of "is there currently a credential":
// every credential change tears the channel down and re-evaluates, rather
// than patching an existing connection.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/beanbar-pos/client/internal/notify"
	"github.com/beanbar-pos/client/internal/status"
	"github.com/beanbar-pos/client/internal/store"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Event types on the wire.
const (
	EventReady         = "socket:ready"
	EventOrderCreated  = "order:created"
	EventStatusUpdated = "order:statusUpdated"

	// send-side analog of the REST status endpoint
	eventUpdateStatus = "order:updateStatus"
)

// Errors returned by EmitStatusUpdate.
var (
	ErrNotConnected = errors.New("realtime channel not connected")
	ErrSendFull     = errors.New("realtime send buffer full")
)

// Event is the wire envelope for every channel message.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type readyPayload struct {
	UserID flexID `json:"userId"`
	Role   string `json:"role"`
}

type orderCreatedPayload struct {
	ID     flexID `json:"id"`
	Status string `json:"status"`
}

type statusPayload struct {
	ID     flexID `json:"id"`
	Status string `json:"status"`
}

// Channel owns at most one live connection per session. Handlers for the
// inbound event kinds are fixed at construction.
type Channel struct {
	url      string
	store    *store.Store
	notifier notify.Notifier
	log      zerolog.Logger

	handlers  map[string]func(json.RawMessage)
	outbound  chan Event
	connected atomic.Bool
}

// New creates a channel. wsURL is the gateway's websocket endpoint; the
// bearer token is appended at connect time.
func New(wsURL string, st *store.Store, notifier notify.Notifier, log zerolog.Logger) *Channel {
	c := &Channel{
		url:      wsURL,
		store:    st,
		notifier: notifier,
		log:      log,
		outbound: make(chan Event, 16),
	}
	c.handlers = map[string]func(json.RawMessage){
		EventReady:         c.onReady,
		EventOrderCreated:  c.onOrderCreated,
		EventStatusUpdated: c.onStatusUpdated,
	}
	return c
}

// Connected reports live connectivity. False means degraded mode: views
// fall back to manual fetch for consistency.
func (c *Channel) Connected() bool {
	return c.connected.Load()
}

// EmitStatusUpdate queues a status-change event for low-latency
// propagation. Best effort only; the REST call remains the durable
// source of truth.
func (c *Channel) EmitStatusUpdate(orderID int64, newStatus string) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(statusPayload{ID: flexID(orderID), Status: newStatus})
	if err != nil {
		return err
	}
	select {
	case c.outbound <- Event{Type: eventUpdateStatus, Payload: payload}:
		return nil
	default:
		return ErrSendFull
	}
}

// Run drives the connection lifecycle until ctx is cancelled or the
// token feed closes. Each value on tokens is the current credential
// level: "" tears down any connection, anything else (re)connects with
// that credential. No credential means no connection attempt at all.
func (c *Channel) Run(ctx context.Context, tokens <-chan string) {
	var token string
	backoff := initialBackoff

	for {
		if token == "" {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-tokens:
				if !ok {
					return
				}
				token = t
				backoff = initialBackoff
			}
			continue
		}

		conn, err := c.dial(ctx, token)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Msg("realtime connect failed")
			c.notifier.Notify(notify.Notification{
				Level:   notify.LevelError,
				Message: "Could not reach the live update server",
			})
			select {
			case <-ctx.Done():
				return
			case t, ok := <-tokens:
				if !ok {
					return
				}
				token = t
				backoff = initialBackoff
			case <-time.After(backoff):
				backoff = min(backoff*2, maxBackoff)
			}
			continue
		}

		backoff = initialBackoff
		c.connected.Store(true)
		c.notifier.Notify(notify.Notification{Level: notify.LevelSuccess, Message: "Connected to server"})

		reason, newToken := c.serve(ctx, conn, tokens)
		c.connected.Store(false)
		c.notifier.Notify(notify.Notification{Level: notify.LevelWarning, Message: "Disconnected from server"})

		switch reason {
		case reasonShutdown:
			return
		case reasonTokenChange:
			token = newToken
			backoff = initialBackoff
		case reasonConnLost:
			// same credential, redial after backoff
			select {
			case <-ctx.Done():
				return
			case t, ok := <-tokens:
				if !ok {
					return
				}
				token = t
				backoff = initialBackoff
			case <-time.After(backoff):
				backoff = min(backoff*2, maxBackoff)
			}
		}
	}
}

type serveReason int

const (
	reasonShutdown serveReason = iota
	reasonTokenChange
	reasonConnLost
)

// serve pumps one live connection until the context is cancelled, the
// credential level changes, or the connection drops.
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn, tokens <-chan string) (serveReason, string) {
	defer conn.Close()

	events := make(chan Event, 16)
	readErr := make(chan error, 1)
	quit := make(chan struct{})
	defer close(quit)
	go c.readPump(conn, events, readErr, quit)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
			return reasonShutdown, ""

		case t, ok := <-tokens:
			if !ok {
				return reasonShutdown, ""
			}
			// level change: tear down and let Run re-evaluate
			return reasonTokenChange, t

		case ev := <-events:
			c.dispatch(ev)

		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("realtime connection lost")
			}
			return reasonConnLost, ""

		case ev := <-c.outbound:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				c.log.Warn().Err(err).Msg("realtime write failed")
				return reasonConnLost, ""
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return reasonConnLost, ""
			}
		}
	}
}

func (c *Channel) dial(ctx context.Context, token string) (*websocket.Conn, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("realtime url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}
	return conn, nil
}

// readPump reads frames until the connection drops, decoding envelopes
// and forwarding them for dispatch. Malformed frames are dropped.
func (c *Channel) readPump(conn *websocket.Conn, events chan<- Event, done chan<- error, quit <-chan struct{}) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			done <- err
			return
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Debug().Err(err).Msg("dropping malformed realtime frame")
			continue
		}
		select {
		case events <- ev:
		case <-quit:
			return
		}
	}
}

func (c *Channel) dispatch(ev Event) {
	handler, ok := c.handlers[ev.Type]
	if !ok {
		c.log.Debug().Str("type", ev.Type).Msg("ignoring unknown event type")
		return
	}
	handler(ev.Payload)
}

func (c *Channel) onReady(raw json.RawMessage) {
	var payload readyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.log.Debug().Err(err).Msg("dropping malformed ready payload")
		return
	}
	c.notifier.Notify(notify.Notification{
		Level:   notify.LevelSuccess,
		Message: fmt.Sprintf("Channel ready (%s)", payload.Role),
	})
}

// onOrderCreated only notifies: the payload is a minimal summary and line
// items are not guaranteed to be present. The store reconciles on the
// next fetch.
func (c *Channel) onOrderCreated(raw json.RawMessage) {
	var payload orderCreatedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.log.Debug().Err(err).Msg("dropping malformed order created payload")
		return
	}
	c.notifier.Notify(notify.Notification{
		Level:   notify.LevelInfo,
		Message: fmt.Sprintf("New order #%d created", int64(payload.ID)),
	})
}

func (c *Channel) onStatusUpdated(raw json.RawMessage) {
	var payload statusPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.log.Debug().Err(err).Msg("dropping malformed status payload")
		return
	}
	if !status.IsValid(payload.Status) {
		c.log.Debug().Str("status", payload.Status).Msg("ignoring unknown status")
		return
	}
	if c.store.ApplyStatusUpdate(int64(payload.ID), payload.Status) {
		c.notifier.Notify(notify.ForStatus(int64(payload.ID), payload.Status))
	}
}
