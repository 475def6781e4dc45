// Package notify carries transient user-facing notifications out of the
// core. Views plug in their own Notifier; the core decides message text
// and urgency.
package notify

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/beanbar-pos/client/internal/enum"
)

// Level is the urgency of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one user-facing message. Sticky notifications persist
// until dismissed; everything else is transient.
type Notification struct {
	Level   Level
	Message string
	Sticky  bool
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// ForStatus builds the notification for an order status change. A ready
// order is operationally important, so its notification is sticky.
func ForStatus(orderID int64, st string) Notification {
	switch st {
	case enum.OrderStatusPreparing:
		return Notification{
			Level:   LevelInfo,
			Message: fmt.Sprintf("Order #%d is now being prepared", orderID),
		}
	case enum.OrderStatusReady:
		return Notification{
			Level:   LevelSuccess,
			Message: fmt.Sprintf("Order #%d is ready for pickup!", orderID),
			Sticky:  true,
		}
	case enum.OrderStatusCompleted:
		return Notification{
			Level:   LevelSuccess,
			Message: fmt.Sprintf("Order #%d has been completed", orderID),
		}
	}
	return Notification{
		Level:   LevelInfo,
		Message: fmt.Sprintf("Order #%d status updated to %s", orderID, st),
	}
}

// LogNotifier writes notifications to a structured log. Useful for
// headless embeds and as a default sink.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(msg Notification) {
	ev := n.log.Info()
	if msg.Level == LevelError {
		ev = n.log.Error()
	}
	ev.Str("level", string(msg.Level)).Bool("sticky", msg.Sticky).Msg(msg.Message)
}

// ChannelNotifier buffers notifications for a UI to drain. Full buffers
// drop the oldest entry so Notify never blocks the core.
type ChannelNotifier struct {
	ch chan Notification
}

// NewChannelNotifier creates a buffered notifier.
func NewChannelNotifier(size int) *ChannelNotifier {
	if size < 1 {
		size = 16
	}
	return &ChannelNotifier{ch: make(chan Notification, size)}
}

func (n *ChannelNotifier) Notify(msg Notification) {
	for {
		select {
		case n.ch <- msg:
			return
		default:
			select {
			case <-n.ch:
			default:
			}
		}
	}
}

// C is the drain side for the UI.
func (n *ChannelNotifier) C() <-chan Notification {
	return n.ch
}
