// Package presence tracks the single live delivery channel of each connected user.
package presence

import (
	"errors"
	"sync"

	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/ws"
	"rvsync/backend/shared/observability"
)

// ErrChannelClosed is returned by a Channel that can no longer accept events
var ErrChannelClosed = errors.New("channel closed")

// ErrChannelFull is returned by a Channel whose outbound buffer is saturated
var ErrChannelFull = errors.New("channel buffer full")

// Channel is one open connection to a client. Send must not block; a non-nil
// error means the event was not accepted.
type Channel interface {
	Send(event ws.Event) error
	Close() error
}

// Directory maps a user id to its current channel.
type Directory struct {
	mu      sync.RWMutex
	entries map[uint]Channel
	closed  bool

	log     *logger.Logger
	metrics *observability.Metrics
}

// NewDirectory creates an empty directory. metrics may be nil.
func NewDirectory(log *logger.Logger, metrics *observability.Metrics) *Directory {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Directory{
		entries: make(map[uint]Channel),
		log:     log.WithComponent("presence"),
		metrics: metrics,
	}
}

// Register makes ch the channel for userID. A previous channel is dropped from
// the directory but left open; its owner is responsible for closing it.
func (d *Directory) Register(userID uint, ch Channel) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		_ = ch.Close()
		return
	}
	_, replaced := d.entries[userID]
	d.entries[userID] = ch
	d.mu.Unlock()

	if !replaced {
		d.metrics.Connected(1)
	}
	d.log.Debug("channel registered", "user_id", userID, "replaced", replaced)
}

// Unregister removes whatever channel userID has
func (d *Directory) Unregister(userID uint) {
	d.mu.Lock()
	_, ok := d.entries[userID]
	delete(d.entries, userID)
	d.mu.Unlock()

	if ok {
		d.metrics.Connected(-1)
	}
}

// UnregisterChannel removes userID only while ch is still its channel, so a
// connection that was replaced cannot evict its successor. Reports whether
// the entry was removed.
func (d *Directory) UnregisterChannel(userID uint, ch Channel) bool {
	d.mu.Lock()
	cur, ok := d.entries[userID]
	if !ok || cur != ch {
		d.mu.Unlock()
		return false
	}
	delete(d.entries, userID)
	d.mu.Unlock()

	d.metrics.Connected(-1)
	return true
}

// SendTo pushes event to userID if connected. An offline user is not an error
// and a failed push is absorbed: the channel is evicted and nothing is returned.
func (d *Directory) SendTo(userID uint, event ws.Event) {
	d.mu.RLock()
	ch, ok := d.entries[userID]
	d.mu.RUnlock()

	if !ok {
		d.metrics.Delivery(observability.DeliveryOffline)
		return
	}
	d.deliver(userID, ch, event)
}

// Broadcast pushes event to every registered channel. Each delivery is
// independent; one failing channel does not stop the rest.
func (d *Directory) Broadcast(event ws.Event) {
	type target struct {
		userID uint
		ch     Channel
	}

	d.mu.RLock()
	targets := make([]target, 0, len(d.entries))
	for id, ch := range d.entries {
		targets = append(targets, target{id, ch})
	}
	d.mu.RUnlock()

	for _, t := range targets {
		d.deliver(t.userID, t.ch, event)
	}
}

func (d *Directory) deliver(userID uint, ch Channel, event ws.Event) {
	err := safeSend(ch, event)
	if err == nil {
		d.metrics.Delivery(observability.DeliveryDelivered)
		return
	}

	d.metrics.Delivery(observability.DeliveryFailed)
	if d.UnregisterChannel(userID, ch) {
		d.metrics.Evicted()
		_ = ch.Close()
		d.log.Warn("evicted stale channel", "user_id", userID, "event", event.EventType(), "error", err.Error())
	}
}

// safeSend turns a panicking channel into an ordinary delivery failure
func safeSend(ch Channel, event ws.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrChannelClosed
		}
	}()
	return ch.Send(event)
}

// Connected reports whether userID has a registered channel
func (d *Directory) Connected(userID uint) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[userID]
	return ok
}

// Count returns the number of registered users
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Close closes every registered channel and empties the directory. Later
// registrations are closed immediately.
func (d *Directory) Close() {
	d.mu.Lock()
	entries := d.entries
	d.entries = make(map[uint]Channel)
	d.closed = true
	d.mu.Unlock()

	for _, ch := range entries {
		_ = ch.Close()
	}
	if n := len(entries); n > 0 {
		d.metrics.Connected(-int64(n))
	}
	d.log.Info("presence directory closed", "channels", len(entries))
}
