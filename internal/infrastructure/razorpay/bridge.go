package razorpay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-client/pkg/cache"
)

// EventType names the SDK callback the UI observed.
type EventType string

const (
	EventSuccess EventType = "success"
	EventFailure EventType = "failure"
	EventDismiss EventType = "dismiss"
)

// Event is the UI's report of a checkout outcome.
type Event struct {
	Type        EventType `json:"type"`
	PaymentID   string    `json:"paymentId,omitempty"`
	OrderID     string    `json:"orderId,omitempty"`
	Signature   string    `json:"signature,omitempty"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

var ErrDuplicateEvent = errors.New("payment outcome already reported")

// Bridge is the in-process Checkout used by the local gateway. The browser
// runs the real modal; Open parks the options per receipt and Deliver fires
// the matching callback when the UI posts the outcome back. An outcome that
// arrives before Open is held until Open claims it.
type Bridge struct {
	mu    sync.Mutex
	store cache.CacheService
	ttl   time.Duration
}

func NewBridge(store cache.CacheService, ttl time.Duration) *Bridge {
	return &Bridge{store: store, ttl: ttl}
}

func openKey(receipt string) string  { return "rzp:open:" + receipt }
func eventKey(receipt string) string { return "rzp:event:" + receipt }

func (b *Bridge) Open(_ context.Context, opts Options) error {
	if opts.Receipt == "" {
		return fmt.Errorf("checkout options need a receipt")
	}

	b.mu.Lock()
	if v, ok := b.store.Get(eventKey(opts.Receipt)); ok {
		b.store.Delete(eventKey(opts.Receipt))
		b.mu.Unlock()
		fire(opts, v.(Event))
		return nil
	}
	b.store.Set(openKey(opts.Receipt), opts, b.ttl)
	b.mu.Unlock()
	return nil
}

// Pending returns the parked options for receipt.
func (b *Bridge) Pending(receipt string) (Options, bool) {
	v, ok := b.store.Get(openKey(receipt))
	if !ok {
		return Options{}, false
	}
	return v.(Options), true
}

// Deliver fires the callback parked under receipt.
func (b *Bridge) Deliver(receipt string, ev Event) error {
	switch ev.Type {
	case EventSuccess, EventFailure, EventDismiss:
	default:
		return fmt.Errorf("unknown payment event %q", ev.Type)
	}

	b.mu.Lock()
	v, ok := b.store.Get(openKey(receipt))
	if !ok {
		added := b.store.Add(eventKey(receipt), ev, b.ttl)
		b.mu.Unlock()
		if !added {
			return ErrDuplicateEvent
		}
		return nil
	}
	b.store.Delete(openKey(receipt))
	b.mu.Unlock()

	fire(v.(Options), ev)
	return nil
}

func fire(opts Options, ev Event) {
	switch ev.Type {
	case EventSuccess:
		if opts.Handler != nil {
			opts.Handler(Success{PaymentID: ev.PaymentID, OrderID: ev.OrderID, Signature: ev.Signature})
		}
	case EventFailure:
		if opts.OnFailure != nil {
			opts.OnFailure(Failure{Code: ev.Code, Description: ev.Description, Reason: ev.Reason, PaymentID: ev.PaymentID})
		}
	case EventDismiss:
		if opts.Modal.OnDismiss != nil {
			opts.Modal.OnDismiss()
		}
	}
}

var _ Checkout = (*Bridge)(nil)
