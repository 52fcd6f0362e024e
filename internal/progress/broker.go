// Package progress fans sync progress events out to live subscribers, one
// stream per account. The HTTP layer subscribes to feed server-sent events;
// the sync pipeline publishes without knowing who listens.
package progress

import (
	"log"
	"sync"

	syncpkg "github.com/vkarpenko/placesync/internal/sync"
)

// subscriberBuffer bounds how many events a slow subscriber can lag behind
// before events are dropped for it.
const subscriberBuffer = 32

// Broker is an in-process publish/subscribe hub for progress events.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan syncpkg.ProgressEvent]struct{}
}

var _ syncpkg.ProgressPublisher = (*Broker)(nil)

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan syncpkg.ProgressEvent]struct{}),
	}
}

// Publish delivers an event to every subscriber of its account. Delivery is
// non-blocking; subscribers that cannot keep up lose events rather than
// stalling the sync run.
func (b *Broker) Publish(event syncpkg.ProgressEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[event.AccountID] {
		select {
		case ch <- event:
		default:
			log.Printf("Progress subscriber for account %s is lagging, dropping event", event.AccountID)
		}
	}
}

// Subscribe registers a listener for one account's events. The returned
// cancel function must be called to release the subscription.
func (b *Broker) Subscribe(accountID string) (<-chan syncpkg.ProgressEvent, func()) {
	ch := make(chan syncpkg.ProgressEvent, subscriberBuffer)

	b.mu.Lock()
	if b.subs[accountID] == nil {
		b.subs[accountID] = make(map[chan syncpkg.ProgressEvent]struct{})
	}
	b.subs[accountID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[accountID]; ok {
			if _, subscribed := set[ch]; subscribed {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(b.subs, accountID)
				}
			}
		}
		b.mu.Unlock()
	}

	return ch, cancel
}

// SubscriberCount reports how many listeners an account currently has.
func (b *Broker) SubscriberCount(accountID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[accountID])
}
