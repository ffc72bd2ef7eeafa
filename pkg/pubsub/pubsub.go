// Package pubsub provides a bounded publish/subscribe primitive used to
// fan status snapshots out to control-socket monitors without letting a
// slow client stall the publisher.
package pubsub

import (
	"log/slog"
	"sync"

	"github.com/clambin/go-common/set"
)

// Publisher fans values of type T out to any number of subscribers, each
// over its own buffered channel. A subscriber that falls behind has its
// oldest unread value dropped rather than blocking Publish, so one slow
// monitor can never stall the control cycle (spec.md §5: "each monitor
// has an independent outbound queue").
type Publisher[T any] struct {
	logger      *slog.Logger
	queueLength int
	lock        sync.RWMutex
	clients     set.Set[chan T]
}

// New returns a Publisher whose per-subscriber channels buffer up to
// queueLength values. queueLength <= 0 is treated as 1.
func New[T any](queueLength int, logger *slog.Logger) *Publisher[T] {
	if queueLength <= 0 {
		queueLength = 1
	}
	return &Publisher[T]{
		logger:      logger,
		queueLength: queueLength,
		clients:     set.New[chan T](),
	}
}

// Subscribe registers a new subscriber and returns its channel.
func (p *Publisher[T]) Subscribe() chan T {
	p.lock.Lock()
	defer p.lock.Unlock()
	ch := make(chan T, p.queueLength)
	p.clients.Add(ch)
	p.logger.Debug("monitor subscribed", slog.Int("subscribers", p.clients.Len()))
	return ch
}

// Unsubscribe removes ch from the subscriber set. Safe to call more than once.
func (p *Publisher[T]) Unsubscribe(ch chan T) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.clients.Remove(ch)
	p.logger.Debug("monitor unsubscribed", slog.Int("subscribers", p.clients.Len()))
}

// Publish sends value to every subscriber. A subscriber whose queue is
// full has its oldest value evicted to make room, so Publish never
// blocks on a slow reader.
func (p *Publisher[T]) Publish(value T) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, ch := range p.clients.List() {
		select {
		case ch <- value:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- value:
			default:
			}
		}
	}
}

// Subscribers returns the current number of registered subscribers.
func (p *Publisher[T]) Subscribers() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.clients.Len()
}
