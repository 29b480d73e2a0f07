// Package events carries the typed filter and playback events between
// the user-facing surfaces and the visibility core.
//
// A Bus delivers events to subscribers from a single dispatch goroutine
// in FIFO publish order. No event is dropped: Publish blocks when the
// queue is full rather than discarding. This gives the serialization
// model the core relies on — one mutation stream, ordered by arrival.
package events

import (
	"sync"
)

// Event is implemented by every payload type the bus carries.
type Event interface {
	event()
}

// ClusterSelectionChanged reports a new cluster selection.
// An empty Selected map means "all clusters".
type ClusterSelectionChanged struct {
	Selected map[int]bool
}

// YearRangeChanged reports a new static year range filter.
type YearRangeChanged struct {
	From, To int
}

// SearchQueryExecuted reports the result of a free-text search: the
// matched node buffer indices. An empty query clears the highlight.
type SearchQueryExecuted struct {
	Query   string
	Matched map[int]bool
}

// PlaybackStartRequested asks for an animated reveal over a year range
// restricted to the selected clusters.
type PlaybackStartRequested struct {
	From, To int
	Selected map[int]bool
}

// PlaybackStopRequested asks the running playback session to stop.
type PlaybackStopRequested struct{}

// YearAdvanced is published by playback after each applied tick.
type YearAdvanced struct {
	Year         int
	VisibleNodes int
	VisibleEdges int
}

// PlaybackFinished is published when a session leaves the Playing state.
type PlaybackFinished struct {
	Completed bool // true when the full range was revealed, false on stop
	LastYear  int
}

func (ClusterSelectionChanged) event() {}
func (YearRangeChanged) event()        {}
func (SearchQueryExecuted) event()     {}
func (PlaybackStartRequested) event()  {}
func (PlaybackStopRequested) event()   {}
func (YearAdvanced) event()            {}
func (PlaybackFinished) event()        {}

// Handler consumes events. Handlers run on the dispatch goroutine and
// must not block for long; slow work belongs on the handler's own side.
type Handler func(Event)

// Bus is a typed publish/subscribe channel with FIFO delivery.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]Handler
	nextID int

	queue chan Event
	done  chan struct{}
	wg    sync.WaitGroup
}

// defaultQueueDepth bounds the in-flight event backlog. Publish blocks
// once the backlog is full; events are never dropped.
const defaultQueueDepth = 256

// NewBus creates a bus and starts its dispatch goroutine.
func NewBus() *Bus {
	b := &Bus{
		subs:  make(map[int]Handler),
		queue: make(chan Event, defaultQueueDepth),
		done:  make(chan struct{}),
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case ev := <-b.queue:
			b.deliver(ev)
		case <-b.done:
			// Drain whatever was queued before Close so no event is lost.
			for {
				select {
				case ev := <-b.queue:
					b.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(ev Event) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscribe registers a handler for all events and returns an
// unsubscribe function.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish enqueues an event for FIFO delivery. Blocks if the queue is
// full; publishing on a closed bus is a no-op.
func (b *Bus) Publish(ev Event) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.queue <- ev:
	case <-b.done:
	}
}

// Close stops dispatch after draining queued events.
func (b *Bus) Close() {
	close(b.done)
	b.wg.Wait()
}
