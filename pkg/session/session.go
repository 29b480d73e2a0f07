// Package session wires a loaded graph to the event bus: filter events
// mutate the visibility engine, search queries resolve to highlights,
// and playback requests spin up controller sessions.
//
// All mutation flows through the bus's single dispatch goroutine, so
// filter changes and playback control arrive in FIFO order. Static mask
// changes during an active playback only update the masks; the combined
// buffer is recomputed from them as soon as the playback session ends,
// never during it, so the cumulative reveal is not clobbered mid-flight.
package session

import (
	"fmt"
	"os"
	"time"

	"github.com/vanderheijden86/citescope/pkg/config"
	"github.com/vanderheijden86/citescope/pkg/debug"
	"github.com/vanderheijden86/citescope/pkg/events"
	"github.com/vanderheijden86/citescope/pkg/playback"
	"github.com/vanderheijden86/citescope/pkg/search"
	"github.com/vanderheijden86/citescope/pkg/store"
	"github.com/vanderheijden86/citescope/pkg/temporal"
	"github.com/vanderheijden86/citescope/pkg/visibility"
)

// Session owns the per-dataset object graph for one loaded store.
type Session struct {
	cfg      config.Config
	store    *store.Store
	index    *temporal.Index
	engine   *visibility.Engine
	searcher *search.Searcher
	bus      *events.Bus

	controller *playback.Controller

	// pendingRecompute records that static filters changed while playback
	// was running; applied when the session finishes.
	pendingRecompute bool

	unsubscribe func()
}

// New builds a session over a loaded store: temporal index, visibility
// engine bound to the store, searcher and playback controller, all
// subscribed to the bus.
func New(s *store.Store, cfg config.Config, bus *events.Bus) *Session {
	engine := visibility.New()
	engine.Bind(s)

	index := temporal.Build(s, cfg.Temporal.StartYear, cfg.Temporal.EndYear)

	sess := &Session{
		cfg:      cfg,
		store:    s,
		index:    index,
		engine:   engine,
		searcher: search.New(s),
		bus:      bus,
	}
	sess.controller = playback.New(engine, index, bus,
		time.Duration(cfg.Playback.StepDelayMs)*time.Millisecond)
	sess.unsubscribe = bus.Subscribe(sess.handle)
	return sess
}

// Engine exposes the visibility engine (read-mostly callers: CLI, tests).
func (s *Session) Engine() *visibility.Engine { return s.engine }

// Index exposes the temporal index.
func (s *Session) Index() *temporal.Index { return s.index }

// Controller exposes the playback controller.
func (s *Session) Controller() *playback.Controller { return s.controller }

// Searcher exposes the query resolver.
func (s *Session) Searcher() *search.Searcher { return s.searcher }

// Close detaches the session from the bus and stops any running playback.
func (s *Session) Close() {
	s.unsubscribe()
	s.controller.Stop()
	s.controller.Wait()
}

// handle runs on the bus dispatch goroutine; one event at a time.
func (s *Session) handle(ev events.Event) {
	switch e := ev.(type) {
	case events.ClusterSelectionChanged:
		s.applyStatic(func() error { return s.engine.SetClusterMask(e.Selected) })

	case events.YearRangeChanged:
		s.applyStatic(func() error { return s.engine.SetYearRange(e.From, e.To) })

	case events.SearchQueryExecuted:
		matched := e.Matched
		if matched == nil && e.Query != "" {
			matched = s.searcher.Query(e.Query)
		}
		if err := s.engine.SetSearchHighlight(matched); err != nil {
			debug.Log("session: search highlight rejected: %v", err)
		}

	case events.PlaybackStartRequested:
		if err := s.controller.Start(e.From, e.To, e.Selected); err != nil {
			debug.Log("session: playback start rejected: %v", err)
		}

	case events.PlaybackStopRequested:
		s.controller.Stop()

	case events.PlaybackFinished:
		if s.pendingRecompute {
			s.pendingRecompute = false
			if err := s.engine.Recompute(); err != nil {
				debug.Log("session: deferred recompute failed: %v", err)
			}
			s.warnIfOversized()
		}
	}
}

// applyStatic updates a mask and recomputes, unless playback is running,
// in which case the recompute is deferred to the session end.
func (s *Session) applyStatic(mutate func() error) {
	if err := mutate(); err != nil {
		debug.Log("session: filter change rejected: %v", err)
		return
	}
	if s.controller.State() == playback.Playing {
		s.pendingRecompute = true
		return
	}
	if err := s.engine.Recompute(); err != nil {
		debug.Log("session: recompute failed: %v", err)
		return
	}
	s.warnIfOversized()
}

func (s *Session) warnIfOversized() {
	threshold := s.cfg.MaxVisibleNodesWarningThreshold
	if threshold <= 0 {
		return
	}
	if visible := s.engine.VisibleNodeCount(); visible > threshold {
		fmt.Fprintf(os.Stderr,
			"warning: %d nodes visible, above the configured threshold of %d; rendering may stutter\n",
			visible, threshold)
	}
}
