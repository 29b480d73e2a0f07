// Package playback drives the animated "time travel" reveal of a graph
// across a year range.
//
// A Controller is created per play session and discarded when the session
// ends. It owns no buffers: each tick pulls the newly revealed entities
// from a temporal cursor and writes them through the visibility engine's
// direct reveal path. The reveal is cumulative history, deliberately
// bypassing the static cluster/year masks.
//
// Stopping does not roll visibility back to the pre-play snapshot: the
// user keeps whatever was revealed and can explore from there.
package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vanderheijden86/citescope/pkg/debug"
	"github.com/vanderheijden86/citescope/pkg/events"
	"github.com/vanderheijden86/citescope/pkg/metrics"
	"github.com/vanderheijden86/citescope/pkg/temporal"
	"github.com/vanderheijden86/citescope/pkg/visibility"
)

// Common errors.
var (
	// ErrNoSelection rejects a start with an empty cluster selection:
	// playing with nothing selected would reveal nothing, which is never
	// what the caller meant. No state changes.
	ErrNoSelection = errors.New("playback requires a non-empty cluster selection")
	// ErrAlreadyPlaying rejects a start while a session is running.
	ErrAlreadyPlaying = errors.New("playback already in progress")
)

// State is the controller's lifecycle state.
type State int

const (
	// Idle means no session has run yet, or the last one was cleared.
	Idle State = iota
	// Playing means ticks are being scheduled.
	Playing
	// Stopped means the user cancelled mid-reveal.
	Stopped
	// Completed means the full range was revealed.
	Completed
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	case Completed:
		return "completed"
	default:
		return "idle"
	}
}

// Controller animates the reveal. Safe for concurrent Start/Stop/State
// calls; buffer mutation itself serializes inside the engine.
type Controller struct {
	engine *visibility.Engine
	index  *temporal.Index
	bus    *events.Bus // optional; nil disables event publishing
	delay  time.Duration

	mu          sync.Mutex
	state       State
	cursor      *temporal.Cursor
	currentYear int
	toYear      int
	selected    map[int]bool
	cancel      context.CancelFunc
	done        chan struct{}

	visibleNodes int
	visibleEdges int
}

// New creates a controller over the given engine and index. A nil bus is
// allowed; events are then not published.
func New(engine *visibility.Engine, index *temporal.Index, bus *events.Bus, stepDelay time.Duration) *Controller {
	if stepDelay <= 0 {
		stepDelay = 100 * time.Millisecond
	}
	return &Controller{
		engine: engine,
		index:  index,
		bus:    bus,
		delay:  stepDelay,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentYear returns the next year a tick will reveal.
func (c *Controller) CurrentYear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentYear
}

// Start begins a session revealing [fromYear, toYear] restricted to the
// selected clusters. Rejected with ErrAlreadyPlaying while Playing and
// with ErrNoSelection when no clusters are given; a reversed year pair is
// swapped. Visibility resets to all-hidden before the first tick.
func (c *Controller) Start(fromYear, toYear int, selected map[int]bool) error {
	if len(selected) == 0 {
		return ErrNoSelection
	}

	c.mu.Lock()
	if c.state == Playing {
		c.mu.Unlock()
		return ErrAlreadyPlaying
	}
	if fromYear > toYear {
		fromYear, toYear = toYear, fromYear
	}

	if err := c.engine.HideAll(); err != nil {
		c.mu.Unlock()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.state = Playing
	c.cursor = c.index.NewCursor()
	c.currentYear = fromYear
	c.toYear = toYear
	c.selected = selected
	c.cancel = cancel
	c.done = make(chan struct{})
	c.visibleNodes = 0
	c.visibleEdges = 0
	done := c.done
	c.mu.Unlock()

	debug.Log("playback: start %d..%d over %d clusters", fromYear, toYear, len(selected))

	go c.run(ctx, done)
	return nil
}

// run paces the session: one Step per delay interval until the range is
// exhausted or the context aborts. Cancellation is checked before each
// tick's mutation; a tick already under way finishes its write first.
func (c *Controller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.delay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.finish(Stopped)
			return
		case <-ticker.C:
			more, err := c.Step(ctx)
			if err != nil {
				debug.Log("playback: tick failed: %v", err)
				c.finish(Stopped)
				return
			}
			if !more {
				if ctx.Err() != nil {
					c.finish(Stopped)
				} else {
					c.finish(Completed)
				}
				return
			}
		}
	}
}

// Step applies one tick: reveal everything newly eligible up to the
// current year for the selected clusters, publish the year event and
// advance. Returns false when the range is exhausted. The abort check
// happens before the buffer mutation, never inside it.
func (c *Controller) Step(ctx context.Context) (more bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, nil
	}
	defer metrics.Timer(metrics.PlaybackTick)()

	c.mu.Lock()
	if c.state != Playing {
		c.mu.Unlock()
		return false, nil
	}
	year := c.currentYear
	cursor := c.cursor
	selected := c.selected
	c.mu.Unlock()

	newNodes, newEdges := cursor.Advance(year)
	nodes := c.filterNodes(newNodes, selected)
	edges := filterEdges(newEdges, selected)

	shownEdges, err := c.engine.Reveal(nodes, edges)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.visibleNodes += len(nodes)
	c.visibleEdges += shownEdges
	c.currentYear++
	visibleNodes, visibleEdges := c.visibleNodes, c.visibleEdges
	more = c.currentYear <= c.toYear
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.Publish(events.YearAdvanced{
			Year:         year,
			VisibleNodes: visibleNodes,
			VisibleEdges: visibleEdges,
		})
	}
	return more, nil
}

// filterNodes keeps the buffer indices whose cluster is selected.
func (c *Controller) filterNodes(indices []int, selected map[int]bool) []int {
	s := c.engine.Store()
	if s == nil {
		return nil
	}
	kept := indices[:0:0]
	for _, idx := range indices {
		if selected[s.Node(idx).ClusterID] {
			kept = append(kept, idx)
		}
	}
	return kept
}

// filterEdges keeps edges with both endpoint clusters selected.
func filterEdges(refs []temporal.EdgeRef, selected map[int]bool) []temporal.EdgeRef {
	kept := refs[:0:0]
	for _, ref := range refs {
		if selected[ref.SourceCluster] && selected[ref.TargetCluster] {
			kept = append(kept, ref)
		}
	}
	return kept
}

// Stop cancels a running session. Visibility stays as it was at the
// moment of the last completed tick. Stopping a non-playing controller
// is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != Playing {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.mu.Unlock()
	cancel()
}

// Wait blocks until the running session's goroutine exits. Returns
// immediately when no session is running.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Controller) finish(terminal State) {
	c.mu.Lock()
	if c.state != Playing {
		c.mu.Unlock()
		return
	}
	c.state = terminal
	lastYear := c.currentYear - 1
	c.mu.Unlock()

	debug.Log("playback: %s at year %d", terminal, lastYear)
	if c.bus != nil {
		c.bus.Publish(events.PlaybackFinished{
			Completed: terminal == Completed,
			LastYear:  lastYear,
		})
	}
}
