// Package tui is the interactive terminal surface for citescope: cluster
// toggles, a year-range filter, free-text search and an animated playback
// progress view, all speaking to the core through the event bus.
//
// The TUI is one consumer of the store's flat buffers, exactly like a GPU
// renderer would be: it reads visibility counts after each event and never
// mutates buffers itself.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/citescope/pkg/events"
	"github.com/vanderheijden86/citescope/pkg/export"
	"github.com/vanderheijden86/citescope/pkg/session"
	"github.com/vanderheijden86/citescope/pkg/stats"
	"github.com/vanderheijden86/citescope/pkg/store"
)

// busMsg wraps a bus event for the bubbletea update loop.
type busMsg struct {
	ev events.Event
}

// DatasetReloadedMsg tells the TUI the watcher replaced the session after
// a dataset change on disk.
type DatasetReloadedMsg struct {
	Session *session.Session
	Store   *store.Store
	Summary stats.Summary
}

type focusArea int

const (
	focusMain focusArea = iota
	focusSearch
)

// Model is the bubbletea model for the playback view.
type Model struct {
	sess    *session.Session
	store   *store.Store
	bus     *events.Bus
	summary stats.Summary

	dataset string // display name of the loaded dataset

	// Subscription bridge: bus events land on this channel and are pumped
	// into the program one at a time.
	busCh       chan events.Event
	unsubscribe func()

	// Filter state mirrored for display; the engine holds the truth.
	selected  map[int]bool
	yearFrom  int
	yearTo    int
	lastQuery string

	// Playback display state.
	playing      bool
	currentYear  int
	visibleNodes int
	visibleEdges int

	progress progress.Model
	search   textinput.Model
	focus    focusArea

	status string
	width  int
	height int
}

// New creates the model over an already-built session.
func New(sess *session.Session, s *store.Store, bus *events.Bus, summary stats.Summary, datasetName string) Model {
	from, to := sess.Index().Span()

	search := textinput.New()
	search.Placeholder = "title or DOI terms"
	search.CharLimit = 120
	search.Width = 42

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 48

	m := Model{
		sess:     sess,
		store:    s,
		bus:      bus,
		summary:  summary,
		dataset:  datasetName,
		selected: map[int]bool{},
		yearFrom: from,
		yearTo:   to,
		progress: prog,
		search:   search,
		status:   "ready",
	}
	m.busCh = make(chan events.Event, 64)
	m.unsubscribe = bus.Subscribe(func(ev events.Event) {
		select {
		case m.busCh <- ev:
		default: // the view can afford to miss a tick; the engine cannot
		}
	})
	return m
}

// Stop detaches the model from the bus.
func (m *Model) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m Model) waitForEvent() tea.Cmd {
	ch := m.busCh
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return busMsg{ev: ev}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(64, max(20, msg.Width-30))
		return m, nil

	case busMsg:
		m.applyEvent(msg.ev)
		return m, m.waitForEvent()

	case DatasetReloadedMsg:
		m.Stop()
		m.sess = msg.Session
		m.store = msg.Store
		m.summary = msg.Summary
		m.selected = map[int]bool{}
		m.yearFrom, m.yearTo = msg.Session.Index().Span()
		m.playing = false
		m.status = "dataset reloaded from disk"
		m.unsubscribe = m.bus.Subscribe(func(ev events.Event) {
			select {
			case m.busCh <- ev:
			default:
			}
		})
		return m, nil

	case tea.KeyMsg:
		if m.focus == focusSearch {
			return m.updateSearch(msg)
		}
		return m.updateMain(msg)
	}
	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.Stop()
		return m, tea.Quit

	case " ", "space":
		if m.playing {
			m.bus.Publish(events.PlaybackStopRequested{})
			m.status = "stopping"
		} else {
			sel := m.selectionOrAll()
			m.bus.Publish(events.PlaybackStartRequested{
				From: m.yearFrom, To: m.yearTo, Selected: sel,
			})
			m.status = fmt.Sprintf("playing %d..%d", m.yearFrom, m.yearTo)
		}
		return m, nil

	case "/":
		m.focus = focusSearch
		m.search.Focus()
		return m, textinput.Blink

	case "[":
		if m.yearFrom > m.summary.MinYear {
			m.yearFrom--
			m.publishYearRange()
		}
		return m, nil
	case "]":
		if m.yearFrom < m.yearTo {
			m.yearFrom++
			m.publishYearRange()
		}
		return m, nil
	case "{":
		if m.yearTo > m.yearFrom {
			m.yearTo--
			m.publishYearRange()
		}
		return m, nil
	case "}":
		if m.yearTo < m.summary.MaxYear {
			m.yearTo++
			m.publishYearRange()
		}
		return m, nil

	case "r":
		m.selected = map[int]bool{}
		m.yearFrom, m.yearTo = m.sess.Index().Span()
		m.lastQuery = ""
		m.bus.Publish(events.ClusterSelectionChanged{Selected: nil})
		m.publishYearRange()
		m.bus.Publish(events.SearchQueryExecuted{Query: ""})
		m.status = "filters reset"
		return m, nil

	case "s":
		path := fmt.Sprintf("citescope-%s.svg", time.Now().Format("20060102-150405"))
		if err := export.SaveSnapshot(m.store, export.SnapshotOptions{Path: path}); err != nil {
			m.status = fmt.Sprintf("snapshot failed: %v", err)
		} else {
			m.status = "snapshot saved to " + path
		}
		return m, nil
	}

	// Digit keys toggle cluster membership in the selection.
	if r := msg.String(); len(r) == 1 && r[0] >= '0' && r[0] <= '9' {
		id := int(r[0] - '0')
		if _, known := m.summary.ClusterSizes[id]; known {
			if m.selected[id] {
				delete(m.selected, id)
			} else {
				m.selected[id] = true
			}
			m.bus.Publish(events.ClusterSelectionChanged{Selected: copyMap(m.selected)})
			m.status = "cluster selection updated"
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.lastQuery = strings.TrimSpace(m.search.Value())
		m.bus.Publish(events.SearchQueryExecuted{Query: m.lastQuery})
		m.focus = focusMain
		m.search.Blur()
		if m.lastQuery == "" {
			m.status = "highlight cleared"
		} else {
			m.status = fmt.Sprintf("highlighting %q", m.lastQuery)
		}
		return m, nil
	case "esc":
		m.focus = focusMain
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// applyEvent folds a bus event into the display state.
func (m *Model) applyEvent(ev events.Event) {
	switch e := ev.(type) {
	case events.YearAdvanced:
		m.playing = true
		m.currentYear = e.Year
		m.visibleNodes = e.VisibleNodes
		m.visibleEdges = e.VisibleEdges

	case events.PlaybackFinished:
		m.playing = false
		m.currentYear = e.LastYear
		if e.Completed {
			m.status = fmt.Sprintf("playback completed at %d", e.LastYear)
		} else {
			m.status = fmt.Sprintf("playback stopped at %d", e.LastYear)
		}

	case events.ClusterSelectionChanged, events.YearRangeChanged, events.SearchQueryExecuted:
		if !m.playing {
			m.visibleNodes = m.sess.Engine().VisibleNodeCount()
		}
	}
}

func (m Model) View() string {
	var b strings.Builder

	title := styleTitle.Render("citescope") + styleLabel.Render("  "+m.dataset)
	b.WriteString(title + "\n\n")

	b.WriteString(styleHeader.Render(fmt.Sprintf("%d nodes, %d edges, %d clusters, years %d..%d",
		m.summary.NodeCount, m.summary.EdgeCount, len(m.summary.ClusterSizes),
		m.summary.MinYear, m.summary.MaxYear)) + "\n\n")

	b.WriteString(styleLabel.Render("clusters  ") + m.clusterLine() + "\n")
	b.WriteString(styleLabel.Render("years     ") +
		styleValue.Render(fmt.Sprintf("%d .. %d", m.yearFrom, m.yearTo)) + "\n")
	if m.lastQuery != "" {
		b.WriteString(styleLabel.Render("highlight ") + styleValue.Render(m.lastQuery) + "\n")
	}
	b.WriteString("\n")

	if m.focus == focusSearch {
		b.WriteString(styleLabel.Render("search: ") + m.search.View() + "\n\n")
	}

	b.WriteString(m.playbackLine() + "\n")
	b.WriteString(styleHeader.Render(fmt.Sprintf("visible: %d nodes, %d edges",
		m.visibleNodes, m.visibleEdges)) + "\n\n")

	b.WriteString(styleStatus.Render(m.status) + "\n")
	b.WriteString(styleHelp.Render(
		"space play/stop · 0-9 toggle cluster · [ ] { } year range · / search · s snapshot · r reset · q quit"))

	return styleFrame.Render(b.String())
}

func (m Model) clusterLine() string {
	ids := make([]int, 0, len(m.summary.ClusterSizes))
	for id := range m.summary.ClusterSizes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		label, ok := m.store.ClusterLabel(id)
		if !ok || label == "" {
			label = fmt.Sprintf("c%d", id)
		}
		chip := fmt.Sprintf("[%d] %s (%d)", id, label, m.summary.ClusterSizes[id])
		if len(m.selected) == 0 || m.selected[id] {
			parts = append(parts, styleClusterOn.Render(chip))
		} else {
			parts = append(parts, styleClusterOff.Render(chip))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "  "))
}

func (m Model) playbackLine() string {
	if !m.playing && m.currentYear == 0 {
		return styleLabel.Render("playback  ") + styleHelp.Render("press space to start")
	}
	span := m.yearTo - m.yearFrom
	ratio := 1.0
	if span > 0 {
		ratio = float64(m.currentYear-m.yearFrom) / float64(span)
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return styleLabel.Render("playback  ") +
		m.progress.ViewAs(ratio) + "  " + styleYear.Render(fmt.Sprintf("%d", m.currentYear))
}

// selectionOrAll returns the explicit selection, or every known cluster
// when nothing is toggled: playback requires a non-empty selection.
func (m Model) selectionOrAll() map[int]bool {
	if len(m.selected) > 0 {
		return copyMap(m.selected)
	}
	all := make(map[int]bool, len(m.summary.ClusterSizes))
	for id := range m.summary.ClusterSizes {
		all[id] = true
	}
	return all
}

func (m Model) publishYearRange() {
	m.bus.Publish(events.YearRangeChanged{From: m.yearFrom, To: m.yearTo})
}

func copyMap(src map[int]bool) map[int]bool {
	dst := make(map[int]bool, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
