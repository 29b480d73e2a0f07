package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/citescope/pkg/config"
	"github.com/vanderheijden86/citescope/pkg/events"
	"github.com/vanderheijden86/citescope/pkg/session"
	"github.com/vanderheijden86/citescope/pkg/stats"
	"github.com/vanderheijden86/citescope/pkg/store"
	"github.com/vanderheijden86/citescope/pkg/testutil"
)

func tuiFixture(t *testing.T) (Model, *events.Bus) {
	t.Helper()
	ds := testutil.ScenarioDataset()
	s, err := store.Load(ds, store.Options{
		NodeFraction: 1, EdgeFraction: 1,
		SizeMin: 1, SizeMax: 5, SizePower: 1,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Temporal.StartYear = 2000
	cfg.Temporal.EndYear = 2020
	cfg.Playback.StepDelayMs = 1

	bus := events.NewBus()
	sess := session.New(s, cfg, bus)
	m := New(sess, s, bus, stats.Compute(s), "scenario.json")
	t.Cleanup(func() {
		m.Stop()
		sess.Close()
		bus.Close()
	})
	return m, bus
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewShowsDatasetSummary(t *testing.T) {
	m, _ := tuiFixture(t)
	view := m.View()
	if !strings.Contains(view, "scenario.json") {
		t.Error("view missing dataset name")
	}
	if !strings.Contains(view, "5 nodes") {
		t.Error("view missing node count")
	}
	if !strings.Contains(view, "2000 .. 2020") {
		t.Errorf("view missing year range:\n%s", view)
	}
}

func TestViewShowsClusterLabels(t *testing.T) {
	ds := testutil.ScenarioDataset()
	delete(ds.ClusterLabels, 1)
	s, err := store.Load(ds, store.Options{
		NodeFraction: 1, EdgeFraction: 1,
		SizeMin: 1, SizeMax: 5, SizePower: 1,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Temporal.StartYear = 2000
	cfg.Temporal.EndYear = 2020

	bus := events.NewBus()
	sess := session.New(s, cfg, bus)
	m := New(sess, s, bus, stats.Compute(s), "scenario.json")
	t.Cleanup(func() {
		m.Stop()
		sess.Close()
		bus.Close()
	})

	view := m.View()
	if !strings.Contains(view, "[0] A") {
		t.Errorf("view missing configured label for cluster 0:\n%s", view)
	}
	if !strings.Contains(view, "[1] c1") {
		t.Errorf("view missing fallback label for cluster 1:\n%s", view)
	}
}

func TestDigitKeyTogglesCluster(t *testing.T) {
	m, _ := tuiFixture(t)

	updated, _ := m.Update(keyRunes("1"))
	m = updated.(Model)
	if !m.selected[1] {
		t.Fatal("cluster 1 not toggled on")
	}
	updated, _ = m.Update(keyRunes("1"))
	m = updated.(Model)
	if m.selected[1] {
		t.Fatal("cluster 1 not toggled off")
	}

	// Unknown cluster ids are ignored.
	updated, _ = m.Update(keyRunes("7"))
	m = updated.(Model)
	if len(m.selected) != 0 {
		t.Errorf("unknown cluster toggled: %v", m.selected)
	}
}

func TestYearRangeKeys(t *testing.T) {
	m, _ := tuiFixture(t)

	updated, _ := m.Update(keyRunes("]"))
	m = updated.(Model)
	if m.yearFrom != 2001 {
		t.Errorf("yearFrom = %d, want 2001", m.yearFrom)
	}
	updated, _ = m.Update(keyRunes("{"))
	m = updated.(Model)
	if m.yearTo != 2019 {
		t.Errorf("yearTo = %d, want 2019", m.yearTo)
	}
}

func TestSearchFocusFlow(t *testing.T) {
	m, _ := tuiFixture(t)

	updated, _ := m.Update(keyRunes("/"))
	m = updated.(Model)
	if m.focus != focusSearch {
		t.Fatal("slash did not focus search")
	}

	for _, r := range "node" {
		updated, _ = m.Update(keyRunes(string(r)))
		m = updated.(Model)
	}
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if m.focus != focusMain {
		t.Error("enter did not return focus to main")
	}
	if m.lastQuery != "node" {
		t.Errorf("lastQuery = %q, want %q", m.lastQuery, "node")
	}
}

func TestSpaceStartsPlayback(t *testing.T) {
	m, bus := tuiFixture(t)

	started := make(chan events.PlaybackStartRequested, 1)
	bus.Subscribe(func(ev events.Event) {
		if e, ok := ev.(events.PlaybackStartRequested); ok {
			select {
			case started <- e:
			default:
			}
		}
	})

	updated, _ := m.Update(keyRunes(" "))
	m = updated.(Model)

	select {
	case e := <-started:
		if e.From != 2000 || e.To != 2020 {
			t.Errorf("start range = %d..%d, want 2000..2020", e.From, e.To)
		}
		// No clusters toggled means playback runs over all of them.
		if len(e.Selected) != 2 {
			t.Errorf("selected = %v, want both clusters", e.Selected)
		}
	case <-time.After(time.Second):
		t.Fatal("space did not request playback start")
	}
}

func TestPlaybackEventsUpdateDisplay(t *testing.T) {
	m, _ := tuiFixture(t)

	updated, cmd := m.Update(busMsg{ev: events.YearAdvanced{Year: 2004, VisibleNodes: 2, VisibleEdges: 1}})
	m = updated.(Model)
	if cmd == nil {
		t.Error("busMsg should re-arm the event wait")
	}
	if !m.playing || m.currentYear != 2004 || m.visibleNodes != 2 {
		t.Errorf("display state = playing=%v year=%d nodes=%d", m.playing, m.currentYear, m.visibleNodes)
	}
	if !strings.Contains(m.View(), "2004") {
		t.Error("view missing current playback year")
	}

	updated, _ = m.Update(busMsg{ev: events.PlaybackFinished{Completed: true, LastYear: 2020}})
	m = updated.(Model)
	if m.playing {
		t.Error("still playing after PlaybackFinished")
	}
	if !strings.Contains(m.status, "completed") {
		t.Errorf("status = %q, want completion notice", m.status)
	}
}

func TestQuitKey(t *testing.T) {
	m, _ := tuiFixture(t)
	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("q produced no command")
	}
	if msg := cmd(); msg != (tea.QuitMsg{}) {
		t.Errorf("q produced %T, want tea.QuitMsg", msg)
	}
}
