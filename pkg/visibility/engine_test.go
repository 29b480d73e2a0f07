package visibility

import (
	"errors"
	"testing"

	"github.com/vanderheijden86/citescope/pkg/model"
	"github.com/vanderheijden86/citescope/pkg/store"
	"github.com/vanderheijden86/citescope/pkg/temporal"
	"github.com/vanderheijden86/citescope/pkg/testutil"
)

func edgeRefsFor(s *store.Store) []temporal.EdgeRef {
	refs := make([]temporal.EdgeRef, 0, len(s.Edges()))
	for i := range s.Edges() {
		e := s.Edge(i)
		refs = append(refs, temporal.EdgeRef{
			ID:            e.ID,
			StartIndex:    e.StartIndex,
			EndIndex:      e.EndIndex,
			Source:        e.Source,
			Target:        e.Target,
			SourceCluster: e.SourceCluster,
			TargetCluster: e.TargetCluster,
			MinYear:       e.MinYear,
			MaxYear:       e.MaxYear,
		})
	}
	return refs
}

func scenarioEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	ds := testutil.ScenarioDataset()
	// Edge between node0 (A, 2000) and node3 (B, 2015) spanning 2005..2015.
	ds.Edges = []model.RawEdge{
		{Source: "n0", Target: "n3", MinYear: 2005, MaxYear: 2015},
	}
	s, err := store.Load(ds, store.Options{
		NodeFraction: 1, EdgeFraction: 1,
		SizeMin: 1, SizeMax: 5, SizePower: 1,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e := New()
	e.Bind(s)
	return e, s
}

func TestSettersBeforeBindRejected(t *testing.T) {
	e := New()
	if err := e.SetClusterMask(map[int]bool{0: true}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SetClusterMask: %v, want ErrNotInitialized", err)
	}
	if err := e.SetYearRange(2000, 2010); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SetYearRange: %v, want ErrNotInitialized", err)
	}
	if err := e.Recompute(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Recompute: %v, want ErrNotInitialized", err)
	}
	if err := e.SetSearchHighlight(nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SetSearchHighlight: %v, want ErrNotInitialized", err)
	}
}

// Cluster A with years [2000,2012] shows nodes 0 and 2; narrowing to
// [2000,2005] drops node 2.
func TestClusterAndYearScenario(t *testing.T) {
	e, s := scenarioEngine(t)

	if err := e.SetClusterMask(map[int]bool{0: true}); err != nil {
		t.Fatal(err)
	}
	if err := e.SetYearRange(2000, 2012); err != nil {
		t.Fatal(err)
	}
	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}
	testutil.AssertVisibleNodes(t, s, map[int]bool{0: true, 2: true})

	if err := e.SetYearRange(2000, 2005); err != nil {
		t.Fatal(err)
	}
	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}
	testutil.AssertVisibleNodes(t, s, map[int]bool{0: true})
}

// The edge spanning 2005..2015 shows under both clusters with the full
// range, hides when the range cuts its later year, and hides when its
// target's cluster is deselected.
func TestEdgeScenario(t *testing.T) {
	e, s := scenarioEngine(t)

	edgeVisible := func() bool {
		return s.EdgeBuffers().Visibility[s.Edge(0).StartIndex] == 1
	}

	if err := e.SetClusterMask(map[int]bool{0: true, 1: true}); err != nil {
		t.Fatal(err)
	}
	if err := e.SetYearRange(2000, 2015); err != nil {
		t.Fatal(err)
	}
	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}
	if !edgeVisible() {
		t.Error("edge should be visible with both clusters and the full range")
	}

	if err := e.SetYearRange(2000, 2010); err != nil {
		t.Fatal(err)
	}
	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}
	if edgeVisible() {
		t.Error("edge should hide when its maxYear exceeds the range")
	}

	if err := e.SetYearRange(2000, 2015); err != nil {
		t.Fatal(err)
	}
	if err := e.SetClusterMask(map[int]bool{0: true}); err != nil {
		t.Fatal(err)
	}
	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}
	if edgeVisible() {
		t.Error("edge should hide when its target's cluster is deselected")
	}
}

func TestYearRangeSwapped(t *testing.T) {
	e, s := scenarioEngine(t)
	if err := e.SetYearRange(2012, 2000); err != nil {
		t.Fatal(err)
	}
	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}
	// Same result as (2000, 2012): all clusters selected, nodes 0..2 in range.
	testutil.AssertVisibleNodes(t, s, map[int]bool{0: true, 1: true, 2: true})
}

func TestRecomputeIdempotent(t *testing.T) {
	e, s := scenarioEngine(t)
	if err := e.SetClusterMask(map[int]bool{1: true}); err != nil {
		t.Fatal(err)
	}
	if err := e.SetYearRange(2005, 2020); err != nil {
		t.Fatal(err)
	}

	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}
	first := append([]float32(nil), s.NodeBuffers().Visibility...)
	firstEdges := append([]float32(nil), s.EdgeBuffers().Visibility...)

	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}
	for i, v := range s.NodeBuffers().Visibility {
		if v != first[i] {
			t.Fatalf("node visibility[%d] changed on idempotent recompute", i)
		}
	}
	for i, v := range s.EdgeBuffers().Visibility {
		if v != firstEdges[i] {
			t.Fatalf("edge visibility[%d] changed on idempotent recompute", i)
		}
	}
}

func TestSearchHighlightDoesNotHide(t *testing.T) {
	e, s := scenarioEngine(t)
	if err := e.SetSearchHighlight(map[int]bool{1: true, 3: true}); err != nil {
		t.Fatal(err)
	}
	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}

	// Everything stays visible; only emphasis marks the matches.
	testutil.AssertVisibleNodes(t, s, map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true})
	for i, v := range s.NodeBuffers().Emphasis {
		want := float32(0)
		if i == 1 || i == 3 {
			want = 1
		}
		if v != want {
			t.Errorf("emphasis[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestSearchFilterParticipatesInComposition(t *testing.T) {
	e, s := scenarioEngine(t)
	if err := e.SetSearchFilter(map[int]bool{0: true, 4: true}); err != nil {
		t.Fatal(err)
	}
	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}
	testutil.AssertVisibleNodes(t, s, map[int]bool{0: true, 4: true})

	if err := e.ClearSearchFilter(); err != nil {
		t.Fatal(err)
	}
	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}
	testutil.AssertVisibleNodes(t, s, map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true})
}

func TestDirtyFlagsLifecycle(t *testing.T) {
	e, s := scenarioEngine(t)
	buffers := s.NodeBuffers()
	buffers.ClearDirty(store.BufferVisibility)

	if err := e.Recompute(); err != nil {
		t.Fatal(err)
	}
	if !buffers.Dirty(store.BufferVisibility) {
		t.Error("recompute should mark node visibility dirty")
	}
	buffers.ClearDirty(store.BufferVisibility)
	if buffers.Dirty(store.BufferVisibility) {
		t.Error("ClearDirty should reset the flag")
	}
}

func TestHideAllAndReveal(t *testing.T) {
	e, s := scenarioEngine(t)
	if err := e.HideAll(); err != nil {
		t.Fatal(err)
	}
	testutil.AssertVisibleNodes(t, s, map[int]bool{})

	// Reveal only the source endpoint: the edge stays hidden and the
	// shown count excludes it.
	if _, err := e.Reveal([]int{0}, nil); err != nil {
		t.Fatal(err)
	}
	refs := edgeRefsFor(s)
	shown, err := e.Reveal(nil, refs)
	if err != nil {
		t.Fatal(err)
	}
	if shown != 0 {
		t.Errorf("shown = %d, want 0 for a withheld edge", shown)
	}
	if s.EdgeBuffers().Visibility[0] != 0 {
		t.Error("edge revealed with a hidden endpoint")
	}

	// Both endpoints visible: the edge shows and is counted.
	shown, err = e.Reveal([]int{3}, refs)
	if err != nil {
		t.Fatal(err)
	}
	if shown != 1 {
		t.Errorf("shown = %d, want 1", shown)
	}
	if s.EdgeBuffers().Visibility[0] != 1 {
		t.Error("edge not revealed with both endpoints visible")
	}
	testutil.AssertEdgeVisibilityReplicated(t, s)
}
