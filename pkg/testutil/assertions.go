package testutil

import (
	"testing"

	"github.com/vanderheijden86/citescope/pkg/store"
)

// AssertVisibleNodes verifies exactly the given buffer indices are
// visible in the node visibility buffer.
func AssertVisibleNodes(t *testing.T, s *store.Store, want map[int]bool) {
	t.Helper()
	for i, v := range s.NodeBuffers().Visibility {
		visible := v != 0
		if visible != want[i] {
			t.Errorf("node %d: visibility = %v, want %v", i, visible, want[i])
		}
	}
}

// AssertBinaryBuffer verifies every value in the buffer is exactly 0 or 1.
func AssertBinaryBuffer(t *testing.T, name string, buf []float32) {
	t.Helper()
	for i, v := range buf {
		if v != 0 && v != 1 {
			t.Errorf("%s[%d] = %v, want 0 or 1", name, i, v)
		}
	}
}

// AssertEdgeRangesDisjoint verifies that the edge vertex ranges are
// pairwise disjoint and together cover exactly the populated prefix of
// the edge vertex buffer.
func AssertEdgeRangesDisjoint(t *testing.T, s *store.Store) {
	t.Helper()
	covered := make([]bool, s.EdgeBuffers().VertexCount())
	for i := 0; i < s.EdgeCount(); i++ {
		e := s.Edge(i)
		if e.StartIndex >= e.EndIndex {
			t.Errorf("edge %d: empty range [%d,%d)", i, e.StartIndex, e.EndIndex)
			continue
		}
		for v := e.StartIndex; v < e.EndIndex; v++ {
			if v >= len(covered) {
				t.Errorf("edge %d: vertex %d beyond buffer end %d", i, v, len(covered))
				continue
			}
			if covered[v] {
				t.Errorf("edge %d: vertex %d already covered by another edge", i, v)
			}
			covered[v] = true
		}
	}
	for v, ok := range covered {
		if !ok {
			t.Errorf("vertex %d not covered by any edge range", v)
		}
	}
}

// AssertEdgeVisibilityReplicated verifies each edge's visibility value is
// constant across its vertex range.
func AssertEdgeVisibilityReplicated(t *testing.T, s *store.Store) {
	t.Helper()
	buf := s.EdgeBuffers().Visibility
	for i := 0; i < s.EdgeCount(); i++ {
		e := s.Edge(i)
		first := buf[e.StartIndex]
		for v := e.StartIndex + 1; v < e.EndIndex; v++ {
			if buf[v] != first {
				t.Errorf("edge %d: visibility differs inside range (%v vs %v)", i, first, buf[v])
			}
		}
	}
}
