package temporal

import (
	"testing"
)

func TestCursorMatchesOneShotQueries(t *testing.T) {
	s := loadStore(t, yearDataset())
	idx := Build(s, 1950, 2030)

	cursor := idx.NewCursor()
	seenNodes := map[int]bool{}
	seenEdges := map[int]bool{}

	for year := 1950; year <= 2030; year++ {
		nodes, edges := cursor.Advance(year)
		for _, n := range nodes {
			if seenNodes[n] {
				t.Fatalf("year %d: node %d revealed twice", year, n)
			}
			seenNodes[n] = true
		}
		for _, e := range edges {
			if seenEdges[e.ID] {
				t.Fatalf("year %d: edge %d revealed twice", year, e.ID)
			}
			seenEdges[e.ID] = true
		}

		// Accumulated set must equal the one-shot query at every year.
		if got, want := len(seenNodes), len(collectNodes(idx, year)); got != want {
			t.Fatalf("year %d: cursor has %d nodes, one-shot has %d", year, got, want)
		}
		if got, want := len(seenEdges), len(collectEdges(idx, year)); got != want {
			t.Fatalf("year %d: cursor has %d edges, one-shot has %d", year, got, want)
		}
	}
}

func TestCursorPendingEdgeRevealsAtMaxYear(t *testing.T) {
	s := loadStore(t, yearDataset())
	idx := Build(s, 1950, 2030)
	cursor := idx.NewCursor()

	// Jump past the n0->n3 edge's MinYear (2000) but not its MaxYear.
	_, edges := cursor.Advance(2005)
	for _, e := range edges {
		if e.MaxYear > 2005 {
			t.Fatalf("edge %d revealed before its later endpoint (maxYear %d)", e.ID, e.MaxYear)
		}
	}

	// Advancing to 2010 releases the parked edge.
	_, edges = cursor.Advance(2010)
	found := false
	for _, e := range edges {
		if e.MinYear == 2000 && e.MaxYear == 2010 {
			found = true
		}
	}
	if !found {
		t.Error("parked edge not released when its maxYear was reached")
	}
}

func TestCursorIgnoresBackwardAdvance(t *testing.T) {
	s := loadStore(t, yearDataset())
	idx := Build(s, 1950, 2030)
	cursor := idx.NewCursor()

	cursor.Advance(2010)
	nodes, edges := cursor.Advance(2000)
	if len(nodes) != 0 || len(edges) != 0 {
		t.Errorf("backward advance revealed %d nodes, %d edges; want none", len(nodes), len(edges))
	}
	if cursor.Year() != 2010 {
		t.Errorf("Year = %d, want 2010", cursor.Year())
	}
}
