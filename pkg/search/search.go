// Package search resolves free-text queries against node titles and DOIs
// into the set of matched buffer indices consumed by the search events.
//
// A query is split into whitespace terms; a node matches when every term
// occurs in its title or DOI. Terms are matched with a single Aho-Corasick
// automaton per query, so one scan of each title finds all terms at once
// regardless of term count. Matching is ASCII case-insensitive.
package search

import (
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/vanderheijden86/citescope/pkg/metrics"
	"github.com/vanderheijden86/citescope/pkg/store"
)

// Searcher runs queries over a loaded store. It holds only a reference;
// rebuilding after a reload means creating a new Searcher.
type Searcher struct {
	store *store.Store
}

// New creates a searcher over the given store.
func New(s *store.Store) *Searcher {
	return &Searcher{store: s}
}

// Query returns the buffer indices of all nodes matching the query, or
// nil for a blank query. The result is never shared with later calls.
func (s *Searcher) Query(query string) map[int]bool {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil
	}
	defer metrics.Timer(metrics.SearchExecute)()

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.StandardMatch, // required for IterOverlapping
	})
	ac := builder.Build(terms)

	matched := make(map[int]bool)
	seen := make([]bool, len(terms)) // reused per node
	for _, n := range s.store.Nodes() {
		haystack := n.Title
		if n.DOI != "" {
			haystack = haystack + " " + n.DOI
		}

		for i := range seen {
			seen[i] = false
		}
		found := 0
		iter := ac.IterOverlapping(haystack)
		for found < len(terms) {
			m := iter.Next()
			if m == nil {
				break
			}
			if !seen[m.Pattern()] {
				seen[m.Pattern()] = true
				found++
			}
		}
		if found == len(terms) {
			matched[n.BufferIndex] = true
		}
	}
	return matched
}
