package temporal

// Cursor walks an Index's year range sequentially, accumulating the
// monotone "up to year Y" prefix instead of recombining buckets on every
// call. Playback advances the cursor once per tick, so each Advance only
// touches the buckets of the newly entered years plus any edges that were
// waiting on their later endpoint.
type Cursor struct {
	idx  *Index
	year int // last applied year; idx.startYear-1 before the first Advance

	// pending holds edges whose MinYear has been passed but whose MaxYear
	// is still ahead, keyed by that MaxYear.
	pending map[int][]EdgeRef
}

// NewCursor creates a cursor positioned before the start of the span.
func (idx *Index) NewCursor() *Cursor {
	return &Cursor{
		idx:     idx,
		year:    idx.startYear - 1,
		pending: make(map[int][]EdgeRef),
	}
}

// Year returns the last year the cursor advanced to.
func (c *Cursor) Year() int { return c.year }

// Advance moves the cursor forward to toYear and returns the node buffer
// indices and edges that became revealed since the previous position.
// Advancing backwards or to the current year returns nothing; the
// accumulated prefix only grows.
func (c *Cursor) Advance(toYear int) (newNodes []int, newEdges []EdgeRef) {
	if toYear > c.idx.endYear {
		toYear = c.idx.endYear
	}
	if toYear <= c.year {
		return nil, nil
	}

	from := c.year + 1
	c.idx.nodes.Ascend(nodeBucket{year: from}, func(b nodeBucket) bool {
		if b.year > toYear {
			return false
		}
		newNodes = append(newNodes, b.indices...)
		return true
	})

	// Edges entering the scan window this step: reveal immediately if the
	// later endpoint year is already within range, otherwise park them.
	c.idx.edges.Ascend(edgeBucket{year: from}, func(b edgeBucket) bool {
		if b.year > toYear {
			return false
		}
		for _, e := range b.edges {
			if e.MaxYear <= toYear {
				newEdges = append(newEdges, e)
			} else {
				c.pending[e.MaxYear] = append(c.pending[e.MaxYear], e)
			}
		}
		return true
	})

	// Parked edges whose later endpoint year was just reached.
	for y := from; y <= toYear; y++ {
		if waiting, ok := c.pending[y]; ok {
			newEdges = append(newEdges, waiting...)
			delete(c.pending, y)
		}
	}

	c.year = toYear
	return newNodes, newEdges
}
