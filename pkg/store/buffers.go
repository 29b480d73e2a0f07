package store

// Flat attribute buffers in the layout the renderer uploads directly:
// three floats per position/color entry, one float per size/visibility
// entry. Visibility values are always exactly 0 or 1.
//
// Each buffer carries a dirty flag. The owning side sets it after a
// mutation; the renderer clears it after upload. Nothing else may write.

// NodeBuffers holds the per-node attribute arrays, indexed by bufferIndex.
type NodeBuffers struct {
	Position   []float32 // 3 per node
	Color      []float32 // 3 per node
	Size       []float32 // 1 per node
	Visibility []float32 // 1 per node, 0 or 1
	// Emphasis is the search-highlight channel. It marks nodes without
	// hiding anything and is never part of the visibility composition.
	Emphasis []float32 // 1 per node, 0 or 1

	dirty dirtyFlags
}

// EdgeBuffers holds the per-vertex attribute arrays for the edge vertex
// buffer. A logical edge occupies the half-open range [StartIndex,EndIndex)
// of vertices; its visibility value is replicated across that range.
type EdgeBuffers struct {
	Position   []float32 // 3 per vertex
	Color      []float32 // 3 per vertex
	Visibility []float32 // 1 per vertex, 0 or 1

	dirty dirtyFlags
}

// BufferKind identifies one of the parallel buffers for dirty tracking.
type BufferKind int

const (
	BufferPosition BufferKind = iota
	BufferColor
	BufferSize
	BufferVisibility
	BufferEmphasis
	bufferKindCount
)

type dirtyFlags [bufferKindCount]bool

func newNodeBuffers(n int) *NodeBuffers {
	return &NodeBuffers{
		Position:   make([]float32, 3*n),
		Color:      make([]float32, 3*n),
		Size:       make([]float32, n),
		Visibility: make([]float32, n),
		Emphasis:   make([]float32, n),
	}
}

func newEdgeBuffers(vertices int) *EdgeBuffers {
	return &EdgeBuffers{
		Position:   make([]float32, 3*vertices),
		Color:      make([]float32, 3*vertices),
		Visibility: make([]float32, vertices),
	}
}

// truncate shrinks the buffers to n nodes. Used when sampling loaded
// fewer elements than reserved; buffers are never grown.
func (b *NodeBuffers) truncate(n int) {
	b.Position = b.Position[:3*n]
	b.Color = b.Color[:3*n]
	b.Size = b.Size[:n]
	b.Visibility = b.Visibility[:n]
	b.Emphasis = b.Emphasis[:n]
}

func (b *EdgeBuffers) truncate(vertices int) {
	b.Position = b.Position[:3*vertices]
	b.Color = b.Color[:3*vertices]
	b.Visibility = b.Visibility[:vertices]
}

// Len returns the node count.
func (b *NodeBuffers) Len() int { return len(b.Visibility) }

// VertexCount returns the populated edge vertex count.
func (b *EdgeBuffers) VertexCount() int { return len(b.Visibility) }

// MarkDirty flags a buffer as modified since the last upload.
func (b *NodeBuffers) MarkDirty(kind BufferKind) { b.dirty[kind] = true }

// Dirty reports whether a buffer changed since the last ClearDirty.
func (b *NodeBuffers) Dirty(kind BufferKind) bool { return b.dirty[kind] }

// ClearDirty is called by the renderer after upload.
func (b *NodeBuffers) ClearDirty(kind BufferKind) { b.dirty[kind] = false }

// MarkDirty flags a buffer as modified since the last upload.
func (b *EdgeBuffers) MarkDirty(kind BufferKind) { b.dirty[kind] = true }

// Dirty reports whether a buffer changed since the last ClearDirty.
func (b *EdgeBuffers) Dirty(kind BufferKind) bool { return b.dirty[kind] }

// ClearDirty is called by the renderer after upload.
func (b *EdgeBuffers) ClearDirty(kind BufferKind) { b.dirty[kind] = false }
