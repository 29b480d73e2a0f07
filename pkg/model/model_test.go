package model

import "testing"

func TestRawNodeValidate(t *testing.T) {
	tests := []struct {
		name    string
		node    RawNode
		wantErr bool
	}{
		{"valid", RawNode{ID: "a", Year: 2000}, false},
		{"zero year allowed", RawNode{ID: "a"}, false},
		{"empty id", RawNode{Year: 2000}, true},
		{"negative year", RawNode{ID: "a", Year: -5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRawEdgeValidate(t *testing.T) {
	tests := []struct {
		name    string
		edge    RawEdge
		wantErr bool
	}{
		{"valid span", RawEdge{Source: "a", Target: "b", MinYear: 2000, MaxYear: 2005}, false},
		{"valid single year", RawEdge{Source: "a", Target: "b", Year: 2000}, false},
		{"empty source", RawEdge{Target: "b"}, true},
		{"empty target", RawEdge{Source: "a"}, true},
		{"reversed span", RawEdge{Source: "a", Target: "b", MinYear: 2005, MaxYear: 2000}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.edge.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRawEdgeSpan(t *testing.T) {
	tests := []struct {
		name    string
		edge    RawEdge
		wantMin int
		wantMax int
	}{
		{"full pair", RawEdge{MinYear: 2000, MaxYear: 2005}, 2000, 2005},
		{"single year fallback", RawEdge{Year: 1998}, 1998, 1998},
		{"min only", RawEdge{MinYear: 2003}, 2003, 2003},
		{"max only", RawEdge{MaxYear: 2007}, 2007, 2007},
		{"pair wins over year", RawEdge{Year: 1990, MinYear: 2000, MaxYear: 2001}, 2000, 2001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotMax := tt.edge.Span()
			if gotMin != tt.wantMin || gotMax != tt.wantMax {
				t.Errorf("Span() = (%d, %d), want (%d, %d)", gotMin, gotMax, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestEdgeVertexCount(t *testing.T) {
	e := Edge{StartIndex: 4, EndIndex: 6}
	if got := e.VertexCount(); got != 2 {
		t.Errorf("VertexCount() = %d, want 2", got)
	}
}
