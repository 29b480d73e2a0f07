// Package export renders a static snapshot (SVG or PNG) of whatever the
// visibility buffers currently show. It is a debugging and reporting
// surface, not the interactive renderer: it reads the same flat buffers
// the GPU renderer consumes and draws the visible subset with stored
// positions projected orthographically.
package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/citescope/pkg/metrics"
	"github.com/vanderheijden86/citescope/pkg/model"
	"github.com/vanderheijden86/citescope/pkg/store"
)

// SnapshotOptions controls snapshot export behaviour.
type SnapshotOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title  string // Optional title rendered in the summary block
	Width  int    // Canvas width in pixels; default 1600
	Height int    // Canvas height in pixels; default 1200
}

var (
	colorBackdrop = color.RGBA{R: 0x10, G: 0x12, B: 0x18, A: 0xFF}
	colorText     = color.RGBA{R: 0xE8, G: 0xEA, B: 0xF0, A: 0xFF}
	colorEdge     = color.RGBA{R: 0x3A, G: 0x40, B: 0x50, A: 0xFF}
	colorEmphasis = color.RGBA{R: 0xFF, G: 0xD1, B: 0x4A, A: 0xFF}
)

const snapshotMargin = 48.0

// SaveSnapshot renders the currently visible node/edge set to disk.
func SaveSnapshot(s *store.Store, opts SnapshotOptions) error {
	defer metrics.Timer(metrics.SnapshotRender)()

	if s == nil || s.NodeCount() == 0 {
		return fmt.Errorf("nothing to export: store is empty")
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.Width <= 0 {
		opts.Width = 1600
	}
	if opts.Height <= 0 {
		opts.Height = 1200
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		default:
			format = "svg"
			if filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildLayout(s, opts)

	switch format {
	case "svg":
		file, err := os.Create(opts.Path)
		if err != nil {
			return err
		}
		defer file.Close()
		return renderSVG(file, layout)
	default:
		return renderPNG(opts.Path, layout)
	}
}

// --- layout computation ----------------------------------------------------

type layoutNode struct {
	X, Y     float64
	R        float64
	Color    color.RGBA
	Emphasis bool
}

type layoutEdge struct {
	X1, Y1, X2, Y2 float64
}

type layoutResult struct {
	Width, Height int
	Title         string
	VisibleNodes  int
	VisibleEdges  int
	TotalNodes    int
	TotalEdges    int
	Nodes         []layoutNode
	Edges         []layoutEdge
}

// buildLayout projects the visible nodes onto the canvas. The Z
// coordinate is dropped; node radius scales with the size buffer.
func buildLayout(s *store.Store, opts SnapshotOptions) layoutResult {
	layout := layoutResult{
		Width:      opts.Width,
		Height:     opts.Height,
		Title:      opts.Title,
		TotalNodes: s.NodeCount(),
		TotalEdges: s.EdgeCount(),
	}

	buffers := s.NodeBuffers()

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i < s.NodeCount(); i++ {
		if buffers.Visibility[i] == 0 {
			continue
		}
		x := float64(buffers.Position[3*i])
		y := float64(buffers.Position[3*i+1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	if math.IsInf(minX, 1) {
		// Nothing visible; an empty canvas with the summary block is
		// still a valid snapshot.
		return layout
	}

	spanX := maxX - minX
	spanY := maxY - minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}
	scaleX := (float64(opts.Width) - 2*snapshotMargin) / spanX
	scaleY := (float64(opts.Height) - 2*snapshotMargin) / spanY

	project := func(i int) (float64, float64) {
		x := float64(buffers.Position[3*i])
		y := float64(buffers.Position[3*i+1])
		return snapshotMargin + (x-minX)*scaleX, snapshotMargin + (y-minY)*scaleY
	}

	for i := 0; i < s.NodeCount(); i++ {
		if buffers.Visibility[i] == 0 {
			continue
		}
		x, y := project(i)
		layout.Nodes = append(layout.Nodes, layoutNode{
			X:        x,
			Y:        y,
			R:        1.5 + float64(buffers.Size[i])*0.45,
			Color:    rgbaFrom(s.Node(i).Color),
			Emphasis: buffers.Emphasis[i] != 0,
		})
		layout.VisibleNodes++
	}

	edgeBuffers := s.EdgeBuffers()
	for _, e := range s.Edges() {
		if edgeBuffers.Visibility[e.StartIndex] == 0 {
			continue
		}
		x1, y1 := project(e.Source)
		x2, y2 := project(e.Target)
		layout.Edges = append(layout.Edges, layoutEdge{X1: x1, Y1: y1, X2: x2, Y2: y2})
		layout.VisibleEdges++
	}

	return layout
}

// --- rendering -------------------------------------------------------------

func renderPNG(path string, layout layoutResult) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorEdge)
	dc.SetLineWidth(0.6)
	for _, e := range layout.Edges {
		dc.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		dc.Stroke()
	}

	for _, n := range layout.Nodes {
		dc.SetColor(n.Color)
		dc.DrawCircle(n.X, n.Y, n.R)
		dc.Fill()
		if n.Emphasis {
			dc.SetColor(colorEmphasis)
			dc.SetLineWidth(1.5)
			dc.DrawCircle(n.X, n.Y, n.R+2.5)
			dc.Stroke()
		}
	}

	dc.SetColor(colorText)
	drawSummary(func(text string, x, y float64) {
		dc.DrawStringAnchored(text, x, y, 0, 0.5)
	}, layout)

	return dc.SavePNG(path)
}

func renderSVG(w io.Writer, layout layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	for _, e := range layout.Edges {
		canvas.Line(int(e.X1), int(e.Y1), int(e.X2), int(e.Y2),
			fmt.Sprintf("stroke:%s;stroke-width:0.6", css(colorEdge)))
	}

	for _, n := range layout.Nodes {
		canvas.Circle(int(n.X), int(n.Y), int(math.Ceil(n.R)),
			fmt.Sprintf("fill:%s", css(n.Color)))
		if n.Emphasis {
			canvas.Circle(int(n.X), int(n.Y), int(math.Ceil(n.R))+3,
				fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", css(colorEmphasis)))
		}
	}

	drawSummary(func(text string, x, y float64) {
		canvas.Text(int(x), int(y),
			text, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorText)))
	}, layout)

	canvas.End()
	return nil
}

func drawSummary(text func(s string, x, y float64), layout layoutResult) {
	y := 24.0
	if layout.Title != "" {
		text(layout.Title, 16, y)
		y += 20
	}
	text(fmt.Sprintf("visible: %d/%d nodes, %d/%d edges",
		layout.VisibleNodes, layout.TotalNodes, layout.VisibleEdges, layout.TotalEdges), 16, y)
}

func rgbaFrom(c model.RGB) color.RGBA {
	return color.RGBA{
		R: uint8(clampChannel(c[0]) * 255),
		G: uint8(clampChannel(c[1]) * 255),
		B: uint8(clampChannel(c[2]) * 255),
		A: 0xFF,
	}
}

func clampChannel(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
