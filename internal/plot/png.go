package plot

import (
	"fmt"
	"image/color"
	"io"
	"os"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
)

// Default PNG frame size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

// Frame builds a gonum plot of one snapshot: points coloured by cluster and
// centroids as black-outlined triangles.
func Frame(points []kmeans.Point, snap kmeans.Snapshot) (*gonumplot.Plot, error) {
	if len(snap.Labels) != len(points) {
		return nil, fmt.Errorf("snapshot has %d labels for %d points", len(snap.Labels), len(points))
	}

	p := gonumplot.New()
	p.Title.Text = fmt.Sprintf("Iteration %d (inertia %.2f)", snap.Iteration, snap.Inertia)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	colors := palette(len(snap.Centroids))
	for j := range snap.Centroids {
		members := snap.Members(j)
		if len(members) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(members))
		for n, i := range members {
			xys[n] = plotter.XY{X: points[i].X, Y: points[i].Y}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", j, err)
		}
		s.GlyphStyle.Color = colors[j]
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("cluster %d", j), s)
	}

	cxys := make(plotter.XYs, len(snap.Centroids))
	for j, c := range snap.Centroids {
		cxys[j] = plotter.XY{X: c.X, Y: c.Y}
	}
	cs, err := plotter.NewScatter(cxys)
	if err != nil {
		return nil, fmt.Errorf("centroids: %w", err)
	}
	cs.GlyphStyle.Color = color.Black
	cs.GlyphStyle.Shape = draw.PyramidGlyph{}
	cs.GlyphStyle.Radius = vg.Points(5)
	p.Add(cs)
	p.Legend.Add("centroids", cs)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.Add(plotter.NewGrid())
	return p, nil
}

// WritePNG renders one snapshot as a PNG.
func WritePNG(w io.Writer, points []kmeans.Point, snap kmeans.Snapshot, width, height vg.Length) error {
	p, err := Frame(points, snap)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// SavePNG renders one snapshot to a file.
func SavePNG(path string, points []kmeans.Point, snap kmeans.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePNG(f, points, snap, DefaultWidth, DefaultHeight); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
