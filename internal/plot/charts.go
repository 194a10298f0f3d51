package plot

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
)

// ChartOptions tunes the interactive page.
type ChartOptions struct {
	Title string
	// Iteration selects a single snapshot. Negative renders every snapshot.
	Iteration int
	// Width and Height are CSS sizes, e.g. "640px".
	Width  string
	Height string
}

// DefaultChartOptions renders every snapshot at 640x640.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{Title: "K-Means", Iteration: -1, Width: "640px", Height: "640px"}
}

// RenderPage writes an HTML page with one scatter chart per snapshot. Each
// cluster is its own series; centroids are drawn as larger diamonds in the
// cluster colour.
func RenderPage(w io.Writer, points []kmeans.Point, run *kmeans.Run, o ChartOptions) error {
	snaps, err := selectSnapshots(run, o.Iteration)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.PageTitle = o.Title
	for _, snap := range snaps {
		page.AddCharts(snapshotChart(points, run, snap, o))
	}
	return page.Render(w)
}

func selectSnapshots(run *kmeans.Run, iteration int) ([]kmeans.Snapshot, error) {
	if run == nil || run.Len() == 0 {
		return nil, fmt.Errorf("run has no snapshots")
	}
	if iteration < 0 {
		return run.Snapshots, nil
	}
	if iteration >= run.Len() {
		return nil, fmt.Errorf("iteration %d out of range [0, %d)", iteration, run.Len())
	}
	return run.Snapshots[iteration : iteration+1], nil
}

func snapshotChart(points []kmeans.Point, run *kmeans.Run, snap kmeans.Snapshot, o ChartOptions) *charts.Scatter {
	subtitle := fmt.Sprintf("inertia=%.3f reassigned=%d", snap.Inertia, snap.Reassigned)
	if snap.Iteration == run.Len()-1 && run.Converged {
		subtitle += " converged"
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.Title, Width: o.Width, Height: o.Height}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Iteration %d", snap.Iteration), Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y", Scale: opts.Bool(true)}),
	)

	colors := palette(len(snap.Centroids))
	for j, c := range snap.Centroids {
		members := snap.Members(j)
		data := make([]opts.ScatterData, 0, len(members)+1)
		for _, i := range members {
			data = append(data, opts.ScatterData{Value: []interface{}{points[i].X, points[i].Y}})
		}
		data = append(data, opts.ScatterData{
			Name:       fmt.Sprintf("centroid %d", j),
			Value:      []interface{}{c.X, c.Y},
			Symbol:     "diamond",
			SymbolSize: 18,
		})
		scatter.AddSeries(fmt.Sprintf("cluster %d", j), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(colors[j])}),
		)
	}
	return scatter
}
