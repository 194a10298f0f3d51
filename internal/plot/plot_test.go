package plot

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func testRun(t *testing.T) ([]kmeans.Point, *kmeans.Run) {
	t.Helper()
	points := []kmeans.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 10, Y: 10}, {X: 10, Y: 11}}
	run, err := kmeans.SimulateFrom(points, []kmeans.Point{{X: 0, Y: 0}, {X: 0, Y: 1}}, 10)
	require.NoError(t, err)
	return points, run
}

func TestPalette(t *testing.T) {
	assert.Nil(t, palette(0))

	colors := palette(4)
	require.Len(t, colors, 4)
	seen := map[string]bool{}
	for _, c := range colors {
		assert.Equal(t, uint8(255), c.A)
		seen[hexColor(c)] = true
	}
	assert.Len(t, seen, 4, "colours should be distinct")
}

func TestHexColor(t *testing.T) {
	r, g, b := hslToRGB(0, 0, 0.5)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
	assert.Equal(t, "#ff0010", hexColor(color.RGBA{R: 255, G: 0, B: 16, A: 255}))
}

func TestRenderPage(t *testing.T) {
	points, run := testRun(t)

	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, points, run, DefaultChartOptions()))

	html := buf.String()
	assert.Contains(t, html, "<html")
	for i := 0; i < run.Len(); i++ {
		assert.Contains(t, html, fmt.Sprintf("Iteration %d", i))
	}
	assert.Contains(t, html, "diamond")
	assert.Contains(t, html, "cluster 1")
}

func TestRenderPage_SingleIteration(t *testing.T) {
	points, run := testRun(t)

	o := DefaultChartOptions()
	o.Iteration = 0
	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, points, run, o))
	assert.Equal(t, 1, strings.Count(buf.String(), "Iteration 0"))
	assert.NotContains(t, buf.String(), "Iteration 1")

	o.Iteration = run.Len()
	assert.Error(t, RenderPage(&buf, points, run, o))
}

func TestRenderPage_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderPage(&buf, nil, nil, DefaultChartOptions()))
	assert.Error(t, RenderPage(&buf, nil, &kmeans.Run{}, DefaultChartOptions()))
}

func TestWritePNG(t *testing.T) {
	points, run := testRun(t)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, points, run.Final(), DefaultWidth, DefaultHeight))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestFrame_LabelMismatch(t *testing.T) {
	points, run := testRun(t)
	_, err := Frame(points[:2], run.Final())
	assert.Error(t, err)
}

func TestSavePNG(t *testing.T) {
	points, run := testRun(t)
	path := filepath.Join(t.TempDir(), "frame.png")

	require.NoError(t, SavePNG(path, points, run.Snapshots[0]))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}
