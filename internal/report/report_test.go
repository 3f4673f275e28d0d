package report

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sdg/internal/dataset"
	"github.com/banshee-data/sdg/internal/sweep"
)

func testInput() Input {
	return Input{
		RunID: "run-1",
		Sweep: "tabletop",
		Snapshots: []dataset.SnapshotSummary{
			{Seq: 0, FileName: "a.png", Snapshot: sweep.Snapshot{ID: "a"}, Visible: 2},
			{Seq: 1, FileName: "b.png", Snapshot: sweep.Snapshot{ID: "b", Yaw: 30}, Visible: 1},
			{Seq: 2, FileName: "c.png", Snapshot: sweep.Snapshot{ID: "c", Yaw: 60}, Visible: 0},
		},
		Counts:     map[int]int{0: 2, 1: 1},
		Categories: []string{"crate", "panel", "lamp"},
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, Write(dir, testInput()))

	f, err := os.Open(filepath.Join(dir, Dir, VisibilityPNG))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())

	html, err := os.ReadFile(filepath.Join(dir, Dir, CategoriesHTML))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Category visibility")
}

func TestPlotVisibilityNeedsSnapshots(t *testing.T) {
	t.Parallel()
	in := testInput()
	in.Snapshots = nil
	assert.Error(t, PlotVisibility(filepath.Join(t.TempDir(), "x.png"), in))
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, testInput()))

	out := buf.String()
	assert.Contains(t, out, "crate")
	assert.Contains(t, out, "lamp")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "tabletop")
	assert.Contains(t, out, "echarts")
}

func TestCategoryIndexes(t *testing.T) {
	t.Parallel()
	in := Input{Categories: []string{"a", "b"}, Counts: map[int]int{5: 1, 0: 3}}
	assert.Equal(t, []int{0, 1, 5}, categoryIndexes(in))
	assert.Equal(t, "5", categoryName(in.Categories, 5))
	assert.Equal(t, "1: b", categoryName(in.Categories, 1))
}
