// Package report summarises a generation run: a PNG plot of visible objects
// per snapshot and an HTML chart of how often each category was annotated.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/sdg/internal/dataset"
)

// Output names inside the report directory.
const (
	Dir            = "report"
	VisibilityPNG  = "visibility.png"
	CategoriesHTML = "categories.html"
)

// echartsAssetsHost serves the echarts JavaScript for the HTML report.
const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Input is everything the report needs from a finished run.
type Input struct {
	RunID     string
	Sweep     string
	Snapshots []dataset.SnapshotSummary
	// Counts maps category index to the number of snapshots it appeared in.
	Counts map[int]int
	// Categories names each category by index.
	Categories []string
}

// Write renders both report files into dir/report.
func Write(dir string, in Input) error {
	out := filepath.Join(dir, Dir)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	if err := PlotVisibility(filepath.Join(out, VisibilityPNG), in); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(out, CategoriesHTML))
	if err != nil {
		return fmt.Errorf("failed to create category chart: %w", err)
	}
	if err := WriteHTML(f, in); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// PlotVisibility saves a line plot of visible objects against sweep order.
func PlotVisibility(path string, in Input) error {
	if len(in.Snapshots) == 0 {
		return fmt.Errorf("no snapshots to plot for run %s", in.RunID)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Visible objects per snapshot (%s)", in.Sweep)
	p.X.Label.Text = "Snapshot"
	p.Y.Label.Text = "Visible objects"
	p.Y.Min = 0
	if n := len(in.Categories); n > 0 {
		p.Y.Max = float64(n)
	}

	pts := make(plotter.XYs, len(in.Snapshots))
	for i, s := range in.Snapshots {
		pts[i] = plotter.XY{X: float64(s.Seq), Y: float64(s.Visible)}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(scatter)
	p.Add(plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save visibility plot: %w", err)
	}
	return nil
}

// WriteHTML renders a bar chart of per-category visible and hidden counts.
func WriteHTML(w io.Writer, in Input) error {
	total := len(in.Snapshots)

	cats := categoryIndexes(in)
	x := make([]string, len(cats))
	visible := make([]opts.BarData, len(cats))
	hidden := make([]opts.BarData, len(cats))
	for i, c := range cats {
		x[i] = categoryName(in.Categories, c)
		n := in.Counts[c]
		visible[i] = opts.BarData{Value: n}
		hidden[i] = opts.BarData{Value: total - n}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "SDG category visibility", Width: "100%", Height: "600px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Category visibility", Subtitle: fmt.Sprintf("run=%s sweep=%s snapshots=%d", in.RunID, in.Sweep, total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("visible", visible,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		).
		AddSeries("hidden", hidden)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// categoryIndexes returns every named category plus any extra that was
// counted, in ascending order.
func categoryIndexes(in Input) []int {
	seen := make(map[int]bool)
	var out []int
	for i := range in.Categories {
		seen[i] = true
		out = append(out, i)
	}
	for c := range in.Counts {
		if !seen[c] {
			out = append(out, c)
		}
	}
	sort.Ints(out)
	return out
}

func categoryName(names []string, c int) string {
	if c >= 0 && c < len(names) && names[c] != "" {
		return strconv.Itoa(c) + ": " + names[c]
	}
	return strconv.Itoa(c)
}
