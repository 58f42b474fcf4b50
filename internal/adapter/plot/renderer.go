// Package plot renders thermal frames to a PNG heat map on a background
// goroutine.
package plot

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/observability"
)

// Fixed colour scale in °C.
const (
	ScaleMinC = 20.0
	ScaleMaxC = 60.0
)

// FileName is the image overwritten on every rendered frame.
const FileName = "thermal_map.png"

const (
	paletteColors = 64
	tempPattern   = ".thermal_map-*.png"
)

type frame struct {
	grid domain.ThermalGrid
	step int
}

// Renderer implements pipeline.FrameSink. PublishFrame never blocks: a
// frame still waiting when the next one arrives is replaced and counted as
// dropped.
type Renderer struct {
	outputDir string
	metrics   *observability.Metrics
	logger    *slog.Logger

	mailbox chan frame
	wg      sync.WaitGroup
	once    sync.Once

	rendered  atomic.Int64
	lastStep  atomic.Int64
	afterSave func(step int) // test hook
}

// NewRenderer creates the output directory and returns an unstarted renderer.
func NewRenderer(outputDir string, metrics *observability.Metrics, logger *slog.Logger) (*Renderer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot output dir: %w", err)
	}
	r := &Renderer{
		outputDir: outputDir,
		metrics:   metrics,
		logger:    logger,
		mailbox:   make(chan frame, 1),
	}
	r.lastStep.Store(-1)
	return r, nil
}

// Path is where the latest frame is written.
func (r *Renderer) Path() string {
	return filepath.Join(r.outputDir, FileName)
}

// Start launches the render loop. It exits when ctx is done or Close is called.
func (r *Renderer) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case f, ok := <-r.mailbox:
				if !ok {
					return
				}
				if err := r.render(f); err != nil {
					r.logger.Error("render thermal map", "step", f.step, "error", err)
					continue
				}
				r.rendered.Add(1)
				r.lastStep.Store(int64(f.step))
				if r.afterSave != nil {
					r.afterSave(f.step)
				}
			}
		}
	}()
}

// PublishFrame hands the grid to the render loop, replacing any frame that
// has not been picked up yet.
func (r *Renderer) PublishFrame(_ context.Context, grid domain.ThermalGrid, step int) {
	f := frame{grid: grid, step: step}
	for {
		select {
		case r.mailbox <- f:
			return
		default:
		}
		select {
		case <-r.mailbox:
			r.metrics.FramesDropped.Inc()
		default:
		}
	}
}

// Close drains the loop after rendering any frame still queued.
func (r *Renderer) Close() error {
	r.once.Do(func() { close(r.mailbox) })
	r.wg.Wait()
	return nil
}

// Rendered reports how many frames reached disk.
func (r *Renderer) Rendered() int64 { return r.rendered.Load() }

// LastStep is the step of the most recent frame on disk, or -1.
func (r *Renderer) LastStep() int { return int(r.lastStep.Load()) }

func (r *Renderer) render(f frame) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Thermal IR Map | Time Step %d", f.step)
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row"

	hm := plotter.NewHeatMap(thermalXYZ{grid: f.grid}, palette.Heat(paletteColors, 1))
	hm.Min = ScaleMinC
	hm.Max = ScaleMaxC
	p.Add(hm)

	roi, err := windowOutline(domain.RegionOfInterest())
	if err != nil {
		return err
	}
	p.Add(roi)

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("encode plot: %w", err)
	}
	return r.writeAtomic(wt)
}

// writeAtomic writes to a temp file in the output directory and renames it
// over Path, so readers never see a half-written image.
func (r *Renderer) writeAtomic(wt io.WriterTo) error {
	tmp, err := os.CreateTemp(r.outputDir, tempPattern)
	if err != nil {
		return fmt.Errorf("create temp plot: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := wt.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write plot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp plot: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.Path()); err != nil {
		return fmt.Errorf("publish plot: %w", err)
	}
	return nil
}

// windowOutline draws the cell-edge boundary of w.
func windowOutline(w domain.Window) (*plotter.Line, error) {
	x0, x1 := float64(w.MinCol)-0.5, float64(w.MaxCol)+0.5
	y0, y1 := float64(w.MinRow)-0.5, float64(w.MaxRow)+0.5
	line, err := plotter.NewLine(plotter.XYs{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	})
	if err != nil {
		return nil, fmt.Errorf("roi outline: %w", err)
	}
	line.Color = color.RGBA{R: 0, G: 200, B: 255, A: 255}
	line.Width = vg.Points(1)
	line.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
	return line, nil
}

// thermalXYZ adapts a ThermalGrid to plotter.GridXYZ. Values are clamped to
// the colour scale.
type thermalXYZ struct {
	grid domain.ThermalGrid
}

func (g thermalXYZ) Dims() (c, r int) {
	n := g.grid.Size()
	return n, n
}

func (g thermalXYZ) Z(c, r int) float64 {
	return min(max(g.grid.At(r, c), ScaleMinC), ScaleMaxC)
}

func (g thermalXYZ) X(c int) float64 { return float64(c) }
func (g thermalXYZ) Y(r int) float64 { return float64(r) }
