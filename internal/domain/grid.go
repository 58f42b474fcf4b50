package domain

// Sensor geometry.
const (
	GridSize = 64

	// HotPatchOrigin and HotPatchSize place the injected fire at
	// rows/cols [28, 36).
	HotPatchOrigin = 28
	HotPatchSize   = 8
)

// Cell is a (row, column) pixel coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// GridCenter is the pixel directly beneath the platform.
func GridCenter() Cell {
	return Cell{Row: GridSize / 2, Col: GridSize / 2}
}

// Window is an inclusive rectangular pixel range.
type Window struct {
	MinRow, MaxRow int
	MinCol, MaxCol int
}

// Contains reports whether c lies inside w, bounds included.
func (w Window) Contains(c Cell) bool {
	return c.Row >= w.MinRow && c.Row <= w.MaxRow &&
		c.Col >= w.MinCol && c.Col <= w.MaxCol
}

// HotPatch is the square that receives the synthetic fire increment.
func HotPatch() Window {
	return Window{
		MinRow: HotPatchOrigin, MaxRow: HotPatchOrigin + HotPatchSize - 1,
		MinCol: HotPatchOrigin, MaxCol: HotPatchOrigin + HotPatchSize - 1,
	}
}

// RegionOfInterest is the window reported anomalies must fall in. It tracks
// the hot patch and extends one pixel past its far edge, giving
// [28,36]×[28,36].
func RegionOfInterest() Window {
	return Window{
		MinRow: HotPatchOrigin, MaxRow: HotPatchOrigin + HotPatchSize,
		MinCol: HotPatchOrigin, MaxCol: HotPatchOrigin + HotPatchSize,
	}
}

// ThermalGrid is a square field of temperatures in °C. It is not modified
// after construction.
type ThermalGrid struct {
	size   int
	values []float64
}

// NewThermalGrid builds a grid from row-major rows. All rows must have the
// same length as the number of rows; it panics otherwise.
func NewThermalGrid(rows [][]float64) ThermalGrid {
	n := len(rows)
	values := make([]float64, 0, n*n)
	for _, r := range rows {
		if len(r) != n {
			panic("domain: thermal grid must be square")
		}
		values = append(values, r...)
	}
	return ThermalGrid{size: n, values: values}
}

// UniformGrid returns a GridSize×GridSize grid filled with v.
func UniformGrid(v float64) ThermalGrid {
	values := make([]float64, GridSize*GridSize)
	for i := range values {
		values[i] = v
	}
	return ThermalGrid{size: GridSize, values: values}
}

// WithPatch returns a copy of g with every cell in w set to v.
func (g ThermalGrid) WithPatch(w Window, v float64) ThermalGrid {
	values := make([]float64, len(g.values))
	copy(values, g.values)
	for r := w.MinRow; r <= w.MaxRow && r < g.size; r++ {
		for c := w.MinCol; c <= w.MaxCol && c < g.size; c++ {
			values[r*g.size+c] = v
		}
	}
	return ThermalGrid{size: g.size, values: values}
}

// Size returns the edge length in pixels.
func (g ThermalGrid) Size() int { return g.size }

// At returns the temperature at (row, col).
func (g ThermalGrid) At(row, col int) float64 {
	return g.values[row*g.size+col]
}

// Values returns a row-major copy of the field.
func (g ThermalGrid) Values() []float64 {
	out := make([]float64, len(g.values))
	copy(out, g.values)
	return out
}
