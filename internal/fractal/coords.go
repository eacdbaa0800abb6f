package fractal

import "github.com/frxplorer/api/internal/model"

// Grid maps pixel indices onto complex-plane sample points for a square
// view given by center and span. Row 0 is the bottom of the view.
type Grid struct {
	xCenter, yCenter float64
	xSpan, ySpan     float64
	resolution       int
}

// NewGrid builds a sample grid. Resolutions below 2 cannot span an interval
// and are rejected here, before any computation starts.
func NewGrid(xCenter, yCenter, xSpan, ySpan float64, resolution int) (*Grid, error) {
	if resolution < 2 {
		return nil, &model.ParamsError{Field: "resolution", Reason: "resolution must be >= 2"}
	}
	if xSpan <= 0 || ySpan <= 0 {
		return nil, &model.ParamsError{Field: "span", Reason: "spans must be > 0"}
	}
	return &Grid{
		xCenter:    xCenter,
		yCenter:    yCenter,
		xSpan:      xSpan,
		ySpan:      ySpan,
		resolution: resolution,
	}, nil
}

// Resolution returns the grid's side length in pixels.
func (g *Grid) Resolution() int { return g.resolution }

// At returns the sample point for pixel (row, col). Column 0 maps to
// xCenter - xSpan/2 and column resolution-1 to xCenter + xSpan/2; rows are
// the same along the imaginary axis.
func (g *Grid) At(row, col int) (x, y float64) {
	n := float64(g.resolution - 1)
	x = g.xCenter + (float64(col)/n-0.5)*g.xSpan
	y = g.yCenter + (float64(row)/n-0.5)*g.ySpan
	return x, y
}
