package fractal

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/frxplorer/api/internal/model"
)

// minIterSentinel marks min_distance_iteration_map cells when no trap is
// configured.
const minIterSentinel = -1

// Field holds every whole-grid map produced by one evaluation, row-major,
// resolution x resolution. SmoothMin/SmoothMax are the observed raw smooth
// iteration bounds over escaped pixels, the inputs of the grid-wide
// normalization.
type Field struct {
	Resolution int
	Maps       map[string][]float32
	SmoothMin  float64
	SmoothMax  float64
}

// Evaluator drives the iteration kernel over a full pixel grid. Pixel
// orbits are independent: rows are fanned out to a fixed pool of
// goroutines, each pixel writing only its own index, and the smooth
// iteration normalization runs strictly after the join.
type Evaluator struct {
	params  model.FractalParams
	grid    *Grid
	trap    Trap
	workers int
}

// NewEvaluator validates the parameter set and prepares an evaluator.
func NewEvaluator(p model.FractalParams) (*Evaluator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	grid, err := NewGrid(p.XCenter, p.YCenter, p.XSpan, p.YSpan, p.Resolution)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		params:  p,
		grid:    grid,
		trap:    NewTrap(&p),
		workers: runtime.GOMAXPROCS(0),
	}, nil
}

// SetWorkers overrides the pool size (minimum 1).
func (e *Evaluator) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	e.workers = n
}

// Evaluate computes every map for the parameter set. The result is a pure
// function of the params: no other state influences it.
func (e *Evaluator) Evaluate(ctx context.Context) (*Field, error) {
	res := e.params.Resolution
	size := res * res

	maps := make(map[string][]float32, len(model.MapNames))
	for _, name := range model.MapNames {
		maps[name] = make([]float32, size)
	}
	smooth := make([]float64, size)
	escaped := make([]bool, size)

	rows := make(chan int)
	errs := make(chan error, e.workers)
	var wg sync.WaitGroup

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range rows {
				if err := ctx.Err(); err != nil {
					errs <- err
					return
				}
				for col := 0; col < res; col++ {
					e.evalPixel(row, col, maps, smooth, escaped)
				}
			}
		}()
	}

feed:
	for row := 0; row < res; row++ {
		select {
		case rows <- row:
		case <-ctx.Done():
			break feed
		}
	}
	close(rows)
	wg.Wait()

	select {
	case err := <-errs:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Grid-wide pass: rescale the raw smooth counts of escaped pixels into
	// [0,1]. Interior pixels keep the zero sentinel. This is a cross-pixel
	// dependency and must not run before the join above.
	field := &Field{Resolution: res, Maps: maps}
	field.SmoothMin, field.SmoothMax = normalizeSmooth(maps[model.MapNormalizedIterations], smooth, escaped)
	return field, nil
}

// evalPixel runs one orbit to escape or the iteration limit and records
// every derived value at the pixel's flat index.
func (e *Evaluator) evalPixel(row, col int, maps map[string][]float32, smooth []float64, escapedFlags []bool) {
	p := &e.params
	x, y := e.grid.At(row, col)

	var z0r, z0i, cr, ci, dcTerm float64
	if p.Family == model.FamilyJulia {
		z0r, z0i = x, y
		cr, ci = p.CReal, p.CImag
		dcTerm = 0
	} else {
		z0r, z0i = 0, 0
		cr, ci = x, y
		dcTerm = 1
	}

	o := newOrbit(z0r, z0i)
	trapped := e.trap.Enabled()

	minDist := 0.0
	minIter := minIterSentinel
	if trapped {
		// The seed counts as iteration 0, so the recorded minimum is
		// always <= the distance at iteration 0.
		minDist = e.trap.Distance(z0r, z0i)
		minIter = 0
	}

	n := p.MaxIterations
	escaped := false
	fixedZ := z0r
	fixedSeen := false

	for i := 0; i < p.MaxIterations; i++ {
		if i == p.FixedIteration {
			fixedZ = o.zr
			fixedSeen = true
		}
		if o.magSq() > p.Bailout {
			n = i
			escaped = true
			break
		}
		o.step(cr, ci, p.Power, dcTerm)
		if trapped {
			if d := e.trap.Distance(o.zr, o.zi); d < minDist {
				minDist = d
				minIter = i + 1
			}
		}
	}

	if !escaped && p.FixedIteration == p.MaxIterations {
		fixedZ = o.zr
		fixedSeen = true
	}
	if !fixedSeen {
		// The orbit escaped before the snapshot iteration: carry the last
		// computed value forward. Deterministic, not an error.
		fixedZ = o.zr
	}

	mag := math.Sqrt(o.magSq())
	dm := o.derivMag()

	var smoothVal, dist, escMag float64
	if escaped {
		escMag = mag
		smoothVal = float64(n) + 1 - math.Log(math.Log(mag)/math.Log(p.Bailout))/math.Log(float64(p.Power))
		if dm > 0 {
			dist = mag * math.Log(mag) / dm
		}
	}

	idx := row*e.params.Resolution + col
	smooth[idx] = sanitize(smoothVal)
	escapedFlags[idx] = escaped
	maps[model.MapIterations][idx] = float32(n)
	maps[model.MapMagnitudes][idx] = f32(escMag)
	maps[model.MapDistance][idx] = f32(dist)
	maps[model.MapFinalDerivativeMag][idx] = f32(dm)
	maps[model.MapMinTrapDistance][idx] = f32(minDist)
	maps[model.MapMinTrapIteration][idx] = float32(minIter)
	maps[model.MapFinalZReal][idx] = f32(o.zr)
	maps[model.MapFinalZImag][idx] = f32(o.zi)
	maps[model.MapFinalZRealAtFixed][idx] = f32(fixedZ)
}

// normalizeSmooth rescales raw smooth counts of escaped pixels into [0,1]
// in place of the normalized iterations map. Returns the observed bounds.
func normalizeSmooth(dst []float32, smooth []float64, escaped []bool) (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	any := false
	for i, v := range smooth {
		if !escaped[i] {
			continue
		}
		any = true
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !any {
		return 0, 0
	}
	span := max - min
	for i, v := range smooth {
		if !escaped[i] || span <= 0 {
			continue
		}
		dst[i] = float32((v - min) / span)
	}
	return min, max
}

// sanitize clamps non-finite intermediate values to zero, the same
// treatment the presentation pipeline applies before color mapping.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func f32(v float64) float32 {
	return float32(sanitize(v))
}
