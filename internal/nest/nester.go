package nest

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/piwi3910/nestcut/internal/clip"
	"github.com/piwi3910/nestcut/internal/geom"
	"github.com/piwi3910/nestcut/internal/model"
)

// Nester is the driver API for a nesting run: accumulate a container
// and a set of shapes, then iterate the genetic search toward a
// low-bin, high-efficiency solution. It generalizes the reference
// Nester class this engine's NFP pipeline was ported from, which
// played the same role around a fixed-iteration or target-efficiency
// loop driving repeated generation steps.
type Nester struct {
	config    model.NestConfig
	container model.Shape
	shapes    map[string]model.Outline
	order     []string

	driver *GeneticDriver
	rng    *rand.Rand

	// diagnostics accumulates non-fatal warnings (spec.md §7) recorded
	// at ingestion — currently just dropped degenerate shapes — and is
	// carried forward into every solution Run returns.
	diagnostics []error
}

// NewNester builds an empty driver for the given configuration. The
// rng seed is accepted explicitly rather than time-seeded so that a
// run is reproducible given the same inputs.
func NewNester(cfg model.NestConfig, seed int64) *Nester {
	return &Nester{
		config: cfg,
		shapes: make(map[string]model.Outline),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// AddContainer sets the container outline. Calling it again replaces
// the container and invalidates any in-progress search.
func (n *Nester) AddContainer(outline model.Outline) {
	dilated := n.dilate(outline, -n.config.Spacing/2)
	n.container = model.Shape{ID: model.ContainerShapeID, Outline: dilated, Area: math.Abs(geom.PolygonArea(dilated))}
	n.driver = nil
}

// AddObjects registers shapes to be nested, keyed by id. Outlines are
// cleaned and dilated by half the configured spacing so placement
// naturally keeps parts spacing/2 apart from each other and from the
// container wall (the other half coming from the container's own
// erosion in AddContainer). A shape that simplifies to fewer than 3
// vertices after cleaning is dropped with a recorded diagnostic
// (spec.md §7 `DegeneratePolygon`) rather than fed to the search.
func (n *Nester) AddObjects(shapes map[string]model.Outline) {
	for id, outline := range shapes {
		cleaned := clip.Clean(outline, n.config.CurveTolerance)
		if len(cleaned) < 3 {
			n.diagnostics = append(n.diagnostics, fmt.Errorf("shape %s: %w", id, model.ErrDegeneratePolygon))
			continue
		}
		n.shapes[id] = n.dilate(cleaned, n.config.Spacing/2)
		n.order = append(n.order, id)
	}
	n.driver = nil
}

func (n *Nester) dilate(outline model.Outline, delta float64) model.Outline {
	if delta == 0 {
		return outline
	}
	return clip.Offset(outline, delta, n.config.CurveTolerance)
}

// Clear resets all accumulated shapes and the container, keeping the
// configuration.
func (n *Nester) Clear() {
	n.container = model.Shape{}
	n.shapes = make(map[string]model.Outline)
	n.order = nil
	n.driver = nil
	n.diagnostics = nil
}

func (n *Nester) ensureDriver() {
	if n.driver == nil {
		n.driver = NewGeneticDriver(n.shapes, n.container.Outline, n.config, n.rng)
	}
}

// Run advances the genetic search by one generation and returns the
// best solution found so far, decoded into placements. spec.md §7: an
// empty container or shape set aborts with model.ErrEmptyInput and no
// partial output. spec.md §5: ctx is checked once per call — the
// cooperative cancellation point "between generations" — and a
// cancelled context returns the best solution observed so far alongside
// ctx.Err(), propagated unchanged.
func (n *Nester) Run(ctx context.Context) (model.NestSolution, error) {
	if len(n.shapes) == 0 || len(n.container.Outline) == 0 {
		return model.NestSolution{}, model.ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return n.Best(), err
	}
	n.ensureDriver()
	best := n.driver.Step()
	placer := NewPlacer(n.container.Outline, n.config, n.driver.cache, nil)
	solution := placer.PlaceAll(n.shapes, best.Order, best.Rotations)
	solution.Diagnostics = append(append([]error(nil), n.diagnostics...), solution.Diagnostics...)
	return solution, nil
}

// Best returns the best solution found across all Run calls so far
// without advancing the search, or the zero solution if Run has not
// been called.
func (n *Nester) Best() model.NestSolution {
	if n.driver == nil || !n.driver.haveBest {
		return model.NestSolution{}
	}
	placer := NewPlacer(n.container.Outline, n.config, n.driver.cache, nil)
	solution := placer.PlaceAll(n.shapes, n.driver.best.Order, n.driver.best.Rotations)
	solution.Diagnostics = append(append([]error(nil), n.diagnostics...), solution.Diagnostics...)
	return solution
}

// RunFixedIterations runs exactly iterations generations and returns
// the best solution found, mirroring the fixed-iteration driver loop
// this engine's search was generalized from. It returns early with the
// error from Run if ingestion was empty or ctx is cancelled mid-run.
func (n *Nester) RunFixedIterations(ctx context.Context, iterations int) (model.NestSolution, error) {
	var solution model.NestSolution
	for i := 0; i < iterations; i++ {
		s, err := n.Run(ctx)
		if err != nil {
			return s, err
		}
		solution = s
	}
	return solution, nil
}

// RunUntilFit runs generations until either every shape is placed in a
// single bin or maxIterations is reached, whichever comes first,
// mirroring the target-efficiency driver loop this engine's search was
// generalized from. It returns early with the error from Run if
// ingestion was empty or ctx is cancelled mid-run.
func (n *Nester) RunUntilFit(ctx context.Context, maxIterations int) (model.NestSolution, error) {
	var solution model.NestSolution
	for i := 0; i < maxIterations; i++ {
		s, err := n.Run(ctx)
		if err != nil {
			return s, err
		}
		solution = s
		if len(solution.Unplaced) == 0 && len(solution.Bins) <= 1 {
			break
		}
	}
	return solution, nil
}
