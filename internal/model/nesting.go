package model

// Shape is a polygon together with the identity and area spec.md §3
// requires for nesting: an id (the container uses the sentinel "-1"),
// an absolute area computed at ingestion, and any hole children. Shapes
// are immutable after ingestion — callers that need a transformed copy
// build a new Shape rather than mutating one in place.
type Shape struct {
	ID       string
	Outline  Outline
	Area     float64
	Children []Shape
}

// ContainerShapeID is the sentinel id reserved for the container.
const ContainerShapeID = "-1"

// NFPMode selects which no-fit-polygon is being computed.
type NFPMode int

const (
	ModeInner NFPMode = iota // B fits inside A
	ModeOuter                // B orbits outside A
)

func (m NFPMode) String() string {
	if m == ModeInner {
		return "inner"
	}
	return "outer"
}

// NFPKey canonically identifies one no-fit-polygon computation. Two
// logically equal keys compare equal (struct equality), replacing the
// serialized-JSON keys of the system this was generalized from.
type NFPKey struct {
	AID    string
	BID    string
	Mode   NFPMode
	ARot   float64
	BRot   float64
}

// NFPValue is the result of one NFP computation: a non-empty list of
// rings. For ModeOuter, element 0 is the outer boundary and later
// elements are holes inside it. For ModeInner, each element is an
// independent feasible region for B's reference point.
type NFPValue []Outline

// Genome is a candidate nesting solution: a permutation of shape ids
// with one admissible rotation per shape. Fitness is set after
// evaluation; lower is better.
type Genome struct {
	Order     []string
	Rotations map[string]float64
	Fitness   float64
}

// Clone returns a deep copy safe to mutate independently of g.
func (g Genome) Clone() Genome {
	order := make([]string, len(g.Order))
	copy(order, g.Order)
	rotations := make(map[string]float64, len(g.Rotations))
	for k, v := range g.Rotations {
		rotations[k] = v
	}
	return Genome{Order: order, Rotations: rotations, Fitness: g.Fitness}
}

// NestPlacement is the rigid transform taking a shape's canonical
// outline to its placed position: rotate by Rotation degrees about the
// origin (internal/geom.Rotate), then translate by (TX, TY).
type NestPlacement struct {
	ShapeID  string
	TX, TY   float64
	Rotation float64
}

// BinPlacement is one filled container: an ordered list of placements.
type BinPlacement []NestPlacement

// NestSolution is the full result of a nesting run.
type NestSolution struct {
	Bins     []BinPlacement
	Unplaced []string
	// Diagnostics carries non-fatal warnings recorded along the way
	// (spec.md §7: dropped degenerate shapes, unavailable NFPs, parts
	// with no feasible position). Only ErrEmptyInput aborts a run; every
	// other sentinel in errors.go surfaces here instead.
	Diagnostics []error
}

// NestConfig is the explicit, immutable configuration record for a
// nesting run (spec.md §9 "Global configuration" design note — no
// process-wide tunables).
type NestConfig struct {
	CurveTolerance float64 // max deviation approximating curves during clean/offset
	Spacing        float64 // Minkowski dilation radius applied to shapes + container
	Rotations      int     // number of equally spaced admissible rotations, >= 1
	PopulationSize int     // >= 2
	MutationRate   int     // percent in [0,100], applied as 0.01*rate per event
	UseHoles       bool    // reserved; accepted but has no effect
	ExploreConcave bool    // passed to nfp.Outer as exploreConcave; there is no edge-sliding outer-NFP path
	BinHeight      float64 // used to derive the unbounded-strip fallback length
}

// DefaultNestConfig returns the conventional defaults used across the
// reference implementation this was ported from.
func DefaultNestConfig() NestConfig {
	return NestConfig{
		CurveTolerance: 0.3,
		Spacing:        0,
		Rotations:      4,
		PopulationSize: 10,
		MutationRate:   10,
		UseHoles:       false,
		ExploreConcave: false,
		BinHeight:      1000,
	}
}

// RotationAngles returns the R admissible rotation angles for a config,
// the equal partition of 360 degrees into c.Rotations steps.
func (c NestConfig) RotationAngles() []float64 {
	n := c.Rotations
	if n < 1 {
		n = 1
	}
	angles := make([]float64, n)
	for i := 0; i < n; i++ {
		angles[i] = float64(i) * (360.0 / float64(n))
	}
	return angles
}

// StripLengthHint is an informational hint for unbounded-strip mode
// (spec.md §9: "shapes_max_length ... used nowhere essential"). It is
// computed for callers that want a fallback strip length but is never
// consulted by the placement worker or genetic driver.
func StripLengthHint(totalArea, binHeight float64) float64 {
	if binHeight <= 0 {
		return 0
	}
	return totalArea / binHeight * 3
}
