// Package clip adapts the nesting engine's polygon geometry to
// github.com/ctessum/go.clipper, the Go port of the Clipper polygon
// library (the same library family original_source's Python nester
// binds through pyclipper). Clipper operates on fixed-point integer
// coordinates; this package owns the scaling back and forth.
package clip

import (
	clipper "github.com/ctessum/go.clipper"

	"github.com/piwi3910/nestcut/internal/model"
)

// scale converts the module's double-precision mm coordinates to
// Clipper's fixed-point CInt space. 1e4 preserves four decimal places,
// comfortably below the mm-scale tolerances this engine works at.
const scale = 1e4

func toPath(o model.Outline) clipper.Path {
	path := make(clipper.Path, len(o))
	for i, p := range o {
		path[i] = &clipper.IntPoint{
			X: clipper.CInt(p.X * scale),
			Y: clipper.CInt(p.Y * scale),
		}
	}
	return path
}

func fromPath(p clipper.Path) model.Outline {
	out := make(model.Outline, len(p))
	for i, pt := range p {
		out[i] = model.Point2D{
			X: float64(pt.X) / scale,
			Y: float64(pt.Y) / scale,
		}
	}
	return out
}

func fromPaths(ps clipper.Paths) []model.Outline {
	out := make([]model.Outline, len(ps))
	for i, p := range ps {
		out[i] = fromPath(p)
	}
	return out
}

// Simplify removes self-intersections under the non-zero fill rule,
// returning the resolved set of simple rings.
func Simplify(poly model.Outline) []model.Outline {
	simplified := clipper.SimplifyPolygon(toPath(poly), clipper.PftNonZero)
	return fromPaths(simplified)
}

// Clean removes collinear and near-duplicate vertices within
// curveTolerance (scaled into Clipper's integer space).
func Clean(poly model.Outline, curveTolerance float64) model.Outline {
	cleaned := clipper.CleanPolygon(toPath(poly), curveTolerance*scale)
	return fromPath(cleaned)
}

// Offset dilates (delta > 0) or erodes (delta < 0) poly by delta,
// rounding corners with the configured miter limit and curve
// tolerance, used to inflate parts and the container interior by the
// configured spacing.
func Offset(poly model.Outline, delta, curveTolerance float64) model.Outline {
	if delta == 0 {
		return poly
	}
	co := clipper.NewClipperOffset()
	co.MiterLimit = 2
	co.ArcTolerance = curveTolerance * scale
	co.AddPath(toPath(poly), clipper.JtRound, clipper.EtClosedPolygon)
	solution := co.Execute(delta * scale)
	if len(solution) == 0 {
		return poly
	}
	return fromPath(largestByArea(solution))
}

// MinkowskiSum computes the raw Minkowski sum of two closed polygons,
// used by the NFP engine to derive the outer no-fit-polygon.
func MinkowskiSum(a, b model.Outline) []model.Outline {
	solution := clipper.MinkowskiSum(toPath(a), toPath(b), true)
	return fromPaths(solution)
}

// Intersect returns the boolean intersection of two ring sets under the
// non-zero fill rule, used by the NFP engine's vertex-translate method
// for the general (non-rectangular) inner no-fit-polygon.
func Intersect(subjects, clips []model.Outline) []model.Outline {
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(toPaths(subjects), clipper.PtSubject, true)
	c.AddPaths(toPaths(clips), clipper.PtClip, true)
	solution, ok := c.Execute2(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil
	}
	return fromPaths(solution)
}

// Difference returns the boolean difference of subjects minus clips
// under the non-zero fill rule: subjects, with every ring in clips
// removed. A clip polygon's hole rings (wound opposite its outer ring)
// carve feasible area back out of the removed region, matching how the
// NFP engine represents an outer no-fit-polygon's holes. Used by the
// placement worker to subtract the union of outer-NFPs from a part's
// inner-NFP, leaving the residue of feasible reference points.
func Difference(subjects, clips []model.Outline) []model.Outline {
	if len(clips) == 0 {
		return subjects
	}
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(toPaths(subjects), clipper.PtSubject, true)
	c.AddPaths(toPaths(clips), clipper.PtClip, true)
	solution, ok := c.Execute2(clipper.CtDifference, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil
	}
	return fromPaths(solution)
}

func toPaths(os []model.Outline) clipper.Paths {
	paths := make(clipper.Paths, len(os))
	for i, o := range os {
		paths[i] = toPath(o)
	}
	return paths
}

// Area returns the signed area of a ring as Clipper computes it
// (positive for counter-clockwise rings), converted back from the
// fixed-point scale.
func Area(poly model.Outline) float64 {
	return clipper.Area(toPath(poly)) / (scale * scale)
}

func largestByArea(paths clipper.Paths) clipper.Path {
	best := paths[0]
	bestArea := absFloat(clipper.Area(best))
	for _, p := range paths[1:] {
		a := absFloat(clipper.Area(p))
		if a > bestArea {
			best = p
			bestArea = a
		}
	}
	return best
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
