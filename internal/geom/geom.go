// Package geom provides the geometry primitives the nesting engine is
// built on: signed area, bounding boxes, rotation, rectangle detection,
// point-in-polygon, and the closed-form rectangle no-fit-polygon.
package geom

import (
	"math"

	"github.com/piwi3910/nestcut/internal/model"
)

// Epsilon is the default tolerance used for coordinate comparisons,
// relative to unit scale (spec.md §4.1 numeric policy).
const Epsilon = 1e-9

// PolygonArea computes the signed area of a ring using the shoelace
// formula A = 1/2 * sum(x_i*y_(i+1) - x_(i+1)*y_i). Positive means
// counter-clockwise.
func PolygonArea(pts model.Outline) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return area / 2
}

// IsClockwise reports whether a ring is clockwise (signed area <= 0).
func IsClockwise(pts model.Outline) bool {
	return PolygonArea(pts) <= 0
}

// EnsureClockwise returns pts unchanged if it is already clockwise, or
// a reversed copy otherwise. The winding invariant (spec.md §3) requires
// every stored polygon to be clockwise.
func EnsureClockwise(pts model.Outline) model.Outline {
	if IsClockwise(pts) {
		return pts
	}
	return reversed(pts)
}

// EnsureCounterClockwise is the complement of EnsureClockwise, used for
// hole rings inside an outer NFP boundary.
func EnsureCounterClockwise(pts model.Outline) model.Outline {
	if !IsClockwise(pts) {
		return pts
	}
	return reversed(pts)
}

func reversed(pts model.Outline) model.Outline {
	out := make(model.Outline, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// Bounds returns the axis-aligned bounding box of a ring as
// (x, y, width, height).
func Bounds(pts model.Outline) (x, y, width, height float64) {
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}
	min, max := pts.BoundingBox()
	return min.X, min.Y, max.X - min.X, max.Y - min.Y
}

// RotateResult is the outcome of rotating a ring: the rotated points and
// the bounds of the rotated ring (used to reject rotations that cannot
// fit the container before any placement work is attempted).
type RotateResult struct {
	Points        model.Outline
	Width, Height float64
}

// Rotate rotates pts rigidly about the origin by angleDeg degrees.
func Rotate(pts model.Outline, angleDeg float64) RotateResult {
	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	out := make(model.Outline, len(pts))
	for i, p := range pts {
		out[i] = model.Point2D{
			X: p.X*cos - p.Y*sin,
			Y: p.X*sin + p.Y*cos,
		}
	}
	_, _, w, h := Bounds(out)
	return RotateResult{Points: out, Width: w, Height: h}
}

// IsRectangle reports whether pts forms a 4-distinct-vertex ring whose
// points all lie on its own bounding box within tol (a duplicated
// closing vertex is tolerated).
func IsRectangle(pts model.Outline, tol float64) bool {
	ring := pts
	if len(ring) > 1 {
		first, last := ring[0], ring[len(ring)-1]
		if math.Abs(first.X-last.X) < tol && math.Abs(first.Y-last.Y) < tol {
			ring = ring[:len(ring)-1]
		}
	}
	if len(ring) != 4 {
		return false
	}
	minX, minY, w, h := Bounds(ring)
	maxX, maxY := minX+w, minY+h
	for _, p := range ring {
		onVertical := math.Abs(p.X-minX) < tol || math.Abs(p.X-maxX) < tol
		onHorizontal := math.Abs(p.Y-minY) < tol || math.Abs(p.Y-maxY) < tol
		if !onVertical || !onHorizontal {
			return false
		}
	}
	return true
}

// PointLocation reports where a point falls relative to a polygon.
type PointLocation int

const (
	Outside PointLocation = iota
	Inside
	OnEdge
)

// PointInPolygon performs ray casting with explicit on-edge reporting.
func PointInPolygon(p model.Point2D, poly model.Outline) PointLocation {
	n := len(poly)
	if n < 3 {
		return Outside
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if onSegment(p, a, b) {
			return OnEdge
		}
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xIntersect := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < xIntersect {
				inside = !inside
			}
		}
	}
	if inside {
		return Inside
	}
	return Outside
}

func onSegment(p, a, b model.Point2D) bool {
	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	if math.Abs(cross) > Epsilon {
		return false
	}
	dot := (p.X-a.X)*(b.X-a.X) + (p.Y-a.Y)*(b.Y-a.Y)
	if dot < 0 {
		return false
	}
	lenSq := (b.X-a.X)*(b.X-a.X) + (b.Y-a.Y)*(b.Y-a.Y)
	return dot <= lenSq
}

// NFPRectangle computes the closed-form inner no-fit-polygon when A is
// an axis-aligned rectangle: a single rectangle whose dimensions are
// A's dimensions shrunk by B's bounding box, positioned so B's first
// vertex slides along it.
func NFPRectangle(a, b model.Outline) []model.Outline {
	ax, ay, aw, ah := Bounds(a)
	_, _, bw, bh := Bounds(b)
	if bw > aw || bh > ah {
		return nil
	}
	bMin, _ := b.BoundingBox()
	refX, refY := b[0].X-bMin.X, b[0].Y-bMin.Y

	x0 := ax + refX
	y0 := ay + refY
	w := aw - bw
	h := ah - bh

	ring := model.Outline{
		{X: x0, Y: y0},
		{X: x0 + w, Y: y0},
		{X: x0 + w, Y: y0 + h},
		{X: x0, Y: y0 + h},
	}
	return []model.Outline{EnsureClockwise(ring)}
}
