// Package nfp computes no-fit-polygons: the locus of reference points of
// one polygon such that it touches another without overlapping, in both
// inner-fit (nested inside) and outer-fit (orbiting outside) modes.
package nfp

import (
	"github.com/piwi3910/nestcut/internal/clip"
	"github.com/piwi3910/nestcut/internal/geom"
	"github.com/piwi3910/nestcut/internal/model"
)

// rectangleTolerance is the tolerance passed to geom.IsRectangle when
// deciding whether the closed-form rectangle NFP applies.
const rectangleTolerance = 1e-4

// Inner computes the inner NFP: the feasible region(s) for B's reference
// point (B's first vertex) such that B lies entirely inside A and
// touches its boundary. Every returned ring is wound clockwise.
func Inner(a, b model.Outline) model.NFPValue {
	if len(a) < 3 || len(b) < 3 {
		return nil
	}
	var rings []model.Outline
	if geom.IsRectangle(a, rectangleTolerance) {
		rings = geom.NFPRectangle(a, b)
	} else {
		rings = innerOrbital(a, b)
	}
	return normalizeInner(rings)
}

// innerOrbital computes the general inner NFP as the intersection, over
// every vertex p of B, of A translated so that p sits at B's reference
// vertex, so every vertex of B lies inside A. This is exact when A is
// convex (B then lies inside A exactly when all its vertices do); for
// concave A an edge of B may still cross A's boundary between two
// vertices. There is no edge-sliding implementation; the result is
// built entirely on the clipping adapter's boolean ops.
func innerOrbital(a, b model.Outline) []model.Outline {
	ref := b[0]
	regions := []model.Outline{a}
	for _, p := range b[1:] {
		dx, dy := p.X-ref.X, p.Y-ref.Y
		translated := a.Translate(-dx, -dy)
		regions = clip.Intersect(regions, []model.Outline{translated})
		if len(regions) == 0 {
			return nil
		}
	}
	return regions
}

func normalizeInner(rings []model.Outline) model.NFPValue {
	if len(rings) == 0 {
		return nil
	}
	out := make(model.NFPValue, 0, len(rings))
	for _, r := range rings {
		if len(r) < 3 {
			continue
		}
		out = append(out, geom.EnsureClockwise(r))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Outer computes the outer NFP: the locus of B's reference point such
// that B orbits outside A, touching but not overlapping. When
// exploreConcave is false (the default), the boundary is derived from
// the Minkowski difference A ⊕ (−B). When true, additional hole rings
// are contributed by the regions where B nests into a concave pocket of
// A (computed the same way as Inner), matching the post-processing rule
// of spec.md §4.3 step 3 for classifying subsequent rings as holes.
func Outer(a, b model.Outline, exploreConcave bool) model.NFPValue {
	if len(a) < 3 || len(b) < 3 {
		return nil
	}
	boundary := minkowskiDifference(a, b)
	if boundary == nil {
		return nil
	}
	boundary = geom.EnsureClockwise(boundary)

	if absArea(boundary) < absArea(a) {
		return nil
	}

	rings := []model.Outline{boundary}
	if exploreConcave {
		for _, hole := range innerOrbital(a, b) {
			if len(hole) < 3 {
				continue
			}
			rings = append(rings, hole)
		}
	}
	return postProcessOuter(rings)
}

// minkowskiDifference implements spec.md §4.3's default outer-NFP path:
// negate B, take the Minkowski sum of A and −B via the clipping
// adapter, keep the summand with the algebraically smallest (most
// negative) signed area, and translate it back into B's reference
// frame (the frame shift cancels to a translation by B's first vertex).
func minkowskiDifference(a, b model.Outline) model.Outline {
	negB := make(model.Outline, len(b))
	for i, p := range b {
		negB[i] = model.Point2D{X: -p.X, Y: -p.Y}
	}

	solution := clip.MinkowskiSum(a, negB)
	if len(solution) == 0 {
		return nil
	}

	var best model.Outline
	bestArea := 0.0
	haveBest := false
	for _, s := range solution {
		area := geom.PolygonArea(s)
		if !haveBest || area < bestArea {
			best = s
			bestArea = area
			haveBest = true
		}
	}
	if !haveBest {
		return nil
	}
	return best.Translate(b[0].X, b[0].Y)
}

// postProcessOuter applies spec.md §4.3's post-processing: ring 0 is
// oriented clockwise (already done by the caller), and each subsequent
// ring is reversed to counter-clockwise if its first vertex lies inside
// ring 0 and it is currently wound clockwise (negative area).
func postProcessOuter(rings []model.Outline) model.NFPValue {
	if len(rings) == 0 {
		return nil
	}
	out := make(model.NFPValue, len(rings))
	out[0] = rings[0]
	for i := 1; i < len(rings); i++ {
		ring := rings[i]
		if len(ring) == 0 {
			continue
		}
		if geom.PointInPolygon(ring[0], out[0]) != geom.Outside && geom.PolygonArea(ring) < 0 {
			ring = geom.EnsureCounterClockwise(ring)
		}
		out[i] = ring
	}
	return out
}

func absArea(o model.Outline) float64 {
	a := geom.PolygonArea(o)
	if a < 0 {
		return -a
	}
	return a
}
