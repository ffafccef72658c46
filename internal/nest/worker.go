// Package nest implements the general irregular-polygon nesting
// pipeline: a greedy NFP-driven placement worker and a genetic driver
// that searches over part orderings and rotations.
package nest

import (
	"fmt"
	"math"

	"github.com/piwi3910/nestcut/internal/clip"
	"github.com/piwi3910/nestcut/internal/geom"
	"github.com/piwi3910/nestcut/internal/model"
	"github.com/piwi3910/nestcut/internal/nfp"
	"github.com/piwi3910/nestcut/internal/nfpcache"
)

// placedShape is one already-committed shape within a bin: its rotated
// (but not translated) outline, the rotation it was placed at, and its
// placement translation. Keeping the rotated outline untranslated lets
// the outer-NFP cache key on (id, rotation) alone — the result is
// translation-invariant and is shifted into absolute bin coordinates
// only at the point of use, since the same shape id's NFP against id
// can otherwise be reused across many generations that place it at
// different positions.
type placedShape struct {
	outline  model.Outline
	rotation float64
	tx, ty   float64
}

// binState tracks one open container instance as shapes are placed
// into it.
type binState struct {
	placements []model.NestPlacement
	placed     map[string]placedShape
	width      float64
}

// Placer places a sequence of shapes, in the order given and at their
// genome-chosen rotations, into as many container instances as needed.
// It is deterministic and greedy: each shape goes into the first open
// bin it fits, at the candidate position minimizing (resulting bin
// width, y, x), or opens a new bin if it fits none.
type Placer struct {
	containerOutline model.Outline
	cache            *nfpcache.Cache
	source           *nfpcache.Cache
	config           model.NestConfig
	diagnostics      []error
}

// NewPlacer builds a Placer for a given container outline (already
// dilated by spacing, if any) and cache. source, if non-nil, is
// consulted (and copied from, never recomputed) on a miss in cache
// before falling back to computing the NFP — this is what lets a
// genetic-driver generation batch start from the previous batch's
// cache contents without mutating it (see GeneticDriver.evaluatePopulation).
func NewPlacer(containerOutline model.Outline, cfg model.NestConfig, cache *nfpcache.Cache, source *nfpcache.Cache) *Placer {
	return &Placer{containerOutline: containerOutline, cache: cache, source: source, config: cfg}
}

// PlaceAll runs the greedy placement pass and returns the resulting
// solution. shapes maps shape id to its canonical (unrotated) outline.
func (p *Placer) PlaceAll(shapes map[string]model.Outline, order []string, rotations map[string]float64) model.NestSolution {
	var bins []*binState
	var unplaced []string

	for _, id := range order {
		outline := shapes[id]
		rotation := rotations[id]
		rotated := geom.Rotate(outline, rotation).Points

		placed := false
		for _, bin := range bins {
			if placement, ok := p.tryPlace(bin, id, rotated, rotation); ok {
				p.commit(bin, placement, rotated)
				placed = true
				break
			}
		}
		if !placed {
			bin := &binState{placed: make(map[string]placedShape)}
			if placement, ok := p.tryPlace(bin, id, rotated, rotation); ok {
				p.commit(bin, placement, rotated)
				bins = append(bins, bin)
				placed = true
			}
		}
		if !placed {
			unplaced = append(unplaced, id)
			p.diagnostics = append(p.diagnostics, fmt.Errorf("shape %s: %w", id, model.ErrNoFeasiblePosition))
		}
	}

	solution := model.NestSolution{Unplaced: unplaced, Diagnostics: p.diagnostics}
	for _, bin := range bins {
		solution.Bins = append(solution.Bins, bin.placements)
	}
	return solution
}

func (p *Placer) commit(bin *binState, placement model.NestPlacement, rotated model.Outline) {
	bin.placements = append(bin.placements, placement)
	bin.placed[placement.ShapeID] = placedShape{
		outline:  rotated,
		rotation: placement.Rotation,
		tx:       placement.TX,
		ty:       placement.TY,
	}
	abs := rotated.Translate(placement.TX, placement.TY)
	_, _, w, _ := geom.Bounds(abs)
	right := placement.TX + w
	if right > bin.width {
		bin.width = right
	}
}

// lookup fetches key from the batch cache, falling back to a copy from
// source (without recomputing) and finally to compute() on a full miss
// — spec.md §4.4's per-batch "copy present entries, compute misses"
// cache policy.
func (p *Placer) lookup(key model.NFPKey, compute func() model.NFPValue) model.NFPValue {
	if v, ok := p.cache.Get(key); ok {
		return v
	}
	if p.source != nil {
		if v, ok := p.source.Get(key); ok {
			p.cache.Put(key, v)
			return v
		}
	}
	v := compute()
	p.cache.Put(key, v)
	return v
}

// tryPlace finds the best feasible position for the already-rotated
// outline in bin. spec.md §4.5 step 3: the container's inner-NFP
// bounds the admissible reference positions; the union of the outer
// NFPs against every already-placed shape is subtracted from it via
// polygon difference, and the residue's vertices are the candidate
// points.
func (p *Placer) tryPlace(bin *binState, id string, rotated model.Outline, rotation float64) (model.NestPlacement, bool) {
	innerKey := model.NFPKey{AID: model.ContainerShapeID, BID: id, Mode: model.ModeInner, ARot: 0, BRot: rotation}
	innerRegions := p.lookup(innerKey, func() model.NFPValue {
		return nfp.Inner(p.containerOutline, rotated)
	})
	if len(innerRegions) == 0 {
		p.diagnostics = append(p.diagnostics, fmt.Errorf("shape %s at rotation %g: %w", id, rotation, model.ErrNFPUnavailable))
		return model.NestPlacement{}, false
	}

	residue := p.residue(bin, id, rotated, rotation, innerRegions)
	best, found := p.bestCandidate(bin, rotated, residue)
	if !found {
		return model.NestPlacement{}, false
	}

	ref := rotated[0]
	return model.NestPlacement{
		ShapeID:  id,
		TX:       best.X - ref.X,
		TY:       best.Y - ref.Y,
		Rotation: rotation,
	}, true
}

// residue computes the feasible set for id's reference point: the
// container inner-NFP minus the union of the outer NFPs against every
// shape already committed in bin (each shape's outer NFP translated
// into the bin's absolute frame first). With no shapes placed yet it
// is simply the inner NFP, matching step 4 of spec.md §4.5 ("open a new
// bin and retry with the inner-NFP alone").
func (p *Placer) residue(bin *binState, id string, rotated model.Outline, rotation float64, innerRegions model.NFPValue) model.NFPValue {
	var exclusions []model.Outline
	for placedID, placed := range bin.placed {
		outerKey := model.NFPKey{AID: placedID, BID: id, Mode: model.ModeOuter, ARot: placed.rotation, BRot: rotation}
		regions := p.lookup(outerKey, func() model.NFPValue {
			return nfp.Outer(placed.outline, rotated, p.config.ExploreConcave)
		})
		if len(regions) == 0 {
			p.diagnostics = append(p.diagnostics, fmt.Errorf("shape %s vs %s: %w", id, placedID, model.ErrNFPUnavailable))
			continue
		}
		absolute := translateRegions(regions, placed.tx, placed.ty)
		exclusions = append(exclusions, []model.Outline(absolute)...)
	}
	if len(exclusions) == 0 {
		return innerRegions
	}
	return model.NFPValue(clip.Difference([]model.Outline(innerRegions), exclusions))
}

type scoredCandidate struct {
	point model.Point2D
	width float64
}

// bestCandidate enumerates every vertex of every residue ring as a
// candidate reference point and returns the one minimizing (bin width,
// y, x), where width is the extent of the bin's bounding box were
// rotated placed with its reference vertex at that candidate.
func (p *Placer) bestCandidate(bin *binState, rotated model.Outline, residue model.NFPValue) (model.Point2D, bool) {
	ref := rotated[0]
	var best *scoredCandidate
	for _, ring := range residue {
		for _, candidate := range ring {
			tx, ty := candidate.X-ref.X, candidate.Y-ref.Y
			_, _, w, _ := geom.Bounds(rotated.Translate(tx, ty))
			width := math.Max(bin.width, tx+w)
			sc := scoredCandidate{point: candidate, width: width}
			if best == nil || betterCandidate(sc, *best) {
				cp := sc
				best = &cp
			}
		}
	}
	if best == nil {
		return model.Point2D{}, false
	}
	return best.point, true
}

// betterCandidate implements the (width, y, x) tie-break: minimize
// resulting bin width first, then y, then x.
func betterCandidate(a, b scoredCandidate) bool {
	if a.width != b.width {
		return a.width < b.width
	}
	if a.point.Y != b.point.Y {
		return a.point.Y < b.point.Y
	}
	return a.point.X < b.point.X
}

func translateRegions(regions model.NFPValue, dx, dy float64) model.NFPValue {
	out := make(model.NFPValue, len(regions))
	for i, ring := range regions {
		out[i] = ring.Translate(dx, dy)
	}
	return out
}
