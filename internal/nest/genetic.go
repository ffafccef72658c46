package nest

import (
	"math/rand"
	"sort"

	"github.com/piwi3910/nestcut/internal/geom"
	"github.com/piwi3910/nestcut/internal/model"
	"github.com/piwi3910/nestcut/internal/nfpcache"
)

// rankBias is the per-rank success probability of the truncated
// geometric selection scheme: starting from the fittest genome,
// accept it with this probability, else move to the next rank. This
// replaces the cumulative-bound weighted selection of the system this
// was generalized from, which assigned selection mass inconsistently
// across ranks.
const rankBias = 0.3

// GeneticDriver searches over permutations of shape ids and per-shape
// rotation choices for a low-bin-count, high-efficiency placement,
// using Placer to decode each candidate genome into an actual nesting.
type GeneticDriver struct {
	shapes           map[string]model.Outline
	containerOutline model.Outline
	config           model.NestConfig
	rotationAngles   []float64
	rng              *rand.Rand
	cache            *nfpcache.Cache

	population []model.Genome
	best       model.Genome
	haveBest   bool
}

// NewGeneticDriver builds a driver over the given shapes (id -> canonical
// outline) for the given container, seeded with rng for reproducible
// runs.
func NewGeneticDriver(shapes map[string]model.Outline, containerOutline model.Outline, cfg model.NestConfig, rng *rand.Rand) *GeneticDriver {
	d := &GeneticDriver{
		shapes:           shapes,
		containerOutline: containerOutline,
		config:           cfg,
		rotationAngles:   cfg.RotationAngles(),
		rng:              rng,
		cache:            nfpcache.New(),
	}
	d.population = d.initPopulation()
	return d
}

func (d *GeneticDriver) initPopulation() []model.Genome {
	ids := make([]string, 0, len(d.shapes))
	for id := range d.shapes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pop := make([]model.Genome, 0, d.config.PopulationSize)
	for len(pop) < d.config.PopulationSize {
		pop = append(pop, d.randomGenome(ids))
	}
	return pop
}

func (d *GeneticDriver) randomGenome(ids []string) model.Genome {
	order := make([]string, len(ids))
	copy(order, ids)
	d.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	rotations := make(map[string]float64, len(order))
	for _, id := range order {
		rotations[id] = d.randomRotation()
	}
	return model.Genome{Order: order, Rotations: rotations, Fitness: 0}
}

func (d *GeneticDriver) randomRotation() float64 {
	if len(d.rotationAngles) == 0 {
		return 0
	}
	return d.rotationAngles[d.rng.Intn(len(d.rotationAngles))]
}

// validAngle implements the "random valid angle" procedure spec.md §4.6
// references from both initialisation and mutation: shuffle the
// admissible angles and return the first whose rotated bounds fit
// inside the container, or 0 if none does.
func (d *GeneticDriver) validAngle(shapeID string) float64 {
	if len(d.rotationAngles) == 0 {
		return 0
	}
	_, _, containerW, containerH := geom.Bounds(d.containerOutline)
	angles := make([]float64, len(d.rotationAngles))
	copy(angles, d.rotationAngles)
	d.rng.Shuffle(len(angles), func(i, j int) { angles[i], angles[j] = angles[j], angles[i] })

	outline := d.shapes[shapeID]
	for _, angle := range angles {
		rotated := geom.Rotate(outline, angle)
		if rotated.Width < containerW && rotated.Height < containerH {
			return angle
		}
	}
	return 0
}

// Step runs one generation: evaluate (pruning the NFP cache to exactly
// the keys this generation's batch referenced, per spec.md §4.4), select,
// crossover, mutate, and elitism-preserve the fittest genome unmodified
// into the next population. It returns the best genome seen so far
// across all generations.
func (d *GeneticDriver) Step() model.Genome {
	d.evaluatePopulation()
	sort.Slice(d.population, func(i, j int) bool {
		return d.population[i].Fitness < d.population[j].Fitness
	})

	if !d.haveBest || d.population[0].Fitness < d.best.Fitness {
		d.best = d.population[0].Clone()
		d.haveBest = true
	}

	next := make([]model.Genome, 0, len(d.population))
	next = append(next, d.population[0].Clone()) // elitism

	for len(next) < len(d.population) {
		parentA := d.rankSelect()
		parentB := d.rankSelect()
		child1, child2 := d.orderCrossover(parentA, parentB)
		d.mutate(&child1)
		next = append(next, child1)
		if len(next) < len(d.population) {
			d.mutate(&child2)
			next = append(next, child2)
		}
	}
	d.population = next
	return d.best
}

// evaluatePopulation decodes and scores every genome in the population
// against a fresh per-batch cache (spec.md §4.4): each NFP lookup first
// checks the batch cache, then copies a hit from d.cache (the previous
// batch's surviving entries) without recomputing, and only computes on
// a full miss. Once every genome in the generation has been evaluated,
// d.cache is replaced by the batch cache — entries not referenced this
// generation are dropped, bounding memory to the keys the current
// population can actually produce.
func (d *GeneticDriver) evaluatePopulation() {
	batch := nfpcache.New()
	_, _, containerW, _ := geom.Bounds(d.containerOutline)
	for i := range d.population {
		placer := NewPlacer(d.containerOutline, d.config, batch, d.cache)
		solution := placer.PlaceAll(d.shapes, d.population[i].Order, d.population[i].Rotations)
		d.population[i].Fitness = fitness(solution, d.shapes, containerW)
	}
	d.cache.Merge(batch)
	keep := make(map[model.NFPKey]struct{}, batch.Len())
	for _, k := range batch.Keys() {
		keep[k] = struct{}{}
	}
	d.cache.Prune(keep)
}

// fitness scores a decoded solution, lower being better: the sum of the
// bin widths plus a penalty of twice maxWidth (the container width) per
// unplaced shape, more than any single bin can add.
func fitness(solution model.NestSolution, shapes map[string]model.Outline, maxWidth float64) float64 {
	f := 0.0
	for _, bin := range solution.Bins {
		f += binWidth(bin, shapes)
	}
	f += float64(len(solution.Unplaced)) * 2 * maxWidth
	return f
}

func binWidth(bin model.BinPlacement, shapes map[string]model.Outline) float64 {
	maxRight := 0.0
	for _, placement := range bin {
		_, _, w, _ := boundsOfPlacement(shapes[placement.ShapeID], placement)
		right := placement.TX + w
		if right > maxRight {
			maxRight = right
		}
	}
	return maxRight
}

func boundsOfPlacement(outline model.Outline, placement model.NestPlacement) (x, y, w, h float64) {
	rotated := geom.Rotate(outline, placement.Rotation).Points
	translated := rotated.Translate(placement.TX, placement.TY)
	min, max := translated.BoundingBox()
	return min.X, min.Y, max.X - min.X, max.Y - min.Y
}

// rankSelect implements the truncated geometric rank selection:
// genomes are already sorted fittest-first, so each rank is offered in
// turn with probability rankBias, guaranteeing termination at the last
// rank.
func (d *GeneticDriver) rankSelect() model.Genome {
	for i := 0; i < len(d.population)-1; i++ {
		if d.rng.Float64() < rankBias {
			return d.population[i]
		}
	}
	return d.population[len(d.population)-1]
}

// orderCrossover implements spec.md §4.6's cut-point crossover, the Go
// rendering of `original_source/nfp_function.py`'s `mate`: pick one cut
// point c, then build two children symmetrically with the parents'
// roles swapped.
func (d *GeneticDriver) orderCrossover(m, f model.Genome) (model.Genome, model.Genome) {
	n := len(m.Order)
	c := d.rng.Intn(n)
	child1 := d.crossoverChild(m, f, c)
	child2 := d.crossoverChild(f, m, c)
	return child1, child2
}

// crossoverChild takes primary's first c entries (order and rotations)
// verbatim, then fills the remaining positions by scanning secondary's
// order from the tail, appending any id not yet present together with
// secondary's rotation for it.
func (d *GeneticDriver) crossoverChild(primary, secondary model.Genome, c int) model.Genome {
	n := len(primary.Order)
	order := make([]string, 0, n)
	rotations := make(map[string]float64, n)
	present := make(map[string]bool, n)

	for i := 0; i < c; i++ {
		id := primary.Order[i]
		order = append(order, id)
		rotations[id] = primary.Rotations[id]
		present[id] = true
	}

	for i := n - 1; i >= 0 && len(order) < n; i-- {
		id := secondary.Order[i]
		if present[id] {
			continue
		}
		order = append(order, id)
		rotations[id] = secondary.Rotations[id]
		present[id] = true
	}

	return model.Genome{Order: order, Rotations: rotations}
}

// mutate applies spec.md §4.6's two mutation events: per position,
// swap with the next position with probability 0.01*mutationRate; then,
// once per genome with the same probability, resample one uniformly
// chosen gene's rotation via the valid-angle procedure. The source this
// was generalized from resampled using the swap loop's final index
// instead of a fresh uniform pick — spec.md §9 calls this out as a bug,
// not intended behavior, so it is not reproduced here.
func (d *GeneticDriver) mutate(g *model.Genome) {
	rate := float64(d.config.MutationRate) / 100
	n := len(g.Order)
	if n < 2 {
		return
	}

	for i := 0; i < n-1; i++ {
		if d.rng.Float64() < rate {
			g.Order[i], g.Order[i+1] = g.Order[i+1], g.Order[i]
		}
	}

	if d.rng.Float64() < rate {
		idx := d.rng.Intn(n)
		id := g.Order[idx]
		g.Rotations[id] = d.validAngle(id)
	}
}
