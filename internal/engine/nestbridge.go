package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/nestcut/internal/model"
	"github.com/piwi3910/nestcut/internal/nest"
)

// nestGenerations bounds how many generations the genetic nesting
// search runs per material group before returning its best solution.
// Unlike the rectangle genetic.go path (tuned by GeneticConfig), the
// NFP-driven search has no caller-facing iteration knob yet, so a
// fixed budget keeps Optimize's latency predictable.
const nestGenerations = 40

// optimizeNest runs the NFP-driven nesting pipeline for a material
// group containing at least one non-rectangular part outline. It picks
// the largest-area stock sheet as the canonical container: the
// rectangle engine's multi-stock trial-packing heuristic
// (selectBestStock) depends on a rectangle-only packing simulation and
// does not generalize to polygon containers, so mixed stock sizes in
// an irregular group are approximated by repeating the single largest
// sheet as many times as needed.
func (o *Optimizer) optimizeNest(parts []model.Part, stocks []model.StockSheet) model.OptimizeResult {
	if len(stocks) == 0 || len(parts) == 0 {
		return model.OptimizeResult{UnplacedParts: parts}
	}

	stock := largestStock(stocks)
	containerOutline := rectangleOutline(stock.Width, stock.Height)

	cfg := model.DefaultNestConfig()
	cfg.Spacing = o.Settings.KerfWidth
	cfg.BinHeight = stock.Height

	shapes := make(map[string]model.Outline)
	byInstance := make(map[string]model.Part)
	for _, part := range parts {
		outline := part.Outline
		if len(outline) < 3 {
			outline = rectangleOutline(part.Width, part.Height)
		}
		for i := 0; i < part.Quantity; i++ {
			id := fmt.Sprintf("%s#%d", part.ID, i)
			shapes[id] = outline
			byInstance[id] = part
		}
	}

	n := nest.NewNester(cfg, 1)
	n.AddContainer(containerOutline)
	n.AddObjects(shapes)
	solution, err := n.RunFixedIterations(context.Background(), nestGenerations)
	if err != nil {
		return model.OptimizeResult{UnplacedParts: parts}
	}

	result := model.OptimizeResult{}
	for _, bin := range solution.Bins {
		sheet := model.SheetResult{Stock: stock}
		for _, placement := range bin {
			part := byInstance[placement.ShapeID]
			sheet.Placements = append(sheet.Placements, model.Placement{
				Part:        part,
				X:           placement.TX,
				Y:           placement.TY,
				Rotated:     placement.Rotation == 90 || placement.Rotation == 270,
				RotationDeg: placement.Rotation,
			})
		}
		result.Sheets = append(result.Sheets, sheet)
	}
	for _, id := range solution.Unplaced {
		result.UnplacedParts = append(result.UnplacedParts, byInstance[id])
	}
	return result
}

func largestStock(stocks []model.StockSheet) model.StockSheet {
	best := stocks[0]
	bestArea := best.Width * best.Height
	for _, s := range stocks[1:] {
		area := s.Width * s.Height
		if area > bestArea {
			best = s
			bestArea = area
		}
	}
	return best
}

func rectangleOutline(w, h float64) model.Outline {
	return model.Outline{
		{X: 0, Y: 0},
		{X: w, Y: 0},
		{X: w, Y: h},
		{X: 0, Y: h},
	}
}
