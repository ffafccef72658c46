package model

import "errors"

// Sentinel errors for the nesting pipeline (spec.md §7). Only
// ErrEmptyInput is fatal to a run; the others are recorded and absorbed
// into the fitness penalty or handled by opening a new bin.
var (
	ErrEmptyInput         = errors.New("nest: container or shape list is empty")
	ErrDegeneratePolygon  = errors.New("nest: polygon simplifies to fewer than 3 vertices")
	ErrNFPUnavailable     = errors.New("nest: no-fit-polygon computation returned no usable result")
	ErrNoFeasiblePosition = errors.New("nest: no feasible position for part in any open bin")
)
