// Package grid provides a reference power-network solver.
//
// The production solver is an external collaborator: its whole contract
// with the core is a capacity read and a stored-energy read/write per
// linked battery between the two sync phases. EqualizeSolver is a
// stand-in honoring that contract so headless runs have a network to
// talk to.
package grid

import (
	"gonum.org/v1/gonum/floats"

	"github.com/voltmesh/powercell/components"
)

// EqualizeSolver redistributes stored energy across the network toward a
// uniform fill fraction. TransferRate is the fraction of each battery's
// imbalance moved per second; the move factor saturates at 1 so a large
// dt cannot overshoot the target.
//
// Total stored energy is conserved and no battery ever exceeds its
// capacity or drops below zero.
type EqualizeSolver struct {
	TransferRate float64

	caps   []float64
	stored []float64
}

// NewEqualizeSolver creates a solver with the given transfer rate.
func NewEqualizeSolver(transferRate float64) *EqualizeSolver {
	return &EqualizeSolver{TransferRate: transferRate}
}

// Solve advances the network by dt seconds, moving each battery's stored
// energy toward fill*capacity where fill is the network-wide fraction.
func (s *EqualizeSolver) Solve(dt float64, links []*components.PowerNetworkBattery) {
	if len(links) < 2 || s.TransferRate <= 0 || dt <= 0 {
		return
	}

	s.caps = s.caps[:0]
	s.stored = s.stored[:0]
	for _, l := range links {
		s.caps = append(s.caps, l.Capacity)
		s.stored = append(s.stored, l.StoredEnergy)
	}

	totalCap := floats.Sum(s.caps)
	if totalCap <= 0 {
		return
	}
	fill := floats.Sum(s.stored) / totalCap

	step := s.TransferRate * dt
	if step > 1 {
		step = 1
	}

	// Each battery moves toward target = fill * capacity by the same
	// factor; the deltas sum to zero, so total energy is conserved.
	// Targets lie in [0, capacity], so results stay in range too.
	for i, l := range links {
		target := fill * s.caps[i]
		l.StoredEnergy = s.stored[i] + (target-s.stored[i])*step
	}
}
