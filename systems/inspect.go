package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
)

// Price reports the monetary value of the stored energy at the given
// per-joule rate. Pure read; entities without a battery are worth 0.
func (s *ChargeSystem) Price(e ecs.Entity, pricePerJoule float64) float64 {
	if !s.batteries.HasAll(e) {
		return 0
	}
	return s.batteries.Get(e).Charge() * pricePerJoule
}

// ChargePercent reports the stored charge as an integer percentage of
// capacity for examine-style queries. Capacity is treated as at least
// one joule so an uninitialized battery reads 0%, never a fault.
func (s *ChargeSystem) ChargePercent(e ecs.Entity) int {
	if !s.batteries.HasAll(e) {
		return 0
	}
	bat := s.batteries.Get(e)
	return int(math.Round(bat.Charge() / math.Max(bat.MaxCharge(), 1) * 100))
}
