package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/voltmesh/powercell/components"
)

// SelfRechargeSystem advances trickle recharge once per frame for every
// entity carrying an enabled SelfRecharger and a non-full battery.
//
// The increment goes straight through the battery setter, not through
// ChargeSystem: trickle recharge raises no notifications. That matches
// the behavior being modeled (a recharge crossing the "full" threshold
// is silent) and keeps the hot loop allocation-free.
type SelfRechargeSystem struct {
	filter ecs.Filter2[components.SelfRecharger, components.Battery]
	paused *ecs.Map1[components.Paused]
}

// NewSelfRechargeSystem creates the recharge system.
func NewSelfRechargeSystem(w *ecs.World) *SelfRechargeSystem {
	return &SelfRechargeSystem{
		filter: *ecs.NewFilter2[components.SelfRecharger, components.Battery](w),
		paused: ecs.NewMap1[components.Paused](w),
	}
}

// Update advances charge by rate*dt for each eligible entity, clamped to
// capacity by the battery setter. Disabled, full, and paused entities are
// skipped. Returns the number of batteries advanced this frame.
func (s *SelfRechargeSystem) Update(dt float64) int {
	recharged := 0
	query := s.filter.Query()
	for query.Next() {
		rec, bat := query.Get()

		if !rec.Enabled || bat.IsFull() {
			continue
		}
		if s.paused.HasAll(query.Entity()) {
			continue
		}

		bat.SetCharge(bat.Charge() + rec.Rate*dt)
		recharged++
	}
	return recharged
}
