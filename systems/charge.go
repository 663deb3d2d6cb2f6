// Package systems implements the per-tick charge management systems.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/voltmesh/powercell/components"
	"github.com/voltmesh/powercell/events"
)

// ChargeSystem is the only mutation path for battery charge outside the
// network sync protocol. Every operation degrades to a no-op plus a
// sentinel return when the entity has no battery; there are no fatal
// paths here.
type ChargeSystem struct {
	batteries *ecs.Map1[components.Battery]
	links     *ecs.Map1[components.PowerNetworkBattery]
	bus       *events.Bus
	epsilon   float64
}

// NewChargeSystem creates the charge mutation system. epsilon is the
// tolerance below which a charge movement raises no notification.
func NewChargeSystem(w *ecs.World, bus *events.Bus, epsilon float64) *ChargeSystem {
	return &ChargeSystem{
		batteries: ecs.NewMap1[components.Battery](w),
		links:     ecs.NewMap1[components.PowerNetworkBattery](w),
		bus:       bus,
		epsilon:   epsilon,
	}
}

// UseCharge deducts up to amount joules and returns the signed delta
// actually applied (newCharge - oldCharge, never positive). Requests for
// a non-positive amount, an entity without a battery, or an empty battery
// return 0 without mutating anything.
//
// A successful deduction always raises a notification, however small the
// delta: discrete consumption events are never squelched by the tolerance,
// unlike SetCharge/SetMaxCharge.
func (s *ChargeSystem) UseCharge(e ecs.Entity, amount float64) float64 {
	if amount <= 0 || !s.batteries.HasAll(e) {
		return 0
	}
	bat := s.batteries.Get(e)
	if bat.Charge() == 0 {
		return 0
	}

	old := bat.Charge()
	bat.SetCharge(old - amount)
	delta := bat.Charge() - old

	s.bus.Publish(events.ChargeChanged{
		Entity:    e,
		NewCharge: bat.Charge(),
		MaxCharge: bat.MaxCharge(),
	})
	return delta
}

// TryUseCharge is the all-or-nothing variant: it deducts amount only if
// the battery holds at least that much, and reports whether it did.
// Non-positive amounts fail outright, there is nothing to deduct.
func (s *ChargeSystem) TryUseCharge(e ecs.Entity, amount float64) bool {
	if amount <= 0 || !s.batteries.HasAll(e) {
		return false
	}
	if amount > s.batteries.Get(e).Charge() {
		return false
	}
	s.UseCharge(e, amount)
	return true
}

// SetCharge sets the charge to value, clamped into [0, maxCharge]. If the
// clamped result is within tolerance of the current charge the call is a
// no-op and raises nothing; repeated identical calls notify at most once.
func (s *ChargeSystem) SetCharge(e ecs.Entity, value float64) {
	if !s.batteries.HasAll(e) {
		return
	}
	bat := s.batteries.Get(e)

	target := math.Min(math.Max(value, 0), bat.MaxCharge())
	if math.Abs(target-bat.Charge()) <= s.epsilon {
		return
	}
	bat.SetCharge(target)

	s.bus.Publish(events.ChargeChanged{
		Entity:    e,
		NewCharge: bat.Charge(),
		MaxCharge: bat.MaxCharge(),
	})
}

// SetMaxCharge sets the capacity to max(value, 0), clamping the charge
// down with it when the new capacity is smaller. The notification is
// gated on the capacity delta alone: a charge clamped down by a capacity
// change within tolerance goes unreported. That asymmetry matches the
// behavior being modeled and is documented rather than fixed.
func (s *ChargeSystem) SetMaxCharge(e ecs.Entity, value float64) {
	if !s.batteries.HasAll(e) {
		return
	}
	bat := s.batteries.Get(e)

	old := bat.MaxCharge()
	bat.SetMaxCharge(value)
	if math.Abs(bat.MaxCharge()-old) <= s.epsilon {
		return
	}

	s.bus.Publish(events.ChargeChanged{
		Entity:    e,
		NewCharge: bat.Charge(),
		MaxCharge: bat.MaxCharge(),
	})
}

// Rejuvenate restores the entity to full: charge to capacity, and for a
// network-linked entity the stored network energy to its capacity too.
// This is a direct reset that bypasses the notification machinery.
func (s *ChargeSystem) Rejuvenate(e ecs.Entity) {
	if s.batteries.HasAll(e) {
		bat := s.batteries.Get(e)
		bat.SetCharge(bat.MaxCharge())
	}
	if s.links.HasAll(e) {
		link := s.links.Get(e)
		link.StoredEnergy = link.Capacity
	}
}

// EmpPulse drains energyConsumption joules through UseCharge and reports
// the magnitude removed and whether the pulse affected the battery at all.
func (s *ChargeSystem) EmpPulse(e ecs.Entity, energyConsumption float64) (float64, bool) {
	drained := -s.UseCharge(e, energyConsumption)
	return drained, drained > 0
}
