// Package components defines ECS components for the power-storage simulation.
package components

import "math"

// Battery stores energy for a single entity. The backing fields are
// unexported: all mutation goes through the setters, which keep
// 0 <= charge <= maxCharge at every observable point. Charge is in joules.
type Battery struct {
	charge    float64
	maxCharge float64
}

// NewBattery creates a battery with the given charge and capacity,
// clamping the charge into the valid range.
func NewBattery(charge, maxCharge float64) Battery {
	var b Battery
	b.SetMaxCharge(maxCharge)
	b.SetCharge(charge)
	return b
}

// Charge returns the current stored energy.
func (b *Battery) Charge() float64 {
	return b.charge
}

// MaxCharge returns the capacity ceiling.
func (b *Battery) MaxCharge() float64 {
	return b.maxCharge
}

// IsFull reports whether the battery is at capacity.
func (b *Battery) IsFull() bool {
	return b.charge >= b.maxCharge
}

// SetCharge sets the stored energy, clamped into [0, maxCharge].
func (b *Battery) SetCharge(v float64) {
	b.charge = clamp(v, 0, b.maxCharge)
}

// SetMaxCharge sets the capacity, never below zero. Capacity is the hard
// ceiling: if it drops below the current charge, the charge is clamped
// down with it.
func (b *Battery) SetMaxCharge(v float64) {
	b.maxCharge = math.Max(v, 0)
	b.charge = clamp(b.charge, 0, b.maxCharge)
}

// PowerNetworkBattery links an entity into the power network. The network
// solver owns StoredEnergy while a simulation step is in flight; outside
// the two sync phases the battery component is authoritative.
type PowerNetworkBattery struct {
	Capacity     float64 // mirrors Battery.MaxCharge at sync time
	StoredEnergy float64 // mirrors Battery.Charge at sync time
}

// SelfRecharger marks an entity for autonomous trickle recharge.
type SelfRecharger struct {
	Enabled bool
	Rate    float64 // joules per second
}

// BatteryInfo identifies a battery for logging, telemetry, and the
// outbound bridge.
type BatteryInfo struct {
	ID   uint32
	Name string
}

// Paused tag component. Paused entities are excluded from the recharge
// tick and both network sync phases; their battery fields stay frozen.
type Paused struct{}

// clamp limits x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
