// Package telemetry provides windowed charge statistics and CSV output.
package telemetry

import "github.com/voltmesh/powercell/events"

// Collector accumulates charge events within time windows and produces
// WindowStats. It subscribes to the notification bus as an ordinary
// global listener; it has no privileged view of the core.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	useCalls       int
	energyDrawn    float64
	empPulses      int
	rejuvenations  int
	rechargeTicks  int
	chargeNotifies int
}

// NewCollector creates a stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		windowStartTick:     0,
	}
}

// HandleChargeChanged counts a dispatched charge notification. Register
// it on the bus with SubscribeAll.
func (c *Collector) HandleChargeChanged(events.ChargeChanged) {
	c.chargeNotifies++
}

// RecordUse records a discharge through the mutation API.
func (c *Collector) RecordUse(drained float64) {
	c.useCalls++
	c.energyDrawn += drained
}

// RecordEmpPulse records an EMP pulse that affected a battery.
func (c *Collector) RecordEmpPulse() {
	c.empPulses++
}

// RecordRejuvenate records a full-restore reset.
func (c *Collector) RecordRejuvenate() {
	c.rejuvenations++
}

// RecordRechargeTicks records how many batteries the trickle-recharge
// pass advanced this frame.
func (c *Collector) RecordRechargeTicks(n int) {
	c.rechargeTicks += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces stats for the completed window and resets the counters.
// charges holds one current-charge sample per battery, fills one
// charge/capacity fraction per battery, both sampled at window end.
func (c *Collector) Flush(currentTick int32, charges, fills []float64) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		BatteryCount: len(charges),

		UseCalls:       c.useCalls,
		EnergyDrawn:    c.energyDrawn,
		EmpPulses:      c.empPulses,
		Rejuvenations:  c.rejuvenations,
		RechargeTicks:  c.rechargeTicks,
		ChargeNotifies: c.chargeNotifies,
	}
	stats.fillChargeDistribution(charges, fills)

	// Reset for next window
	c.windowStartTick = currentTick
	c.useCalls = 0
	c.energyDrawn = 0
	c.empPulses = 0
	c.rejuvenations = 0
	c.rechargeTicks = 0
	c.chargeNotifies = 0

	return stats
}
