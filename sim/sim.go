// Package sim wires the world, systems, and telemetry into a steppable
// headless simulation.
package sim

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/voltmesh/powercell/components"
	"github.com/voltmesh/powercell/config"
	"github.com/voltmesh/powercell/events"
	"github.com/voltmesh/powercell/grid"
	"github.com/voltmesh/powercell/systems"
	"github.com/voltmesh/powercell/telemetry"
)

// Solver advances the power network by one step. PreStep has already
// mirrored battery state into the links when Solve runs; PostStep reads
// the results back afterwards.
type Solver interface {
	Solve(dt float64, links []*components.PowerNetworkBattery)
}

// BatterySpec describes one battery to spawn.
type BatterySpec struct {
	Name         string
	Charge       float64
	MaxCharge    float64
	Networked    bool
	SelfRecharge bool
	RechargeRate float64
	Paused       bool
}

// Sim holds the complete simulation state.
type Sim struct {
	world *ecs.World
	bus   *events.Bus
	log   *slog.Logger

	// Spawn mapper and fleet filter
	spawnMapper *ecs.Map2[components.BatteryInfo, components.Battery]
	fleetFilter *ecs.Filter2[components.BatteryInfo, components.Battery]

	// Individual component mappers for lookups
	infoMap     *ecs.Map1[components.BatteryInfo]
	batMap      *ecs.Map1[components.Battery]
	linkMap     *ecs.Map1[components.PowerNetworkBattery]
	rechargeMap *ecs.Map1[components.SelfRecharger]
	pausedMap   *ecs.Map1[components.Paused]

	charge   *systems.ChargeSystem
	recharge *systems.SelfRechargeSystem
	netSync  *systems.NetworkSyncSystem
	solver   Solver

	collector *telemetry.Collector
	output    *telemetry.OutputManager

	// State
	dt            float64
	pricePerJoule float64
	tick          int32
	nextID        uint32

	// Scratch buffers for per-window sampling
	chargeBuf []float64
	fillBuf   []float64
}

// New creates a simulation from config. log may be nil.
func New(cfg *config.Config, log *slog.Logger) *Sim {
	if log == nil {
		log = slog.Default()
	}
	world := ecs.NewWorld()
	bus := events.NewBus()

	s := &Sim{
		world:       world,
		bus:         bus,
		log:         log,
		spawnMapper: ecs.NewMap2[components.BatteryInfo, components.Battery](world),
		fleetFilter: ecs.NewFilter2[components.BatteryInfo, components.Battery](world),
		infoMap:     ecs.NewMap1[components.BatteryInfo](world),
		batMap:      ecs.NewMap1[components.Battery](world),
		linkMap:     ecs.NewMap1[components.PowerNetworkBattery](world),
		rechargeMap: ecs.NewMap1[components.SelfRecharger](world),
		pausedMap:   ecs.NewMap1[components.Paused](world),

		dt:            cfg.Sim.DT,
		pricePerJoule: cfg.Charge.PricePerJoule,
	}

	s.charge = systems.NewChargeSystem(world, bus, cfg.Charge.Epsilon)
	s.recharge = systems.NewSelfRechargeSystem(world)
	s.netSync = systems.NewNetworkSyncSystem(world, bus, cfg.Charge.Epsilon, log)
	s.solver = grid.NewEqualizeSolver(cfg.Grid.TransferRate)

	s.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Sim.DT)
	bus.SubscribeAll(s.collector.HandleChargeChanged)

	return s
}

// SetSolver replaces the default equalizing solver.
func (s *Sim) SetSolver(solver Solver) {
	s.solver = solver
}

// SetOutput attaches an output manager for telemetry CSV. om may be nil.
func (s *Sim) SetOutput(om *telemetry.OutputManager) {
	s.output = om
}

// Bus returns the notification bus for external subscribers.
func (s *Sim) Bus() *events.Bus {
	return s.bus
}

// World returns the underlying entity world.
func (s *Sim) World() *ecs.World {
	return s.world
}

// Tick returns the number of completed steps.
func (s *Sim) Tick() int32 {
	return s.tick
}

// Spawn creates one battery entity from spec.
func (s *Sim) Spawn(spec BatterySpec) ecs.Entity {
	id := s.nextID
	s.nextID++

	info := components.BatteryInfo{ID: id, Name: spec.Name}
	bat := components.NewBattery(spec.Charge, spec.MaxCharge)

	e := s.spawnMapper.NewEntity(&info, &bat)

	if spec.Networked {
		s.linkMap.Add(e, &components.PowerNetworkBattery{
			Capacity:     bat.MaxCharge(),
			StoredEnergy: bat.Charge(),
		})
	}
	if spec.SelfRecharge {
		s.rechargeMap.Add(e, &components.SelfRecharger{
			Enabled: true,
			Rate:    spec.RechargeRate,
		})
	}
	if spec.Paused {
		s.pausedMap.Add(e, &components.Paused{})
	}

	return e
}

// SpawnFleet creates the configured mix of standalone, networked, and
// self-charging batteries.
func (s *Sim) SpawnFleet(fleet config.FleetConfig) {
	for i := 0; i < fleet.Standalone; i++ {
		s.Spawn(BatterySpec{
			Name:      fmt.Sprintf("standalone-%d", i),
			Charge:    fleet.InitialCharge,
			MaxCharge: fleet.MaxCharge,
		})
	}
	for i := 0; i < fleet.Networked; i++ {
		s.Spawn(BatterySpec{
			Name:      fmt.Sprintf("networked-%d", i),
			Charge:    fleet.InitialCharge,
			MaxCharge: fleet.MaxCharge,
			Networked: true,
		})
	}
	for i := 0; i < fleet.SelfCharging; i++ {
		s.Spawn(BatterySpec{
			Name:         fmt.Sprintf("selfcharge-%d", i),
			Charge:       fleet.InitialCharge,
			MaxCharge:    fleet.MaxCharge,
			Networked:    true,
			SelfRecharge: true,
			RechargeRate: fleet.RechargeRate,
		})
	}
}

// Despawn removes the entity and drops its per-entity subscriptions.
func (s *Sim) Despawn(e ecs.Entity) {
	if !s.world.Alive(e) {
		return
	}
	s.bus.Unsubscribe(e)
	s.world.RemoveEntity(e)
}

// Pause excludes the entity from recharge and network sync until Unpause.
func (s *Sim) Pause(e ecs.Entity) {
	if !s.world.Alive(e) || s.pausedMap.HasAll(e) {
		return
	}
	s.pausedMap.Add(e, &components.Paused{})
}

// Unpause re-includes the entity in per-tick processing.
func (s *Sim) Unpause(e ecs.Entity) {
	if !s.world.Alive(e) || !s.pausedMap.HasAll(e) {
		return
	}
	s.pausedMap.Remove(e)
}

// Info returns the entity's identity, or a zero value if it has none.
func (s *Sim) Info(e ecs.Entity) components.BatteryInfo {
	if !s.world.Alive(e) || !s.infoMap.HasAll(e) {
		return components.BatteryInfo{}
	}
	return *s.infoMap.Get(e)
}

// UseCharge deducts up to amount joules and returns the signed delta
// applied.
func (s *Sim) UseCharge(e ecs.Entity, amount float64) float64 {
	delta := s.charge.UseCharge(e, amount)
	if delta != 0 {
		s.collector.RecordUse(-delta)
	}
	return delta
}

// TryUseCharge deducts amount only if the battery holds at least that
// much, reporting whether it did.
func (s *Sim) TryUseCharge(e ecs.Entity, amount float64) bool {
	if !s.charge.TryUseCharge(e, amount) {
		return false
	}
	s.collector.RecordUse(amount)
	return true
}

// SetCharge sets the charge, clamped into [0, maxCharge].
func (s *Sim) SetCharge(e ecs.Entity, value float64) {
	s.charge.SetCharge(e, value)
}

// SetMaxCharge sets the capacity, clamping the charge down with it.
func (s *Sim) SetMaxCharge(e ecs.Entity, value float64) {
	s.charge.SetMaxCharge(e, value)
}

// Rejuvenate restores the entity to full charge without notifications.
func (s *Sim) Rejuvenate(e ecs.Entity) {
	s.charge.Rejuvenate(e)
	s.collector.RecordRejuvenate()
}

// EmpPulse drains energyConsumption joules, returning the magnitude
// removed and whether the battery was affected.
func (s *Sim) EmpPulse(e ecs.Entity, energyConsumption float64) (float64, bool) {
	drained, affected := s.charge.EmpPulse(e, energyConsumption)
	if affected {
		s.collector.RecordEmpPulse()
		s.collector.RecordUse(drained)
	}
	return drained, affected
}

// Price returns the monetary value of the stored charge.
func (s *Sim) Price(e ecs.Entity) float64 {
	return s.charge.Price(e, s.pricePerJoule)
}

// ChargePercent returns the fill level as a rounded percentage.
func (s *Sim) ChargePercent(e ecs.Entity) int {
	return s.charge.ChargePercent(e)
}

// Step advances the simulation one tick.
//
// Order within a tick: self recharge, then the sync protocol around the
// solver (PreStep, Solve, PostStep), then telemetry. Mutation API calls
// made between ticks see the battery component as authoritative.
func (s *Sim) Step() {
	s.collector.RecordRechargeTicks(s.recharge.Update(s.dt))

	s.netSync.PreStep()
	if s.solver != nil {
		s.solver.Solve(s.dt, s.netSync.Links())
	}
	s.netSync.PostStep()

	s.tick++

	if s.collector.ShouldFlush(s.tick) {
		s.flushTelemetry()
	}
}

// Run advances the simulation by ticks steps.
func (s *Sim) Run(ticks int) {
	for i := 0; i < ticks; i++ {
		s.Step()
	}
}

// flushTelemetry samples the fleet and emits one stats window.
func (s *Sim) flushTelemetry() {
	s.chargeBuf = s.chargeBuf[:0]
	s.fillBuf = s.fillBuf[:0]

	query := s.fleetFilter.Query()
	for query.Next() {
		_, bat := query.Get()
		s.chargeBuf = append(s.chargeBuf, bat.Charge())
		s.fillBuf = append(s.fillBuf, bat.Charge()/math.Max(bat.MaxCharge(), 1))
	}

	stats := s.collector.Flush(s.tick, s.chargeBuf, s.fillBuf)
	stats.Log(s.log)

	if err := s.output.WriteTelemetry(stats); err != nil {
		s.log.Error("failed to write telemetry", "error", err)
	}
}
