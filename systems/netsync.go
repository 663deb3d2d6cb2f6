package systems

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/voltmesh/powercell/components"
	"github.com/voltmesh/powercell/events"
)

// NetworkSyncSystem bridges battery state and the power-network solver.
//
// PreStep for every linked entity must complete before the solver runs;
// PostStep must not begin until the solver has finished. Cross-entity
// ordering within a phase is irrelevant because each entity's sync is
// independent. Between PostStep of one step and PreStep of the next the
// battery component is authoritative; during the solve the link's
// StoredEnergy is.
type NetworkSyncSystem struct {
	filter  ecs.Filter2[components.Battery, components.PowerNetworkBattery]
	paused  *ecs.Map1[components.Paused]
	bus     *events.Bus
	epsilon float64
	log     *slog.Logger

	linkBuf []*components.PowerNetworkBattery
}

// NewNetworkSyncSystem creates the sync system. log may be nil.
func NewNetworkSyncSystem(w *ecs.World, bus *events.Bus, epsilon float64, log *slog.Logger) *NetworkSyncSystem {
	if log == nil {
		log = slog.Default()
	}
	return &NetworkSyncSystem{
		filter:  *ecs.NewFilter2[components.Battery, components.PowerNetworkBattery](w),
		paused:  ecs.NewMap1[components.Paused](w),
		bus:     bus,
		epsilon: epsilon,
		log:     log,
	}
}

// PreStep copies each unpaused entity's (maxCharge, charge) into its
// network link, observing every linked entity exactly once. The battery
// setters guarantee the bound invariant, so the copied values are always
// in range.
func (s *NetworkSyncSystem) PreStep() {
	query := s.filter.Query()
	for query.Next() {
		if s.paused.HasAll(query.Entity()) {
			continue
		}
		bat, link := query.Get()

		link.Capacity = bat.MaxCharge()
		link.StoredEnergy = bat.Charge()
	}
}

// PostStep reads the solver's resulting stored energy back into each
// unpaused entity's battery and raises a change notification when the
// result differs materially from the charge held before the assignment.
//
// A solver result outside [0, capacity] is a contract violation; it is
// clamp-corrected by the battery setter and logged rather than propagated,
// since this is simulation state that must keep running.
func (s *NetworkSyncSystem) PostStep() {
	query := s.filter.Query()
	for query.Next() {
		if s.paused.HasAll(query.Entity()) {
			continue
		}
		bat, link := query.Get()

		net := link.StoredEnergy
		if net < 0 || net > bat.MaxCharge() {
			s.log.Warn("solver result out of range, clamping",
				"stored_energy", net,
				"capacity", bat.MaxCharge(),
			)
		}

		old := bat.Charge()
		bat.SetCharge(net)
		if math.Abs(bat.Charge()-old) <= s.epsilon {
			continue
		}

		s.bus.Publish(events.ChargeChanged{
			Entity:    query.Entity(),
			NewCharge: bat.Charge(),
			MaxCharge: bat.MaxCharge(),
		})
	}
}

// Links collects the network links of all unpaused entities for handing
// to the solver. The returned slice is reused across calls and is only
// valid until the next world mutation.
func (s *NetworkSyncSystem) Links() []*components.PowerNetworkBattery {
	s.linkBuf = s.linkBuf[:0]
	query := s.filter.Query()
	for query.Next() {
		if s.paused.HasAll(query.Entity()) {
			continue
		}
		_, link := query.Get()
		s.linkBuf = append(s.linkBuf, link)
	}
	return s.linkBuf
}
