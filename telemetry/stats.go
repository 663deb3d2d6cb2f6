package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Fleet size at window end
	BatteryCount int `csv:"batteries"`

	// Events during window
	UseCalls       int     `csv:"use_calls"`
	EnergyDrawn    float64 `csv:"energy_drawn"`
	EmpPulses      int     `csv:"emp_pulses"`
	Rejuvenations  int     `csv:"rejuvenations"`
	RechargeTicks  int     `csv:"recharge_ticks"`
	ChargeNotifies int     `csv:"charge_notifies"`

	// Charge distribution (sampled at window end)
	ChargeMean float64 `csv:"charge_mean"`
	ChargeP10  float64 `csv:"charge_p10"`
	ChargeP50  float64 `csv:"charge_p50"`
	ChargeP90  float64 `csv:"charge_p90"`

	// Fill fraction distribution
	FillMean float64 `csv:"fill_mean"`
	FillMin  float64 `csv:"fill_min"`
	FillMax  float64 `csv:"fill_max"`
}

// fillChargeDistribution computes the distribution fields from per-battery
// samples. Empty samples leave the fields at zero.
func (s *WindowStats) fillChargeDistribution(charges, fills []float64) {
	if len(charges) > 0 {
		sorted := append([]float64(nil), charges...)
		sort.Float64s(sorted)

		s.ChargeMean = stat.Mean(sorted, nil)
		s.ChargeP10 = stat.Quantile(0.1, stat.Empirical, sorted, nil)
		s.ChargeP50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		s.ChargeP90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	}

	if len(fills) > 0 {
		s.FillMean = stat.Mean(fills, nil)
		s.FillMin, s.FillMax = fills[0], fills[0]
		for _, f := range fills[1:] {
			if f < s.FillMin {
				s.FillMin = f
			}
			if f > s.FillMax {
				s.FillMax = f
			}
		}
	}
}

// Log emits the window stats through slog.
func (s WindowStats) Log(log *slog.Logger) {
	log.Info("window stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"batteries", s.BatteryCount,
		"use_calls", s.UseCalls,
		"energy_drawn", s.EnergyDrawn,
		"emp_pulses", s.EmpPulses,
		"rejuvenations", s.Rejuvenations,
		"recharge_ticks", s.RechargeTicks,
		"charge_notifies", s.ChargeNotifies,
		"charge_mean", s.ChargeMean,
		"fill_mean", s.FillMean,
	)
}
