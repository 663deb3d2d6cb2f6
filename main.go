package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/voltmesh/powercell/bridge"
	"github.com/voltmesh/powercell/config"
	"github.com/voltmesh/powercell/events"
	"github.com/voltmesh/powercell/sim"
	"github.com/voltmesh/powercell/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 3600, "Stop after N ticks")
	outputDir := flag.String("output-dir", "", "Output directory for CSV telemetry and config snapshot")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	mqttEnabled := flag.Bool("mqtt", false, "Publish charge notifications to MQTT (overrides config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog
	var logger *slog.Logger
	if *logFormat == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	} else {
		logger = slog.New(tint.NewHandler(os.Stdout, nil))
	}
	slog.SetDefault(logger)

	s := sim.New(cfg, logger)
	s.SpawnFleet(cfg.Fleet)

	// Output directory for telemetry CSV plus the effective config
	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		logger.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	if output != nil {
		defer output.Close()
		if err := output.WriteConfig(cfg); err != nil {
			logger.Error("failed to write config snapshot", "error", err)
			os.Exit(1)
		}
		s.SetOutput(output)
	}

	// Optional MQTT bridge re-publishing charge notifications
	if *mqttEnabled || cfg.MQTT.Enabled {
		pub := bridge.NewPublisher(cfg.MQTT)
		if err := pub.Connect(); err != nil {
			logger.Error("failed to connect to MQTT broker", "error", err)
			os.Exit(1)
		}
		defer pub.Close()

		s.Bus().SubscribeAll(func(ev events.ChargeChanged) {
			info := s.Info(ev.Entity)
			if err := pub.PublishCharge(info.ID, info.Name, ev.NewCharge, ev.MaxCharge); err != nil {
				logger.Warn("failed to publish charge state", "error", err)
			}
		})
	}

	logger.Info("starting simulation",
		"max_ticks", *maxTicks,
		"batteries", cfg.Fleet.Standalone+cfg.Fleet.Networked+cfg.Fleet.SelfCharging,
		"output_dir", output.Dir(),
	)

	for int(s.Tick()) < *maxTicks {
		s.Step()
	}

	logger.Info("max ticks reached", "tick", s.Tick())
}
