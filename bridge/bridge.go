// Package bridge publishes charge-change notifications to an MQTT broker
// so external consumers (displays, pricing dashboards) can react without
// polling the simulation.
package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/voltmesh/powercell/config"
)

const (
	payloadOnline  = "online"
	payloadOffline = "offline"
)

// OptsFromConfig builds paho client options: broker address, random
// client id, and a retained last-will marking the bridge offline.
func OptsFromConfig(cfg config.MQTTConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(fmt.Sprintf("powercell_%d", rand.IntN(1000)))
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(payloadOffline)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.BaseTopic)
	opts.WillQos = 0

	return opts
}

// Publisher pushes battery state to MQTT topics under the configured
// base topic.
type Publisher struct {
	client mqtt.Client
	cfg    config.MQTTConfig
}

// NewPublisher creates a publisher from config. Connect must be called
// before publishing.
func NewPublisher(cfg config.MQTTConfig) *Publisher {
	return &Publisher{
		client: mqtt.NewClient(OptsFromConfig(cfg)),
		cfg:    cfg,
	}
}

// Connect establishes the broker connection and marks the bridge online.
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}

	t := p.client.Publish(bridgeStateTopic(p.cfg.BaseTopic), 0, true, payloadOnline)
	t.Wait()
	if err := t.Error(); err != nil {
		return fmt.Errorf("publishing online state: %w", err)
	}
	return nil
}

// chargeState is the JSON payload published per battery.
type chargeState struct {
	Name      string  `json:"name"`
	Charge    float64 `json:"charge"`
	MaxCharge float64 `json:"max_charge"`
	Percent   int     `json:"percent"`
}

// PublishCharge publishes one battery's committed state.
func (p *Publisher) PublishCharge(id uint32, name string, charge, maxCharge float64) error {
	state := chargeState{
		Name:      name,
		Charge:    charge,
		MaxCharge: maxCharge,
		Percent:   int(math.Round(charge / math.Max(maxCharge, 1) * 100)),
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling charge state: %w", err)
	}

	token := p.client.Publish(batteryStateTopic(p.cfg.BaseTopic, id), 0, false, data)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing charge state: %w", err)
	}
	return nil
}

// Close marks the bridge offline and disconnects.
func (p *Publisher) Close() {
	t := p.client.Publish(bridgeStateTopic(p.cfg.BaseTopic), 0, true, payloadOffline)
	t.Wait()
	p.client.Disconnect(250)
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}

func batteryStateTopic(baseTopic string, id uint32) string {
	return fmt.Sprintf("%s/battery/%d/state", baseTopic, id)
}
