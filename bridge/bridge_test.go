package bridge

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/voltmesh/powercell/config"
)

// ---------- topics ----------

func TestTopicFormats(t *testing.T) {
	if got := bridgeStateTopic("powercell"); got != "powercell/bridge/state" {
		t.Errorf("bridge state topic = %q", got)
	}
	if got := batteryStateTopic("powercell", 7); got != "powercell/battery/7/state" {
		t.Errorf("battery state topic = %q", got)
	}
}

// ---------- client options ----------

func TestOptsFromConfig(t *testing.T) {
	cfg := config.MQTTConfig{
		Host:      "broker.local",
		Port:      1883,
		BaseTopic: "powercell",
	}
	opts := OptsFromConfig(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("expected 1 broker, got %d", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://broker.local:1883" {
		t.Errorf("broker = %q", got)
	}
	if !opts.WillEnabled {
		t.Error("last will should be enabled")
	}
	if opts.WillTopic != "powercell/bridge/state" {
		t.Errorf("will topic = %q", opts.WillTopic)
	}
	if string(opts.WillPayload) != payloadOffline {
		t.Errorf("will payload = %q", opts.WillPayload)
	}
	if !strings.HasPrefix(opts.ClientID, "powercell_") {
		t.Errorf("client id = %q", opts.ClientID)
	}
}

func TestOptsFromConfigCredentials(t *testing.T) {
	cfg := config.MQTTConfig{
		Host:      "broker.local",
		Port:      1883,
		BaseTopic: "powercell",
		Username:  "grid",
		Password:  "volt",
	}
	opts := OptsFromConfig(cfg)

	if opts.Username != "grid" || opts.Password != "volt" {
		t.Errorf("credentials not applied: %q / %q", opts.Username, opts.Password)
	}
}

// ---------- payload ----------

func TestChargeStatePayload(t *testing.T) {
	state := chargeState{
		Name:      "cell-3",
		Charge:    25,
		MaxCharge: 100,
		Percent:   25,
	}
	data, err := json.Marshal(state)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["name"] != "cell-3" {
		t.Errorf("name = %v", decoded["name"])
	}
	if decoded["charge"].(float64) != 25 {
		t.Errorf("charge = %v", decoded["charge"])
	}
	if decoded["percent"].(float64) != 25 {
		t.Errorf("percent = %v", decoded["percent"])
	}
}
