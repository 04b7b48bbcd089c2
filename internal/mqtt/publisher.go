// Package mqtt republishes Homely snapshots to an MQTT broker as retained
// topics, one per device feature state plus the location alarm state.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/john-mcs/homely/internal/homely"
)

// Config contains MQTT publisher configuration
type Config struct {
	BrokerURL string // broker address, e.g. "tcp://broker:1883"
	ClientID  string // MQTT client ID; a random suffix is generated when empty
	TopicRoot string // root segment for all published topics
}

// Publisher maps snapshots onto retained MQTT topics. It implements the
// coordinator Subscriber interface.
type Publisher struct {
	config Config
	client paho.Client
	logger *slog.Logger
}

// message is one topic/payload pair derived from a snapshot.
type message struct {
	topic   string
	payload any
}

// NewPublisher creates a publisher. Connect must be called before the
// first snapshot arrives.
func NewPublisher(config Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ClientID == "" {
		config.ClientID = "homelyd-" + uuid.NewString()[:8]
	}
	if config.TopicRoot == "" {
		config.TopicRoot = "homely"
	}
	return &Publisher{
		config: config,
		logger: logger.With("component", "mqtt-publisher"),
	}
}

// Connect establishes the broker connection.
func (p *Publisher) Connect() error {
	opts := paho.NewClientOptions().AddBroker(p.config.BrokerURL)
	opts.SetClientID(p.config.ClientID)
	opts.SetAutoReconnect(true)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	p.logger.Info("connected to broker", "broker", p.config.BrokerURL, "client_id", p.config.ClientID)
	return nil
}

// Disconnect closes the broker connection.
func (p *Publisher) Disconnect() {
	if p.client == nil {
		return
	}
	p.client.Disconnect(250)
}

// SnapshotUpdated publishes every topic derived from the snapshot.
func (p *Publisher) SnapshotUpdated(snap *homely.Snapshot) {
	if p.client == nil {
		return
	}
	for _, m := range snapshotMessages(p.config.TopicRoot, snap) {
		p.publish(m)
	}
}

func (p *Publisher) publish(m message) {
	payload, err := json.Marshal(m.payload)
	if err != nil {
		p.logger.Error("failed to encode payload", "topic", m.topic, "error", err)
		return
	}

	token := p.client.Publish(m.topic, 0, true, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			p.logger.Error("failed to publish", "topic", m.topic, "error", err)
		}
	}()
}

// snapshotMessages flattens a snapshot into one alarm topic plus an online
// flag and one topic per feature state for every device.
func snapshotMessages(root string, snap *homely.Snapshot) []message {
	msgs := []message{
		{topic: root + "/alarm", payload: snap.AlarmState},
	}

	for _, dev := range snap.Devices {
		devSlug := slugify(dev.Name)
		msgs = append(msgs, message{
			topic:   fmt.Sprintf("%s/device/%s/online", root, devSlug),
			payload: dev.Online,
		})
		for featureName, feature := range dev.Features {
			for stateName, state := range feature.States {
				msgs = append(msgs, message{
					topic:   fmt.Sprintf("%s/device/%s/%s/%s", root, devSlug, featureName, stateName),
					payload: state.Value,
				})
			}
		}
	}

	return msgs
}

// slugify turns a device display name into a usable topic segment.
func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
