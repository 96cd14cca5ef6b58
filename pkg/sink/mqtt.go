package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/getmockd/schemagen/pkg/logging"
)

// Defaults for MQTTConfig.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultPublishTimeout = 10 * time.Second
)

// MQTTConfig configures an MQTTPublisher.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string
	Topic  string

	// ClientID defaults to "schemagen-" plus a random UUID.
	ClientID string
	Username string
	Password string

	QoS    byte
	Retain bool

	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// MQTTPublisher publishes records as JSON messages to one topic.
type MQTTPublisher struct {
	client mqtt.Client
	cfg    MQTTConfig
	log    *slog.Logger
}

// NewMQTTPublisher connects to the broker.
func NewMQTTPublisher(cfg MQTTConfig, log *slog.Logger) (*MQTTPublisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker URL is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt topic is required")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", cfg.QoS)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "schemagen-" + uuid.NewString()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}
	if log == nil {
		log = logging.Nop()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(false).
		SetCleanSession(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("connect to %s: timed out after %s", cfg.Broker, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}
	log.Info("connected to mqtt broker", "broker", cfg.Broker, "client_id", cfg.ClientID)

	return &MQTTPublisher{client: client, cfg: cfg, log: log}, nil
}

// Publish sends record as a JSON payload and waits for the broker
// acknowledgement required by the QoS.
func (p *MQTTPublisher) Publish(ctx context.Context, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	token := p.client.Publish(p.cfg.Topic, p.cfg.QoS, p.cfg.Retain, payload)
	timer := time.NewTimer(p.cfg.PublishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish to %s: timed out after %s", p.cfg.Topic, p.cfg.PublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.cfg.Topic, err)
	}
	p.log.Debug("published record", "topic", p.cfg.Topic, "bytes", len(payload))
	return nil
}

// Close disconnects, allowing in-flight messages a short grace period.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

var (
	_ Sink = (*MQTTPublisher)(nil)
	_ Sink = (*WriterSink)(nil)
)
