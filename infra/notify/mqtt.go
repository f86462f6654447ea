package notify

import (
	"crypto/tls"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"

	coremetrics "github.com/meterwise/hotspot/core/metrics"
	"github.com/meterwise/hotspot/infra/logger"
)

// Config defines the optional MQTT announcement channel. Completed training
// runs are published so downstream consumers (signage, dashboards) can
// refresh without polling.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	UseTLS   bool   `json:"use_tls"`
	QoS      byte   `json:"qos"`
}

// Publisher publishes pipeline announcements over MQTT.
type Publisher struct {
	cli   paho.Client
	topic string
	qos   byte
	log   logger.Logger
}

// NewPublisher connects to the broker. A disabled config returns (nil, nil)
// so callers can skip publishing with a nil check.
func NewPublisher(cfg Config) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("notify: broker is required")
	}
	if cfg.Topic == "" {
		cfg.Topic = "hotspot/training/completed"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "hotspot-pipeline"
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(10 * time.Second)
	if cfg.UseTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	cli := paho.NewClient(opts)
	if tok := cli.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("notify: connect %s: %w", cfg.Broker, tok.Error())
	}
	return &Publisher{cli: cli, topic: cfg.Topic, qos: cfg.QoS, log: logger.New("notify")}, nil
}

// PublishTrainingRun announces a completed run on the configured topic.
func (p *Publisher) PublishTrainingRun(run coremetrics.TrainingRun) error {
	payload, err := json.Marshal(map[string]any{
		"run_id":         run.RunID,
		"started_at":     run.StartedAt.UTC().Format(time.RFC3339),
		"duration_ms":    run.Duration.Milliseconds(),
		"rows":           run.Rows,
		"best_iteration": run.BestIteration,
		"rmse":           run.RMSE,
		"mae":            run.MAE,
	})
	if err != nil {
		return err
	}
	tok := p.cli.Publish(p.topic, p.qos, false, payload)
	if tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("notify: publish: %w", tok.Error())
	}
	p.log.Infof("published training run %s to %s", run.RunID, p.topic)
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
