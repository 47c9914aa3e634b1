// Package mqttbridge implements the "mqttbridge" example plugin kind: it
// subscribes to an MQTT broker and republishes inbound numeric payloads as
// Measurement messages, and publishes Measurement messages it receives back
// out over MQTT. Uses github.com/eclipse/paho.golang's autopaho connection
// manager, the pattern the nugget-thane-ai-agent example's internal/mqtt
// package uses for reconnect-aware publish/subscribe — the closest pack
// example to the original system's plugin_mqtt /
// plugin_mqtt_measurement_bridge pair.
package mqttbridge

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/go-edge/edged/address"
	"github.com/go-edge/edged/bundle"
	"github.com/go-edge/edged/directory"
	"github.com/go-edge/edged/kernel"
	"github.com/go-edge/edged/message"
	"github.com/go-edge/edged/messages"
)

const KindName = "mqttbridge"

type Config struct {
	Broker       string `json:"broker"`
	Topic        string `json:"topic"`
	MeasurementName string `json:"measurement_name"`
	Subscriber   string `json:"subscriber"`
	ClientID     string `json:"client_id"`
}

type Builder struct {
	Logger kratoslog.Logger
}

func (Builder) KindName() string                { return KindName }
func (Builder) KindMessageTypes() bundle.Bundle { return bundle.Of1[messages.Measurement]() }
func (Builder) KindConfiguration() *kernel.ConfigDescription {
	return kernel.StructOf("mqttbridge plugin configuration",
		kernel.Field{Name: "broker", Doc: "MQTT broker URL, e.g. tcp://localhost:1883", Desc: kernel.String("")},
		kernel.Field{Name: "topic", Doc: "topic to subscribe to for inbound measurements", Desc: kernel.String("")},
		kernel.Field{Name: "measurement_name", Doc: "measurement name assigned to inbound payloads", Desc: kernel.String("")},
		kernel.Field{Name: "subscriber", Doc: "plugin name to deliver inbound measurements to", Desc: kernel.String("")},
		kernel.Field{Name: "client_id", Doc: "MQTT client identifier", Desc: kernel.String("")},
	)
}

func (Builder) VerifyConfiguration(cfg kernel.RawConfig) error {
	var c Config
	if err := cfg.Scan(&c); err != nil {
		return fmt.Errorf("mqttbridge: invalid configuration: %w", err)
	}
	if c.Broker == "" || c.Topic == "" {
		return fmt.Errorf("mqttbridge: broker and topic are required")
	}
	return nil
}

type subscriberBundle struct{}

func (b Builder) Instantiate(ctx context.Context, cfg kernel.RawConfig, view *directory.View) (*kernel.BuiltPlugin, error) {
	var c Config
	if err := cfg.Scan(&c); err != nil {
		return nil, fmt.Errorf("mqttbridge: invalid configuration: %w", err)
	}
	var sub *address.Address[subscriberBundle]
	if c.Subscriber != "" {
		addr, err := directory.GetAddressFor[subscriberBundle](view, c.Subscriber, bundle.Of1[messages.Measurement]())
		if err != nil {
			return nil, err
		}
		sub = &addr
	}
	p := &plugin{
		cfg:        c,
		subscriber: sub,
		logger:     kratoslog.NewHelper(kratoslog.With(b.Logger, "plugin", view.Self(), "kind", KindName)),
	}
	bp := kernel.NewBuiltPlugin(view.Self(), p)
	kernel.Handle(bp, p.handlePublish)
	return bp, nil
}

type plugin struct {
	kernel.DefaultPlugin
	cfg        Config
	subscriber *address.Address[subscriberBundle]
	logger     *kratoslog.Helper
	cm         *autopaho.ConnectionManager
}

func (p *plugin) Start(ctx context.Context) error {
	brokerURL, err := url.Parse(p.cfg.Broker)
	if err != nil {
		return fmt.Errorf("mqttbridge: parsing broker url: %w", err)
	}
	clientID := p.cfg.ClientID
	if clientID == "" {
		// Two unconfigured mqttbridge instances connecting to the same
		// broker must not collide on client ID; a random suffix keeps the
		// default usable without requiring every instance to set one.
		clientID = "edged-mqttbridge-" + uuid.NewString()
	}
	pahoCfg := autopaho.ClientConfig{
		ServerUrls: []*url.URL{brokerURL},
		KeepAlive:  30,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			p.logger.Infow("op", "start", "event", "mqtt_connected", "broker", p.cfg.Broker)
			subCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := cm.Subscribe(subCtx, &paho.Subscribe{
				Subscriptions: []paho.SubscribeOptions{{Topic: p.cfg.Topic, QoS: 0}},
			}); err != nil {
				p.logger.Warnw("op", "start", "event", "mqtt_subscribe_failed", "err", err)
			}
		},
		OnConnectError: func(err error) {
			p.logger.Warnw("op", "start", "event", "mqtt_connect_error", "err", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
		},
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("mqttbridge: connecting: %w", err)
	}
	p.cm = cm

	cm.AddOnPublishReceived(func(pr autopaho.PublishReceived) (bool, error) {
		p.onInbound(pr.Packet.Payload)
		return true, nil
	})

	connCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := cm.AwaitConnection(connCtx); err != nil {
		p.logger.Warnw("op", "start", "event", "mqtt_initial_connect_timeout", "err", err)
	}
	return nil
}

func (p *plugin) onInbound(payload []byte) {
	if p.subscriber == nil {
		return
	}
	v, err := strconv.ParseFloat(string(payload), 64)
	if err != nil {
		p.logger.Debugw("op", "dispatch", "event", "mqtt_payload_not_numeric", "err", err)
		return
	}
	m := messages.Measurement{
		Name:               p.cfg.MeasurementName,
		Value:              v,
		TimestampUnixMilli: time.Now().UnixMilli(),
	}
	if _, err := address.TrySend[subscriberBundle](context.Background(), *p.subscriber, m); err != nil {
		p.logger.Debugw("op", "dispatch", "event", "mqtt_forward_dropped", "err", err)
	}
}

func (p *plugin) handlePublish(ctx context.Context, msg messages.Measurement, _ *address.ReplySender[message.NoReply]) error {
	if p.cm == nil {
		return fmt.Errorf("mqttbridge: not connected")
	}
	_, err := p.cm.Publish(ctx, &paho.Publish{
		Topic:   p.cfg.Topic,
		Payload: []byte(strconv.FormatFloat(msg.Value, 'f', -1, 64)),
		QoS:     0,
	})
	return err
}

func (p *plugin) Shutdown(ctx context.Context) error {
	if p.cm == nil {
		return nil
	}
	return p.cm.Disconnect(ctx)
}
