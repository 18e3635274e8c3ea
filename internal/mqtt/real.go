package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// outboxCapacity is how many messages are kept while the broker is unreachable.
const outboxCapacity = 64

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	Topic       string // defaults to Topic
	SystemTopic string // defaults to TopicSystem
	Logger      logrus.FieldLogger
}

// brokerClient is the part of paho.Client the publisher uses.
type brokerClient interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. Messages published
// while disconnected are buffered and replayed on reconnect, ahead of
// anything published after the reconnect.
type RealPublisher struct {
	client      brokerClient
	topic       string
	systemTopic string
	log         logrus.FieldLogger

	// mu serialises live publishes with the replay. ready is set once the
	// outbox has been replayed on the current connection.
	mu     sync.Mutex
	ready  bool
	outbox *outbox
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	if opts.Topic == "" {
		opts.Topic = Topic
	}
	if opts.SystemTopic == "" {
		opts.SystemTopic = TopicSystem
	}
	if opts.ClientID == "" {
		opts.ClientID = "door-sensor"
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	p := &RealPublisher{
		topic:       opts.Topic,
		systemTopic: opts.SystemTopic,
		log:         log,
		outbox:      newOutbox(outboxCapacity, log),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE"})
	if err != nil {
		return nil, errors.Wrap(err, "format will payload")
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(opts.SystemTopic, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	client := paho.NewClient(clientOpts)
	p.client = client
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// Connect retries in the background; messages buffer until then.
		log.WithField("broker", opts.Broker).Warn("mqtt connection timeout, continuing in background")
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrap(err, "connect to broker")
	}

	return p, nil
}

// onConnect replays queued messages once the connection is (re)established.
// Publishes made during the replay wait for it to finish.
func (p *RealPublisher) onConnect(paho.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msgs := p.outbox.take()
	p.log.WithField("queued", len(msgs)).Info("mqtt connected")
	for _, m := range msgs {
		if err := p.publish(m.topic, m.qos, m.retained, m.payload); err != nil {
			p.log.WithError(err).WithField("topic", m.topic).Warn("replay publish failed")
		}
	}
	p.ready = true
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.ready = false
	p.mu.Unlock()
	p.log.WithError(err).Warn("mqtt connection lost")
}

// IsConnected reports whether the client currently has a broker connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready || !p.client.IsConnectionOpen() {
		p.outbox.add(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return errors.Wrapf(ErrQueued, "topic %s", topic)
	}
	return p.publish(topic, qos, retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return errors.Wrap(err, "publish")
	}
	return nil
}

// Publish sends a door event to the MQTT broker.
func (p *RealPublisher) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return errors.Wrap(err, "format payload")
	}

	return p.send(p.topic, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return errors.Wrap(err, "format system payload")
	}

	return p.send(p.systemTopic, 1, event.Retained, payload)
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
