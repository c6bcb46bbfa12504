// Package mqttadapter wraps the paho MQTT client with the bridge's own
// connection semantics, grounded on internal/mqttclient/mqttclient.go
// (the teacher's paho wrapper) extended per the CornerBit HikSink
// original's mqtt::connection::initiate_connection: a 5s keep-alive,
// clean_session=false so subscriptions survive a broker restart, a
// Last Will registered before Connect, and a 10ms pending-throttle
// analogue (rumqttc's set_pending_throttle) implemented as a bounded
// publish queue drained by a 10ms ticker.
package mqttadapter

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/cornerbit/hiksink/internal/manager"
)

// ClientID is fixed, matching the original's literal "hik-sink".
const ClientID = "hik-sink"

// publishQueueDepth bounds how many outstanding messages Publish will
// accept before it blocks, standing in for rumqttc's internal request
// queue.
const publishQueueDepth = 256

// publishInterval paces outgoing publishes to at most one per tick,
// the Go-idiomatic substitute for rumqttc's set_pending_throttle(10ms).
const publishInterval = 10 * time.Millisecond

func brokerURL(cfg Config) string {
	return fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
}

// Config is the bridge's MQTT broker connection detail.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Adapter owns the paho client and the notification channel that fires
// once per successful (re)connection, standing in for the original's
// connection_notify_tx/rx pair.
type Adapter struct {
	client    mqtt.Client
	connected chan struct{}
	log       *zap.Logger

	publishQueue chan manager.Message
	publish      func(manager.Message) error
	stop         chan struct{}
	drained      chan struct{}
}

// New builds and connects an Adapter. lastWill is published by the broker
// itself if this process disappears without a clean disconnect.
func New(cfg Config, lastWill manager.Message, log *zap.Logger) (*Adapter, error) {
	if log == nil {
		log = zap.NewNop()
	}

	a := &Adapter{
		// Buffered by 1 and drained opportunistically: a connection flaps
		// faster than the manager can replay state is coalesced into a
		// single re-publish rather than queuing up redundant ones.
		connected:    make(chan struct{}, 1),
		log:          log,
		publishQueue: make(chan manager.Message, publishQueueDepth),
		stop:         make(chan struct{}),
		drained:      make(chan struct{}),
	}
	a.publish = a.publishViaClient

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg))
	opts.SetClientID(ClientID)
	opts.SetCleanSession(false)
	opts.SetKeepAlive(5 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetWill(lastWill.Topic, string(lastWill.Payload), byte(lastWill.QoS), lastWill.Retain)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetOnConnectHandler(func(mqtt.Client) {
		a.log.Info("connected to MQTT broker")
		select {
		case a.connected <- struct{}{}:
		default:
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		a.log.Warn("MQTT connection lost", zap.Error(err))
	})

	a.client = mqtt.NewClient(opts)
	token := a.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}

	go a.drainPublishQueue()

	return a, nil
}

// Connected fires once per established (or re-established) connection, the
// signal to replay a Manager's complete state.
func (a *Adapter) Connected() <-chan struct{} {
	return a.connected
}

// Publish enqueues msg for the throttled drain loop, blocking only while the
// queue is full; once the adapter is shutting down it returns an error
// instead of enqueueing. Publish failures surface
// from the drain loop via the logger, not the return value here, matching
// spec.md's "publish failures are logged; the adapter does not drop the
// session."
func (a *Adapter) Publish(msg manager.Message) error {
	select {
	case <-a.stop:
		return fmt.Errorf("mqtt adapter is shutting down")
	default:
	}

	select {
	case a.publishQueue <- msg:
		return nil
	case <-a.stop:
		return fmt.Errorf("mqtt adapter is shutting down")
	}
}

// drainPublishQueue pops at most one queued message per publishInterval
// tick, pacing outgoing publishes the way rumqttc's pending-throttle does.
func (a *Adapter) drainPublishQueue() {
	defer close(a.drained)

	ticker := time.NewTicker(publishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			select {
			case msg := <-a.publishQueue:
				if err := a.publish(msg); err != nil {
					a.log.Error("failed to publish MQTT message", zap.String("topic", msg.Topic), zap.Error(err))
				}
			default:
			}
		}
	}
}

// publishViaClient performs the actual paho publish/wait; kept separate
// from drainPublishQueue so tests can substitute a.publish.
func (a *Adapter) publishViaClient(msg manager.Message) error {
	token := a.client.Publish(msg.Topic, byte(msg.QoS), msg.Retain, msg.Payload)
	token.Wait()
	return token.Error()
}

// Close stops the drain loop and disconnects cleanly, giving in-flight
// publishes 250ms to drain.
func (a *Adapter) Close() {
	if a.stop != nil {
		close(a.stop)
		<-a.drained
	}
	if a.client != nil && a.client.IsConnected() {
		a.client.Disconnect(250)
	}
}
