// Package events publishes lifecycle events to an MQTT broker so
// dispatch dashboards and other consumers can follow marketplace
// activity without polling the API.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// Event types emitted by the API.
const (
	ServiceCreated       = "service.created"
	ServiceStatusChanged = "service.status"
	ApplicationSubmitted = "application.submitted"
	ApplicationDecided   = "application.decided"
)

// Event is the wire format of a published lifecycle event.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Publisher emits lifecycle events. Publishing is fire-and-forget: a
// broker failure is logged, never surfaced to the request that caused it.
type Publisher interface {
	Publish(topic string, eventType string, data interface{})
	Close()
}

// ServiceTopic returns the topic for a service request's events.
func ServiceTopic(id string) string {
	return "fixmyride/services/" + id
}

// ApplicationTopic returns the topic for a mechanic application's events.
func ApplicationTopic(id string) string {
	return "fixmyride/applications/" + id
}

// MQTTPublisher publishes events over an MQTT connection.
type MQTTPublisher struct {
	client mqtt.Client
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(broker, clientID string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout for broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}

	log.WithField("broker", broker).Info("Connected to MQTT broker")
	return &MQTTPublisher{client: client}, nil
}

// Publish sends an event on the given topic at QoS 0.
func (p *MQTTPublisher) Publish(topic string, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		log.WithError(err).WithField("event", eventType).Error("Failed to marshal event")
		return
	}

	token := p.client.Publish(topic, 0, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"topic": topic,
				"event": eventType,
			}).Error("Failed to publish event")
		}
	}()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// NopPublisher drops all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(string, string, interface{}) {}
func (NopPublisher) Close()                              {}
