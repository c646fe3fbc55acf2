package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// TimeoutError means the broker did not acknowledge in time.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return "mqtt " + e.Op + " timeout"
}

// MQTT publishes events as JSON to <topic>/<state> with QoS 1.
type MQTT struct {
	client paho.Client
	topic  string
	mu     sync.Mutex
}

// NewMQTT creates a publisher but does not connect.
func NewMQTT(brokerURL, topic, clientID string) *MQTT {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	return &MQTT{
		client: paho.NewClient(opts),
		topic:  strings.TrimSuffix(topic, "/"),
	}
}

// Connect attempts to connect to the broker without blocking indefinitely.
func (m *MQTT) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := m.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return &TimeoutError{Op: "connect"}
	}
	return token.Error()
}

// Topic returns the topic an event is published to.
func (m *MQTT) Topic(e *Event) string {
	return m.topic + "/" + e.State
}

func (m *MQTT) Publish(ctx context.Context, e *Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	token := m.client.Publish(m.Topic(e), 1, false, payload)
	wait := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < wait {
			wait = d
		}
	}
	if !token.WaitTimeout(wait) {
		return &TimeoutError{Op: "publish"}
	}
	return token.Error()
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.client.Disconnect(1000)
	return nil
}
