package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	eventRetention    = 30 * 24 * time.Hour
	eventStreamMaxMsg = 1_000_000
)

// ErrEventBusOffline is returned when publishing before Connect or after Close
var ErrEventBusOffline = errors.New("event bus is not connected")

// NATSClient delivers schedule and forecast events to a JetStream stream
type NATSClient struct {
	servers              []string
	name                 string
	nc                   *nats.Conn
	js                   nats.JetStreamContext
	mu                   sync.RWMutex
	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

func NewNATSClient(servers []string, name string) *NATSClient {
	return &NATSClient{
		servers:              servers,
		name:                 name,
		reconnectDelay:       2 * time.Second,
		maxReconnectAttempts: 10,
	}
}

// Connect dials the event bus and opens a JetStream context
func (c *NATSClient) Connect(ctx context.Context) error {
	if len(c.servers) == 0 {
		return fmt.Errorf("no event bus servers configured")
	}

	opts := []nats.Option{
		nats.Name(c.name),
		nats.MaxReconnects(c.maxReconnectAttempts),
		nats.ReconnectWait(c.reconnectDelay),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("Event bus connection lost, schedule events will fail until it returns")
			} else {
				log.Warn("Event bus connection closed")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("server", nc.ConnectedUrl()).Info("Event bus connection restored")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			entry := log.WithError(err)
			if sub != nil {
				entry = entry.WithField("subject", sub.Subject)
			}
			entry.Error("Event bus async error")
		}),
	}

	nc, err := nats.Connect(strings.Join(c.servers, ","), opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to event bus: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to open JetStream for event bus: %w", err)
	}

	c.mu.Lock()
	c.nc = nc
	c.js = js
	c.mu.Unlock()

	log.WithField("server", nc.ConnectedUrl()).Info("Event bus connected")
	return nil
}

// Close drains pending event publishes before disconnecting
func (c *NATSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nc == nil {
		return nil
	}

	if err := c.nc.Drain(); err != nil {
		log.WithError(err).Warn("Failed to drain event bus, pending events may be lost")
		c.nc.Close()
	}
	c.nc = nil
	c.js = nil
	log.Info("Event bus disconnected")
	return nil
}

func (c *NATSClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nc != nil && c.nc.IsConnected()
}

func (c *NATSClient) jetStream() (nats.JetStreamContext, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.js == nil {
		return nil, ErrEventBusOffline
	}
	return c.js, nil
}

// EnsureStream creates the event stream, or widens an existing one so it covers every event subject
func (c *NATSClient) EnsureStream(streamName string, subjects []string) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	info, err := js.StreamInfo(streamName)
	switch {
	case err == nil:
		missing := missingSubjects(info.Config.Subjects, subjects)
		if len(missing) == 0 {
			log.WithField("stream", streamName).Debug("Event stream already covers all event subjects")
			return nil
		}
		cfg := info.Config
		cfg.Subjects = append(cfg.Subjects, missing...)
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("failed to add subjects to event stream %s: %w", streamName, err)
		}
		log.WithFields(log.Fields{
			"stream": streamName,
			"added":  missing,
		}).Info("Event stream subjects extended")
		return nil
	case !errors.Is(err, nats.ErrStreamNotFound):
		return fmt.Errorf("failed to look up event stream %s: %w", streamName, err)
	}

	cfg := &nats.StreamConfig{
		Name:        streamName,
		Subjects:    subjects,
		Retention:   nats.LimitsPolicy,
		MaxAge:      eventRetention,
		MaxMsgs:     eventStreamMaxMsg,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Description: "Recurring transaction executions and net worth snapshots",
	}
	if _, err := js.AddStream(cfg); err != nil {
		return fmt.Errorf("failed to create event stream %s: %w", streamName, err)
	}

	log.WithFields(log.Fields{
		"stream":   streamName,
		"subjects": subjects,
	}).Info("Event stream created")
	return nil
}

// Publish appends one event to the stream and waits for the ack
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	if _, err := js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish event on %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"subject": subject,
		"bytes":   len(data),
	}).Debug("Event published")
	return nil
}

// missingSubjects returns the wanted subjects the stream does not list yet, in order
func missingSubjects(existing, wanted []string) []string {
	var missing []string
	for _, s := range wanted {
		if !slices.Contains(existing, s) && !slices.Contains(missing, s) {
			missing = append(missing, s)
		}
	}
	return missing
}
