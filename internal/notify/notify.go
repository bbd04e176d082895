// Package notify publishes page events to NATS so other processes can react
// to freshly compiled pages.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/tn/internal/generator"
	"git.home.luguber.info/inful/tn/internal/logfields"
)

// DefaultSubject is the subject prefix events are published under.
const DefaultSubject = "tn.pages"

// Message is the JSON payload of a published event.
type Message struct {
	Project     string    `json:"project"`
	BatchID     string    `json:"batch_id,omitempty"`
	Type        string    `json:"type"`
	Source      string    `json:"source"`
	Output      string    `json:"output,omitempty"`
	Hash        string    `json:"hash,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher forwards generator events to NATS. The subject of each message is
// <prefix>.<event type>.
type Publisher struct {
	conn    Conn
	prefix  string
	project string
}

// Connect dials url and returns a publisher for project.
func Connect(url, subject, project string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("tn-"+project),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher initialized", logfields.URL(url), slog.String("subject", subject))
	return New(conn, subject, project), nil
}

// New wraps an existing connection.
func New(conn Conn, subject, project string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: conn, prefix: subject, project: project}
}

// Subject returns the subject an event type is published on.
func (p *Publisher) Subject(t generator.EventType) string {
	return p.prefix + "." + string(t)
}

// Publish sends ev. Publishing is fire-and-forget; NATS buffers while
// reconnecting.
func (p *Publisher) Publish(ev generator.Event) error {
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	data, err := json.Marshal(Message{
		Project:     p.project,
		BatchID:     ev.BatchID,
		Type:        string(ev.Type),
		Source:      ev.Source,
		Output:      ev.Output,
		Hash:        ev.Hash,
		Fingerprint: ev.Fingerprint,
		Error:       ev.Error,
		Timestamp:   ts.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(ev.Type), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Observe implements generator.Observer.
func (p *Publisher) Observe(ev generator.Event) {
	if err := p.Publish(ev); err != nil {
		slog.Warn("Event publication failed", logfields.Path(ev.Source), logfields.Error(err))
		return
	}
	slog.Debug("Published page event", logfields.Path(ev.Source), slog.String("type", string(ev.Type)))
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
