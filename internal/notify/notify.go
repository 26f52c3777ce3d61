// Package notify publishes run-completion events to NATS so release
// dashboards and chat bridges can react to builds. Publication is
// best-effort; a broker outage never fails a release task.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mflab/relkit/internal/logfields"
	"github.com/mflab/relkit/internal/task"
)

// Event is the JSON payload published for every finished run.
type Event struct {
	RunID    string    `json:"run_id"`
	Task     string    `json:"task"`
	State    string    `json:"state"`
	Stamp    string    `json:"stamp,omitempty"`
	Started  time.Time `json:"started"`
	Duration string    `json:"duration"`
	Error    string    `json:"error,omitempty"`
}

// EventFromReport converts a task report into its wire form.
func EventFromReport(rep *task.Report) Event {
	ev := Event{
		RunID:    rep.RunID,
		Task:     rep.Task,
		State:    string(rep.State),
		Stamp:    rep.Stamp.String(),
		Started:  rep.Started,
		Duration: rep.Duration.String(),
	}
	if rep.Err != nil {
		ev.Error = rep.Err.Error()
	}
	return ev
}

// Notifier implements task.Notifier over a NATS connection.
type Notifier struct {
	conn    *nats.Conn
	subject string
}

// New connects to the broker. The connection is established eagerly so a
// misconfigured URL surfaces at startup, not mid-release.
func New(url, subject string) (*Notifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("relkit"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS notifier connected", slog.String("url", url), slog.String("subject", subject))
	return &Notifier{conn: conn, subject: subject}, nil
}

// Publish implements task.Notifier.
func (n *Notifier) Publish(_ context.Context, rep *task.Report) error {
	payload, err := json.Marshal(EventFromReport(rep))
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	if err := n.conn.Flush(); err != nil {
		return fmt.Errorf("flush run event: %w", err)
	}

	slog.Debug("Run event published", logfields.Task(rep.Task), slog.String("subject", n.subject))
	return nil
}

// Close drains the connection.
func (n *Notifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
