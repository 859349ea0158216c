package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rocketscienceinc/arena-backend/internal/entity"
)

const DefaultSubject = "arena.outcomes"

// Connect - dials the NATS server and keeps reconnecting in the background.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(
		url,
		nats.Name("arena-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return conn, nil
}

// Publisher announces decided matches on <subject>.<reason>.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

func NewPublisher(conn *nats.Conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}

	return &Publisher{
		conn:    conn,
		subject: subject,
	}
}

func (that *Publisher) Subject(reason string) string {
	return that.subject + "." + reason
}

func (that *Publisher) Publish(ctx context.Context, outcome *entity.Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	if err = that.conn.Publish(that.Subject(outcome.Reason), data); err != nil {
		return fmt.Errorf("failed to publish outcome: %w", err)
	}

	if err = that.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush outcome: %w", err)
	}

	return nil
}
