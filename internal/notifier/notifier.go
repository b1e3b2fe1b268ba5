package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
)

const (
	adminChannel         = "adfactura.events.admin"
	companyChannelPrefix = "adfactura.events.company."
)

// Publisher delivers lifecycle events to interested subscribers. Delivery is
// best-effort; the state machine never waits for acknowledgment.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type publishClient interface {
	Publish(ctx context.Context, channel string, payload any) error
}

type envelope struct {
	Event          string                 `json:"event"`
	Request        models.RechargeRequest `json:"request"`
	PreviousStatus *string                `json:"previous_status,omitempty"`
}

type redisPublisher struct {
	client publishClient
	logg   *logger.Logger
}

// NewRedisPublisher builds a Publisher backed by Redis pub/sub channels: one
// shared admin channel plus one channel per owning company.
func NewRedisPublisher(client publishClient, logg *logger.Logger) (Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisPublisher{client: client, logg: logg}, nil
}

func (p *redisPublisher) Publish(ctx context.Context, event Event) error {
	if event == nil {
		return fmt.Errorf("event required")
	}

	env := envelope{
		Event:   event.Name(),
		Request: event.Snapshot(),
	}
	if changed, ok := event.(StatusChanged); ok {
		previous := changed.Previous.String()
		env.PreviousStatus = &previous
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	channels := []string{
		adminChannel,
		companyChannelPrefix + event.CompanyID().String(),
	}
	for _, channel := range channels {
		if err := p.client.Publish(ctx, channel, payload); err != nil {
			return fmt.Errorf("publish to %s: %w", channel, err)
		}
	}

	if p.logg != nil {
		fields := map[string]any{
			"event":      event.Name(),
			"request_id": event.Snapshot().ID,
		}
		p.logg.Info(p.logg.WithFields(ctx, fields), "event published")
	}
	return nil
}
