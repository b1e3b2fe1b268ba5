package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
)

type capturingClient struct {
	published map[string][]byte
	err       error
}

func (c *capturingClient) Publish(_ context.Context, channel string, payload any) error {
	if c.err != nil {
		return c.err
	}
	if c.published == nil {
		c.published = map[string][]byte{}
	}
	c.published[channel] = payload.([]byte)
	return nil
}

func sampleRequest() models.RechargeRequest {
	return models.RechargeRequest{
		ID:        uuid.New(),
		CompanyID: uuid.New(),
		Platform:  enums.AdPlatformMeta,
		Status:    enums.BillingStatusCalculated,
	}
}

func TestPublishFansOutToAdminAndCompany(t *testing.T) {
	client := &capturingClient{}
	pub, err := NewRedisPublisher(client, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	request := sampleRequest()
	if err := pub.Publish(context.Background(), StatusChanged{
		Request:  request,
		Previous: enums.BillingStatusRequestCreated,
	}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if _, ok := client.published[adminChannel]; !ok {
		t.Fatal("admin channel did not receive the event")
	}

	companyChannel := companyChannelPrefix + request.CompanyID.String()
	raw, ok := client.published[companyChannel]
	if !ok {
		t.Fatalf("company channel %s did not receive the event", companyChannel)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if env.Event != "status-changed" {
		t.Fatalf("unexpected event name %q", env.Event)
	}
	if env.PreviousStatus == nil || *env.PreviousStatus != "request_created" {
		t.Fatalf("previous status missing or wrong: %v", env.PreviousStatus)
	}
	if env.Request.ID != request.ID {
		t.Fatal("snapshot does not match the published request")
	}
}

func TestPublishOmitsPreviousStatusForOtherEvents(t *testing.T) {
	client := &capturingClient{}
	pub, _ := NewRedisPublisher(client, nil)

	if err := pub.Publish(context.Background(), NewRequest{Request: sampleRequest()}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	raw := client.published[adminChannel]
	if strings.Contains(string(raw), "previous_status") {
		t.Fatal("new-request payload must not carry a previous status")
	}
}

func TestPublishPropagatesClientError(t *testing.T) {
	client := &capturingClient{err: errors.New("connection reset")}
	pub, _ := NewRedisPublisher(client, nil)

	if err := pub.Publish(context.Background(), GenericUpdate{Request: sampleRequest()}); err == nil {
		t.Fatal("expected error from failing client")
	}
}
