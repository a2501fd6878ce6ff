package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":        "6f1c",
		"principal": "1000.00",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypeLoan, payload)
	after := time.Now()

	assert.Equal(t, "loan.created", evt.Type)
	assert.Equal(t, EntityTypeLoan, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	evt := Event{
		Type:      "payment.recorded",
		Entity:    EntityTypePayment,
		Payload:   map[string]interface{}{"installmentNumber": float64(3), "amount": "93.33"},
		Timestamp: fixedTime,
	}

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "payment.recorded", decoded["type"])
	assert.Equal(t, "payment", decoded["entity"])
	assert.Equal(t, "2025-01-15T10:30:00Z", decoded["timestamp"])

	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), payload["installmentNumber"])
	assert.Equal(t, "93.33", payload["amount"])
}

func TestEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{"id": "x"}

	tests := []struct {
		name   string
		evt    Event
		want   string
		entity EntityType
	}{
		{"ClientCreated", ClientCreated(payload), "client.created", EntityTypeClient},
		{"ClientUpdated", ClientUpdated(payload), "client.updated", EntityTypeClient},
		{"ClientDeleted", ClientDeleted(payload), "client.deleted", EntityTypeClient},
		{"LoanCreated", LoanCreated(payload), "loan.created", EntityTypeLoan},
		{"LoanClosed", LoanClosed(payload), "loan.closed", EntityTypeLoan},
		{"LoanDeleted", LoanDeleted(payload), "loan.deleted", EntityTypeLoan},
		{"LoansOverdue", LoansOverdue(payload), "loan.overdue", EntityTypeLoan},
		{"LoansDueSoon", LoansDueSoon(payload), "loan.due_soon", EntityTypeLoan},
		{"PaymentRecorded", PaymentRecorded(payload), "payment.recorded", EntityTypePayment},
		{"ContractArchived", ContractArchived(payload), "contract.archived", EntityTypeContract},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.evt.Type)
			assert.Equal(t, tt.entity, tt.evt.Entity)
			assert.Equal(t, payload, tt.evt.Payload)
		})
	}
}
