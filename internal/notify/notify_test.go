package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/price-tracker/internal/models"
)

func TestLogNotifier_SendPriceDropAlert(t *testing.T) {
	n := NewLogNotifier(nil)

	err := n.SendPriceDropAlert(context.Background(), &models.DropEvent{
		Product:       "Sony WH-1000XM4",
		Site:          "Amazon",
		PreviousPrice: decimal.RequireFromString("399.99"),
		CurrentPrice:  decimal.RequireFromString("379.99"),
		AmountDrop:    decimal.RequireFromString("20.00"),
		PercentDrop:   decimal.RequireFromString("5.00"),
	})
	assert.NoError(t, err)
}

func TestAlertPayload_WireShape(t *testing.T) {
	recordedAt := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	payload := alertPayload{
		Product:       "Sony WH-1000XM4",
		Site:          "Amazon",
		PreviousPrice: "399.99",
		CurrentPrice:  "379.99",
		AmountDrop:    "20.00",
		PercentDrop:   "5.00",
		Timestamp:     recordedAt,
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Sony WH-1000XM4", decoded["product"])
	assert.Equal(t, "399.99", decoded["previous_price"])
	assert.Equal(t, "379.99", decoded["current_price"])
	assert.Equal(t, "2025-01-02T15:04:05Z", decoded["timestamp"])
}
