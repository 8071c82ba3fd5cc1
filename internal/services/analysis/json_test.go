package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/models"
)

func TestDecodeJSONResponseBare(t *testing.T) {
	var got models.TechnicalIndicators
	err := decodeJSONResponse(`{"sma_20": 150.5, "trend": "Uptrend"}`, &got)
	require.NoError(t, err)
	assert.Equal(t, 150.5, got.SMA20)
	assert.Equal(t, "Uptrend", got.Trend)
}

func TestDecodeJSONResponseCodeFence(t *testing.T) {
	raw := "```json\n{\"rsi_14\": 62.3}\n```"
	var got models.TechnicalIndicators
	require.NoError(t, decodeJSONResponse(raw, &got))
	assert.Equal(t, 62.3, got.RSI14)
}

func TestDecodeJSONResponseLeadingProse(t *testing.T) {
	raw := `Here are the indicators you asked for:
{"sma_20": 101.0, "macd": "Bullish"}
Let me know if you need anything else.`
	var got models.TechnicalIndicators
	require.NoError(t, decodeJSONResponse(raw, &got))
	assert.Equal(t, 101.0, got.SMA20)
	assert.Equal(t, "Bullish", got.MACD)
}

func TestDecodeJSONResponseNoObject(t *testing.T) {
	var got models.TechnicalIndicators
	err := decodeJSONResponse("I cannot compute indicators from this data.", &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON object")
}

func TestDecodeJSONResponseMalformed(t *testing.T) {
	var got models.TechnicalIndicators
	assert.Error(t, decodeJSONResponse(`{"sma_20": }`, &got))
}
