package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
)

var sent = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRenderBody(t *testing.T) {
	body := renderBody(alert.Payload{
		Subject: "Water level critical",
		Body:    "Open the spillway gates.\n",
		Metadata: map[string]interface{}{
			"sensor":    "water-level",
			"level":     "critical",
			"value":     515.25,
			"threshold": "515",
			"unit":      "m",
			"damId":     "hydrolake-01",
			"inflow":    2750.0,
			"operator":  "night shift",
		},
	}, sent)

	exp := `Open the spillway gates.

Details
  Dam:       hydrolake-01
  Sensor:    water-level
  Level:     CRITICAL
  Reading:   515.25 m (threshold 515 m)
  inflow:    2,750
  operator:  night shift

Sent by HydroLake at Sat, 01 Jun 2024 12:00:00 UTC
`
	assert.Equal(t, exp, body)
}

func TestRenderBody_NoMetadata(t *testing.T) {
	body := renderBody(alert.Payload{Body: "Seepage rising"}, sent)
	assert.Equal(t, "Seepage rising\n\nSent by HydroLake at Sat, 01 Jun 2024 12:00:00 UTC\n", body)
}

func TestRenderBody_UndecodableMetadata(t *testing.T) {
	body := renderBody(alert.Payload{
		Body: "Gate stuck",
		Metadata: map[string]interface{}{
			"value": "not a number",
			"gate":  3,
		},
	}, sent)
	assert.Contains(t, body, "  gate:      3\n")
	assert.Contains(t, body, "  value:     not a number\n")
}

func TestDecodeDetails(t *testing.T) {
	d, err := decodeDetails(map[string]interface{}{
		"value":    "12.5",
		"location": "Upper Basin",
		"extra":    true,
	})
	require.NoError(t, err)
	require.NotNil(t, d.Value)
	assert.Equal(t, 12.5, *d.Value)
	assert.Nil(t, d.Threshold)
	assert.Equal(t, "Upper Basin", d.Location)
	assert.Equal(t, map[string]interface{}{"extra": true}, d.Extra)
}
