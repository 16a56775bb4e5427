package alert_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
)

func TestResult_ExactlyOneVariant(t *testing.T) {
	testCases := []struct {
		name      string
		r         alert.Result
		delivered bool
		fallback  bool
		failed    bool
	}{
		{name: "delivered", r: alert.Delivered("sent", "http://preview"), delivered: true},
		{name: "fallback", r: alert.FallbackOpened(), fallback: true},
		{name: "failed", r: alert.Failed("boom"), failed: true},
		{name: "zero value", r: alert.Result{}, failed: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.delivered, tc.r.IsDelivered())
			assert.Equal(t, tc.fallback, tc.r.IsFallback())
			assert.Equal(t, tc.failed, tc.r.IsFailed())
		})
	}
}

func TestResult_JSON(t *testing.T) {
	b, err := json.Marshal(alert.Delivered("Alert sent", "http://mail/preview/1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"delivered","message":"Alert sent","previewUrl":"http://mail/preview/1"}`, string(b))

	b, err = json.Marshal(alert.FallbackOpened())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"fallback_opened"}`, string(b))

	var r alert.Result
	require.NoError(t, json.Unmarshal([]byte(`{"status":"failed","error":"nope"}`), &r))
	assert.Equal(t, alert.Failed("nope"), r)
}

func TestStatus_UnmarshalUnknown(t *testing.T) {
	var s alert.Status
	assert.Error(t, s.UnmarshalText([]byte("deliver")))
	assert.Error(t, s.UnmarshalText([]byte("opened")))
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"low", "MEDIUM", "High", "critical"} {
		l, err := alert.ParseLevel(name)
		require.NoError(t, err, name)
		got, _ := l.MarshalText()
		assert.Equal(t, len(name), len(got))
	}
	_, err := alert.ParseLevel("severe")
	assert.Error(t, err)
}

func TestPayload_MetadataOmitted(t *testing.T) {
	b, err := json.Marshal(alert.Payload{
		Recipients: []string{"a@x.com", "a@x.com"},
		Subject:    "Water level high",
		Body:       "Reservoir at 97%",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"recipients":["a@x.com","a@x.com"],"subject":"Water level high","body":"Reservoir at 97%"}`, string(b))
}
