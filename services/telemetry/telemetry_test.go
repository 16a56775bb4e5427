package telemetry_test

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/httpd/httpdtest"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/telemetry"
)

type generated struct {
	kind     string
	critical int
}

type recordingDiag struct {
	mu        sync.Mutex
	generated []generated
}

func (d *recordingDiag) Error(string, error) {}
func (d *recordingDiag) Generated(kind string, critical int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generated = append(d.generated, generated{kind: kind, critical: critical})
}

func (d *recordingDiag) all() []generated {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]generated(nil), d.generated...)
}

func mockClock() *clock.Mock {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return clk
}

func TestGenerator_Sensors(t *testing.T) {
	clk := mockClock()
	g := telemetry.NewGenerator(telemetry.NewConfig(), clk)

	r := g.Sensors()
	assert.Equal(t, "hydrolake-01", r.DamID)
	assert.Equal(t, clk.Now(), r.Time)
	require.Len(t, r.Sensors, 8)

	worst := telemetry.StatusNormal
	for _, s := range r.Sensors {
		assert.Equal(t, clk.Now(), s.Time, s.ID)
		assert.NotEmpty(t, s.Unit, s.ID)
		assert.Less(t, s.WarningThreshold, s.CriticalThreshold, s.ID)
		switch {
		case s.Value >= s.CriticalThreshold:
			assert.Equal(t, telemetry.StatusCritical, s.Status, s.ID)
			worst = telemetry.StatusCritical
		case s.Value >= s.WarningThreshold:
			assert.Equal(t, telemetry.StatusWarning, s.Status, s.ID)
			if worst == telemetry.StatusNormal {
				worst = telemetry.StatusWarning
			}
		default:
			assert.Equal(t, telemetry.StatusNormal, s.Status, s.ID)
		}
	}
	assert.Equal(t, worst, r.OverallStatus)
	assert.Contains(t, r.Summary, "HydroLake Dam at ")

	_, ok := r.Sensor("water-level")
	assert.True(t, ok)
	_, ok = r.Sensor("turbidity")
	assert.False(t, ok)
}

func TestGenerator_DeterministicPerInstant(t *testing.T) {
	clk := mockClock()
	g := telemetry.NewGenerator(telemetry.NewConfig(), clk)

	first := g.Sensors()
	if diff := cmp.Diff(first, g.Sensors()); diff != "" {
		t.Errorf("unexpected difference at the same instant:\n%s", diff)
	}

	clk.Add(time.Second)
	next := g.Sensors()
	assert.Equal(t, first.Time.Add(time.Second), next.Time)
	assert.False(t, cmp.Equal(first.Sensors, next.Sensors))
}

func TestGenerator_Weather(t *testing.T) {
	clk := mockClock()
	c := telemetry.NewConfig()
	c.Location = "Upper Basin"
	r := telemetry.NewGenerator(c, clk).Weather()

	assert.Equal(t, "Upper Basin", r.Location)
	require.Len(t, r.Forecast, 5)
	assert.Equal(t, "2024-06-02", r.Forecast[0].Date)
	assert.Equal(t, "2024-06-06", r.Forecast[4].Date)
	for _, f := range r.Forecast {
		assert.GreaterOrEqual(t, f.High, f.Low)
		assert.GreaterOrEqual(t, f.RainChance, 0)
		assert.LessOrEqual(t, f.RainChance, 100)
	}
	assert.Contains(t, []string{"low", "moderate", "high"}, r.FloodRisk)
}

func TestService_Routes(t *testing.T) {
	hs := httpdtest.NewServer(false)
	defer hs.Close()

	diag := new(recordingDiag)
	s := telemetry.NewService(telemetry.NewConfig(), diag)
	s.Clock = mockClock()
	s.HTTPDService = hs
	require.NoError(t, s.Open())
	defer s.Close()

	resp, err := http.Get(hs.URL() + "/api/sensors")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sensors telemetry.SensorReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sensors))
	if diff := cmp.Diff(s.Generator().Sensors(), sensors); diff != "" {
		t.Errorf("unexpected sensor report:\n%s", diff)
	}

	resp, err = http.Get(hs.URL() + "/api/weather")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var weather telemetry.WeatherReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&weather))
	assert.Len(t, weather.Forecast, 5)

	gen := diag.all()
	require.Len(t, gen, 2)
	assert.Equal(t, "sensors", gen[0].kind)
	assert.Equal(t, "weather", gen[1].kind)

	req, err := http.NewRequest("POST", hs.URL()+"/api/sensors", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestConfig_Validate(t *testing.T) {
	c := telemetry.NewConfig()
	assert.NoError(t, c.Validate())
	c.DamID = ""
	assert.Error(t, c.Validate())
}
