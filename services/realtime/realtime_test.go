package realtime_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/influxdata/influxdb/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/httpd/httpdtest"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/realtime"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/telemetry"
)

const wait = 5 * time.Second

type nopDiag struct{}

func (nopDiag) Error(string, error)            {}
func (nopDiag) ClientConnected(string, int)    {}
func (nopDiag) ClientDisconnected(string, int) {}
func (nopDiag) SlowClient(string)              {}
func (nopDiag) Connected(string)               {}
func (nopDiag) Disconnected(string)            {}

type telemetryService struct {
	gen *telemetry.Generator
}

func (t telemetryService) Generator() *telemetry.Generator { return t.gen }

type fixture struct {
	hub    *realtime.Hub
	clk    *clock.Mock
	config realtime.Config
}

func newFixture(t *testing.T) *fixture {
	hs := httpdtest.NewServer(false)
	t.Cleanup(func() { hs.Close() })

	clk := clock.NewMock()
	clk.Set(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	c := realtime.NewConfig()
	c.BroadcastInterval = toml.Duration(time.Second)
	c.URL = "ws" + strings.TrimPrefix(hs.URL(), "http") + realtime.Path

	hub := realtime.NewHub(c, nopDiag{})
	hub.Clock = clk
	hub.HTTPDService = hs
	hub.TelemetryService = telemetryService{gen: telemetry.NewGenerator(telemetry.NewConfig(), clk)}
	require.NoError(t, hub.Open())
	t.Cleanup(func() { hub.Close() })

	return &fixture{hub: hub, clk: clk, config: c}
}

func (f *fixture) connect(t *testing.T) (*realtime.Client, <-chan telemetry.SensorReport) {
	updates := make(chan telemetry.SensorReport, 16)
	cli := realtime.NewClient(f.config, nopDiag{})
	cli.On(realtime.EventSensorUpdate, func(data json.RawMessage) {
		var r telemetry.SensorReport
		if err := json.Unmarshal(data, &r); err == nil {
			updates <- r
		}
	})
	require.NoError(t, cli.Connect(context.Background()))
	t.Cleanup(func() { cli.Disconnect() })
	return cli, updates
}

func next(t *testing.T, updates <-chan telemetry.SensorReport) telemetry.SensorReport {
	t.Helper()
	select {
	case r := <-updates:
		return r
	case <-time.After(wait):
		t.Fatal("timed out waiting for sensor update")
		return telemetry.SensorReport{}
	}
}

func TestHub_SendsUpdateOnConnect(t *testing.T) {
	f := newFixture(t)
	cli, updates := f.connect(t)
	assert.True(t, cli.Connected())

	r := next(t, updates)
	assert.Equal(t, "hydrolake-01", r.DamID)
	assert.Equal(t, f.clk.Now(), r.Time)
	assert.Len(t, r.Sensors, 8)
	assert.Equal(t, 1, f.hub.Clients())
}

func TestHub_BroadcastsOnInterval(t *testing.T) {
	f := newFixture(t)
	_, first := f.connect(t)
	_, second := f.connect(t)
	start := next(t, first).Time
	next(t, second)

	f.clk.Add(time.Second)
	assert.Equal(t, start.Add(time.Second), next(t, first).Time)
	assert.Equal(t, start.Add(time.Second), next(t, second).Time)
}

func TestClient_RequestUpdate(t *testing.T) {
	f := newFixture(t)
	cli, updates := f.connect(t)
	next(t, updates)

	require.NoError(t, cli.Emit(realtime.EventRequestUpdate, nil))
	r := next(t, updates)
	assert.Equal(t, f.clk.Now(), r.Time)
}

func TestClient_Disconnect(t *testing.T) {
	f := newFixture(t)
	cli, updates := f.connect(t)
	next(t, updates)

	disconnected := make(chan struct{}, 1)
	cli.On(realtime.EventDisconnect, func(json.RawMessage) { disconnected <- struct{}{} })

	cli.Disconnect()
	assert.False(t, cli.Connected())
	select {
	case <-disconnected:
	case <-time.After(wait):
		t.Fatal("disconnect event not raised")
	}
	assert.Eventually(t, func() bool { return f.hub.Clients() == 0 }, wait, 10*time.Millisecond)
	assert.Equal(t, realtime.ErrNotConnected, cli.Emit(realtime.EventRequestUpdate, nil))

	// disconnecting twice does nothing
	cli.Disconnect()
}

func TestClient_EveryHandlerReceivesEvent(t *testing.T) {
	f := newFixture(t)
	cli := realtime.NewClient(f.config, nopDiag{})
	first := make(chan struct{}, 16)
	second := make(chan struct{}, 16)
	cli.On(realtime.EventSensorUpdate, func(json.RawMessage) { first <- struct{}{} })
	cli.On(realtime.EventSensorUpdate, func(json.RawMessage) {
		// handlers may register more handlers while an event is delivered
		cli.On(realtime.EventDisconnect, func(json.RawMessage) {})
		second <- struct{}{}
	})
	require.NoError(t, cli.Connect(context.Background()))
	t.Cleanup(func() { cli.Disconnect() })

	for _, ch := range []chan struct{}{first, second} {
		select {
		case <-ch:
		case <-time.After(wait):
			t.Fatal("handler did not receive sensor update")
		}
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	f := newFixture(t)
	cli, updates := f.connect(t)
	next(t, updates)

	require.NoError(t, f.hub.Close())
	assert.Eventually(t, func() bool { return !cli.Connected() }, wait, 10*time.Millisecond)
	assert.Equal(t, 0, f.hub.Clients())
}

func TestClient_ConnectFails(t *testing.T) {
	c := realtime.NewConfig()
	c.URL = "ws://127.0.0.1:1/ws"
	cli := realtime.NewClient(c, nopDiag{})
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	assert.Error(t, cli.Connect(ctx))
	assert.False(t, cli.Connected())
}

func TestConfig_Validate(t *testing.T) {
	c := realtime.NewConfig()
	require.NoError(t, c.Validate())

	c.URL = "http://localhost:9292/ws"
	assert.Error(t, c.Validate())

	c = realtime.NewConfig()
	c.BroadcastInterval = 0
	assert.Error(t, c.Validate())

	c = realtime.NewConfig()
	c.SendBuffer = 0
	assert.Error(t, c.Validate())
}
