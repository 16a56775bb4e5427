package telemetry

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/benbjohnson/clock"
	"github.com/dustin/go-humanize"
)

// sensorSpec describes the range a fabricated reading is drawn from.
// Readings at or above the thresholds are flagged.
type sensorSpec struct {
	id       string
	name     string
	unit     string
	min, max float64
	warning  float64
	critical float64
	decimals int
}

var sensorSpecs = []sensorSpec{
	{id: "water-level", name: "Water Level", unit: "m", min: 480, max: 520, warning: 510, critical: 515, decimals: 2},
	{id: "inflow", name: "Inflow", unit: "m³/s", min: 200, max: 3000, warning: 2200, critical: 2700, decimals: 0},
	{id: "outflow", name: "Outflow", unit: "m³/s", min: 150, max: 2500, warning: 2000, critical: 2400, decimals: 0},
	{id: "reservoir-capacity", name: "Reservoir Capacity", unit: "%", min: 40, max: 100, warning: 90, critical: 97, decimals: 1},
	{id: "gate-opening", name: "Gate Opening", unit: "%", min: 0, max: 100, warning: 75, critical: 90, decimals: 0},
	{id: "seepage", name: "Seepage", unit: "L/min", min: 5, max: 60, warning: 40, critical: 52, decimals: 1},
	{id: "pressure", name: "Structural Pressure", unit: "kPa", min: 800, max: 1600, warning: 1350, critical: 1500, decimals: 0},
	{id: "vibration", name: "Vibration", unit: "mm/s", min: 0.1, max: 8, warning: 5, critical: 7, decimals: 2},
}

var (
	conditions = []string{"Sunny", "Partly Cloudy", "Cloudy", "Light Rain", "Heavy Rain", "Thunderstorm"}
	trends     = []Trend{TrendRising, TrendFalling, TrendStable}
)

const forecastDays = 5

// Generator fabricates dashboard data. Every call is seeded from the clock,
// so two calls at the same instant produce the same data.
type Generator struct {
	clock clock.Clock
	c     Config
}

func NewGenerator(c Config, clk clock.Clock) *Generator {
	return &Generator{
		clock: clk,
		c:     c,
	}
}

// Sensors fabricates one reading per dam sensor.
func (g *Generator) Sensors() SensorReport {
	now := g.clock.Now().UTC()
	rng := rand.New(rand.NewSource(now.UnixNano()))

	r := SensorReport{
		DamID:         g.c.DamID,
		DamName:       g.c.DamName,
		Time:          now,
		OverallStatus: StatusNormal,
		Sensors:       make([]Sensor, 0, len(sensorSpecs)),
	}
	attention := 0
	for _, spec := range sensorSpecs {
		v := round(spec.min+rng.Float64()*(spec.max-spec.min), spec.decimals)
		s := Sensor{
			ID:                spec.id,
			Name:              spec.name,
			Value:             v,
			Unit:              spec.unit,
			Status:            classify(v, spec.warning, spec.critical),
			WarningThreshold:  spec.warning,
			CriticalThreshold: spec.critical,
			Trend:             trends[rng.Intn(len(trends))],
			Time:              now,
		}
		if s.Status.severity() > r.OverallStatus.severity() {
			r.OverallStatus = s.Status
		}
		if s.Status != StatusNormal {
			attention++
		}
		r.Sensors = append(r.Sensors, s)
	}
	r.Summary = summarize(r, attention)
	return r
}

// Weather fabricates current conditions and a five day forecast.
func (g *Generator) Weather() WeatherReport {
	now := g.clock.Now().UTC()
	rng := rand.New(rand.NewSource(now.UnixNano()))

	r := WeatherReport{
		Location: g.c.Location,
		Time:     now,
		Current: Conditions{
			Temperature: round(18+rng.Float64()*17, 1),
			Humidity:    round(40+rng.Float64()*55, 0),
			Rainfall:    round(rng.Float64()*40, 1),
			WindSpeed:   round(rng.Float64()*45, 1),
			Condition:   conditions[rng.Intn(len(conditions))],
		},
		Forecast: make([]Forecast, 0, forecastDays),
	}
	total := 0.0
	for i := 1; i <= forecastDays; i++ {
		low := round(15+rng.Float64()*10, 1)
		f := Forecast{
			Date:       now.AddDate(0, 0, i).Format("2006-01-02"),
			Low:        low,
			High:       round(low+3+rng.Float64()*10, 1),
			RainChance: rng.Intn(101),
			Condition:  conditions[rng.Intn(len(conditions))],
		}
		f.Rainfall = round(float64(f.RainChance)*rng.Float64()*0.8, 1)
		total += f.Rainfall
		r.Forecast = append(r.Forecast, f)
	}
	r.FloodRisk = floodRisk(total)
	return r
}

func classify(v, warning, critical float64) Status {
	switch {
	case v >= critical:
		return StatusCritical
	case v >= warning:
		return StatusWarning
	default:
		return StatusNormal
	}
}

func floodRisk(rainfall float64) string {
	switch {
	case rainfall >= 150:
		return "high"
	case rainfall >= 60:
		return "moderate"
	default:
		return "low"
	}
}

func summarize(r SensorReport, attention int) string {
	capacity, _ := r.Sensor("reservoir-capacity")
	inflow, _ := r.Sensor("inflow")
	return fmt.Sprintf("%s at %s%% capacity, inflow %s %s, %d sensor(s) need attention",
		r.DamName,
		humanize.Ftoa(capacity.Value),
		humanize.Commaf(inflow.Value),
		inflow.Unit,
		attention,
	)
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
