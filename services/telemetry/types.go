package telemetry

import "time"

// Status is the health of a single reading.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

func (s Status) severity() int {
	switch s {
	case StatusWarning:
		return 1
	case StatusCritical:
		return 2
	default:
		return 0
	}
}

type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

type Sensor struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Value             float64   `json:"value"`
	Unit              string    `json:"unit"`
	Status            Status    `json:"status"`
	WarningThreshold  float64   `json:"warningThreshold"`
	CriticalThreshold float64   `json:"criticalThreshold"`
	Trend             Trend     `json:"trend"`
	Time              time.Time `json:"timestamp"`
}

type SensorReport struct {
	DamID         string    `json:"damId"`
	DamName       string    `json:"damName"`
	Time          time.Time `json:"timestamp"`
	OverallStatus Status    `json:"overallStatus"`
	Summary       string    `json:"summary"`
	Sensors       []Sensor  `json:"sensors"`
}

// Sensor returns the reading with the given id.
func (r SensorReport) Sensor(id string) (Sensor, bool) {
	for _, s := range r.Sensors {
		if s.ID == id {
			return s, true
		}
	}
	return Sensor{}, false
}

type Conditions struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
	WindSpeed   float64 `json:"windSpeed"`
	Condition   string  `json:"condition"`
}

type Forecast struct {
	Date       string  `json:"date"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	RainChance int     `json:"rainChance"`
	Rainfall   float64 `json:"rainfall"`
	Condition  string  `json:"condition"`
}

type WeatherReport struct {
	Location  string     `json:"location"`
	Time      time.Time  `json:"timestamp"`
	Current   Conditions `json:"current"`
	Forecast  []Forecast `json:"forecast"`
	FloodRisk string     `json:"floodRisk"`
}
