package alerts

import (
	"fmt"
	"math/rand"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/telemetry"
)

// fabricate derives the live alerts of a sensor report.
// Every sensor outside its normal range raises one alert and a low level
// status alert always summarizes the report.
func fabricate(report telemetry.SensorReport) []alert.Data {
	rng := rand.New(rand.NewSource(report.Time.UnixNano()))
	newID := func() string {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return uuid.New().String()
		}
		return id.String()
	}

	var list []alert.Data
	for _, s := range report.Sensors {
		var (
			level     alert.Level
			threshold float64
		)
		switch s.Status {
		case telemetry.StatusCritical:
			level, threshold = alert.Critical, s.CriticalThreshold
		case telemetry.StatusWarning:
			level, threshold = alert.High, s.WarningThreshold
		default:
			continue
		}
		list = append(list, alert.Data{
			ID:        newID(),
			Level:     level,
			Sensor:    s.ID,
			Message:   fmt.Sprintf("%s at %s %s exceeds the %s threshold", s.Name, humanize.Commaf(s.Value), s.Unit, s.Status),
			Value:     s.Value,
			Threshold: threshold,
			Time:      s.Time,
		})
	}
	list = append(list, alert.Data{
		ID:           newID(),
		Level:        alert.Low,
		Sensor:       "system",
		Message:      report.Summary,
		Time:         report.Time,
		Acknowledged: true,
	})
	return list
}
