package realtime

import "encoding/json"

// Path is where the hub accepts websocket connections.
const Path = "/ws"

const (
	// EventSensorUpdate carries a telemetry.SensorReport.
	EventSensorUpdate = "sensor-update"
	// EventRequestUpdate asks the hub for an immediate sensor update.
	EventRequestUpdate = "request-update"
	// EventDisconnect is raised locally by a Client when its connection ends.
	EventDisconnect = "disconnect"
)

// Message is the envelope of every frame exchanged over the socket.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(event string, data interface{}) ([]byte, error) {
	m := Message{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		m.Data = raw
	}
	return json.Marshal(m)
}
