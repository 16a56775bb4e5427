package i18n

// english holds the dashboard labels. It is the only populated dictionary;
// every other language falls through to it.
var english = map[string]string{
	"app.title":    "HydroLake",
	"app.subtitle": "Dam Safety Monitoring",

	"nav.dashboard":   "Dashboard",
	"nav.sensors":     "Sensors",
	"nav.weather":     "Weather",
	"nav.alerts":      "Alerts",
	"nav.authorities": "Authorities",
	"nav.settings":    "Settings",

	"dashboard.title":         "Dam Overview",
	"dashboard.lastUpdated":   "Last Updated",
	"dashboard.live":          "Live",
	"dashboard.offline":       "Offline",
	"dashboard.overallStatus": "Overall Status",

	"sensors.waterLevel":        "Water Level",
	"sensors.inflow":            "Inflow",
	"sensors.outflow":           "Outflow",
	"sensors.reservoirCapacity": "Reservoir Capacity",
	"sensors.gateOpening":       "Gate Opening",
	"sensors.seepage":           "Seepage",
	"sensors.pressure":          "Structural Pressure",
	"sensors.vibration":         "Vibration",

	"status.normal":   "Normal",
	"status.warning":  "Warning",
	"status.critical": "Critical",

	"weather.current":       "Current Conditions",
	"weather.forecast":      "5-Day Forecast",
	"weather.temperature":   "Temperature",
	"weather.humidity":      "Humidity",
	"weather.rainfall":      "Rainfall",
	"weather.windSpeed":     "Wind Speed",
	"weather.floodRisk":     "Flood Risk",
	"weather.precipitation": "Precipitation",

	"alerts.title":        "Active Alerts",
	"alerts.low":          "Low",
	"alerts.medium":       "Medium",
	"alerts.high":         "High",
	"alerts.critical":     "Critical",
	"alerts.acknowledge":  "Acknowledge",
	"alerts.acknowledged": "Acknowledged",
	"alerts.send":         "Send Alert",
	"alerts.sent":         "Alert sent",
	"alerts.fallback":     "Opened your mail client",
	"alerts.failed":       "Failed to send alert",
	"alerts.noAlerts":     "No active alerts",

	"authorities.title":       "Notification Authorities",
	"authorities.placeholder": "Comma separated email addresses",
	"authorities.save":        "Save",
	"authorities.saved":       "Authorities saved",
	"authorities.saveFailed":  "Could not save authorities",
}

var dictionaries = map[string]map[string]string{
	"en": english,
	"hi": {},
	"mr": {},
	"te": {},
	"ta": {},
}
