package alert

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Payload is a single alert submitted for delivery to the dam authorities.
// A Payload is built fresh for every alert event and is never persisted.
type Payload struct {
	// Destination addresses, in order. Duplicates are kept.
	Recipients []string `json:"recipients"`
	// Single line summary of the detected condition.
	Subject string `json:"subject"`
	// Free text message.
	Body string `json:"body"`
	// Supplementary values, opaque to delivery.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Status discriminates the variants of Result.
type Status int

const (
	StatusFailed Status = iota
	StatusDelivered
	StatusFallbackOpened
	maxStatus
)

const statusStrings = "faileddeliveredfallback_opened"

var statusBytes = []byte(statusStrings)

var statusOffsets = []int{0, 6, 15, 30}

func (s Status) String() string {
	if s >= 0 && s < maxStatus {
		return statusStrings[statusOffsets[s]:statusOffsets[s+1]]
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	idx := bytes.Index(statusBytes, text)
	if idx >= 0 {
		for i := 0; i < int(maxStatus); i++ {
			if idx == statusOffsets[i] && len(text) == statusOffsets[i+1]-statusOffsets[i] {
				*s = Status(i)
				return nil
			}
		}
	}
	return fmt.Errorf("unknown dispatch status '%s'", text)
}

// Result is the outcome of one dispatch attempt.
// Exactly one variant is set, see Status.
type Result struct {
	Status Status `json:"status"`

	// Set for StatusDelivered when the endpoint supplied them.
	Message    string `json:"message,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`

	// Set for StatusFailed.
	Error string `json:"error,omitempty"`
}

// Delivered reports that the remote endpoint acknowledged the alert.
func Delivered(message, previewURL string) Result {
	return Result{
		Status:     StatusDelivered,
		Message:    message,
		PreviewURL: previewURL,
	}
}

// FallbackOpened reports that a local mail composition action was triggered
// because the remote delivery could not be attempted.
func FallbackOpened() Result {
	return Result{Status: StatusFallbackOpened}
}

// Failed reports that nothing was delivered and no fallback was possible.
func Failed(err string) Result {
	return Result{
		Status: StatusFailed,
		Error:  err,
	}
}

func (r Result) IsDelivered() bool { return r.Status == StatusDelivered }
func (r Result) IsFallback() bool  { return r.Status == StatusFallbackOpened }
func (r Result) IsFailed() bool    { return r.Status == StatusFailed }

func (r Result) String() string {
	switch r.Status {
	case StatusDelivered:
		if r.Message != "" {
			return "delivered: " + r.Message
		}
		return "delivered"
	case StatusFallbackOpened:
		return "opened local mail client"
	default:
		return "failed: " + r.Error
	}
}

// Level is the severity of a dashboard alert.
type Level int

const (
	Low Level = iota
	Medium
	High
	Critical
	maxLevel
)

const levelStrings = "lowmediumhighcritical"

var levelBytes = []byte(levelStrings)

var levelOffsets = []int{0, 3, 9, 13, 21}

func (l Level) String() string {
	if l >= 0 && l < maxLevel {
		return levelStrings[levelOffsets[l]:levelOffsets[l+1]]
	}
	return "unknown"
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	idx := bytes.Index(levelBytes, text)
	if idx >= 0 {
		for i := 0; i < int(maxLevel); i++ {
			if idx == levelOffsets[i] && len(text) == levelOffsets[i+1]-levelOffsets[i] {
				*l = Level(i)
				return nil
			}
		}
	}

	return fmt.Errorf("unknown alert level '%s'", text)
}

func ParseLevel(s string) (l Level, err error) {
	err = l.UnmarshalText([]byte(strings.ToLower(s)))
	return
}

// Data is a dashboard alert as served by the alerts API.
type Data struct {
	ID           string    `json:"id"`
	Level        Level     `json:"level"`
	Sensor       string    `json:"sensor"`
	Message      string    `json:"message"`
	Value        float64   `json:"value"`
	Threshold    float64   `json:"threshold"`
	Time         time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
}
