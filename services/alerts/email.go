package alerts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
)

// details are the well known metadata keys of an alert.
type details struct {
	Sensor    string   `mapstructure:"sensor"`
	Level     string   `mapstructure:"level"`
	Value     *float64 `mapstructure:"value"`
	Threshold *float64 `mapstructure:"threshold"`
	Unit      string   `mapstructure:"unit"`
	DamID     string   `mapstructure:"damId"`
	Location  string   `mapstructure:"location"`

	Extra map[string]interface{} `mapstructure:",remain"`
}

func decodeDetails(metadata map[string]interface{}) (details, error) {
	var d details
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &d,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return d, err
	}
	if err := dec.Decode(metadata); err != nil {
		return d, errors.Wrap(err, "failed to decode alert metadata")
	}
	return d, nil
}

// renderBody appends a details section built from the metadata to the alert body.
// Metadata that cannot be decoded is listed as is.
func renderBody(p alert.Payload, sent time.Time) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(p.Body, "\n"))
	b.WriteString("\n")

	if len(p.Metadata) > 0 {
		b.WriteString("\nDetails\n")
		d, err := decodeDetails(p.Metadata)
		if err != nil {
			writeExtra(&b, p.Metadata)
		} else {
			writeDetails(&b, d)
		}
	}

	fmt.Fprintf(&b, "\nSent by HydroLake at %s\n", sent.UTC().Format(time.RFC1123))
	return b.String()
}

func writeDetails(b *strings.Builder, d details) {
	line := func(name, value string) {
		if value != "" {
			fmt.Fprintf(b, "  %-10s %s\n", name+":", value)
		}
	}
	line("Dam", d.DamID)
	line("Location", d.Location)
	line("Sensor", d.Sensor)
	line("Level", strings.ToUpper(d.Level))
	if d.Value != nil {
		reading := withUnit(humanize.Commaf(*d.Value), d.Unit)
		if d.Threshold != nil {
			reading += fmt.Sprintf(" (threshold %s)", withUnit(humanize.Commaf(*d.Threshold), d.Unit))
		}
		line("Reading", reading)
	} else if d.Threshold != nil {
		line("Threshold", withUnit(humanize.Commaf(*d.Threshold), d.Unit))
	}
	writeExtra(b, d.Extra)
}

func writeExtra(b *strings.Builder, extra map[string]interface{}) {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "  %-10s %s\n", k+":", formatValue(extra[k]))
	}
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case float64:
		return humanize.Commaf(v)
	case int:
		return humanize.Comma(int64(v))
	case int64:
		return humanize.Comma(v)
	case nil:
		return "-"
	default:
		return fmt.Sprint(v)
	}
}

func withUnit(v, unit string) string {
	if unit == "" {
		return v
	}
	return v + " " + unit
}
