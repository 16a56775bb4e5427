package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/dispatch"
)

func TestEncodeURIComponent(t *testing.T) {
	tests := map[string]string{
		"Dam alert":       "Dam%20alert",
		"a+b=c&d":         "a%2Bb%3Dc%26d",
		"level: 98%":      "level%3A%2098%25",
		"line1\nline2":    "line1%0Aline2",
		"keep -_.!~*'()":  "keep%20-_.!~*'()",
		"जल":              "%E0%A4%9C%E0%A4%B2",
		"ops@dam.gov?x=1": "ops%40dam.gov%3Fx%3D1",
	}
	for in, want := range tests {
		assert.Equal(t, want, dispatch.EncodeURIComponent(in), "input %q", in)
	}
}

func TestMailtoURI(t *testing.T) {
	assert.Equal(t,
		"mailto:a@x.com,b@y.com?subject=Gate%202%20stuck&body=Inflow%3A%201%2C200%20m3%2Fs",
		dispatch.MailtoURI([]string{"a@x.com", "b@y.com"}, "Gate 2 stuck", "Inflow: 1,200 m3/s"),
	)
	// recipients are not validated or encoded
	assert.Equal(t,
		"mailto:not an address,?subject=&body=",
		dispatch.MailtoURI([]string{"not an address", ""}, "", ""),
	)
	assert.Equal(t, "mailto:?subject=s&body=b", dispatch.MailtoURI(nil, "s", "b"))
}
