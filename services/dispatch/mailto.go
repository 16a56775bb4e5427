package dispatch

import (
	"net/url"
	"strings"
)

// MailtoURI builds the mail composition URI used when the endpoint cannot be reached.
// Recipients are joined verbatim, subject and body are percent encoded.
func MailtoURI(recipients []string, subject, body string) string {
	var b strings.Builder
	b.WriteString("mailto:")
	b.WriteString(strings.Join(recipients, ","))
	b.WriteString("?subject=")
	b.WriteString(EncodeURIComponent(subject))
	b.WriteString("&body=")
	b.WriteString(EncodeURIComponent(body))
	return b.String()
}

// url.QueryEscape also escapes the sub-delimiters below and writes spaces as '+'.
// A literal '+' is already escaped as %2B so every remaining '+' is a space.
var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent escapes s leaving only A-Z a-z 0-9 and -_.!~*'() as is.
func EncodeURIComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}
