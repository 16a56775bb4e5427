// Package authority keeps the list of email addresses notified about dam alerts.
package authority

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage"
)

const (
	// Namespace is the storage namespace used by the directory.
	Namespace = "authorities"
	// Key is the well known key holding the comma separated list.
	Key = "authority_emails"

	separator = ", "
)

type Diagnostic interface {
	Error(msg string, err error)
	Saved(count int)
}

// SaveResult reports whether the list was persisted.
type SaveResult struct {
	OK bool `json:"ok"`
}

// Directory persists authority addresses as a single joined string.
// Storage failures are never returned to callers.
type Directory struct {
	store storage.Interface
	diag  Diagnostic
}

func NewDirectory(store storage.Interface, d Diagnostic) *Directory {
	return &Directory{
		store: store,
		diag:  d,
	}
}

// List returns the stored addresses in order.
// It returns an empty slice when nothing is stored or the store cannot be read.
func (d *Directory) List() []string {
	kv, err := d.store.Get(Key)
	if err != nil {
		if err != storage.ErrNoKeyExists {
			d.diag.Error("failed to read authority list", err)
		}
		return []string{}
	}
	return Parse(string(kv.Value))
}

// Save normalizes and persists emails, replacing the previous list.
func (d *Directory) Save(emails []string) SaveResult {
	normalized := Normalize(emails)
	if err := d.store.Put(Key, []byte(strings.Join(normalized, separator))); err != nil {
		d.diag.Error("failed to save authority list", errors.Wrapf(err, "put %q", Key))
		return SaveResult{OK: false}
	}
	d.diag.Saved(len(normalized))
	return SaveResult{OK: true}
}

// Resolve returns explicit if it names any recipient, otherwise the stored list.
func (d *Directory) Resolve(explicit []string) []string {
	if r := Normalize(explicit); len(r) > 0 {
		return r
	}
	return d.List()
}

// Parse splits a stored value into trimmed, non-empty addresses.
func Parse(value string) []string {
	return Normalize(strings.Split(value, ","))
}

// Normalize trims every entry and drops the empty ones. Order is kept.
func Normalize(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
