package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// versioned is the on-disk envelope of every stored record.
type versioned struct {
	Version int             `json:"version"`
	Value   json.RawMessage `json:"value"`
}

// EncodeVersioned marshals v as JSON inside a versioned envelope.
func EncodeVersioned(version int, v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(versioned{Version: version, Value: raw})
}

// DecodeVersioned unwraps data written by EncodeVersioned and hands the value
// to decode. Records written by a newer release than current are rejected.
func DecodeVersioned(data []byte, current int, decode func(version int, dec *json.Decoder) error) error {
	var env versioned
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "invalid record envelope")
	}
	if len(env.Value) == 0 || bytes.Equal(env.Value, []byte("null")) {
		return errors.New("empty value")
	}
	if env.Version > current {
		return fmt.Errorf("record version %d is newer than supported version %d", env.Version, current)
	}
	return decode(env.Version, json.NewDecoder(bytes.NewReader(env.Value)))
}
