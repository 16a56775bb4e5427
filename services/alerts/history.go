package alerts

import (
	"encoding/json"

	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage"
)

const (
	historyNamespace = "alerts"
	historyVersion   = 1
	timeIndex        = "time"

	// fixed width so that index keys sort chronologically
	timeIndexFormat = "2006-01-02T15:04:05.000000000Z"
)

// record stores a dashboard alert in an indexed store.
type record struct {
	alert.Data
}

func (r *record) ObjectID() string {
	return r.ID
}

func (r *record) MarshalBinary() ([]byte, error) {
	return storage.EncodeVersioned(historyVersion, r.Data)
}

func (r *record) UnmarshalBinary(data []byte) error {
	return storage.DecodeVersioned(data, historyVersion, func(version int, dec *json.Decoder) error {
		return dec.Decode(&r.Data)
	})
}

// history keeps the alerts posted to the API, newest first.
type history struct {
	store *storage.IndexedStore
}

func newHistory(s storage.Interface) (*history, error) {
	c := storage.NewIndexedStoreConfig(historyNamespace, func() storage.BinaryObject {
		return new(record)
	})
	c.Indexes = append(c.Indexes, storage.Index{
		Name: timeIndex,
		Key: func(o storage.BinaryObject) (string, error) {
			r, ok := o.(*record)
			if !ok {
				return "", storage.ImpossibleTypeErr(r, o)
			}
			return r.Time.UTC().Format(timeIndexFormat), nil
		},
	})
	store, err := storage.NewIndexedStore(s, c)
	if err != nil {
		return nil, err
	}
	return &history{store: store}, nil
}

func (h *history) add(d alert.Data) error {
	return h.store.Create(&record{Data: d})
}

func (h *history) recent(limit int) ([]alert.Data, error) {
	objects, err := h.store.List(storage.ListOptions{
		Index:   timeIndex,
		Limit:   limit,
		Reverse: true,
	})
	if err != nil {
		return nil, err
	}
	list := make([]alert.Data, len(objects))
	for i, o := range objects {
		r, ok := o.(*record)
		if !ok {
			return nil, storage.ImpossibleTypeErr(r, o)
		}
		list[i] = r.Data
	}
	return list, nil
}
