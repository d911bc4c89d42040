package monitor

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// JSONCodec is the default Codec implementation, marshaling keys and
// results with encoding/json. KeysEqual compares the canonical marshaled
// bytes rather than requiring K to implement comparable, so JSONCodec works
// for key types containing slices or maps.
type JSONCodec[K any, V any] struct{}

func (JSONCodec[K, V]) MarshalKey(key K) ([]byte, error) {
	data, err := json.Marshal(key)
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal key as JSON")
	}
	return data, nil
}

func (JSONCodec[K, V]) UnmarshalKey(data []byte) (K, error) {
	var key K
	if err := json.Unmarshal(data, &key); err != nil {
		return key, errors.Wrap(err, "unable to unmarshal key from JSON")
	}
	return key, nil
}

func (c JSONCodec[K, V]) KeysEqual(a, b K) bool {
	aBytes, err := c.MarshalKey(a)
	if err != nil {
		return false
	}
	bBytes, err := c.MarshalKey(b)
	if err != nil {
		return false
	}
	return bytes.Equal(aBytes, bBytes)
}

func (JSONCodec[K, V]) MarshalResult(value V) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal result as JSON")
	}
	return data, nil
}

func (JSONCodec[K, V]) UnmarshalResult(data []byte) (V, error) {
	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return value, errors.Wrap(err, "unable to unmarshal result from JSON")
	}
	return value, nil
}
