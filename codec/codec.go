// Package codec serializes cached resource payloads to bytes for a provider.
package codec

import (
	"fmt"
	"strings"
)

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Names accepted by New.
const (
	NameJSON    = "json"
	NameMsgpack = "msgpack"
	NameCBOR    = "cbor"
)

// New returns the codec registered under name ("" means JSON).
func New[V any](name string) (Codec[V], error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameJSON:
		return JSON[V]{}, nil
	case NameMsgpack:
		return Msgpack[V]{}, nil
	case NameCBOR:
		c, err := NewCBOR[V]()
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}
