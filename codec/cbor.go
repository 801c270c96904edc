package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOR serializes values with fxamacker/cbor. Struct fields fall back to
// their json tags, so cached records keep the backend's field names.
// Construct with NewCBOR; the zero value is not usable.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

// NewCBOR encodes definite-length items only and decodes strictly: duplicate
// map keys and indefinite lengths never come from this encoder, so bytes
// carrying them are rejected and the entry self-heals.
func NewCBOR[V any]() (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	eo.IndefLength = cbor.IndefLengthForbidden
	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dm, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
