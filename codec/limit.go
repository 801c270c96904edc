package codec

import "fmt"

// Limit wraps a codec and refuses to decode payloads larger than MaxDecode
// bytes. A list resource that grew past the limit reads as a cache miss and
// is refetched instead of being decoded.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int // <= 0 disables the check
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }
func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("codec: payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
