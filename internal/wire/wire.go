// Package wire frames a cached resource entry for a byte provider.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1

	flagLoaded  byte = 1 << 0
	flagHasData byte = 1 << 1
	knownFlags       = flagLoaded | flagHasData

	hdrLen = 4 + 1 + 1 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("fincache: corrupt entry")
	magic4     = [...]byte{'F', 'C', 'E', 'N'}
)

// Entry is the decoded frame. FetchedAt is Unix nanoseconds, 0 for never.
type Entry struct {
	Gen       uint64
	FetchedAt int64
	Loaded    bool
	HasData   bool
	Payload   []byte
}

// Encode lays out:
//
//	magic(4) | ver(1) | flags(1) | gen(u64 be) | fetchedAt(i64 be) | vlen(u32 be) | payload(vlen)
func Encode(e Entry) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var flags byte
	if e.Loaded {
		flags |= flagLoaded
	}
	if e.HasData {
		flags |= flagHasData
	}
	buf.WriteByte(flags)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], e.Gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(e.FetchedAt))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])

	buf.Write(e.Payload)
	return buf.Bytes()
}

// Decode validates the frame strictly: unknown flags, short buffers and
// trailing bytes are all ErrCorrupt.
func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return Entry{}, ErrCorrupt
	}
	flags := b[5]
	if flags&^knownFlags != 0 {
		return Entry{}, ErrCorrupt
	}

	off := 6
	gen := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	fetchedAt := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off {
		return Entry{}, ErrCorrupt
	}

	return Entry{
		Gen:       gen,
		FetchedAt: fetchedAt,
		Loaded:    flags&flagLoaded != 0,
		HasData:   flags&flagHasData != 0,
		Payload:   b[off:],
	}, nil
}
