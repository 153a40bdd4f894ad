package idgen

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Layout, most significant bit first:
//
//	|__________________TIMESTAMP[59:12]__________________|VER_|_TS[11:0]_|
//	|VA|___SEQUENCE___|_____________NODE_____________|_____RANDOM_____|
//
// VER is fixed to 0100 and VA to 10, so the canonical string form parses as an RFC 4122 uuid.
const (
	versionMarker = 0x4
	variantMarker = 0x2

	MaxSequence = 1<<14 - 1

	tsHighMask   = 0xFFFF_FFFF_FFFF_0000
	tsLowMask    = 0x0FFF
	versionBits  = versionMarker << 12
	variantShift = 62
	seqShift     = 48
	nodeShift    = 16
	randomLen    = 2
)

// ID is a 128-bit identifier in canonical big-endian layout.
// Byte-wise order follows (timestamp, sequence).
type ID [16]byte

var Nil ID

func pack(ts uint64, seq uint16, node uint32, random [randomLen]byte) (id ID) {
	hi := (ts<<4)&tsHighMask | versionBits | ts&tsLowMask
	lo := uint64(variantMarker)<<variantShift |
		uint64(seq&MaxSequence)<<seqShift |
		uint64(node)<<nodeShift
	binary.BigEndian.PutUint64(id[0:8], hi)
	binary.BigEndian.PutUint64(id[8:16], lo)
	copy(id[16-randomLen:], random[:])
	return
}

func (id ID) hi() uint64 { return binary.BigEndian.Uint64(id[0:8]) }
func (id ID) lo() uint64 { return binary.BigEndian.Uint64(id[8:16]) }

// Timestamp returns the 60-bit tick value.
func (id ID) Timestamp() uint64 {
	hi := id.hi()
	return (hi>>16)<<12 | hi&tsLowMask
}

func (id ID) Time() time.Time { return TicksToTime(id.Timestamp()) }

func (id ID) Sequence() uint16 { return uint16(id.lo()>>seqShift) & MaxSequence }

func (id ID) Node() uint32 { return uint32(id.lo() >> nodeShift) }

func (id ID) Version() byte { return id[6] >> 4 }

func (id ID) Variant() byte { return id[8] >> 6 }

// Random returns the trailing random bits.
func (id ID) Random() uint16 { return binary.BigEndian.Uint16(id[16-randomLen:]) }

func (id ID) Bytes() []byte {
	b := make([]byte, len(id))
	copy(b, id[:])
	return b
}

func (id ID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id ID) String() string { return uuid.UUID(id).String() }

// Compare returns -1, 0, 1 based on byte-wise comparison.
func (id ID) Compare(other ID) int { return bytes.Compare(id[:], other[:]) }

func (id ID) Valid() bool {
	return id.Version() == versionMarker && id.Variant() == variantMarker
}

func (id ID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Parse accepts any textual form google/uuid understands and
// rejects values lacking the version and variant markers.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("idgen: parse %q: %w", s, err)
	}
	id := ID(u)
	if !id.Valid() {
		return Nil, fmt.Errorf("%w: %s", ErrInvalidLayout, s)
	}
	return id, nil
}

func FromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != len(id) {
		return Nil, fmt.Errorf("%w, got %d", ErrInvalidLength, len(b))
	}
	copy(id[:], b)
	if !id.Valid() {
		return Nil, ErrInvalidLayout
	}
	return id, nil
}
