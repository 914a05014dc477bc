package kvvalue

import (
	"hash/crc32"
	"sync"
)

// checksumThreshold is the minimum payload length before a CRC32 is computed
// at all, matching _examples/original_source/src/value/checksum.rs:
// calculate_checksum returns None for anything shorter than 1024 bytes.
const checksumThreshold = 1024

// checksumCell holds the lazily-computed checksum behind a shared pointer so
// every copy of a Blob value (Blob is passed around by value inside Value)
// observes the same cached result once one copy computes it.
type checksumCell struct {
	once  sync.Once
	value uint32
}

// Blob is a byte string paired with a lazily-computed CRC32 checksum used to
// accelerate equality and set-membership checks on large payloads. The
// checksum is computed once, on first use, and cached; callers never see a
// torn computation because sync.Once guards it.
type Blob struct {
	bytes []byte
	cell  *checksumCell
}

// NewBlob wraps raw bytes. The checksum is not computed here; it is computed
// lazily the first time Checksum is called, exactly as the original only
// computes it "lazily" relative to construction.
func NewBlob(b []byte) Blob {
	return Blob{bytes: b, cell: &checksumCell{}}
}

func (b Blob) Bytes() []byte { return b.bytes }
func (b Blob) Len() int      { return len(b.bytes) }

// Checksum returns the cached CRC32 of the payload, or (0, false) if the
// payload is shorter than checksumThreshold and therefore never checksummed.
func (b Blob) Checksum() (uint32, bool) {
	if len(b.bytes) < checksumThreshold {
		return 0, false
	}
	b.cell.once.Do(func() {
		b.cell.value = crc32.ChecksumIEEE(b.bytes)
	})
	return b.cell.value, true
}

// Equal compares checksum and length before falling back to a full byte
// comparison, matching checksum.rs's PartialEq impl: cheap rejection for
// large, unequal blobs without touching every byte twice.
func (b Blob) Equal(other Blob) bool {
	if len(b.bytes) != len(other.bytes) {
		return false
	}
	bc, bok := b.Checksum()
	oc, ook := other.Checksum()
	if bok && ook && bc != oc {
		return false
	}
	if len(b.bytes) == 0 {
		return true
	}
	for i := range b.bytes {
		if b.bytes[i] != other.bytes[i] {
			return false
		}
	}
	return true
}
