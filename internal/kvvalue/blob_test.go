package kvvalue

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobChecksumBelowThreshold(t *testing.T) {
	b := NewBlob(bytes.Repeat([]byte{'a'}, 100))
	_, ok := b.Checksum()
	require.False(t, ok, "payloads under 1024 bytes must not be checksummed")
}

func TestBlobChecksumAtThreshold(t *testing.T) {
	b := NewBlob(bytes.Repeat([]byte{'a'}, checksumThreshold))
	sum, ok := b.Checksum()
	require.True(t, ok)
	require.NotZero(t, sum)

	sum2, _ := b.Checksum()
	require.Equal(t, sum, sum2, "checksum must be cached, not recomputed")
}

func TestBlobEqual(t *testing.T) {
	a := NewBlob(bytes.Repeat([]byte{'x'}, 2048))
	b := NewBlob(bytes.Repeat([]byte{'x'}, 2048))
	c := NewBlob(bytes.Repeat([]byte{'y'}, 2048))

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestBlobEqualDifferentLength(t *testing.T) {
	a := NewBlob([]byte("short"))
	b := NewBlob([]byte("longer value"))
	require.False(t, a.Equal(b))
}
