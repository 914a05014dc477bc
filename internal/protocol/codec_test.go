package protocol

import (
	"testing"

	"github.com/adred-codev/kvdb/internal/kvvalue"
	"github.com/stretchr/testify/require"
)

func TestDecodeTypedArrayOfBlobs(t *testing.T) {
	d := NewDecoder()
	buf := []byte("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n")
	v, n, err := d.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, kvvalue.KindArray, v.Kind)
	require.Len(t, v.Array, 2)
	require.Equal(t, "GET", string(v.Array[0].Blob.Bytes()))
	require.Equal(t, "foo", string(v.Array[1].Blob.Bytes()))
}

func TestDecodePartialFrame(t *testing.T) {
	d := NewDecoder()
	buf := []byte("*2\r\n$3\r\nGET\r\n$3\r\nfo")
	_, _, err := d.Decode(buf)
	require.ErrorIs(t, err, ErrPartial)
}

func TestDecodeInline(t *testing.T) {
	d := NewDecoder()
	v, n, err := d.Decode([]byte("PING\r\n"))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.Equal(t, kvvalue.KindArray, v.Kind)
	require.Len(t, v.Array, 1)
	require.Equal(t, "PING", string(v.Array[0].Blob.Bytes()))
}

func TestDecodeScalarTypes(t *testing.T) {
	d := NewDecoder()

	v, _, err := d.Decode([]byte(":42\r\n"))
	require.NoError(t, err)
	require.Equal(t, int64(42), v.Int)

	v, _, err = d.Decode([]byte(",3.14\r\n"))
	require.NoError(t, err)
	require.Equal(t, 3.14, v.Float)

	v, _, err = d.Decode([]byte("#t\r\n"))
	require.NoError(t, err)
	require.True(t, v.Bool)

	v, _, err = d.Decode([]byte("-WRONGTYPE bad thing\r\n"))
	require.NoError(t, err)
	require.Equal(t, kvvalue.ErrWrongType, v.ErrVal.Kind)
}

func TestEncodeRoundTrip(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder()

	original := kvvalue.Arr(kvvalue.BlobVal([]byte("hello")), kvvalue.Int(7), kvvalue.Null())
	wire := enc.Encode(original)

	decoded, n, err := dec.Decode(wire)
	require.NoError(t, err)
	require.Equal(t, len(wire), n)
	require.Equal(t, kvvalue.KindArray, decoded.Kind)
	require.Len(t, decoded.Array, 3)
	require.Equal(t, "hello", string(decoded.Array[0].Blob.Bytes()))
	require.Equal(t, int64(7), decoded.Array[1].Int)
	require.True(t, decoded.Array[2].IsNil())
}

func TestEncodeOKAndError(t *testing.T) {
	enc := NewEncoder()
	require.Equal(t, "+OK\r\n", string(enc.Encode(kvvalue.OK())))
	require.Equal(t, "-WRONGTYPE Operation against a key holding the wrong kind of value\r\n",
		string(enc.Encode(kvvalue.WrongType())))
}
