package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutRejectsDuplicateKey(t *testing.T) {
	e := NewEnvelope("application/json")
	require.NoError(t, e.Put("score", FloatValue(0.9)))

	err := e.Put("score", FloatValue(0.1))
	require.Error(t, err)

	v, ok := e.Get("score")
	require.True(t, ok)
	f, err := v.Float()
	require.NoError(t, err)
	require.Equal(t, 0.9, f)
}

func TestRemoveReturnsValue(t *testing.T) {
	e := NewEnvelope("application/json")
	require.NoError(t, e.Put("label", StringValue("person")))

	v, ok := e.Remove("label")
	require.True(t, ok)
	s, _ := v.String()
	require.Equal(t, "person", s)

	_, ok = e.Get("label")
	require.False(t, ok)
}

func TestArrayOutOfRangeReturnsError(t *testing.T) {
	arr := Array{IntValue(1), IntValue(2)}

	_, err := ArrayGet(arr, 5)
	require.Error(t, err)

	v, err := ArrayGet(arr, 1)
	require.NoError(t, err)
	i, _ := v.Int()
	require.Equal(t, int64(2), i)
}

func TestBlobRefcountReleasesOnLastRelease(t *testing.T) {
	freed := false
	b := NewBlob([]byte{1, 2, 3}, func([]byte) { freed = true })
	b.Retain()

	b.Release()
	require.False(t, freed)
	require.Equal(t, int32(1), b.RefCount())

	b.Release()
	require.True(t, freed)
	require.Equal(t, int32(0), b.RefCount())
}

func TestMarshalUnmarshalRoundTripsBlob(t *testing.T) {
	e := NewEnvelope("application/json")
	blob := NewBlob([]byte("jpeg-bytes"), nil)
	idx := e.PutBlob(blob)
	require.Equal(t, 0, idx)
	require.NoError(t, e.Put("plane", BlobValue(blob)))
	require.NoError(t, e.Put("count", IntValue(3)))

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var out Envelope
	require.NoError(t, json.Unmarshal(raw, &out))

	require.Equal(t, "application/json", out.ContentType)
	v, ok := out.Get("plane")
	require.True(t, ok)
	decoded, err := v.Blob()
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg-bytes"), decoded.Bytes())

	countVal, ok := out.Get("count")
	require.True(t, ok)
	n, err := countVal.Int()
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestDestroyReleasesOwnedBlobs(t *testing.T) {
	released := 0
	e := NewEnvelope("application/json")
	b1 := NewBlob([]byte{0}, func([]byte) { released++ })
	b2 := NewBlob([]byte{1}, func([]byte) { released++ })
	e.PutBlob(b1)
	e.PutBlob(b2)

	e.Destroy()
	require.Equal(t, 2, released)
}
