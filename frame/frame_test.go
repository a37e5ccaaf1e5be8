package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFrameData(t *testing.T, data []byte) *FrameData {
	t.Helper()
	fd, err := NewFrameData(4, 4, 1)
	require.NoError(t, err)
	require.NoError(t, fd.SetData(data, 1))
	require.NoError(t, fd.SetEncoding(EncJPEG, 80))
	return fd
}

func TestImgHandleIsTenHexChars(t *testing.T) {
	fd, err := NewFrameData(1, 1, 1)
	require.NoError(t, err)
	require.Len(t, fd.ImgHandle(), 10)
	for _, c := range fd.ImgHandle() {
		require.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
	}
}

func TestSetEncodingRejectsOutOfRangeLevel(t *testing.T) {
	fd, err := NewFrameData(2, 2, 1)
	require.NoError(t, err)
	require.Error(t, fd.SetEncoding(EncJPEG, 0))
	require.Error(t, fd.SetEncoding(EncJPEG, 101))
	require.NoError(t, fd.SetEncoding(EncJPEG, 1))
}

func TestFrameAtOutOfRangeReturnsError(t *testing.T) {
	primary := newTestFrameData(t, []byte{1})
	fr, err := Construct(primary, "application/json")
	require.NoError(t, err)

	_, err = fr.FrameAt(1)
	require.Error(t, err)

	got, err := fr.FrameAt(0)
	require.NoError(t, err)
	require.Same(t, primary, got)
}

func TestAdditionalFramesAreZeroBasedPastPrimary(t *testing.T) {
	primary := newTestFrameData(t, []byte{1})
	second := newTestFrameData(t, []byte{2})
	third := newTestFrameData(t, []byte{3})

	fr, err := NewFromPlanes("application/json", primary, second, third)
	require.NoError(t, err)
	require.Equal(t, 3, fr.FrameCount())

	got1, err := fr.FrameAt(1)
	require.NoError(t, err)
	require.Same(t, second, got1)

	got2, err := fr.FrameAt(2)
	require.NoError(t, err)
	require.Same(t, third, got2)
}

func TestSerializeIsOneShot(t *testing.T) {
	primary := newTestFrameData(t, []byte("plane-bytes"))
	fr, err := Construct(primary, "application/json")
	require.NoError(t, err)

	env, err := fr.Serialize()
	require.NoError(t, err)
	require.Len(t, env.Blobs(), 1)
	require.Equal(t, []byte("plane-bytes"), env.Blobs()[0].Bytes())

	_, err = fr.Serialize()
	require.Error(t, err)

	require.Error(t, fr.AddFrame(primary))
	require.Error(t, primary.SetData([]byte("too late"), 1))
}

func TestSerializeWritesChannelsAtRootAndAdditionalFrames(t *testing.T) {
	primary := newTestFrameData(t, []byte("plane-0"))
	second := newTestFrameData(t, []byte("plane-1"))

	fr, err := NewFromPlanes("application/json", primary, second)
	require.NoError(t, err)

	env, err := fr.Serialize()
	require.NoError(t, err)

	width, ok := env.Get("width")
	require.True(t, ok)
	w, err := width.Int()
	require.NoError(t, err)
	require.Equal(t, int64(4), w)

	channels, ok := env.Get("channels")
	require.True(t, ok)
	c, err := channels.Int()
	require.NoError(t, err)
	require.Equal(t, int64(1), c)

	additionalVal, ok := env.Get("additional_frames")
	require.True(t, ok)
	additional, err := additionalVal.Array()
	require.NoError(t, err)
	require.Len(t, additional, 1)

	entry, err := additional[0].Object()
	require.NoError(t, err)
	entryChannels, err := entry["channels"].Int()
	require.NoError(t, err)
	require.Equal(t, int64(1), entryChannels)
}

func TestConstructFromEnvelopeRoundTripsUnencodedPlanes(t *testing.T) {
	primaryData, err := NewFrameData(4, 4, 3)
	require.NoError(t, err)
	require.NoError(t, primaryData.SetData([]byte("plane-bytes-0123"), 3))

	secondData, err := NewFrameData(4, 4, 3)
	require.NoError(t, err)
	require.NoError(t, secondData.SetData([]byte("plane-bytes-4567"), 3))

	fr, err := NewFromPlanes("application/json", primaryData, secondData)
	require.NoError(t, err)

	env, err := fr.Serialize()
	require.NoError(t, err)

	out, err := ConstructFromEnvelope(env)
	require.NoError(t, err)
	require.Equal(t, 2, out.FrameCount())

	fd0, err := out.FrameAt(0)
	require.NoError(t, err)
	require.Equal(t, []byte("plane-bytes-0123"), fd0.Data())
	require.Equal(t, 3, fd0.Channels())
	require.Equal(t, 4, fd0.Width())
	require.Equal(t, 4, fd0.Height())

	fd1, err := out.FrameAt(1)
	require.NoError(t, err)
	require.Equal(t, []byte("plane-bytes-4567"), fd1.Data())
}

func TestEncodeDecodeJPEGRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}

	data, err := Encode(EncJPEG, img, 90)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := Decode(EncJPEG, data)
	require.NoError(t, err)
	require.Equal(t, 8, decoded.Bounds().Dx())
	require.Equal(t, 8, decoded.Bounds().Dy())
}

func TestEncodeRejectsLevelOutOfRange(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	_, err := Encode(EncPNG, img, 5)
	require.Error(t, err)
}
