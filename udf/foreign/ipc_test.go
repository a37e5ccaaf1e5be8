package foreign

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadMessageRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	req := request{Type: "process", Frames: []wireFrame{
		{ImgHandle: "abc1234567", Width: 4, Height: 4, Channels: 3, EncType: "jpeg", EncLvl: 80, Data: []byte{1, 2, 3}},
	}}

	require.NoError(t, writeMessage(&buf, req))

	var decoded request
	require.NoError(t, readMessage(&buf, &decoded))
	require.Equal(t, "process", decoded.Type)
	require.Len(t, decoded.Frames, 1)
	require.Equal(t, "abc1234567", decoded.Frames[0].ImgHandle)
	require.Equal(t, 3, decoded.Frames[0].Channels)
	require.Equal(t, []byte{1, 2, 3}, decoded.Frames[0].Data)
}

func TestReadMessageFailsOnTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMessage(&buf, request{Type: "initialize"}))
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-1])

	var decoded request
	err := readMessage(truncated, &decoded)
	require.Error(t, err)
}

func TestStringArgsAcceptsInterfaceSlice(t *testing.T) {
	args, err := stringArgs([]interface{}{"--model", "yolo.onnx"})
	require.NoError(t, err)
	require.Equal(t, []string{"--model", "yolo.onnx"}, args)
}

func TestStringArgsRejectsNonStringElements(t *testing.T) {
	_, err := stringArgs([]interface{}{42})
	require.Error(t, err)
}

func TestToValueConvertsNestedStructures(t *testing.T) {
	v, err := toValue(map[string]interface{}{
		"count": float64(3),
		"tags":  []interface{}{"a", "b"},
	})
	require.NoError(t, err)

	obj, err := v.Object()
	require.NoError(t, err)

	count, err := obj["count"].Int()
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	tags, err := obj["tags"].Array()
	require.NoError(t, err)
	require.Len(t, tags, 2)
}
