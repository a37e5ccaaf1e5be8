package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orion-udf/core/errs"
	"github.com/orion-udf/core/frame"
	"github.com/orion-udf/core/udf"
)

type scriptedHandle struct {
	name      string
	result    udf.Result
	err       error
	initErr   error
	destroyed bool
}

func (h *scriptedHandle) Name() string { return h.name }
func (h *scriptedHandle) Initialize(ctx context.Context, cfg udf.Config) error { return h.initErr }
func (h *scriptedHandle) Process(ctx context.Context, fr *frame.Frame) (udf.Result, error) {
	return h.result, h.err
}
func (h *scriptedHandle) Destroy(ctx context.Context) error {
	h.destroyed = true
	return nil
}

func registerScripted(t *testing.T, kind string, result udf.Result) {
	t.Helper()
	udf.Register(kind, func(spec udf.Spec) (udf.Handle, error) {
		return &scriptedHandle{name: spec.Name, result: result}, nil
	})
}

func newTestFrame(t *testing.T) *frame.Frame {
	t.Helper()
	fd, err := frame.NewFrameData(4, 4, 3)
	require.NoError(t, err)
	require.NoError(t, fd.SetData([]byte("raw-bytes"), 3))
	require.NoError(t, fd.SetEncoding(frame.EncJPEG, 80))
	fr, err := frame.Construct(fd, "application/json")
	require.NoError(t, err)
	return fr
}

func TestManagerProcessesFrameThroughChain(t *testing.T) {
	registerScripted(t, "pass-through-ok", udf.Ok)

	m, err := New(context.Background(), Config{
		Chain:   []udf.Spec{{Type: "pass-through-ok", Name: "stage-1"}},
		Workers: 2,
	})
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop(context.Background())

	require.True(t, m.Submit(newTestFrame(t)))

	out, ok := m.NextWait(time.Second)
	require.True(t, ok)
	require.NotNil(t, out)

	stats := m.Stats()
	require.Equal(t, uint64(1), stats.Processed)
}

func TestManagerDropsFrameOnDropFrameResult(t *testing.T) {
	registerScripted(t, "always-drop", udf.DropFrame)

	m, err := New(context.Background(), Config{
		Chain:   []udf.Spec{{Type: "always-drop", Name: "stage-1"}},
		Workers: 1,
	})
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop(context.Background())

	require.True(t, m.Submit(newTestFrame(t)))

	_, ok := m.NextWait(100 * time.Millisecond)
	require.False(t, ok)

	stats := m.Stats()
	require.Equal(t, uint64(1), stats.Dropped)
}

func TestUpdateConfigRejectsUnknownKeys(t *testing.T) {
	registerScripted(t, "noop-ok", udf.Ok)
	m, err := New(context.Background(), Config{
		Chain: []udf.Spec{{Type: "noop-ok", Name: "stage-1"}},
	})
	require.NoError(t, err)

	err = m.UpdateConfig(map[string]interface{}{"unrelated_key": "value"})
	require.Error(t, err)

	err = m.UpdateConfig(map[string]interface{}{"max_jobs": 8})
	require.NoError(t, err)
}

func TestNewRollsBackOnInitFailure(t *testing.T) {
	first := &scriptedHandle{name: "first", result: udf.Ok}
	udf.Register("fails-init", func(spec udf.Spec) (udf.Handle, error) {
		return &scriptedHandle{name: spec.Name, initErr: errors.New("init failed")}, nil
	})
	udf.Register("ok-init", func(spec udf.Spec) (udf.Handle, error) {
		return first, nil
	})

	_, err := New(context.Background(), Config{
		Chain: []udf.Spec{
			{Type: "ok-init", Name: "first"},
			{Type: "fails-init", Name: "second"},
		},
	})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.UdfInitFailed))
	require.True(t, first.destroyed)
}
