package udf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orion-udf/core/frame"
)

type fakeHandle struct{ name string }

func (f *fakeHandle) Name() string { return f.name }
func (f *fakeHandle) Initialize(ctx context.Context, cfg Config) error { return nil }
func (f *fakeHandle) Process(ctx context.Context, fr *frame.Frame) (Result, error) {
	return Ok, nil
}
func (f *fakeHandle) Destroy(ctx context.Context) error { return nil }

func TestLoadDispatchesToRegisteredConstructor(t *testing.T) {
	Register("fake", func(spec Spec) (Handle, error) {
		return &fakeHandle{name: spec.Name}, nil
	})

	h, err := Load(Spec{Type: "fake", Name: "blur"})
	require.NoError(t, err)
	require.Equal(t, "blur", h.Name())
}

func TestLoadFailsForUnknownType(t *testing.T) {
	_, err := Load(Spec{Type: "does-not-exist", Name: "x"})
	require.Error(t, err)
}

func TestLoadRequiresName(t *testing.T) {
	_, err := Load(Spec{Type: "fake"})
	require.Error(t, err)
}
