package native

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orion-udf/core/udf"
)

func TestConstructRequiresLibraryPath(t *testing.T) {
	_, err := Construct(udf.Spec{Type: "native", Name: "blur"})
	require.Error(t, err)
}

func TestConstructFailsOnMissingPlugin(t *testing.T) {
	_, err := Construct(udf.Spec{
		Type: "native",
		Name: "blur",
		Config: map[string]interface{}{
			"library_path": "/nonexistent/blur.so",
		},
	})
	require.Error(t, err)
}
