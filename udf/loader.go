package udf

import (
	"fmt"
	"sync"

	"github.com/orion-udf/core/errs"
)

// Spec is a single UDF chain entry as decoded from the manager's YAML
// config: which kind of handle to construct, a name for logging, and a
// bag of pass-through keys specific to that kind (a library path for a
// native UDF, an interpreter command for a foreign one, and so on).
type Spec struct {
	Type   string                 `yaml:"type"`
	Name   string                 `yaml:"name"`
	Config map[string]interface{} `yaml:"config"`
}

// Constructor builds a Handle from a Spec. Native and foreign handle
// packages register one with Register from their init function, the same
// driver-registry pattern database/sql uses, so this package never
// imports them directly and there is no import cycle between udf and
// udf/native or udf/foreign.
type Constructor func(spec Spec) (Handle, error)

var (
	registryMu sync.Mutex
	registry   = map[string]Constructor{}
)

// Register associates kind (e.g. "native", "foreign") with a Constructor.
// It is meant to be called from an init function; calling it twice for the
// same kind replaces the previous registration.
func Register(kind string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = ctor
}

// Load dispatches spec to the Constructor registered for spec.Type and
// returns the constructed Handle. It fails with errs.UdfLoadFailed if no
// Constructor is registered for spec.Type — typically because the caller
// forgot to blank-import the corresponding udf/native or udf/foreign
// package.
func Load(spec Spec) (Handle, error) {
	if spec.Name == "" {
		return nil, errs.New(errs.ConfigInvalid, "udf spec missing name", nil)
	}
	registryMu.Lock()
	ctor, ok := registry[spec.Type]
	registryMu.Unlock()
	if !ok {
		return nil, errs.New(errs.UdfLoadFailed, fmt.Sprintf("no constructor registered for udf type %q (name %q)", spec.Type, spec.Name), nil)
	}
	h, err := ctor(spec)
	if err != nil {
		return nil, errs.New(errs.UdfLoadFailed, fmt.Sprintf("construct udf %q", spec.Name), err)
	}
	return h, nil
}
