package native

import (
	"context"
	"fmt"
	"log/slog"
	"plugin"

	"github.com/orion-udf/core/errs"
	"github.com/orion-udf/core/frame"
	"github.com/orion-udf/core/udf"
)

func init() {
	udf.Register("native", Construct)
}

// EntrySymbol is the exported function every native UDF plugin must define:
//
//	func NewUDF() (udf.Handle, error) { ... }
//
// Construct accepts it as a plain func of that signature, so plugin authors
// depend only on udf.Handle, not on the native package itself. A package
// variable named NewUDF is rejected, since plugin.Lookup returns a pointer
// to a variable rather than its value.
const EntrySymbol = "NewUDF"

// Factory is the function signature looked up under EntrySymbol.
type Factory func() (udf.Handle, error)

// Construct loads the plugin at spec.Config["library_path"], resolves
// EntrySymbol, and calls it to obtain the inner Handle. It is registered
// as the udf package's Constructor for spec.Type == "native".
func Construct(spec udf.Spec) (udf.Handle, error) {
	path, ok := spec.Config["library_path"].(string)
	if !ok || path == "" {
		return nil, errs.New(errs.ConfigInvalid, fmt.Sprintf("native udf %q missing config.library_path", spec.Name), nil)
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, errs.New(errs.UdfLoadFailed, fmt.Sprintf("open plugin %s", path), err)
	}

	sym, err := p.Lookup(EntrySymbol)
	if err != nil {
		return nil, errs.New(errs.UdfLoadFailed, fmt.Sprintf("lookup %s in %s", EntrySymbol, path), err)
	}

	factory, ok := sym.(Factory)
	if !ok {
		if fn, ok := sym.(func() (udf.Handle, error)); ok {
			factory = Factory(fn)
		} else {
			return nil, errs.New(errs.UdfLoadFailed, fmt.Sprintf("%s in %s has unexpected type %T", EntrySymbol, path, sym), nil)
		}
	}

	inner, err := factory()
	if err != nil {
		return nil, errs.New(errs.UdfInitFailed, fmt.Sprintf("factory for native udf %q", spec.Name), err)
	}
	if inner == nil {
		return nil, errs.New(errs.UdfInitFailed, fmt.Sprintf("factory for native udf %q returned nil handle", spec.Name), nil)
	}

	slog.Info("native udf loaded", "name", spec.Name, "path", path)
	return &handle{name: spec.Name, path: path, inner: inner}, nil
}

// handle wraps the plugin-provided Handle so Name() reflects the chain's
// configured name rather than whatever the plugin hardcodes, and so
// teardown is logged the same way for every native UDF.
type handle struct {
	name  string
	path  string
	inner udf.Handle
}

func (h *handle) Name() string { return h.name }

func (h *handle) Initialize(ctx context.Context, cfg udf.Config) error {
	if err := h.inner.Initialize(ctx, cfg); err != nil {
		return errs.New(errs.UdfInitFailed, fmt.Sprintf("initialize native udf %q", h.name), err)
	}
	return nil
}

func (h *handle) Process(ctx context.Context, fr *frame.Frame) (udf.Result, error) {
	return h.inner.Process(ctx, fr)
}

// Destroy calls through to the inner UDF's teardown. The plugin's shared
// object itself is never unmapped: the stdlib plugin package does not
// support unloading, so the .so stays resident for the life of the
// process regardless of how many chains have stopped using it.
func (h *handle) Destroy(ctx context.Context) error {
	if err := h.inner.Destroy(ctx); err != nil {
		return errs.New(errs.UdfProcessError, fmt.Sprintf("destroy native udf %q", h.name), err)
	}
	slog.Info("native udf destroyed", "name", h.name, "path", h.path)
	return nil
}
