// Package native implements udf.Handle for UDFs compiled as a Go plugin
// (a .so built with -buildmode=plugin). It is the module's dlopen
// equivalent: the loader resolves the plugin's path, opens it, looks up a
// fixed entry symbol, and expects back a factory that builds the actual
// udf.Handle.
//
// Go's plugin package has no unload facility, so Destroy on a native
// handle only calls through to the underlying UDF's own teardown; the
// shared object itself stays mapped for the life of the process, matching
// the stdlib's documented limitation.
package native
