// Package foreign implements udf.Handle for UDFs running as an
// interpreted-language subprocess (Python, most commonly) bridged to the
// host over stdin/stdout with msgpack and a 4-byte big-endian length
// prefix, the same wire shape the teacher's Python ONNX worker uses.
//
// Every call into the interpreter — initialize, process, destroy — is
// serialized through a single package-level token, acquired for the
// duration of that one call and released before the next, rather than
// held across the handle's whole lifetime. This bounds concurrent access
// to whatever shared interpreter-level resource the subprocess model
// guards (a GPU context, a model loaded once at startup) without
// serializing unrelated host-side work.
package foreign
