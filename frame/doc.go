// Package frame implements the Frame/FrameData pair that a UDF chain
// passes between stages: one or more encoded image planes plus a metadata
// envelope, with one-shot serialization that transfers blob ownership into
// the wire envelope instead of copying bytes.
//
// A Frame is not safe for concurrent use and is not copyable: Construct a
// Frame, mutate it through AddFrame/SetData/SetEncoding while it is still
// "live," then Serialize it exactly once. After Serialize, the Frame's
// planes belong to the returned envelope and further mutation is an error.
package frame
