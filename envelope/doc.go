// Package envelope implements the metadata envelope: a typed key-value
// document used to carry a UDF chain's side-channel data (detections,
// timestamps, encode parameters) alongside the pixel planes they describe.
//
// Values are one of Null, Int, Float, String, Bool, Blob, Object, or Array.
// Blob values reference a Blob descriptor rather than owning bytes inline,
// so the same buffer can be shared across the envelope and a Frame's planes
// without a copy. Blobs are positional on the wire (see Envelope.MarshalJSON)
// even though callers reach them by key in memory.
package envelope
