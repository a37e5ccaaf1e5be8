package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/orion-udf/core/errs"
)

// Envelope is the typed key-value document carried alongside a Frame's
// pixel planes. Its root is an Object; any Blob-kind values reachable from
// the root must have been registered with PutBlob first, so the envelope
// owns exactly one reference to each blob and can release them all from
// Destroy.
type Envelope struct {
	ContentType string
	Root        Object
	blobs       []*Blob
}

// NewEnvelope returns an empty envelope for the given content type (e.g.
// "application/json").
func NewEnvelope(contentType string) *Envelope {
	return &Envelope{ContentType: contentType, Root: Object{}}
}

// Put adds key to the root object. It fails with errs.ConfigInvalid if the
// key already exists, matching spec.md's "no silent overwrite" rule for
// metadata keys.
func (e *Envelope) Put(key string, v Value) error {
	if _, exists := e.Root[key]; exists {
		return errs.New(errs.ConfigInvalid, fmt.Sprintf("key %q already present", key), nil)
	}
	e.Root[key] = v
	return nil
}

// Get returns the value at key and whether it was present.
func (e *Envelope) Get(key string) (Value, bool) {
	v, ok := e.Root[key]
	return v, ok
}

// Remove deletes key from the root object, returning the removed value.
// It does not release any blob the value referenced; callers that remove a
// blob-kind value and no longer need it should call Blob.Release themselves.
func (e *Envelope) Remove(key string) (Value, bool) {
	v, ok := e.Root[key]
	if ok {
		delete(e.Root, key)
	}
	return v, ok
}

// PutBlob registers b as one of the envelope's owned positional blobs and
// returns its index. The caller is still responsible for storing a
// BlobValue(b) under whatever key should reference it; PutBlob only
// transfers ownership of the release to the envelope.
func (e *Envelope) PutBlob(b *Blob) int {
	e.blobs = append(e.blobs, b)
	return len(e.blobs) - 1
}

// Blobs returns the envelope's owned positional blob list, in registration
// order — the same order additional_frames uses on the wire.
func (e *Envelope) Blobs() []*Blob {
	return e.blobs
}

// Destroy releases every blob the envelope owns and clears the blob list
// and root object, so a second call releases nothing. The envelope is not
// usable after Destroy: Put on the cleared root panics.
func (e *Envelope) Destroy() {
	for _, b := range e.blobs {
		b.Release()
	}
	e.blobs = nil
	e.Root = nil
}

// ObjectPut adds key to obj, failing if it already exists.
func ObjectPut(obj Object, key string, v Value) error {
	if _, exists := obj[key]; exists {
		return errs.New(errs.ConfigInvalid, fmt.Sprintf("key %q already present", key), nil)
	}
	obj[key] = v
	return nil
}

// ObjectGet returns the value at key in obj.
func ObjectGet(obj Object, key string) (Value, bool) {
	v, ok := obj[key]
	return v, ok
}

// ObjectRemove deletes key from obj, returning the removed value.
func ObjectRemove(obj Object, key string) (Value, bool) {
	v, ok := obj[key]
	if ok {
		delete(obj, key)
	}
	return v, ok
}

// ArrayAdd appends v to arr and returns the new slice — Array has no
// pointer receiver, so callers reassign: arr = ArrayAdd(arr, v).
func ArrayAdd(arr Array, v Value) Array {
	return append(arr, v)
}

// ArrayGet returns the value at index i in arr, or an error wrapping
// errs.FrameInvariantViolation if i is out of range.
func ArrayGet(arr Array, i int) (Value, error) {
	if i < 0 || i >= len(arr) {
		return Value{}, errs.New(errs.FrameInvariantViolation, fmt.Sprintf("array index %d out of range (len %d)", i, len(arr)), nil)
	}
	return arr[i], nil
}

// ArrayLen returns the number of elements in arr.
func ArrayLen(arr Array) int {
	return len(arr)
}

// blobRef is the wire representation of a Blob-kind value reachable from an
// arbitrary metadata key: a reference by position into the envelope's
// positional blob list, never the bytes inline, matching spec.md's "blobs
// are positional, not keyed" invariant. This is distinct from
// frame.Frame.Serialize's plane metadata (root keys / additional_frames),
// whose blob association is implicit by position and never goes through a
// $blobRef marker.
type blobRef struct {
	BlobRef int `json:"$blobRef"`
}

// contentTypeKey and blobCarrierKey are reserved wire keys outside the
// root-metadata namespace: contentTypeKey holds the envelope's content
// type, blobCarrierKey carries the envelope's positional blob bytes
// (base64-encoded, since raw bytes cannot sit inside a JSON document
// directly). Root metadata keys — including spec.md §6.2's
// img_handle/width/height/channels/encoding_type/encoding_level/
// additional_frames — are flattened directly at the top level alongside
// them.
const (
	contentTypeKey = "content_type"
	blobCarrierKey = "$blobs"
)

// MarshalJSON renders the envelope per spec.md §6.2: the root object's keys
// flattened directly at the top level (so a Frame's img_handle/width/
// height/channels/encoding_type/encoding_level/additional_frames land
// exactly where the grammar puts them), plus the reserved content_type and
// $blobs keys carrying the envelope's own bookkeeping.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	index := make(map[*Blob]int, len(e.blobs))
	for i, b := range e.blobs {
		index[b] = i
	}
	flat := make(map[string]interface{}, len(e.Root)+2)
	for k, v := range e.Root {
		rendered, err := marshalValue(v, index)
		if err != nil {
			return nil, err
		}
		flat[k] = rendered
	}
	flat[contentTypeKey] = e.ContentType
	if len(e.blobs) > 0 {
		blobBytes := make([]string, len(e.blobs))
		for i, b := range e.blobs {
			blobBytes[i] = base64.StdEncoding.EncodeToString(b.Bytes())
		}
		flat[blobCarrierKey] = blobBytes
	}
	return json.Marshal(flat)
}

// UnmarshalJSON decodes a wire envelope produced by MarshalJSON. Blob
// values are reconstructed as fresh Blobs (owned by this envelope, with a
// nil FreeFunc since the bytes came from a fresh decode buffer) in the
// order the $blobs carrier lists them.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var flat map[string]interface{}
	if err := json.Unmarshal(data, &flat); err != nil {
		return errs.New(errs.DecodeFailed, "decode envelope wire document", err)
	}

	contentType, _ := flat[contentTypeKey].(string)
	delete(flat, contentTypeKey)

	var blobs []*Blob
	if raw, ok := flat[blobCarrierKey]; ok {
		list, ok := raw.([]interface{})
		if !ok {
			return errs.New(errs.DecodeFailed, "$blobs must be an array", nil)
		}
		blobs = make([]*Blob, len(list))
		for i, entry := range list {
			encoded, ok := entry.(string)
			if !ok {
				return errs.New(errs.DecodeFailed, fmt.Sprintf("$blobs[%d] must be a base64 string", i), nil)
			}
			decoded, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return errs.New(errs.DecodeFailed, fmt.Sprintf("decode $blobs[%d]", i), err)
			}
			blobs[i] = NewBlob(decoded, nil)
		}
	}
	delete(flat, blobCarrierKey)

	root, err := unmarshalObjectMap(flat, blobs)
	if err != nil {
		return err
	}
	e.ContentType = contentType
	e.Root = root
	e.blobs = blobs
	return nil
}

func marshalValue(v Value, blobIndex map[*Blob]int) (interface{}, error) {
	switch v.Kind() {
	case KindNull:
		return nil, nil
	case KindInt:
		i, _ := v.Int()
		return i, nil
	case KindFloat:
		f, _ := v.Float()
		return f, nil
	case KindString:
		s, _ := v.String()
		return s, nil
	case KindBool:
		b, _ := v.Bool()
		return b, nil
	case KindBlob:
		b, _ := v.Blob()
		idx, ok := blobIndex[b]
		if !ok {
			return nil, errs.New(errs.EncodeFailed, "blob value not registered with PutBlob before marshal", nil)
		}
		return blobRef{BlobRef: idx}, nil
	case KindObject:
		o, _ := v.Object()
		rendered := make(map[string]interface{}, len(o))
		for k, sub := range o {
			r, err := marshalValue(sub, blobIndex)
			if err != nil {
				return nil, err
			}
			rendered[k] = r
		}
		return rendered, nil
	case KindArray:
		a, _ := v.Array()
		rendered := make([]interface{}, len(a))
		for i, sub := range a {
			r, err := marshalValue(sub, blobIndex)
			if err != nil {
				return nil, err
			}
			rendered[i] = r
		}
		return rendered, nil
	default:
		return nil, errs.New(errs.EncodeFailed, "unknown value kind", nil)
	}
}

// unmarshalObjectMap converts an already-decoded JSON object (map[string]
// interface{}) into an Object, resolving any $blobRef markers against
// blobs. Used both for the envelope root (UnmarshalJSON) and for nested
// object values reached through unmarshalValue.
func unmarshalObjectMap(m map[string]interface{}, blobs []*Blob) (Object, error) {
	obj := make(Object, len(m))
	for k, raw := range m {
		v, err := unmarshalValue(raw, blobs)
		if err != nil {
			return nil, err
		}
		obj[k] = v
	}
	return obj, nil
}

func unmarshalValue(raw interface{}, blobs []*Blob) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case float64:
		if t == float64(int64(t)) {
			return IntValue(int64(t)), nil
		}
		return FloatValue(t), nil
	case string:
		return StringValue(t), nil
	case map[string]interface{}:
		if ref, ok := t["$blobRef"]; ok {
			idx, ok := ref.(float64)
			if !ok || int(idx) < 0 || int(idx) >= len(blobs) {
				return Value{}, errs.New(errs.DecodeFailed, "blob reference out of range", nil)
			}
			return BlobValue(blobs[int(idx)]), nil
		}
		obj := make(Object, len(t))
		for k, sub := range t {
			v, err := unmarshalValue(sub, blobs)
			if err != nil {
				return Value{}, err
			}
			obj[k] = v
		}
		return ObjectValue(obj), nil
	case []interface{}:
		arr := make(Array, len(t))
		for i, sub := range t {
			v, err := unmarshalValue(sub, blobs)
			if err != nil {
				return Value{}, err
			}
			arr[i] = v
		}
		return ArrayValue(arr), nil
	default:
		return Value{}, errs.New(errs.DecodeFailed, "unsupported JSON value in envelope metadata", nil)
	}
}
