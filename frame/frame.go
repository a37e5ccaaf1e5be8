package frame

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/orion-udf/core/envelope"
	"github.com/orion-udf/core/errs"
)

// EncType identifies the codec a FrameData's bytes are encoded with.
type EncType int

const (
	EncNone EncType = iota
	EncJPEG
	EncPNG
)

func (t EncType) String() string {
	switch t {
	case EncNone:
		return "none"
	case EncJPEG:
		return "jpeg"
	case EncPNG:
		return "png"
	default:
		return "unknown"
	}
}

// validLevelRange returns the inclusive [min, max] encode level accepted by
// t, matching the stdlib codec each one wraps: image/jpeg quality is 1-100,
// image/png's CompressionLevel constants run from BestCompression (-3)
// through BestSpeed (-2) and NoCompression (-1) to DefaultCompression (0).
func validLevelRange(t EncType) (int, int, bool) {
	switch t {
	case EncJPEG:
		return 1, 100, true
	case EncPNG:
		return -3, 0, true
	case EncNone:
		return 0, 0, true
	default:
		return 0, 0, false
	}
}

// FrameData holds a single encoded image plane: its pixel dimensions and
// channel count, the codec and level it was (or will be) encoded with, a
// stable handle string, and the backing bytes, owned either directly or via
// a shared Blob.
type FrameData struct {
	imgHandle  string
	width      int
	height     int
	channels   int
	encType    EncType
	encLvl     int
	blob       *envelope.Blob
	serialized bool
}

// NewFrameData allocates a FrameData for a plane of the given pixel
// dimensions and channel count, and assigns it a fresh img_handle: the
// first 10 hex characters of a version-4 UUID, per spec.md's handle format.
func NewFrameData(width, height, channels int) (*FrameData, error) {
	if width <= 0 || height <= 0 {
		return nil, errs.New(errs.FrameInvariantViolation, fmt.Sprintf("invalid dimensions %dx%d", width, height), nil)
	}
	if channels <= 0 {
		return nil, errs.New(errs.FrameInvariantViolation, fmt.Sprintf("invalid channel count %d", channels), nil)
	}
	id := uuid.New()
	handle := hex.EncodeToString(id[:])[:10]
	return &FrameData{imgHandle: handle, width: width, height: height, channels: channels}, nil
}

func (f *FrameData) ImgHandle() string { return f.imgHandle }
func (f *FrameData) Width() int        { return f.width }
func (f *FrameData) Height() int       { return f.height }
func (f *FrameData) Channels() int     { return f.channels }
func (f *FrameData) EncType() EncType  { return f.encType }
func (f *FrameData) EncLvl() int       { return f.encLvl }

// Data returns the plane's backing bytes, or nil if SetData has not been
// called yet.
func (f *FrameData) Data() []byte {
	if f.blob == nil {
		return nil
	}
	return f.blob.Bytes()
}

// SetData replaces the plane's backing bytes and channel count, wrapping
// data in a fresh Blob with refcount one. Width and height are left
// unchanged — a UDF that also resizes a plane constructs a new FrameData
// instead. It fails with errs.FrameInvariantViolation if the FrameData has
// already been serialized.
func (f *FrameData) SetData(data []byte, channels int) error {
	if f.serialized {
		return errs.New(errs.FrameInvariantViolation, "SetData called after serialize", nil)
	}
	if channels <= 0 {
		return errs.New(errs.FrameInvariantViolation, fmt.Sprintf("invalid channel count %d", channels), nil)
	}
	if f.blob != nil {
		f.blob.Release()
	}
	f.blob = envelope.NewBlob(data, nil)
	f.channels = channels
	return nil
}

// SetEncoding records the codec and level the plane's bytes are encoded
// with. It validates level against the codec's accepted range and fails
// with errs.FrameInvariantViolation on an unknown codec or out-of-range
// level.
func (f *FrameData) SetEncoding(encType EncType, encLvl int) error {
	if f.serialized {
		return errs.New(errs.FrameInvariantViolation, "SetEncoding called after serialize", nil)
	}
	min, max, ok := validLevelRange(encType)
	if !ok {
		return errs.New(errs.FrameInvariantViolation, fmt.Sprintf("unknown encoding type %v", encType), nil)
	}
	if encLvl < min || encLvl > max {
		return errs.New(errs.FrameInvariantViolation, fmt.Sprintf("encode level %d out of range [%d,%d] for %v", encLvl, min, max, encType), nil)
	}
	f.encType = encType
	f.encLvl = encLvl
	return nil
}

// takeBlob hands the FrameData's backing Blob to Frame.Serialize, clearing
// it from the FrameData and marking the FrameData serialized. It is
// unexported: only this package transfers blob ownership directly.
func (f *FrameData) takeBlob() *envelope.Blob {
	b := f.blob
	f.blob = nil
	f.serialized = true
	return b
}

// Frame is an ordered sequence of FrameData planes — a primary plane at
// index 0 plus zero or more additional planes — sharing one metadata
// Envelope. Per the canonicalization decision on additional_frames
// indexing, plane index i (i>=1) is stored at additional[i-1]: strictly
// zero-based into the "rest of the planes" list.
type Frame struct {
	primary    *FrameData
	additional []*FrameData
	meta       *envelope.Envelope
	serialized bool
}

// Construct builds a Frame around its primary plane with an empty metadata
// envelope of the given content type.
func Construct(primary *FrameData, metaContentType string) (*Frame, error) {
	if primary == nil {
		return nil, errs.New(errs.FrameInvariantViolation, "primary FrameData is nil", nil)
	}
	return &Frame{
		primary: primary,
		meta:    envelope.NewEnvelope(metaContentType),
	}, nil
}

// AddFrame appends fd as the Frame's next additional plane. This is the
// canonical way frames gain planes beyond the primary; NewFromPlanes below
// is a convenience wrapper over repeated AddFrame calls.
func (fr *Frame) AddFrame(fd *FrameData) error {
	if fr.serialized {
		return errs.New(errs.FrameInvariantViolation, "AddFrame called after serialize", nil)
	}
	if fd == nil {
		return errs.New(errs.FrameInvariantViolation, "FrameData is nil", nil)
	}
	fr.additional = append(fr.additional, fd)
	return nil
}

// NewFromPlanes builds a Frame from a primary plane and zero or more
// additional planes, calling AddFrame for each in order.
func NewFromPlanes(metaContentType string, primary *FrameData, additional ...*FrameData) (*Frame, error) {
	fr, err := Construct(primary, metaContentType)
	if err != nil {
		return nil, err
	}
	for _, fd := range additional {
		if err := fr.AddFrame(fd); err != nil {
			return nil, err
		}
	}
	return fr, nil
}

// FrameCount returns the total number of planes: the primary plus every
// additional plane.
func (fr *Frame) FrameCount() int {
	return 1 + len(fr.additional)
}

// FrameAt returns the plane at index i (0 is the primary plane). Out-of-
// range indices return a nil FrameData and an errs.FrameInvariantViolation
// error rather than panicking, per spec.md §9.
func (fr *Frame) FrameAt(i int) (*FrameData, error) {
	if i == 0 {
		return fr.primary, nil
	}
	j := i - 1
	if j < 0 || j >= len(fr.additional) {
		return nil, errs.New(errs.FrameInvariantViolation, fmt.Sprintf("frame index %d out of range (count %d)", i, fr.FrameCount()), nil)
	}
	return fr.additional[j], nil
}

// Meta returns the Frame's metadata envelope, live until Serialize is
// called.
func (fr *Frame) Meta() *envelope.Envelope {
	return fr.meta
}

// planeMetaKeys returns the spec.md §6.2 metadata keys describing fd:
// img_handle/width/height/channels always, encoding_type/encoding_level
// only when fd is actually encoded.
func planeMetaKeys(fd *FrameData) envelope.Object {
	entry := envelope.Object{
		"img_handle": envelope.StringValue(fd.ImgHandle()),
		"width":      envelope.IntValue(int64(fd.Width())),
		"height":     envelope.IntValue(int64(fd.Height())),
		"channels":   envelope.IntValue(int64(fd.Channels())),
	}
	if fd.EncType() != EncNone {
		entry["encoding_type"] = envelope.StringValue(fd.EncType().String())
		entry["encoding_level"] = envelope.IntValue(int64(fd.EncLvl()))
	}
	return entry
}

// Serialize is the Frame's one-shot terminal operation. Per spec.md §6.2 it
// registers every plane's backing bytes as a positional blob on the
// metadata envelope (in plane order, primary first — blob 0 is always
// FrameData[0]), writes FrameData[0]'s img_handle/width/height/channels/
// [encoding_type/encoding_level] directly at the envelope root, and
// collects FrameData[1..N-1]'s equivalent keys into a root-level
// "additional_frames" array, one object per additional plane in order.
// Each plane's bytes are published as they are: Serialize does not run a
// codec, and encoding_type/encoding_level only record the plane's
// EncType/EncLvl. The Frame is left unusable; calling Serialize again, or any mutator,
// after this returns an error.
func (fr *Frame) Serialize() (*envelope.Envelope, error) {
	if fr.serialized {
		return nil, errs.New(errs.FrameInvariantViolation, "Serialize called more than once", nil)
	}
	additional := make(envelope.Array, 0, len(fr.additional))
	for i := 0; i < fr.FrameCount(); i++ {
		fd, err := fr.FrameAt(i)
		if err != nil {
			return nil, err
		}
		blob := fd.takeBlob()
		if blob == nil {
			return nil, errs.New(errs.FrameInvariantViolation, fmt.Sprintf("plane %d has no data to serialize", i), nil)
		}
		fr.meta.PutBlob(blob)

		entry := planeMetaKeys(fd)
		if i == 0 {
			for k, v := range entry {
				if err := fr.meta.Put(k, v); err != nil {
					return nil, err
				}
			}
		} else {
			additional = append(additional, envelope.ObjectValue(entry))
		}
	}
	if len(additional) > 0 {
		if err := fr.meta.Put("additional_frames", envelope.ArrayValue(additional)); err != nil {
			return nil, err
		}
	}
	fr.serialized = true
	return fr.meta, nil
}

// planeMeta reads the spec.md §6.2 metadata keys for plane i back out of
// env: root keys for i==0, the i-1'th entry of "additional_frames"
// otherwise.
func planeMeta(env *envelope.Envelope, i int) (envelope.Object, error) {
	if i == 0 {
		return env.Root, nil
	}
	v, ok := env.Get("additional_frames")
	if !ok {
		return nil, errs.New(errs.FrameInvariantViolation, "additional_frames missing for plane index > 0", nil)
	}
	arr, err := v.Array()
	if err != nil {
		return nil, err
	}
	entryVal, err := envelope.ArrayGet(arr, i-1)
	if err != nil {
		return nil, err
	}
	return entryVal.Object()
}

func requireString(obj envelope.Object, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", errs.New(errs.DecodeFailed, fmt.Sprintf("missing required key %q", key), nil)
	}
	return v.String()
}

func requireInt(obj envelope.Object, key string) (int64, error) {
	v, ok := obj[key]
	if !ok {
		return 0, errs.New(errs.DecodeFailed, fmt.Sprintf("missing required key %q", key), nil)
	}
	return v.Int()
}

func parseEncTypeName(s string) (EncType, error) {
	switch s {
	case "jpeg":
		return EncJPEG, nil
	case "png":
		return EncPNG, nil
	default:
		return EncNone, errs.New(errs.DecodeFailed, fmt.Sprintf("unknown encoding_type %q", s), nil)
	}
}

// ConstructFromEnvelope implements spec.md §4.2's deserializing
// constructor: it takes ownership of env (received from the transport),
// detaches its positional blobs, and for each one builds a FrameData from
// the corresponding metadata (root for blob 0, additional_frames[i-1] for
// blob i). If a plane's encoding_type is set, its blob bytes are decoded
// through the matching color-image decoder and the decoded bytes (not the
// encoded ones) become the FrameData's backing data; decode failures
// surface as errs.DecodeFailed. A plane with no encoding_type wraps the
// raw blob bytes as-is. Decoded dimensions are not checked against the
// metadata's width/height/channels — a mismatch is a soft error per
// spec.md §4.2's decode-policy note, left for the caller to notice.
func ConstructFromEnvelope(env *envelope.Envelope) (*Frame, error) {
	if env == nil {
		return nil, errs.New(errs.FrameInvariantViolation, "envelope is nil", nil)
	}
	blobs := env.Blobs()
	if len(blobs) == 0 {
		return nil, errs.New(errs.FrameInvariantViolation, "envelope carries no blobs to deserialize into planes", nil)
	}

	planes := make([]*FrameData, len(blobs))
	for i, blob := range blobs {
		meta, err := planeMeta(env, i)
		if err != nil {
			return nil, err
		}
		imgHandle, err := requireString(meta, "img_handle")
		if err != nil {
			return nil, err
		}
		width, err := requireInt(meta, "width")
		if err != nil {
			return nil, err
		}
		height, err := requireInt(meta, "height")
		if err != nil {
			return nil, err
		}
		channels, err := requireInt(meta, "channels")
		if err != nil {
			return nil, err
		}

		data := blob.Bytes()
		// encoding_type/encoding_level are consumed to drive the decode
		// below but not retained: ConstructFromEnvelope hands back decoded
		// pixel bytes, not the original encoded ones, so the resulting
		// FrameData's own encoding is NONE until a caller re-encodes it.
		if v, ok := meta["encoding_type"]; ok {
			typeName, err := v.String()
			if err != nil {
				return nil, err
			}
			encType, err := parseEncTypeName(typeName)
			if err != nil {
				return nil, err
			}
			if _, err := requireInt(meta, "encoding_level"); err != nil {
				return nil, err
			}

			img, err := Decode(encType, data)
			if err != nil {
				return nil, err
			}
			bounds := img.Bounds()
			data = rgbBytes(img)
			width = int64(bounds.Dx())
			height = int64(bounds.Dy())
			channels = 3
		}

		fd := &FrameData{
			imgHandle: imgHandle,
			width:     int(width),
			height:    int(height),
			channels:  int(channels),
		}
		if err := fd.SetData(data, int(channels)); err != nil {
			return nil, err
		}
		planes[i] = fd
	}

	fr := &Frame{primary: planes[0], additional: planes[1:], meta: env}
	return fr, nil
}
