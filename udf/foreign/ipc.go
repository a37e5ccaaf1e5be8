package foreign

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/orion-udf/core/errs"
)

// interpreterToken serializes calls into any foreign interpreter process
// across the whole module. It is acquired at the top of each IPC round
// trip and released before return, never held across a handle's Start/Stop
// lifetime.
var interpreterToken sync.Mutex

// request is the envelope sent to the subprocess for every call type.
// Frames carries every one of the Frame's planes in index order — a single
// entry when N=1, N entries when N>1 — matching spec.md §4.3.2's "pass
// either a single view or a list of views" contract.
type request struct {
	Type   string                 `msgpack:"type"`
	Config map[string]interface{} `msgpack:"config,omitempty"`
	Frames []wireFrame            `msgpack:"frames,omitempty"`
	Meta   map[string]interface{} `msgpack:"meta,omitempty"`
}

// wireFrame is one plane's view: a typed (H, W, C) byte matrix plus the
// plane metadata the UDF needs to interpret it.
type wireFrame struct {
	ImgHandle string `msgpack:"img_handle"`
	Width     int    `msgpack:"width"`
	Height    int    `msgpack:"height"`
	Channels  int    `msgpack:"channels"`
	EncType   string `msgpack:"enc_type"`
	EncLvl    int    `msgpack:"enc_lvl"`
	Data      []byte `msgpack:"data"`
}

// response is the envelope read back for every call type. Frames, when
// present, is the replacement plane list for a "frame_modified" result and
// is expected to have the same length as the request's Frames.
type response struct {
	Ok     bool                   `msgpack:"ok"`
	Error  string                 `msgpack:"error,omitempty"`
	Result string                 `msgpack:"result,omitempty"`
	Frames []wireFrame            `msgpack:"frames,omitempty"`
	Meta   map[string]interface{} `msgpack:"meta,omitempty"`
}

// writeMessage marshals v with msgpack and writes it to w with a 4-byte
// big-endian length prefix, matching person_detector_python.go's framing.
func writeMessage(w io.Writer, v interface{}) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return errs.New(errs.UdfProcessError, "marshal foreign udf request", err)
	}
	prefix := make([]byte, 4)
	binary.BigEndian.PutUint32(prefix, uint32(len(payload)))
	if _, err := w.Write(prefix); err != nil {
		return errs.New(errs.UdfProcessError, "write length prefix", err)
	}
	if _, err := w.Write(payload); err != nil {
		return errs.New(errs.UdfProcessError, "write msgpack payload", err)
	}
	return nil
}

// readMessage reads one length-prefixed msgpack message from r into v.
func readMessage(r io.Reader, v interface{}) error {
	prefix := make([]byte, 4)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return err
	}
	length := binary.BigEndian.Uint32(prefix)
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return errs.New(errs.UdfProcessError, "read msgpack payload", err)
	}
	if err := msgpack.Unmarshal(payload, v); err != nil {
		return errs.New(errs.UdfProcessError, "unmarshal foreign udf response", err)
	}
	return nil
}
