package manager

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/orion-udf/core/errs"
	"github.com/orion-udf/core/frame"
)

// encodingTarget holds the Manager's hot-reloadable knobs: the output
// encoding every finished frame is transcoded to before reaching the
// output queue, and a soft cap on concurrently in-flight chain walks.
// These are the only two values UpdateConfig is allowed to change at
// runtime — the chain itself is immutable for the Manager's lifetime.
type encodingTarget struct {
	mu      sync.RWMutex
	encType frame.EncType
	encLvl  int
	maxJobsOverride atomic.Int32
}

func (e *encodingTarget) store(encType frame.EncType, encLvl int) {
	e.mu.Lock()
	e.encType = encType
	e.encLvl = encLvl
	e.mu.Unlock()
}

func (e *encodingTarget) load() (frame.EncType, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.encType, e.encLvl
}

// maxJobs returns the hot-reloaded override if one has been set, else
// configured falls back to the construction-time default.
func (e *encodingTarget) maxJobs(configured int) int {
	if v := e.maxJobsOverride.Load(); v > 0 {
		return int(v)
	}
	return configured
}

func parseEncType(s string) frame.EncType {
	switch s {
	case "jpeg":
		return frame.EncJPEG
	case "png":
		return frame.EncPNG
	default:
		return frame.EncNone
	}
}

// UpdateConfig applies a narrow, runtime-safe subset of configuration
// changes: target_enc_type/target_enc_lvl (the output transcode applied
// by retarget) and max_jobs (the dispatch loop's soft concurrency cap).
// Anything else in updates is ignored, and an update carrying none of
// these keys is rejected with errs.ConfigInvalid — rebuilding the UDF chain requires
// a restart, matching orion-prototipe/internal/core/hotreload.go's
// "some fields hot-reload, most require a restart" split.
func (m *Manager) UpdateConfig(updates map[string]interface{}) error {
	applied := 0

	if v, ok := updates["target_enc_type"]; ok {
		s, ok := v.(string)
		if !ok {
			return errs.New(errs.ConfigInvalid, "target_enc_type must be a string", nil)
		}
		encType := parseEncType(s)
		_, lvl := m.enc.load()
		m.enc.store(encType, lvl)
		applied++
	}

	if v, ok := updates["target_enc_lvl"]; ok {
		lvl, err := toInt(v)
		if err != nil {
			return errs.New(errs.ConfigInvalid, "target_enc_lvl must be an integer", err)
		}
		encType, _ := m.enc.load()
		m.enc.store(encType, lvl)
		applied++
	}

	if v, ok := updates["max_jobs"]; ok {
		n, err := toInt(v)
		if err != nil || n <= 0 {
			return errs.New(errs.ConfigInvalid, "max_jobs must be a positive integer", err)
		}
		m.enc.maxJobsOverride.Store(int32(n))
		applied++
	}

	if applied == 0 {
		return errs.New(errs.ConfigInvalid, "no applicable configuration changes found", nil)
	}
	return nil
}

func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

// retarget transcodes fr's primary plane to the configured output
// encoding if it differs from the plane's current encoding. A target of
// frame.EncNone means "leave encoding alone," the default when
// target_enc_type was never configured or hot-reloaded.
func (m *Manager) retarget(fr *frame.Frame) error {
	encType, encLvl := m.enc.load()
	if encType == frame.EncNone {
		return nil
	}

	fd, err := fr.FrameAt(0)
	if err != nil {
		return err
	}
	if fd.EncType() == encType && fd.EncLvl() == encLvl {
		return nil
	}

	img, err := frame.Decode(fd.EncType(), fd.Data())
	if err != nil {
		return err
	}
	data, err := frame.Encode(encType, img, encLvl)
	if err != nil {
		return err
	}
	if err := fd.SetData(data, fd.Channels()); err != nil {
		return err
	}
	return fd.SetEncoding(encType, encLvl)
}
