package foreign

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/orion-udf/core/errs"
	"github.com/orion-udf/core/frame"
	"github.com/orion-udf/core/udf"
)

func init() {
	udf.Register("foreign", Construct)
}

// stopTimeout is how long Destroy waits for the subprocess to exit after
// closing stdin before it force-kills it, matching
// person_detector_python.go's Stop() timeout.
const stopTimeout = 2 * time.Second

// handle bridges udf.Handle to an interpreted-language subprocess over
// stdin/stdout.
type handle struct {
	name string
	cmd  *exec.Cmd
	cmdFn []string

	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	ioMu sync.Mutex // serializes the stdin write / stdout read pair per call

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Construct spawns the subprocess named by spec.Config["command"] (with
// optional spec.Config["args"]) and returns a Handle bridging to it. The
// subprocess is expected to speak the length-prefixed msgpack protocol
// this package's ipc.go implements.
func Construct(spec udf.Spec) (udf.Handle, error) {
	command, ok := spec.Config["command"].(string)
	if !ok || command == "" {
		return nil, errs.New(errs.ConfigInvalid, fmt.Sprintf("foreign udf %q missing config.command", spec.Name), nil)
	}
	args, err := stringArgs(spec.Config["args"])
	if err != nil {
		return nil, errs.New(errs.ConfigInvalid, fmt.Sprintf("foreign udf %q config.args", spec.Name), err)
	}

	h := &handle{name: spec.Name, cmdFn: append([]string{command}, args...)}
	if err := h.spawn(); err != nil {
		return nil, errs.New(errs.UdfLoadFailed, fmt.Sprintf("spawn foreign udf %q", spec.Name), err)
	}
	return h, nil
}

func stringArgs(raw interface{}) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		if strs, ok := raw.([]string); ok {
			return strs, nil
		}
		return nil, fmt.Errorf("args must be a list of strings")
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("args must be a list of strings, got %T", v)
		}
		out = append(out, s)
	}
	return out, nil
}

func (h *handle) Name() string { return h.name }

func (h *handle) spawn() error {
	h.ctx, h.cancel = context.WithCancel(context.Background())
	h.cmd = exec.CommandContext(h.ctx, h.cmdFn[0], h.cmdFn[1:]...)

	stdin, err := h.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	h.stdin = stdin

	stdout, err := h.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	h.stdout = stdout

	stderr, err := h.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	h.stderr = stderr

	if err := h.cmd.Start(); err != nil {
		return fmt.Errorf("start process: %w", err)
	}

	slog.Info("foreign udf process spawned", "name", h.name, "pid", h.cmd.Process.Pid, "command", strings.Join(h.cmdFn, " "))

	h.wg.Add(2)
	go h.logStderr()
	go h.waitProcess()

	return nil
}

// call performs one request/response round trip under the global
// interpreter token, held only for this call.
func (h *handle) call(req request) (response, error) {
	interpreterToken.Lock()
	defer interpreterToken.Unlock()

	h.ioMu.Lock()
	defer h.ioMu.Unlock()

	var resp response
	if err := writeMessage(h.stdin, req); err != nil {
		return resp, err
	}
	if err := readMessage(h.stdout, &resp); err != nil {
		return resp, errs.New(errs.UdfProcessError, fmt.Sprintf("read response from foreign udf %q", h.name), err)
	}
	return resp, nil
}

func (h *handle) Initialize(ctx context.Context, cfg udf.Config) error {
	resp, err := h.call(request{Type: "initialize", Config: cfg})
	if err != nil {
		return errs.New(errs.UdfInitFailed, fmt.Sprintf("initialize foreign udf %q", h.name), err)
	}
	if !resp.Ok {
		return errs.New(errs.UdfInitFailed, fmt.Sprintf("foreign udf %q rejected initialize: %s", h.name, resp.Error), nil)
	}
	return nil
}

// Process builds a wire view over every plane of fr (a single entry when
// fr.FrameCount()==1, one per plane otherwise), sends them to the
// subprocess in one call, and on a "frame_modified" result rewires each
// FrameData via SetData from the parallel replacement list — so a
// multi-plane frame keeps every plane past the primary intact when routed
// through a foreign UDF, matching the native handle's whole-Frame handoff.
func (h *handle) Process(ctx context.Context, fr *frame.Frame) (udf.Result, error) {
	n := fr.FrameCount()
	frames := make([]wireFrame, n)
	for i := 0; i < n; i++ {
		fd, err := fr.FrameAt(i)
		if err != nil {
			return udf.Error, err
		}
		frames[i] = wireFrame{
			ImgHandle: fd.ImgHandle(),
			Width:     fd.Width(),
			Height:    fd.Height(),
			Channels:  fd.Channels(),
			EncType:   fd.EncType().String(),
			EncLvl:    fd.EncLvl(),
			Data:      fd.Data(),
		}
	}

	resp, err := h.call(request{Type: "process", Frames: frames})
	if err != nil {
		return udf.Error, err
	}
	if !resp.Ok {
		return udf.Error, errs.New(errs.UdfProcessError, fmt.Sprintf("foreign udf %q: %s", h.name, resp.Error), nil)
	}

	switch resp.Result {
	case "", "ok":
		return udf.Ok, nil
	case "drop_frame":
		return udf.DropFrame, nil
	case "frame_modified":
		if len(resp.Frames) > 0 && len(resp.Frames) != n {
			return udf.Error, errs.New(errs.UdfProcessError, fmt.Sprintf("foreign udf %q returned %d replacement planes for %d input planes", h.name, len(resp.Frames), n), nil)
		}
		for i, replacement := range resp.Frames {
			fd, err := fr.FrameAt(i)
			if err != nil {
				return udf.Error, err
			}
			if err := fd.SetData(replacement.Data, replacement.Channels); err != nil {
				return udf.Error, err
			}
		}
		for k, v := range resp.Meta {
			value, err := toValue(v)
			if err != nil {
				return udf.Error, err
			}
			_ = fr.Meta().Put(k, value)
		}
		return udf.FrameModified, nil
	default:
		return udf.Error, errs.New(errs.UdfProcessError, fmt.Sprintf("foreign udf %q returned unknown result %q", h.name, resp.Result), nil)
	}
}

// Destroy closes stdin so the subprocess can exit on its own, waits up to
// stopTimeout for its goroutines to finish, and force-kills the process on
// timeout, matching person_detector_python.go's Stop().
func (h *handle) Destroy(ctx context.Context) error {
	// Cancelling h.ctx kills the CommandContext process, so it runs only
	// after the graceful wait below.
	defer h.cancel()

	interpreterToken.Lock()
	if h.stdin != nil {
		h.stdin.Close()
	}
	interpreterToken.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("foreign udf process stopped cleanly", "name", h.name)
	case <-time.After(stopTimeout):
		slog.Warn("foreign udf stop timed out, killing process", "name", h.name)
		if h.cmd != nil && h.cmd.Process != nil {
			if err := h.cmd.Process.Kill(); err != nil {
				return errs.New(errs.UdfProcessError, fmt.Sprintf("kill foreign udf %q", h.name), err)
			}
		}
	}
	return nil
}

func (h *handle) logStderr() {
	defer h.wg.Done()
	scanner := bufio.NewScanner(h.stderr)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "[ERROR]"), strings.Contains(line, "[CRITICAL]"):
			slog.Error("foreign udf stderr", "name", h.name, "log", line)
		case strings.Contains(line, "[WARNING]"), strings.Contains(line, "[WARN]"):
			slog.Warn("foreign udf stderr", "name", h.name, "log", line)
		default:
			slog.Debug("foreign udf stderr", "name", h.name, "log", line)
		}
	}
}

func (h *handle) waitProcess() {
	defer h.wg.Done()
	if h.cmd == nil || h.cmd.Process == nil {
		return
	}
	err := h.cmd.Wait()
	if err != nil {
		select {
		case <-h.ctx.Done():
			slog.Debug("foreign udf process exited (shutdown)", "name", h.name)
		default:
			slog.Error("foreign udf process exited unexpectedly", "name", h.name, "error", err)
		}
		return
	}
	slog.Info("foreign udf process exited cleanly", "name", h.name)
}
