package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
)

// Device grants capture streams. Open blocks for as long as the platform
// takes to grant access.
type Device interface {
	Open(ctx context.Context, kind Kind) (Stream, error)
}

// Stream is an open capture handle. Read yields encoded media; Close
// releases the underlying device and unblocks pending reads.
type Stream interface {
	io.Reader
	Close() error
}

// Finisher is implemented by streams that can end capture gracefully: the
// producer flushes what it has encoded and Read reports io.EOF once the
// tail has been consumed.
type Finisher interface {
	Finish() error
}

// ExecDevice captures through an ffmpeg child process writing WebM to
// stdout.
type ExecDevice struct {
	FFmpegPath string
}

func (d ExecDevice) Open(ctx context.Context, kind Kind) (Stream, error) {
	bin := d.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	args, err := captureArgs(runtime.GOOS, kind)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The process outlives ctx; it is bound to the stream instead.
	stream, err := startExecStream(exec.Command(path, args...))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return stream, nil
}

func captureArgs(goos string, kind Kind) ([]string, error) {
	base := []string{"-hide_banner", "-loglevel", "error"}
	var input []string
	switch goos {
	case "linux":
		input = []string{"-f", "pulse", "-i", "default"}
		if kind == KindVideo {
			input = append([]string{"-f", "v4l2", "-i", "/dev/video0"}, input...)
		}
	case "darwin":
		if kind == KindVideo {
			input = []string{"-f", "avfoundation", "-i", "0:0"}
		} else {
			input = []string{"-f", "avfoundation", "-i", ":0"}
		}
	case "windows":
		input = []string{"-f", "dshow", "-i", "audio=default"}
		if kind == KindVideo {
			input = []string{"-f", "dshow", "-i", "video=default:audio=default"}
		}
	default:
		return nil, fmt.Errorf("%w: capture not supported on %s", ErrDeviceUnavailable, goos)
	}
	codec := []string{"-c:a", "libopus"}
	if kind == KindVideo {
		codec = append(codec, "-c:v", "libvpx", "-deadline", "realtime")
	} else {
		codec = append(codec, "-vn")
	}
	out := append(base, input...)
	out = append(out, codec...)
	return append(out, "-f", "webm", "pipe:1"), nil
}

// execStream owns a capture process. Finish asks it to quit through stdin
// ("q" for ffmpeg) so the container is flushed; Close kills it unless the
// output was already drained, and only then waits for it.
type execStream struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	drained atomic.Bool

	finishOnce sync.Once
	finishErr  error
	closeOnce  sync.Once
	closeErr   error
}

func startExecStream(cmd *exec.Cmd) (*execStream, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execStream{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

func (s *execStream) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if err == io.EOF {
		s.drained.Store(true)
	}
	return n, err
}

func (s *execStream) Finish() error {
	s.finishOnce.Do(func() {
		_, err := io.WriteString(s.stdin, "q")
		if cerr := s.stdin.Close(); err == nil {
			err = cerr
		}
		if err != nil && !errors.Is(err, os.ErrClosed) {
			s.finishErr = err
		}
	})
	return s.finishErr
}

func (s *execStream) Close() error {
	s.closeOnce.Do(func() {
		_ = s.stdin.Close()
		if !s.drained.Load() && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		err := s.cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			s.closeErr = err
		}
	})
	return s.closeErr
}
