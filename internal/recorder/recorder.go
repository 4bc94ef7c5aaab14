// Package recorder runs one audio or video capture session at a time.
//
// A Recorder moves idle -> recording -> stopped (or back to idle on
// cancel). Every way out of recording releases the device stream and the
// duration ticker exactly once; finalized recordings are registered in a
// BlobStore so they can be played back until superseded or torn down.
package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrAlreadyRecording  = errors.New("recorder: already recording")
	ErrNotRecording      = errors.New("recorder: not recording")
	ErrDeviceUnavailable = errors.New("recorder: capture device unavailable")
	ErrInvalidKind       = errors.New("recorder: invalid media kind")
	ErrClosed            = errors.New("recorder: closed")
)

const (
	DefaultTickInterval = 100 * time.Millisecond
	DefaultMaxDuration  = 5 * time.Minute
	DefaultFinishGrace  = 3 * time.Second

	readChunkSize = 32 * 1024
)

type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

func (k Kind) IsValid() bool {
	return k == KindAudio || k == KindVideo
}

func (k Kind) MIMEType() string {
	if k == KindVideo {
		return "video/webm"
	}
	return "audio/webm"
}

type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	// StatePaused is part of the state set but no operation enters it.
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// Recording is a finalized capture session.
type Recording struct {
	Kind      Kind
	Duration  time.Duration
	MIMEType  string
	Data      []byte
	URL       string
	CreatedAt time.Time
}

// Name is the upload filename, derived from the creation time.
func (r Recording) Name() string {
	prefix := "voice-note"
	if r.Kind == KindVideo {
		prefix = "video-note"
	}
	return fmt.Sprintf("%s-%s.webm", prefix, r.CreatedAt.Format("2006-01-02_15-04-05"))
}

func (r Recording) Size() int64 {
	return int64(len(r.Data))
}

// Event is emitted once for every transition into stopped.
type Event struct {
	Recording Recording
	Auto      bool
}

type Options struct {
	TickInterval time.Duration
	MaxDuration  time.Duration
	// FinishGrace bounds how long a stop waits for a Finisher stream to
	// drain before the stream is closed hard.
	FinishGrace time.Duration
	EventBuffer int
	Now         func() time.Time
	Logger      *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		TickInterval: DefaultTickInterval,
		MaxDuration:  DefaultMaxDuration,
		FinishGrace:  DefaultFinishGrace,
		EventBuffer:  4,
		Now:          time.Now,
		Logger:       zap.NewNop(),
	}
}

type session struct {
	kind      Kind
	startedAt time.Time
	stream    Stream

	quit     chan struct{}
	readDone chan struct{}
	tickDone chan struct{}
	release  sync.Once

	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *session) append(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Write(p)
}

func (s *session) bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.buf.Bytes())
}

type Recorder struct {
	device Device
	blobs  *BlobStore
	opts   Options
	logger *zap.Logger
	events chan Event

	mu        sync.Mutex
	state     State
	kind      Kind
	acquiring bool
	closed    bool
	sess      *session
	elapsed   time.Duration
	last      *Recording

	activeTimers atomic.Int32
	releases     atomic.Uint64
	dropped      atomic.Uint64
}

func New(device Device, blobs *BlobStore, opts Options) *Recorder {
	def := DefaultOptions()
	if opts.TickInterval <= 0 {
		opts.TickInterval = def.TickInterval
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = def.MaxDuration
	}
	if opts.FinishGrace <= 0 {
		opts.FinishGrace = def.FinishGrace
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = def.EventBuffer
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	if blobs == nil {
		blobs = NewBlobStore()
	}
	return &Recorder{
		device: device,
		blobs:  blobs,
		opts:   opts,
		logger: opts.Logger,
		events: make(chan Event, opts.EventBuffer),
		state:  StateIdle,
	}
}

// Events delivers one Event per finalized recording, manual or automatic.
func (r *Recorder) Events() <-chan Event {
	return r.events
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Kind is the kind of the active or last session.
func (r *Recorder) Kind() Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.kind
}

func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

func (r *Recorder) MaxDuration() time.Duration {
	return r.opts.MaxDuration
}

// Last returns the stopped recording whose URL is still live.
func (r *Recorder) Last() (Recording, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Recording{}, false
	}
	return *r.last, true
}

// Releases counts device stream releases since creation.
func (r *Recorder) Releases() uint64 {
	return r.releases.Load()
}

func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Start acquires a capture stream for kind and begins recording. It blocks
// while the device grants access. On failure the recorder keeps its
// previous state and nothing stays acquired.
func (r *Recorder) Start(ctx context.Context, kind Kind) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.state == StateRecording || r.acquiring {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.acquiring = true
	r.mu.Unlock()

	stream, err := r.device.Open(ctx, kind)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.acquiring = false
	if err != nil {
		if stream != nil {
			_ = stream.Close()
		}
		r.logger.Warn("capture device unavailable", zap.String("kind", string(kind)), zap.Error(err))
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		return err
	}
	if r.closed {
		_ = stream.Close()
		return ErrClosed
	}

	r.revokeLastLocked()
	s := &session{
		kind:      kind,
		startedAt: r.opts.Now(),
		stream:    stream,
		quit:      make(chan struct{}),
		readDone:  make(chan struct{}),
		tickDone:  make(chan struct{}),
	}
	r.sess = s
	r.state = StateRecording
	r.kind = kind
	r.elapsed = 0
	r.activeTimers.Add(1)
	go r.read(s)
	go r.tick(s)
	r.logger.Info("recording started", zap.String("kind", string(kind)))
	return nil
}

// Stop finalizes the active session into a Recording.
func (r *Recorder) Stop() (Recording, error) {
	r.mu.Lock()
	s := r.sess
	r.mu.Unlock()
	if s == nil {
		return Recording{}, ErrNotRecording
	}
	return r.finish(s, false)
}

// Cancel abandons the active session without producing a recording and
// revokes the URL of any previous one. The recorder ends idle.
func (r *Recorder) Cancel() error {
	r.mu.Lock()
	s := r.sess
	if s == nil && r.state == StateRecording {
		// A stop is finalizing concurrently.
		r.mu.Unlock()
		return ErrNotRecording
	}
	r.sess = nil
	r.mu.Unlock()

	if s != nil {
		r.releaseSession(s)
		<-s.readDone
		<-s.tickDone
		r.logger.Info("recording cancelled", zap.String("kind", string(s.kind)))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokeLastLocked()
	r.state = StateIdle
	r.elapsed = 0
	return nil
}

// Reset returns a stopped recorder to idle so it can be reused.
func (r *Recorder) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRecording {
		return ErrAlreadyRecording
	}
	r.revokeLastLocked()
	r.state = StateIdle
	r.elapsed = 0
	return nil
}

// Close tears the recorder down: an active session is cancelled and every
// live URL is revoked. Further Starts fail with ErrClosed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	err := r.Cancel()
	if errors.Is(err, ErrNotRecording) {
		// finish observes closed and revokes on its own.
		return nil
	}
	return err
}

func (r *Recorder) finish(s *session, auto bool) (Recording, error) {
	r.mu.Lock()
	if r.sess != s {
		r.mu.Unlock()
		return Recording{}, ErrNotRecording
	}
	r.sess = nil
	r.mu.Unlock()

	r.drain(s)
	r.releaseSession(s)
	<-s.readDone
	if !auto {
		<-s.tickDone
	}

	now := r.opts.Now()
	duration := now.Sub(s.startedAt)
	if duration > r.opts.MaxDuration {
		duration = r.opts.MaxDuration
	}
	data := s.bytes()
	rec := Recording{
		Kind:      s.kind,
		Duration:  duration,
		MIMEType:  s.kind.MIMEType(),
		Data:      data,
		CreatedAt: now,
	}
	rec.URL = r.blobs.CreateURL(rec.MIMEType, data)

	r.mu.Lock()
	if r.closed {
		r.blobs.RevokeURL(rec.URL)
		r.state = StateIdle
		r.elapsed = 0
		r.mu.Unlock()
		return Recording{}, ErrClosed
	}
	r.state = StateStopped
	r.elapsed = duration
	r.last = &rec
	r.mu.Unlock()

	r.logger.Info("recording stopped",
		zap.String("kind", string(rec.Kind)),
		zap.Duration("duration", rec.Duration),
		zap.Int("bytes", len(rec.Data)),
		zap.Bool("auto", auto),
	)
	r.emit(Event{Recording: rec, Auto: auto})
	return rec, nil
}

func (r *Recorder) read(s *session) {
	defer close(s.readDone)
	buf := make([]byte, readChunkSize)
	for {
		n, err := s.stream.Read(buf)
		if n > 0 {
			s.append(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (r *Recorder) tick(s *session) {
	defer r.activeTimers.Add(-1)
	defer close(s.tickDone)
	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			elapsed := r.opts.Now().Sub(s.startedAt)
			r.mu.Lock()
			if r.sess != s {
				r.mu.Unlock()
				return
			}
			r.elapsed = elapsed
			r.mu.Unlock()
			if elapsed >= r.opts.MaxDuration {
				if _, err := r.finish(s, true); err != nil && !errors.Is(err, ErrNotRecording) {
					r.logger.Warn("auto stop failed", zap.Error(err))
				}
				return
			}
		}
	}
}

// drain lets a Finisher stream deliver its tail before the stream is
// released. Streams without Finish are released as they are.
func (r *Recorder) drain(s *session) {
	f, ok := s.stream.(Finisher)
	if !ok {
		return
	}
	if err := f.Finish(); err != nil {
		r.logger.Warn("finish capture stream", zap.Error(err))
		return
	}
	timer := time.NewTimer(r.opts.FinishGrace)
	defer timer.Stop()
	select {
	case <-s.readDone:
	case <-timer.C:
		r.logger.Warn("capture stream did not drain in time", zap.Duration("grace", r.opts.FinishGrace))
	}
}

func (r *Recorder) releaseSession(s *session) {
	s.release.Do(func() {
		close(s.quit)
		if err := s.stream.Close(); err != nil {
			r.logger.Warn("release capture stream", zap.Error(err))
		}
		r.releases.Add(1)
	})
}

func (r *Recorder) revokeLastLocked() {
	if r.last == nil {
		return
	}
	r.blobs.RevokeURL(r.last.URL)
	r.last = nil
}

func (r *Recorder) emit(ev Event) {
	select {
	case r.events <- ev:
	default:
		r.dropped.Add(1)
		r.logger.Warn("recording event dropped", zap.String("kind", string(ev.Recording.Kind)))
	}
}
