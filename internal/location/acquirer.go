// Package location obtains a one-shot device position and resolves it to a
// readable address on a best-effort basis.
package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sandeepkv93/tasknotes/internal/model"
	"go.uber.org/zap"
)

var (
	ErrPositionUnavailable = errors.New("location: position unavailable")
	ErrNotSupported        = errors.New("location: not supported on this device")
)

type Position struct {
	Lat      float64
	Lng      float64
	Accuracy float64
	At       time.Time
}

type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaximumAge:   60 * time.Second,
	}
}

type Positioner interface {
	Position(ctx context.Context, opts Options) (Position, error)
}

type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

type Acquirer struct {
	positioner Positioner
	geocoder   Geocoder
	opts       Options
	now        func() time.Time
	logger     *zap.Logger

	mu     sync.Mutex
	cached *Position
}

type AcquirerOption func(*Acquirer)

func WithOptions(opts Options) AcquirerOption {
	return func(a *Acquirer) { a.opts = opts }
}

func WithClock(now func() time.Time) AcquirerOption {
	return func(a *Acquirer) { a.now = now }
}

func WithLogger(logger *zap.Logger) AcquirerOption {
	return func(a *Acquirer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAcquirer builds an acquirer. geocoder may be nil, in which case
// addresses are left blank.
func NewAcquirer(p Positioner, g Geocoder, options ...AcquirerOption) *Acquirer {
	a := &Acquirer{
		positioner: p,
		geocoder:   g,
		opts:       DefaultOptions(),
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Acquire returns the current location. A cached position younger than
// MaximumAge is reused; otherwise the positioner gets Timeout to answer.
// Geocoding failures leave Address empty and are not returned.
func (a *Acquirer) Acquire(ctx context.Context) (model.Location, error) {
	if a.positioner == nil {
		return model.Location{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, ErrNotSupported)
	}
	pos, ok := a.fresh()
	if !ok {
		var err error
		pos, err = a.locate(ctx)
		if err != nil {
			return model.Location{}, err
		}
	}

	loc := model.Location{Lat: pos.Lat, Lng: pos.Lng}
	if err := loc.Validate(); err != nil {
		return model.Location{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	if a.geocoder != nil {
		address, err := a.geocoder.Reverse(ctx, pos.Lat, pos.Lng)
		if err != nil {
			a.logger.Debug("reverse geocode failed", zap.Error(err))
		} else {
			loc.Address = address
		}
	}
	return loc, nil
}

func (a *Acquirer) fresh() (Position, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cached == nil || a.opts.MaximumAge <= 0 {
		return Position{}, false
	}
	if a.now().Sub(a.cached.At) > a.opts.MaximumAge {
		return Position{}, false
	}
	return *a.cached, true
}

func (a *Acquirer) locate(ctx context.Context) (Position, error) {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}
	pos, err := a.positioner.Position(ctx, a.opts)
	if err != nil {
		a.logger.Warn("position unavailable", zap.Error(err))
		if errors.Is(err, ErrPositionUnavailable) {
			return Position{}, err
		}
		return Position{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	if pos.At.IsZero() {
		pos.At = a.now()
	}
	a.mu.Lock()
	a.cached = &pos
	a.mu.Unlock()
	return pos, nil
}
