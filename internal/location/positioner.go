package location

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// StaticPositioner reports fixed coordinates, typically from configuration.
type StaticPositioner struct {
	Lat float64
	Lng float64
}

func (s StaticPositioner) Position(ctx context.Context, _ Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position{Lat: s.Lat, Lng: s.Lng}, nil
}

// CommandPositioner runs an external locator (CoreLocationCLI, a gpsd
// wrapper, ...) that prints "lat,lng" on its first line.
type CommandPositioner struct {
	Name string
	Args []string
}

func (c CommandPositioner) Position(ctx context.Context, _ Options) (Position, error) {
	out, err := exec.CommandContext(ctx, c.Name, c.Args...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return Position{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, ctx.Err())
		}
		return Position{}, fmt.Errorf("%w: %s: %v", ErrPositionUnavailable, c.Name, err)
	}
	line := strings.TrimSpace(string(out))
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	lat, lng, err := ParseCoordinates(line)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	return Position{Lat: lat, Lng: lng}, nil
}

type unsupportedPositioner struct{}

func (unsupportedPositioner) Position(context.Context, Options) (Position, error) {
	return Position{}, ErrNotSupported
}

// Unsupported is the positioner for hosts without any location source.
func Unsupported() Positioner { return unsupportedPositioner{} }

// ParseCoordinates reads "lat,lng" (whitespace or comma separated).
func ParseCoordinates(raw string) (float64, float64, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("location: expected \"lat,lng\", got %q", raw)
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("location: latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("location: longitude: %w", err)
	}
	return lat, lng, nil
}
