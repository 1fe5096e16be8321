// Package geolocation provides single-shot location providers for the
// attendance client.
package geolocation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/example/attendance-client/internal/application"
)

// Func adapts a function to application.LocationProvider.
type Func func(ctx context.Context) (application.Coordinate, error)

// Locate implements application.LocationProvider.
func (f Func) Locate(ctx context.Context) (application.Coordinate, error) {
	if f == nil {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationUnsupported}
	}
	return f(ctx)
}

// Static reports a fixed coordinate. A Static without a coordinate behaves
// like a platform without location support.
type Static struct {
	coordinate *application.Coordinate
}

// NewStatic returns a provider that always reports coordinate.
func NewStatic(coordinate application.Coordinate) Static {
	return Static{coordinate: &coordinate}
}

// Unsupported returns a provider that always fails with ErrLocationUnsupported.
func Unsupported() Static {
	return Static{}
}

// Locate implements application.LocationProvider.
func (s Static) Locate(ctx context.Context) (application.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationUnavailable, Reason: err.Error()}
	}
	if s.coordinate == nil {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationUnsupported}
	}
	return *s.coordinate, nil
}

// Prompt asks the terminal user for a coordinate on every call. A blank answer
// is treated as a denied permission.
type Prompt struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt reads answers from in and writes the question to out. in should
// be shared with any other reader of the same stream.
func NewPrompt(in *bufio.Reader, out io.Writer) *Prompt {
	return &Prompt{in: in, out: out}
}

// Locate implements application.LocationProvider.
func (p *Prompt) Locate(ctx context.Context) (application.Coordinate, error) {
	if p == nil || p.in == nil {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationUnsupported}
	}
	if err := ctx.Err(); err != nil {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationUnavailable, Reason: err.Error()}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out != nil {
		fmt.Fprint(p.out, "Share your location? Enter \"lat,lng\" (blank to deny): ")
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationUnavailable, Reason: "no answer"}
	}
	return ParseCoordinate(line)
}

// ParseCoordinate converts a "lat,lng" answer into a coordinate. A blank
// answer reports ErrLocationDenied.
func ParseCoordinate(value string) (application.Coordinate, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationDenied}
	}

	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationUnavailable, Reason: "expected \"lat,lng\""}
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lngErr != nil {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationUnavailable, Reason: "expected \"lat,lng\""}
	}
	if !finite(lat) || !finite(lng) {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationUnavailable, Reason: "coordinate is not a finite number"}
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return application.Coordinate{}, &application.LocationError{Kind: application.ErrLocationUnavailable, Reason: "coordinate out of range"}
	}
	return application.Coordinate{Lat: lat, Lng: lng}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
