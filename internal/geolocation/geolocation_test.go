package geolocation

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/attendance-client/internal/application"
)

func TestStatic(t *testing.T) {
	t.Parallel()

	coordinate, err := NewStatic(application.Coordinate{Lat: 35.6, Lng: 139.7}).Locate(context.Background())
	if err != nil {
		t.Fatalf("expected coordinate, got error %v", err)
	}
	if coordinate.Lat != 35.6 || coordinate.Lng != 139.7 {
		t.Fatalf("unexpected coordinate %#v", coordinate)
	}

	if _, err := Unsupported().Locate(context.Background()); !errors.Is(err, application.ErrLocationUnsupported) {
		t.Fatalf("expected ErrLocationUnsupported, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStatic(application.Coordinate{}).Locate(ctx); !errors.Is(err, application.ErrLocationUnavailable) {
		t.Fatalf("expected ErrLocationUnavailable for cancelled context, got %v", err)
	}
}

func TestFunc(t *testing.T) {
	t.Parallel()

	calls := 0
	provider := Func(func(ctx context.Context) (application.Coordinate, error) {
		calls++
		return application.Coordinate{Lat: float64(calls)}, nil
	})
	first, _ := provider.Locate(context.Background())
	second, _ := provider.Locate(context.Background())
	if first.Lat != 1 || second.Lat != 2 {
		t.Fatalf("expected independent samples, got %v and %v", first, second)
	}

	var empty Func
	if _, err := empty.Locate(context.Background()); !errors.Is(err, application.ErrLocationUnsupported) {
		t.Fatalf("expected nil Func to be unsupported, got %v", err)
	}
}

func TestParseCoordinate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    application.Coordinate
		wantErr error
	}{
		{name: "valid", input: "35.6812, 139.7671", want: application.Coordinate{Lat: 35.6812, Lng: 139.7671}},
		{name: "negative", input: "-33.8,-70.6\n", want: application.Coordinate{Lat: -33.8, Lng: -70.6}},
		{name: "blank denies", input: "  \n", wantErr: application.ErrLocationDenied},
		{name: "garbage", input: "here", wantErr: application.ErrLocationUnavailable},
		{name: "not numeric", input: "a,b", wantErr: application.ErrLocationUnavailable},
		{name: "out of range", input: "91,0", wantErr: application.ErrLocationUnavailable},
		{name: "nan latitude", input: "NaN,0", wantErr: application.ErrLocationUnavailable},
		{name: "infinite longitude", input: "0,+Inf", wantErr: application.ErrLocationUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCoordinate(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPrompt(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	prompt := NewPrompt(bufio.NewReader(strings.NewReader("35.1,139.2\n\n1,2")), &out)

	first, err := prompt.Locate(context.Background())
	if err != nil || first.Lat != 35.1 {
		t.Fatalf("expected first answer, got %v %v", first, err)
	}
	if _, err := prompt.Locate(context.Background()); !errors.Is(err, application.ErrLocationDenied) {
		t.Fatalf("expected blank answer to deny, got %v", err)
	}
	third, err := prompt.Locate(context.Background())
	if err != nil || third.Lng != 2 {
		t.Fatalf("expected trailing answer without newline, got %v %v", third, err)
	}
	if _, err := prompt.Locate(context.Background()); !errors.Is(err, application.ErrLocationUnavailable) {
		t.Fatalf("expected closed input to be unavailable, got %v", err)
	}
	if strings.Count(out.String(), "Share your location?") != 4 {
		t.Fatalf("expected one question per call, got %q", out.String())
	}
}
