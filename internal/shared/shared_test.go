package shared

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNormalizeTrackKey(t *testing.T) {
	tc := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{
			name:   "basic normalization",
			title:  "Song Title",
			artist: "Artist Name",
			want:   "song title|artist name",
		},
		{
			name:   "extra whitespace",
			title:  "  Song   Title  ",
			artist: "  Artist   Name  ",
			want:   "song title|artist name",
		},
		{
			name:   "mixed case",
			title:  "SoNg TiTlE",
			artist: "ArTiSt NaMe",
			want:   "song title|artist name",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTrackKey(tt.title, tt.artist)
			if got != tt.want {
				t.Errorf("NormalizeTrackKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name string
		ms   float64
		want string
	}{
		{name: "zero", ms: 0, want: "00:00"},
		{name: "negative", ms: -5, want: "00:00"},
		{name: "NaN", ms: math.NaN(), want: "00:00"},
		{name: "infinite", ms: math.Inf(1), want: "00:00"},
		{name: "sub second", ms: 999, want: "00:00"},
		{name: "minutes", ms: 210000, want: "03:30"},
		{name: "just under an hour", ms: 3599000, want: "59:59"},
		{name: "one hour", ms: 3600000, want: "1:00:00"},
		{name: "hour minute second", ms: 3661000, want: "1:01:01"},
		{name: "long", ms: 36000000, want: "10:00:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.ms); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	t.Run("Round Trip Of Sums", func(t *testing.T) {
		durations := []int{210000, 185000, 3600000, 61000, 0, 59000}

		raw := 0
		reparsed := 0
		for _, d := range durations {
			raw += d
			ms, err := ParseDuration(FormatMillis(d))
			if err != nil {
				t.Fatalf("ParseDuration(%q): %v", FormatMillis(d), err)
			}
			reparsed += ms
		}

		if FormatMillis(reparsed) != FormatMillis(raw) {
			t.Errorf("expected %s, got %s", FormatMillis(raw), FormatMillis(reparsed))
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, s := range []string{"", "12", "a:b", "1:2:3:4", "-1:00"} {
			if _, err := ParseDuration(s); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("ParseDuration(%q) expected ErrInvalidArgument, got %v", s, err)
			}
		}
	})
}

func TestDescribe(t *testing.T) {
	t.Run("Validation Drops Prefix", func(t *testing.T) {
		err := fmt.Errorf("%w: Please enter a theme.", ErrValidation)
		if got := Describe(err); got != "Please enter a theme." {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("Wrapped Validation", func(t *testing.T) {
		err := fmt.Errorf("save: %w", fmt.Errorf("%w: Add at least one song.", ErrValidation))
		if got := Describe(err); got != "Add at least one song." {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("Upstream Keeps Chain", func(t *testing.T) {
		err := fmt.Errorf("%w: status 500: boom", ErrUpstream)
		if got := Describe(err); !strings.HasPrefix(got, "upstream request failed") {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("Nil", func(t *testing.T) {
		if Describe(nil) != "" {
			t.Error("expected empty message for nil")
		}
	})
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := GenerateState()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty states, got %q and %q", a, b)
	}
}

func TestLauncher(t *testing.T) {
	const url = "https://accounts.spotify.com/authorize?state=abc"

	tests := []struct {
		goos string
		name string
		args int
	}{
		{"darwin", "open", 1},
		{"linux", "xdg-open", 1},
		{"windows", "rundll32", 2},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := launcher(tt.goos, url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.name || len(args) != tt.args || args[len(args)-1] != url {
				t.Errorf("got %s %v", name, args)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		if _, _, err := launcher("plan9", url); !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})
}
