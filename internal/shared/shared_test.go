package shared

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestParsePlaylistID(t *testing.T) {
	tc := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "bare id", input: "PLabc123", want: "PLabc123"},
		{name: "surrounding whitespace", input: "  PLabc123 ", want: "PLabc123"},
		{name: "playlist url", input: "https://www.youtube.com/playlist?list=PLabc123", want: "PLabc123"},
		{name: "watch url", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLxyz&index=2", want: "PLxyz"},
		{name: "music url without scheme", input: "music.youtube.com/playlist?list=PLm", want: "PLm"},
		{name: "url without list", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", wantErr: ErrInvalidArgument},
		{name: "empty", input: "   ", wantErr: ErrMissingArgument},
		{name: "malformed", input: "PL abc", wantErr: ErrInvalidArgument},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlaylistID(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePlaylistID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := GenerateState()

	if a == b {
		t.Error("expected distinct states")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("state should be URL safe, got %s", a)
	}
}

func TestGenerateID(t *testing.T) {
	if _, err := uuid.Parse(GenerateID()); err != nil {
		t.Errorf("expected a valid uuid: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	SetLogLevel(logger, log.DebugLevel)

	WithLogger(logger, "playlist", "PLa").Debug("listing items")

	out := buf.String()
	if !strings.Contains(out, "listing items") || !strings.Contains(out, "playlist=PLa") {
		t.Errorf("unexpected log output %q", out)
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := MarshalJSON(map[string]int{"added": 2}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"added":2}` {
		t.Errorf("unexpected JSON %s", data)
	}

	pretty, _ := MarshalJSON(map[string]int{"added": 2}, true)
	if !strings.Contains(string(pretty), "\n  \"added\": 2") {
		t.Errorf("expected indented JSON, got %s", pretty)
	}
}

func TestOpenBrowser(t *testing.T) {
	t.Run("BROWSER wins", func(t *testing.T) {
		t.Setenv("BROWSER", "true")
		if err := OpenBrowser("http://127.0.0.1/"); err != nil {
			t.Errorf("expected $BROWSER to be started, got %v", err)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		t.Setenv("BROWSER", "")
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		t.Cleanup(func() { getRuntime = orig })

		if err := OpenBrowser("http://127.0.0.1/"); err == nil || !strings.Contains(err.Error(), "unsupported platform") {
			t.Errorf("expected unsupported platform error, got %v", err)
		}
	})
}
