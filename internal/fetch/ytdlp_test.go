package fetch

import (
	"encoding/json"
	"testing"
)

func TestProbeResultFromInfo(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTitle string
		wantSize  int64
		wantKnown bool
	}{
		{
			name:      "exact filesize",
			raw:       `{"title": "A Video", "filesize": 1048576, "width": 1920, "height": 1080}`,
			wantTitle: "A Video",
			wantSize:  1048576,
			wantKnown: true,
		},
		{
			name:      "approximate fallback",
			raw:       `{"title": "A Video", "filesize_approx": 2048}`,
			wantTitle: "A Video",
			wantSize:  2048,
			wantKnown: true,
		},
		{
			name:      "no size reported",
			raw:       `{"title": "A Live Stream"}`,
			wantTitle: "A Live Stream",
			wantSize:  0,
			wantKnown: false,
		},
		{
			name:      "exact size wins over approximate",
			raw:       `{"title": "x", "filesize": 100, "filesize_approx": 999}`,
			wantTitle: "x",
			wantSize:  100,
			wantKnown: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var info probeInfo
			if err := json.Unmarshal([]byte(tt.raw), &info); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			res := probeResultFromInfo(&info)
			if res.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", res.Title, tt.wantTitle)
			}
			if res.Size != tt.wantSize {
				t.Errorf("Size = %d, want %d", res.Size, tt.wantSize)
			}
			if res.SizeKnown != tt.wantKnown {
				t.Errorf("SizeKnown = %v, want %v", res.SizeKnown, tt.wantKnown)
			}
		})
	}
}

func TestProbeResultDimensions(t *testing.T) {
	var info probeInfo
	raw := `{"title": "t", "filesize": 1, "width": 1280, "height": 720}`
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	res := probeResultFromInfo(&info)
	if res.Width != 1280 || res.Height != 720 {
		t.Errorf("dimensions = %dx%d, want 1280x720", res.Width, res.Height)
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/downloads/video.mp4\n", "/downloads/video.mp4"},
		{"warning line\n/downloads/video.mp4", "/downloads/video.mp4"},
		{"", ""},
		{"\n\n", ""},
	}

	for _, tt := range tests {
		if got := lastLine(tt.in); got != tt.want {
			t.Errorf("lastLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFirstErrorLine(t *testing.T) {
	err := errTest("yt-dlp: exit status 1: ERROR: [youtube] abc: Video unavailable\nmore context")
	if got := firstErrorLine(err); got != "ERROR: [youtube] abc: Video unavailable" {
		t.Errorf("firstErrorLine = %q", got)
	}

	plain := errTest("something broke")
	if got := firstErrorLine(plain); got != "something broke" {
		t.Errorf("firstErrorLine = %q", got)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
