package text

import (
	"reflect"
	"testing"
)

func TestExtractURLs(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			"single link",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			[]string{"https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		},
		{
			"link embedded in text",
			"check this out https://youtu.be/dQw4w9WgXcQ please",
			[]string{"https://youtu.be/dQw4w9WgXcQ"},
		},
		{
			"multiple links",
			"https://youtu.be/aaa and https://youtu.be/bbb",
			[]string{"https://youtu.be/aaa", "https://youtu.be/bbb"},
		},
		{
			"trailing punctuation stripped",
			"watch https://youtu.be/dQw4w9WgXcQ!",
			[]string{"https://youtu.be/dQw4w9WgXcQ"},
		},
		{
			"tracking parameters removed",
			"https://youtu.be/dQw4w9WgXcQ?si=abc123",
			[]string{"https://youtu.be/dQw4w9WgXcQ"},
		},
		{
			"no links",
			"just some chatter",
			nil,
		},
		{
			"non-http scheme ignored",
			"ftp://example.com/file",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ExtractURLs(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExtractURLs(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCleanURLKeepsMeaningfulQuery(t *testing.T) {
	p := NewParser()

	got := p.cleanURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ&utm_source=share")
	want := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if got != want {
		t.Errorf("cleanURL() = %q, want %q", got, want)
	}
}
