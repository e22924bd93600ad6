package validation

import (
	"testing"
)

func TestValidateURL(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", false},
		{"shorts url", "https://www.youtube.com/shorts/abc123", false},
		{"http scheme", "http://youtube.com/watch?v=abc", false},
		{"empty", "", true},
		{"not youtube", "https://vimeo.com/12345", true},
		{"bad scheme", "ftp://youtube.com/watch?v=abc", true},
		{"garbage", "://not a url", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%s) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abc123", "abc123"},
		{"https://www.youtube.com/embed/xyz789", "xyz789"},
		{"https://www.youtube.com/live/live42", "live42"},
		{"https://www.youtube.com/feed/subscriptions", ""},
		{"https://example.com/watch?v=abc", ""},
	}

	for _, tt := range tests {
		if got := ExtractVideoID(tt.url); got != tt.expected {
			t.Errorf("ExtractVideoID(%s) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}
