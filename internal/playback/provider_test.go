package playback

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want Provider
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", PollingWidget},
		{"youtube short link", "https://youtu.be/dQw4w9WgXcQ", PollingWidget},
		{"vimeo", "https://vimeo.com/123456789", PollingWidget},
		{"prezi", "https://prezi.com/p/abc123/", OpaqueEmbed},
		{"mp4 file", "https://cdn.example.com/lesson.mp4", NativeFile},
		{"relative upload", "/uploads/videos/m1/lesson.mp4", NativeFile},
		{"empty", "", NativeFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.url); got != tc.want {
				t.Fatalf("Classify(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestVideoID(t *testing.T) {
	cases := []struct {
		name string
		url  string
		p    Provider
		want string
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", PollingWidget, "dQw4w9WgXcQ"},
		{"youtube embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", PollingWidget, "dQw4w9WgXcQ"},
		{"bare id", "dQw4w9WgXcQ", PollingWidget, "dQw4w9WgXcQ"},
		{"vimeo", "https://vimeo.com/123456789", PollingWidget, "123456789"},
		{"prezi", "https://prezi.com/p/abc123/", OpaqueEmbed, "abc123"},
		{"native has no id", "https://cdn.example.com/a.mp4", NativeFile, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := VideoID(tc.url, tc.p); got != tc.want {
				t.Fatalf("VideoID(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestEmbedURLs(t *testing.T) {
	if got := YouTubeEmbedURL("https://youtu.be/dQw4w9WgXcQ"); got != "https://www.youtube.com/embed/dQw4w9WgXcQ?enablejsapi=1&rel=0" {
		t.Fatalf("youtube embed = %q", got)
	}
	if got := VimeoEmbedURL("https://vimeo.com/123456789"); got != "https://player.vimeo.com/video/123456789?api=1&byline=0&portrait=0" {
		t.Fatalf("vimeo embed = %q", got)
	}
	if got := PreziEmbedURL("https://prezi.com/p/abc123/"); got != "https://prezi.com/p/embed/abc123/" {
		t.Fatalf("prezi embed = %q", got)
	}
	if got := PreziEmbedURL("https://prezi.com/p/embed/abc123/"); got != "https://prezi.com/p/embed/abc123/" {
		t.Fatalf("prezi embed passthrough = %q", got)
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1:05:00", 3900},
		{"45:00", 2700},
		{"0:30", 30},
		{"2h 15min", 8100},
		{"90min", 5400},
		{"bogus", 0},
		{"", 0},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseDuration(tc.in); got != tc.want {
				t.Fatalf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{-5, "0:00"},
		{59, "0:59"},
		{65, "1:05"},
		{3900, "1:05:00"},
		{3661.9, "1:01:01"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
