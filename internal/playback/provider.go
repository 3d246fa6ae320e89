package playback

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Provider identifies which playback backend applies to a video URL.
type Provider int

const (
	// NativeFile is a directly hosted media file played by a native element.
	// It exposes reliable play/pause/seek events.
	NativeFile Provider = iota
	// PollingWidget is an embedded third-party player (YouTube, Vimeo) that
	// only answers imperative position/duration queries plus coarse state
	// callbacks. No usable seek events.
	PollingWidget
	// OpaqueEmbed is a slide-deck style embed (Prezi) with no progress
	// contract at all.
	OpaqueEmbed
)

func (p Provider) String() string {
	switch p {
	case PollingWidget:
		return "polling_widget"
	case OpaqueEmbed:
		return "opaque_embed"
	default:
		return "native_file"
	}
}

var (
	youtubeRe = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+$`)
	vimeoRe   = regexp.MustCompile(`^(https?://)?(www\.)?vimeo\.com/.+$`)
	preziRe   = regexp.MustCompile(`^(https?://)?(www\.)?prezi\.com/.+$`)

	youtubeIDRe = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\s?]+)`)
	bareYTIDRe  = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	vimeoIDRe   = regexp.MustCompile(`vimeo\.com/(?:video/)?(\d+)`)
	preziIDRe   = regexp.MustCompile(`prezi\.com/(?:p|v)/([^/]+)`)

	colonRe   = regexp.MustCompile(`^(\d+):(\d+)(?::(\d+))?$`)
	hoursRe   = regexp.MustCompile(`(\d+)\s*h`)
	minutesRe = regexp.MustCompile(`(\d+)\s*min`)
)

// Classify pattern-matches the URL's host. Empty and unmatched URLs default
// to NativeFile.
func Classify(url string) Provider {
	if url == "" {
		return NativeFile
	}
	if youtubeRe.MatchString(url) || vimeoRe.MatchString(url) {
		return PollingWidget
	}
	if preziRe.MatchString(url) {
		return OpaqueEmbed
	}
	return NativeFile
}

// VideoID extracts the provider-native video id. Empty when the URL carries
// none (native files have no id).
func VideoID(url string, p Provider) string {
	if url == "" {
		return ""
	}
	switch p {
	case PollingWidget:
		if m := youtubeIDRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
		if bareYTIDRe.MatchString(url) {
			return url
		}
		if m := vimeoIDRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	case OpaqueEmbed:
		if m := preziIDRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// YouTubeEmbedURL builds the iframe URL with the JS API enabled for
// progress polling.
func YouTubeEmbedURL(url string) string {
	if m := youtubeIDRe.FindStringSubmatch(url); m != nil {
		return fmt.Sprintf("https://www.youtube.com/embed/%s?enablejsapi=1&rel=0", m[1])
	}
	if bareYTIDRe.MatchString(url) {
		return fmt.Sprintf("https://www.youtube.com/embed/%s?enablejsapi=1&rel=0", url)
	}
	return ""
}

// VimeoEmbedURL builds the player URL with the API flag set.
func VimeoEmbedURL(url string) string {
	if m := vimeoIDRe.FindStringSubmatch(url); m != nil {
		return fmt.Sprintf("https://player.vimeo.com/video/%s?api=1&byline=0&portrait=0", m[1])
	}
	return ""
}

// PreziEmbedURL normalizes /p/ID/ and /v/ID/ presentation URLs to the embed
// form. Already-embed URLs pass through.
func PreziEmbedURL(url string) string {
	if url == "" {
		return ""
	}
	if strings.Contains(url, "/p/embed/") {
		return url
	}
	if m := preziIDRe.FindStringSubmatch(url); m != nil {
		return fmt.Sprintf("https://prezi.com/p/embed/%s/", m[1])
	}
	return ""
}

// ParseDuration accepts "H:MM:SS", "M:SS" and free-form "Xh Ymin" strings.
// Unparseable input yields 0, never an error.
func ParseDuration(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if m := colonRe.FindStringSubmatch(s); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		if m[3] != "" {
			c, _ := strconv.Atoi(m[3])
			return float64(a*3600 + b*60 + c)
		}
		return float64(a*60 + b)
	}

	var hours, minutes int
	if m := hoursRe.FindStringSubmatch(s); m != nil {
		hours, _ = strconv.Atoi(m[1])
	}
	if m := minutesRe.FindStringSubmatch(s); m != nil {
		minutes, _ = strconv.Atoi(m[1])
	}
	return float64(hours*3600 + minutes*60)
}

// FormatDuration renders seconds as "M:SS" or "H:MM:SS" with zero-padded
// sub-minute components. Zero and negative input render "0:00".
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0:00"
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
