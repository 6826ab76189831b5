package extractor

import (
	"net/url"
	"regexp"
	"strings"
)

var platformHosts = []struct {
	suffix   string
	platform string
}{
	{"youtube.com", "YouTube"},
	{"youtu.be", "YouTube"},
	{"instagram.com", "Instagram"},
	{"tiktok.com", "TikTok"},
	{"facebook.com", "Facebook"},
	{"fb.watch", "Facebook"},
	{"twitter.com", "Twitter"},
	{"x.com", "Twitter"},
	{"vimeo.com", "Vimeo"},
}

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(www\.|m\.|music\.)?youtube\.com/watch\?(.*&)?v=[\w-]+`),
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/(embed|v|shorts|live)/[\w-]+`),
	regexp.MustCompile(`^https?://youtu\.be/[\w-]+`),
}

// DetectPlatform names the platform a URL belongs to, or "" when unknown.
func DetectPlatform(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range platformHosts {
		if host == p.suffix || strings.HasSuffix(host, "."+p.suffix) {
			return p.platform
		}
	}
	return ""
}

// IsYouTubeURL checks if the provided URL points at a single YouTube video
func IsYouTubeURL(rawURL string) bool {
	for _, pattern := range youtubePatterns {
		if pattern.MatchString(rawURL) {
			return true
		}
	}
	return false
}
