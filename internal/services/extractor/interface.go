package extractor

import (
	"context"
	"errors"

	"github.com/denisAlshanov/vidgrab/internal/services/resolver"
)

var (
	// ErrUnsupportedURL is returned when no extractor recognises the URL's site.
	ErrUnsupportedURL = errors.New("unsupported url")

	// ErrExtractionFailed covers every other extractor-side failure: network,
	// geo-blocking, private or removed content, timeouts.
	ErrExtractionFailed = errors.New("extraction failed")
)

// Extractor enumerates and fetches the streams behind a media URL
type Extractor interface {
	// Probe lists the raw formats and metadata for url without downloading
	Probe(ctx context.Context, url string) (*MediaInfo, error)

	// Fetch downloads exactly one format into destDir and returns the file path
	Fetch(ctx context.Context, url, formatID, destDir string) (string, error)
}

// MediaInfo contains the probed metadata and raw formats of one URL
type MediaInfo struct {
	ID          string
	Title       string
	Duration    float64
	Thumbnail   string
	Uploader    string
	WebpageURL  string
	Platform    string
	Descriptors []resolver.Descriptor
}
