package extractor

import (
	"context"

	"github.com/denisAlshanov/vidgrab/internal/config"
)

// Router sends YouTube links to the native client when one is configured and
// everything else to the general-purpose extractor.
type Router struct {
	general Extractor
	youtube Extractor
}

// NewRouter creates a Router. A nil youtube extractor disables the native path.
func NewRouter(general, youtube Extractor) *Router {
	return &Router{general: general, youtube: youtube}
}

// New builds the extractor stack described by the configuration
func New(cfg *config.ExtractorConfig) (Extractor, error) {
	general := NewYTDLP(cfg)
	if !cfg.YouTubeNative {
		return general, nil
	}

	native, err := NewYouTube(cfg)
	if err != nil {
		return nil, err
	}
	return NewRouter(general, native), nil
}

func (r *Router) pick(url string) Extractor {
	if r.youtube != nil && IsYouTubeURL(url) {
		return r.youtube
	}
	return r.general
}

func (r *Router) Probe(ctx context.Context, url string) (*MediaInfo, error) {
	return r.pick(url).Probe(ctx, url)
}

func (r *Router) Fetch(ctx context.Context, url, formatID, destDir string) (string, error) {
	return r.pick(url).Fetch(ctx, url, formatID, destDir)
}
