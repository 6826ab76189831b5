package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/denisAlshanov/vidgrab/internal/config"
	"github.com/denisAlshanov/vidgrab/internal/services/resolver"
)

// nativeClient is the part of *youtube.Client the extractor uses
type nativeClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// YouTube talks to YouTube directly, without the yt-dlp executable
type YouTube struct {
	client       nativeClient
	probeTimeout time.Duration
	fetchTimeout time.Duration
}

// NewYouTube creates a new native YouTube extractor
func NewYouTube(cfg *config.ExtractorConfig) (*YouTube, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	y := &YouTube{
		client: &youtube.Client{
			HTTPClient: &http.Client{Transport: transport},
		},
		probeTimeout: cfg.ProbeTimeout,
		fetchTimeout: cfg.FetchTimeout,
	}
	if y.probeTimeout <= 0 {
		y.probeTimeout = DefaultProbeTimeout
	}
	if y.fetchTimeout <= 0 {
		y.fetchTimeout = DefaultFetchTimeout
	}
	return y, nil
}

// Probe retrieves video metadata and every stream YouTube advertises
func (c *YouTube) Probe(ctx context.Context, rawURL string) (*MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	video, err := c.video(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	info := &MediaInfo{
		ID:          video.ID,
		Title:       video.Title,
		Duration:    video.Duration.Seconds(),
		Uploader:    video.Author,
		WebpageURL:  "https://www.youtube.com/watch?v=" + video.ID,
		Platform:    "YouTube",
		Descriptors: make([]resolver.Descriptor, 0, len(video.Formats)),
	}

	var widest uint
	for _, thumb := range video.Thumbnails {
		if info.Thumbnail == "" || thumb.Width > widest {
			info.Thumbnail = thumb.URL
			widest = thumb.Width
		}
	}

	for _, format := range video.Formats {
		info.Descriptors = append(info.Descriptors, nativeDescriptor(format))
	}
	return info, nil
}

// Fetch streams the format with the given itag into destDir
func (c *YouTube) Fetch(ctx context.Context, rawURL, formatID, destDir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	itag, err := strconv.Atoi(formatID)
	if err != nil {
		return "", fmt.Errorf("%w: format %q is not an itag", ErrExtractionFailed, formatID)
	}

	video, err := c.video(ctx, rawURL)
	if err != nil {
		return "", err
	}

	matches := video.Formats.Itag(itag)
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: itag %d not offered", ErrExtractionFailed, itag)
	}
	format := &matches[0]

	stream, _, err := c.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", wrapNativeError(ctx, "failed to get stream", err)
	}
	defer stream.Close()

	container, _, _ := parseMimeType(format.MimeType)
	if container == "" {
		container = resolver.DefaultVideoContainer
	}
	outputPath := filepath.Join(destDir, "stream-"+formatID+"."+container)

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(file, stream); err != nil {
		file.Close()
		return "", wrapNativeError(ctx, "failed to write stream to file", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to flush stream file: %v", ErrExtractionFailed, err)
	}

	return outputPath, nil
}

func (c *YouTube) video(ctx context.Context, rawURL string) (*youtube.Video, error) {
	videoID, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}

	video, err := c.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, wrapNativeError(ctx, "failed to get video info", err)
	}
	return video, nil
}

func wrapNativeError(ctx context.Context, msg string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: timed out", ErrExtractionFailed, msg)
	}
	return fmt.Errorf("%w: %s: %v", ErrExtractionFailed, msg, err)
}

// nativeDescriptor maps a YouTube stream onto a raw descriptor. The MIME type
// carries the container and codecs, e.g. `video/mp4; codecs="avc1.64001F, mp4a.40.2"`.
func nativeDescriptor(f youtube.Format) resolver.Descriptor {
	container, major, codecs := parseMimeType(f.MimeType)

	d := resolver.Descriptor{ID: strconv.Itoa(f.ItagNo)}
	if container != "" {
		d.Container = &container
	}

	hasVideo := major == "video"
	hasAudio := major == "audio" || f.AudioChannels > 0 || len(codecs) > 1
	d.HasVideo = &hasVideo
	d.HasAudio = &hasAudio

	switch {
	case hasVideo && len(codecs) > 0:
		d.VideoCodec = &codecs[0]
		if len(codecs) > 1 {
			d.AudioCodec = &codecs[1]
		}
	case major == "audio" && len(codecs) > 0:
		d.AudioCodec = &codecs[0]
	}

	if f.Height > 0 {
		h := f.Height
		d.Height = &h
	}
	if f.ContentLength > 0 {
		size := f.ContentLength
		d.Filesize = &size
	}

	bitrate := f.AverageBitrate
	if bitrate <= 0 {
		bitrate = f.Bitrate
	}
	if bitrate > 0 {
		kbps := float64(bitrate) / 1000
		d.Bitrate = &kbps
	}
	return d
}

// parseMimeType returns the file container, the major media type and the codec list
func parseMimeType(mimeType string) (container, major string, codecs []string) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", "", nil
	}

	major, sub, _ := strings.Cut(mediaType, "/")
	switch {
	case major == "audio" && sub == "mp4":
		container = "m4a"
	case sub == "3gpp":
		container = "3gp"
	default:
		container = sub
	}

	for _, codec := range strings.Split(params["codecs"], ",") {
		if codec = strings.TrimSpace(codec); codec != "" {
			codecs = append(codecs, codec)
		}
	}
	return container, major, codecs
}
