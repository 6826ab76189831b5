package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/denisAlshanov/vidgrab/internal/config"
	"github.com/denisAlshanov/vidgrab/internal/services/resolver"
	"github.com/denisAlshanov/vidgrab/internal/utils"
)

const (
	DefaultProbeTimeout = 60 * time.Second
	DefaultFetchTimeout = 10 * time.Minute
)

var audioExtensions = map[string]bool{
	"m4a": true, "mp3": true, "aac": true, "opus": true, "ogg": true, "flac": true, "wav": true,
}

// Keywords in format_id or format_note that mark an audio stream when codecs
// are missing.
var audioKeywords = []string{"audio", "mp3", "m4a", "opus", "aac"}

var storyboardID = regexp.MustCompile(`^sb\d+$`)

// YTDLP extracts media through the yt-dlp executable
type YTDLP struct {
	executable   string
	proxy        string
	probeTimeout time.Duration
	fetchTimeout time.Duration
}

func NewYTDLP(cfg *config.ExtractorConfig) *YTDLP {
	y := &YTDLP{
		executable:   cfg.YTDLPPath,
		proxy:        cfg.Proxy,
		probeTimeout: cfg.ProbeTimeout,
		fetchTimeout: cfg.FetchTimeout,
	}
	if y.probeTimeout <= 0 {
		y.probeTimeout = DefaultProbeTimeout
	}
	if y.fetchTimeout <= 0 {
		y.fetchTimeout = DefaultFetchTimeout
	}
	return y
}

func (y *YTDLP) command() *ytdlp.Command {
	dl := ytdlp.New()
	if y.executable != "" {
		dl = dl.SetExecutable(y.executable)
	}
	if y.proxy != "" {
		dl = dl.Proxy(y.proxy)
	}
	return dl
}

// Probe runs yt-dlp in simulate mode and decodes its JSON info dict
func (y *YTDLP) Probe(ctx context.Context, url string) (*MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, y.probeTimeout)
	defer cancel()

	res, err := y.command().
		SkipDownload().
		PrintJSON().
		NoPlaylist().
		Run(ctx, url)
	if err != nil {
		return nil, classifyRunError(ctx, res, err)
	}

	info, err := parseProbeOutput(ctx, []byte(res.Stdout))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if platform := DetectPlatform(url); platform != "" {
		info.Platform = platform
	}
	if info.WebpageURL == "" {
		info.WebpageURL = url
	}
	return info, nil
}

// Fetch downloads a single format into destDir
func (y *YTDLP) Fetch(ctx context.Context, url, formatID, destDir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, y.fetchTimeout)
	defer cancel()

	prefix := "stream-" + safeName(formatID)
	res, err := y.command().
		NoPlaylist().
		Format(formatID).
		Output(filepath.Join(destDir, prefix+".%(ext)s")).
		ForceOverwrites().
		Run(ctx, url)
	if err != nil {
		return "", classifyRunError(ctx, res, err)
	}

	return locateOutput(destDir, prefix)
}

type ytdlpFormat struct {
	FormatID       *string  `json:"format_id"`
	FormatNote     *string  `json:"format_note"`
	Ext            *string  `json:"ext"`
	Protocol       *string  `json:"protocol"`
	VCodec         *string  `json:"vcodec"`
	ACodec         *string  `json:"acodec"`
	Width          *float64 `json:"width"`
	Height         *float64 `json:"height"`
	Filesize       *float64 `json:"filesize"`
	FilesizeApprox *float64 `json:"filesize_approx"`
	TBR            *float64 `json:"tbr"`
	ABR            *float64 `json:"abr"`
	VBR            *float64 `json:"vbr"`
}

type ytdlpInfo struct {
	ytdlpFormat

	ID           string        `json:"id"`
	Title        *string       `json:"title"`
	Duration     *float64      `json:"duration"`
	Thumbnail    *string       `json:"thumbnail"`
	Uploader     *string       `json:"uploader"`
	WebpageURL   *string       `json:"webpage_url"`
	ExtractorKey *string       `json:"extractor_key"`
	Formats      []ytdlpFormat `json:"formats"`
}

// parseProbeOutput decodes the info JSON printed by yt-dlp. Anything before
// the first '{' (extractor progress lines) is skipped.
func parseProbeOutput(ctx context.Context, stdout []byte) (*MediaInfo, error) {
	start := bytes.IndexByte(stdout, '{')
	if start < 0 {
		return nil, errors.New("yt-dlp printed no info JSON")
	}

	var raw ytdlpInfo
	if err := json.NewDecoder(bytes.NewReader(stdout[start:])).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp output: %w", err)
	}

	formats := raw.Formats
	// Single-stream sites report the only format at the top level.
	if len(formats) == 0 && raw.FormatID != nil {
		formats = []ytdlpFormat{raw.ytdlpFormat}
	}

	info := &MediaInfo{
		ID:          raw.ID,
		Title:       deref(raw.Title),
		Duration:    derefFloat(raw.Duration),
		Thumbnail:   deref(raw.Thumbnail),
		Uploader:    deref(raw.Uploader),
		WebpageURL:  deref(raw.WebpageURL),
		Platform:    deref(raw.ExtractorKey),
		Descriptors: make([]resolver.Descriptor, 0, len(formats)),
	}
	for _, f := range formats {
		d, classified := f.descriptor()
		if !classified {
			utils.LogDebug(ctx, "Dropping format with unknown tracks", utils.Fields{
				"format_id": d.ID,
				"ext":       deref(f.Ext),
			})
		}
		info.Descriptors = append(info.Descriptors, d)
	}
	return info, nil
}

// descriptor converts a yt-dlp format. Formats whose tracks cannot be inferred
// are reported as carrying neither video nor audio, so the resolver drops them,
// and classified is false.
func (f ytdlpFormat) descriptor() (d resolver.Descriptor, classified bool) {
	d = resolver.Descriptor{
		ID:         deref(f.FormatID),
		Container:  f.Ext,
		VideoCodec: f.VCodec,
		AudioCodec: f.ACodec,
	}
	if f.Height != nil {
		h := int(*f.Height)
		d.Height = &h
	}
	if size := firstPositive(f.Filesize, f.FilesizeApprox); size != nil {
		s := int64(*size)
		d.Filesize = &s
	}
	d.Bitrate = firstPositive(f.TBR, f.ABR, f.VBR)
	d.HasVideo, d.HasAudio = f.tracks()
	if d.HasVideo == nil && d.HasAudio == nil {
		d.HasVideo, d.HasAudio = boolPtr(false), boolPtr(false)
		return d, false
	}
	return d, true
}

// tracks reports which media tracks the format carries. Codec fields win;
// when yt-dlp leaves them out (Instagram, some TikTok streams) audio keywords
// in the id or note, then dimensions, then the extension decide. Both nil
// means nothing could be inferred.
func (f ytdlpFormat) tracks() (hasVideo, hasAudio *bool) {
	if f.unusable() {
		return boolPtr(false), boolPtr(false)
	}

	hasVideo = codecPresence(f.VCodec)
	hasAudio = codecPresence(f.ACodec)
	if hasVideo != nil && hasAudio != nil {
		return hasVideo, hasAudio
	}

	ext := strings.ToLower(deref(f.Ext))
	hasDims := derefFloat(f.Height) > 0 || derefFloat(f.Width) > 0
	switch {
	case f.audioKeyword():
		if hasVideo == nil {
			hasVideo = boolPtr(false)
		}
		if hasAudio == nil {
			hasAudio = boolPtr(true)
		}
	case audioExtensions[ext] && !hasDims:
		if hasVideo == nil {
			hasVideo = boolPtr(false)
		}
		if hasAudio == nil {
			hasAudio = boolPtr(true)
		}
	case hasDims:
		if hasVideo == nil {
			hasVideo = boolPtr(true)
		}
		if hasAudio == nil {
			hasAudio = boolPtr(true)
		}
	}
	return hasVideo, hasAudio
}

func (f ytdlpFormat) audioKeyword() bool {
	id := strings.ToLower(deref(f.FormatID))
	note := strings.ToLower(deref(f.FormatNote))
	for _, keyword := range audioKeywords {
		if strings.Contains(id, keyword) || strings.Contains(note, keyword) {
			return true
		}
	}
	return false
}

// unusable marks storyboards, DRC audio duplicates, page archives and
// TikTok's watermarked "download" rendition.
func (f ytdlpFormat) unusable() bool {
	id := strings.ToLower(deref(f.FormatID))
	ext := strings.ToLower(deref(f.Ext))
	hasDims := derefFloat(f.Height) > 0 || derefFloat(f.Width) > 0

	switch {
	case ext == "mhtml" || ext == "3gp":
		return true
	case strings.ToLower(deref(f.Protocol)) == "mhtml":
		return true
	case storyboardID.MatchString(id) || strings.Contains(id, "storyboard") || strings.Contains(id, "-drc"):
		return true
	case id == "download":
		return true
	case (id == "sd" || id == "hd") && !hasDims:
		return true
	}
	return false
}

func codecPresence(codec *string) *bool {
	if codec == nil {
		return nil
	}
	switch v := strings.ToLower(strings.TrimSpace(*codec)); v {
	case "", "unknown":
		return nil
	case "none":
		return boolPtr(false)
	}
	return boolPtr(true)
}

// classifyRunError maps a failed yt-dlp run onto the extractor error kinds
func classifyRunError(ctx context.Context, res *ytdlp.Result, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: yt-dlp timed out: %v", ErrExtractionFailed, ctx.Err())
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, ctx.Err())
	}

	stderr := ""
	if res != nil {
		stderr = res.Stderr
	}
	detail := lastErrorLine(stderr)
	if detail == "" {
		detail = err.Error()
	}

	if strings.Contains(stderr, "Unsupported URL") || strings.Contains(err.Error(), "Unsupported URL") {
		return fmt.Errorf("%w: %s", ErrUnsupportedURL, detail)
	}
	return fmt.Errorf("%w: %s", ErrExtractionFailed, detail)
}

func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "ERROR:") {
			return strings.TrimSpace(lines[i])
		}
	}
	if len(lines) > 0 {
		return strings.TrimSpace(lines[len(lines)-1])
	}
	return ""
}

// locateOutput finds the file yt-dlp wrote for prefix, skipping partials
func locateOutput(dir, prefix string) (string, error) {
	candidates, err := filepath.Glob(filepath.Join(dir, prefix+".*"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	candidates = slices.DeleteFunc(candidates, func(p string) bool {
		ext := filepath.Ext(p)
		if ext == ".part" || ext == ".ytdl" || strings.Contains(filepath.Base(p), ".part-Frag") {
			return true
		}
		st, err := os.Stat(p)
		return err != nil || st.IsDir()
	})
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: yt-dlp produced no output file", ErrExtractionFailed)
	}

	slices.Sort(candidates)
	return candidates[0], nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func safeName(s string) string {
	if cleaned := unsafeNameChars.ReplaceAllString(s, "_"); cleaned != "" {
		return cleaned
	}
	return "stream"
}

func firstPositive(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil && *v > 0 {
			return v
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func boolPtr(b bool) *bool {
	return &b
}
