package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/denisAlshanov/vidgrab/internal/config"
	"github.com/denisAlshanov/vidgrab/internal/models"
	"github.com/denisAlshanov/vidgrab/internal/services/extractor"
	"github.com/denisAlshanov/vidgrab/internal/services/resolver"
	"github.com/denisAlshanov/vidgrab/internal/services/transcoder"
	"github.com/denisAlshanov/vidgrab/internal/utils"
)

// ErrFileTooLarge is returned when a finished download exceeds MAX_FILE_SIZE
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// Result describes the final file of a download. Path is only valid while the
// DeliverFunc runs.
type Result struct {
	Path        string
	FileName    string
	ContentType string
	Size        int64
	FormatID    string
	Kind        resolver.Kind
}

// DeliverFunc hands the finished file to the caller before the workspace is removed
type DeliverFunc func(ctx context.Context, result *Result) error

// plan is the resolved set of streams for one download
type plan struct {
	primary resolver.Format
	audio   *resolver.Format
	toMP3   bool
}

// formatID names the fetched streams the way yt-dlp selectors do, e.g. "137+251"
func (p *plan) formatID() string {
	if p.audio != nil {
		return p.primary.ID + "+" + p.audio.ID
	}
	return p.primary.ID
}

type Downloader struct {
	extractor    extractor.Extractor
	transcoder   transcoder.Transcoder
	config       *config.DownloadConfig
	policy       resolver.AudioPolicy
	bitrateKbps  int
	probeRetries int
	newBackOff   func() backoff.BackOff
}

func NewDownloader(ext extractor.Extractor, tc transcoder.Transcoder, cfg *config.Config) (*Downloader, error) {
	policy, err := resolver.ParseAudioPolicy(cfg.Download.AudioPairingPolicy)
	if err != nil {
		return nil, err
	}

	bitrate := cfg.Transcode.AudioBitrateKbps
	if bitrate <= 0 {
		bitrate = transcoder.DefaultBitrateKbps
	}

	return &Downloader{
		extractor:    ext,
		transcoder:   tc,
		config:       &cfg.Download,
		policy:       policy,
		bitrateKbps:  bitrate,
		probeRetries: max(cfg.Extractor.ProbeRetries, 0),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}, nil
}

// GetFormats probes the URL and returns its ordered format catalog
func (d *Downloader) GetFormats(ctx context.Context, link string) (*models.FormatsResponse, error) {
	if err := validateURL(link); err != nil {
		return nil, err
	}
	ctx = utils.WithMediaURL(ctx, link)

	info, err := d.probe(ctx, link)
	if err != nil {
		return nil, d.classify(ctx, link, err)
	}

	catalog, err := resolver.ListFormats(info.Descriptors)
	if err != nil {
		return nil, d.classify(ctx, link, err)
	}
	if len(catalog) == 0 {
		return nil, d.classify(ctx, link, resolver.ErrNoUsableFormat)
	}

	resp := &models.FormatsResponse{
		ID:          info.ID,
		Title:       info.Title,
		Duration:    info.Duration,
		Thumbnail:   info.Thumbnail,
		Uploader:    info.Uploader,
		WebpageURL:  info.WebpageURL,
		Platform:    info.Platform,
		Formats:     catalog,
		Conversions: []models.Conversion{},
	}
	if _, err := resolver.BestAudioSource(catalog); err == nil {
		resp.Conversions = append(resp.Conversions, models.Conversion{
			FormatID:  models.ConversionMP3,
			Label:     fmt.Sprintf("MP3 %dkbps", d.bitrateKbps),
			Container: resolver.DefaultAudioContainer,
			Bitrate:   d.bitrateKbps,
		})
	}

	utils.LogInfo(ctx, "Listed formats", utils.Fields{
		"platform": info.Platform,
		"formats":  len(catalog),
	})

	return resp, nil
}

// Download resolves, fetches and post-processes one file and passes it to
// deliver. The request workspace is removed before Download returns, whatever
// the outcome.
func (d *Downloader) Download(ctx context.Context, req *models.DownloadRequest, deliver DeliverFunc) error {
	if err := validateURL(req.URL); err != nil {
		return err
	}
	ctx = utils.WithMediaURL(ctx, req.URL)

	info, err := d.probe(ctx, req.URL)
	if err != nil {
		return d.classify(ctx, req.URL, err)
	}

	p, err := d.plan(req, info.Descriptors)
	if err != nil {
		return d.classify(ctx, req.URL, err)
	}
	ctx = utils.WithFormatID(ctx, p.formatID())

	ws, err := newWorkspace(d.config.TempDir)
	if err != nil {
		utils.LogError(ctx, "Failed to create workspace", err)
		return utils.AsAppError(err)
	}
	defer ws.remove(ctx)

	path, err := d.execute(ctx, req.URL, p, ws.dir)
	if err != nil {
		return d.classify(ctx, req.URL, err)
	}

	result, err := d.describe(path, info.Title, p)
	if err != nil {
		return d.classify(ctx, req.URL, err)
	}

	utils.LogInfo(ctx, "Download ready", utils.Fields{
		"kind":      result.Kind,
		"size":      result.Size,
	})

	return deliver(ctx, result)
}

// plan resolves the request against the probed descriptors. Pairing and the
// audio source use the full normalized list: the deduplicated catalog keeps
// the first-seen stream per key, which is not necessarily the best one.
func (d *Downloader) plan(req *models.DownloadRequest, descs []resolver.Descriptor) (*plan, error) {
	formats, err := resolver.Normalize(descs)
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return nil, resolver.ErrNoUsableFormat
	}

	if req.WantsAudio() {
		source, err := resolver.BestAudioSource(formats)
		if err != nil {
			return nil, err
		}
		return &plan{primary: source, toMP3: true}, nil
	}

	var selected resolver.Format
	if req.FormatID != "" {
		f, ok := resolver.Find(formats, req.FormatID)
		if !ok {
			return nil, utils.NewFormatNotFoundError(req.FormatID, nil)
		}
		selected = f
	} else {
		catalog, err := resolver.ListFormats(descs)
		if err != nil {
			return nil, err
		}
		if selected, err = resolver.PickBest(catalog); err != nil {
			return nil, err
		}
	}

	p := &plan{primary: selected}
	if selected.Kind == resolver.KindVideoOnly {
		audio, err := resolver.PickAudio(formats, selected, d.policy)
		if err != nil {
			return nil, err
		}
		p.audio = &audio
	}
	return p, nil
}

func (d *Downloader) execute(ctx context.Context, link string, p *plan, dir string) (string, error) {
	switch {
	case p.toMP3:
		source, err := d.extractor.Fetch(ctx, link, p.primary.ID, dir)
		if err != nil {
			return "", err
		}
		return d.transcoder.ToAudio(ctx, source, d.bitrateKbps)

	case p.audio != nil:
		var videoPath, audioPath string
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			videoPath, err = d.extractor.Fetch(gctx, link, p.primary.ID, dir)
			return err
		})
		g.Go(func() error {
			var err error
			audioPath, err = d.extractor.Fetch(gctx, link, p.audio.ID, dir)
			return err
		})
		if err := g.Wait(); err != nil {
			return "", err
		}
		return d.transcoder.Mux(ctx, videoPath, audioPath)

	default:
		return d.extractor.Fetch(ctx, link, p.primary.ID, dir)
	}
}

func (d *Downloader) describe(path, title string, p *plan) (*Result, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat output: %w", err)
	}
	if d.config.MaxFileSize > 0 && st.Size() > d.config.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, st.Size())
	}

	kind := p.primary.Kind
	if p.toMP3 {
		kind = resolver.KindAudioOnly
	} else if p.audio != nil {
		kind = resolver.KindVideoAudio
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		ext = p.primary.Container
	}

	return &Result{
		Path:        path,
		FileName:    sanitizeFileName(title, ext),
		ContentType: contentType(path, ext, kind),
		Size:        st.Size(),
		FormatID:    p.primary.ID,
		Kind:        kind,
	}, nil
}

// probe retries transient extraction failures with exponential backoff
func (d *Downloader) probe(ctx context.Context, link string) (*extractor.MediaInfo, error) {
	var info *extractor.MediaInfo
	operation := func() error {
		var err error
		info, err = d.extractor.Probe(ctx, link)
		if err != nil && !errors.Is(err, extractor.ErrExtractionFailed) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(d.newBackOff(), uint64(d.probeRetries)), ctx)
	err := backoff.RetryNotify(operation, b, func(err error, wait time.Duration) {
		utils.LogWarn(ctx, "Probe failed, retrying", utils.Fields{
			"url":   link,
			"error": err.Error(),
			"wait":  wait.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// classify converts a collaborator failure into the matching AppError
func (d *Downloader) classify(ctx context.Context, link string, err error) *utils.AppError {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	fields := utils.Fields{"url": link}
	switch {
	case errors.Is(err, extractor.ErrUnsupportedURL):
		utils.LogWarn(ctx, "Unsupported URL", utils.Fields{"url": link, "error": err.Error()})
		return utils.NewUnsupportedURLError(link, err)
	case errors.Is(err, resolver.ErrMalformedDescriptor):
		utils.LogError(ctx, "Extractor returned a malformed descriptor", err, fields)
		return utils.NewMalformedDescriptorError(err)
	case errors.Is(err, resolver.ErrNoUsableFormat):
		utils.LogWarn(ctx, "No usable format", utils.Fields{"url": link, "error": err.Error()})
		return utils.NewNoUsableFormatError(err)
	case errors.Is(err, transcoder.ErrTranscodeFailed):
		utils.LogError(ctx, "Transcoding failed", err, fields)
		return utils.NewTranscodeError(err)
	case errors.Is(err, extractor.ErrExtractionFailed),
		errors.Is(err, ErrFileTooLarge),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		utils.LogError(ctx, "Extraction failed", err, fields)
		return utils.NewExtractionError(err)
	}

	utils.LogError(ctx, "Download failed", err, fields)
	internal := utils.NewInternalError()
	internal.Err = err
	return internal
}

func validateURL(link string) error {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return utils.NewValidationError("url must be an absolute http or https URL", map[string]interface{}{
			"provided": link,
		})
	}
	return nil
}
