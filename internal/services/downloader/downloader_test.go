package downloader

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisAlshanov/vidgrab/internal/config"
	"github.com/denisAlshanov/vidgrab/internal/models"
	"github.com/denisAlshanov/vidgrab/internal/services/extractor"
	"github.com/denisAlshanov/vidgrab/internal/services/resolver"
	"github.com/denisAlshanov/vidgrab/internal/services/transcoder"
	"github.com/denisAlshanov/vidgrab/internal/utils"
)

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type fakeExtractor struct {
	mu         sync.Mutex
	info       *extractor.MediaInfo
	probeErrs  []error
	probeCalls int
	fetchErrs  map[string]error
	fetched    []string
	blockFetch bool
}

func (f *fakeExtractor) Probe(_ context.Context, _ string) (*extractor.MediaInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.probeCalls++
	if len(f.probeErrs) > 0 {
		err := f.probeErrs[0]
		f.probeErrs = f.probeErrs[1:]
		return nil, err
	}
	return f.info, nil
}

func (f *fakeExtractor) Fetch(ctx context.Context, _ string, formatID, destDir string) (string, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, formatID)
	err := f.fetchErrs[formatID]
	f.mu.Unlock()

	if f.blockFetch {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}

	ext := "mp4"
	for _, d := range f.info.Descriptors {
		if d.ID == formatID && d.Container != nil {
			ext = *d.Container
		}
	}
	path := filepath.Join(destDir, "stream-"+formatID+"."+ext)
	return path, os.WriteFile(path, []byte("media:"+formatID), 0o644)
}

type fakeTranscoder struct {
	mu      sync.Mutex
	err     error
	muxed   [][2]string
	audio   []string
	bitrate int
}

func (f *fakeTranscoder) Mux(_ context.Context, videoPath, audioPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.muxed = append(f.muxed, [2]string{filepath.Base(videoPath), filepath.Base(audioPath)})
	if f.err != nil {
		return "", f.err
	}
	out := filepath.Join(filepath.Dir(videoPath), "muxed.mp4")
	return out, os.WriteFile(out, []byte("muxed"), 0o644)
}

func (f *fakeTranscoder) ToAudio(_ context.Context, inputPath string, bitrateKbps int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.audio = append(f.audio, filepath.Base(inputPath))
	f.bitrate = bitrateKbps
	if f.err != nil {
		return "", f.err
	}
	out := filepath.Join(filepath.Dir(inputPath), "audio.mp3")
	return out, os.WriteFile(out, []byte("ID3"), 0o644)
}

func desc(id, container string, height int, hasVideo, hasAudio bool, kbps float64) resolver.Descriptor {
	d := resolver.Descriptor{ID: id, Container: &container, HasVideo: &hasVideo, HasAudio: &hasAudio}
	if height > 0 {
		d.Height = &height
	}
	if kbps > 0 {
		d.Bitrate = &kbps
	}
	return d
}

func sampleInfo() *extractor.MediaInfo {
	return &extractor.MediaInfo{
		ID:       "dQw4w9WgXcQ",
		Title:    "My: Video",
		Platform: "YouTube",
		Descriptors: []resolver.Descriptor{
			desc("18", "mp4", 360, true, true, 0),
			desc("22", "mp4", 720, true, true, 0),
			desc("137", "mp4", 1080, true, false, 0),
			desc("140", "m4a", 0, false, true, 129),
			desc("251", "webm", 0, false, true, 160),
		},
	}
}

func newTestDownloader(t *testing.T, ext extractor.Extractor, tc transcoder.Transcoder) (*Downloader, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "work")
	d, err := NewDownloader(ext, tc, &config.Config{
		Extractor: config.ExtractorConfig{ProbeRetries: 2},
		Transcode: config.TranscodeConfig{AudioBitrateKbps: 320},
		Download: config.DownloadConfig{
			TempDir:            root,
			AudioPairingPolicy: "highest-bitrate",
		},
	})
	require.NoError(t, err)
	d.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return d, root
}

func assertNoWorkspaces(t *testing.T, root string) {
	t.Helper()

	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)
	assert.Empty(t, entries, "workspace left behind")
}

func appErr(t *testing.T, err error) *utils.AppError {
	t.Helper()

	var ae *utils.AppError
	require.True(t, errors.As(err, &ae), "expected *utils.AppError, got %T: %v", err, err)
	return ae
}

func noDeliver(t *testing.T) DeliverFunc {
	return func(context.Context, *Result) error {
		t.Fatal("deliver must not be called")
		return nil
	}
}

func TestGetFormats(t *testing.T) {
	ext := &fakeExtractor{info: sampleInfo()}
	d, _ := newTestDownloader(t, ext, &fakeTranscoder{})

	resp, err := d.GetFormats(context.Background(), testURL)
	require.NoError(t, err)

	var got []string
	for _, f := range resp.Formats {
		got = append(got, f.ID)
	}
	assert.Equal(t, []string{"22", "18", "137", "140", "251"}, got)
	assert.Equal(t, "My: Video", resp.Title)
	require.Len(t, resp.Conversions, 1)
	assert.Equal(t, models.ConversionMP3, resp.Conversions[0].FormatID)
	assert.Equal(t, "MP3 320kbps", resp.Conversions[0].Label)
}

func TestGetFormatsErrors(t *testing.T) {
	testCases := []struct {
		name      string
		url       string
		extractor *fakeExtractor
		code      utils.ErrorCode
		status    int
	}{
		{
			name:      "invalid url",
			url:       "ftp://example.com/a",
			extractor: &fakeExtractor{info: sampleInfo()},
			code:      utils.ErrorCodeValidationError,
			status:    http.StatusBadRequest,
		},
		{
			name:      "unsupported url",
			url:       "https://example.com/page",
			extractor: &fakeExtractor{probeErrs: []error{extractor.ErrUnsupportedURL}},
			code:      utils.ErrorCodeUnsupportedURL,
			status:    http.StatusBadRequest,
		},
		{
			name: "empty catalog",
			url:  testURL,
			extractor: &fakeExtractor{info: &extractor.MediaInfo{Descriptors: []resolver.Descriptor{
				desc("sb0", "mhtml", 0, false, false, 0),
			}}},
			code:   utils.ErrorCodeNoUsableFormat,
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "malformed descriptor",
			url:  testURL,
			extractor: &fakeExtractor{info: &extractor.MediaInfo{Descriptors: []resolver.Descriptor{
				{ID: "x"},
			}}},
			code:   utils.ErrorCodeMalformedDescriptor,
			status: http.StatusBadGateway,
		},
		{
			name: "extraction keeps failing",
			url:  testURL,
			extractor: &fakeExtractor{probeErrs: []error{
				extractor.ErrExtractionFailed, extractor.ErrExtractionFailed, extractor.ErrExtractionFailed,
			}},
			code:   utils.ErrorCodeExtractionFailed,
			status: http.StatusBadGateway,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, _ := newTestDownloader(t, tc.extractor, &fakeTranscoder{})

			_, err := d.GetFormats(context.Background(), tc.url)
			ae := appErr(t, err)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.status, ae.StatusCode)
		})
	}
}

func TestGetFormatsRetries(t *testing.T) {
	t.Run("transient failure is retried", func(t *testing.T) {
		ext := &fakeExtractor{info: sampleInfo(), probeErrs: []error{extractor.ErrExtractionFailed}}
		d, _ := newTestDownloader(t, ext, &fakeTranscoder{})

		_, err := d.GetFormats(context.Background(), testURL)
		require.NoError(t, err)
		assert.Equal(t, 2, ext.probeCalls)
	})

	t.Run("unsupported url is not retried", func(t *testing.T) {
		ext := &fakeExtractor{probeErrs: []error{extractor.ErrUnsupportedURL}}
		d, _ := newTestDownloader(t, ext, &fakeTranscoder{})

		_, err := d.GetFormats(context.Background(), "https://example.com/page")
		require.Error(t, err)
		assert.Equal(t, 1, ext.probeCalls)
	})
}

func TestDownloadBest(t *testing.T) {
	ext := &fakeExtractor{info: sampleInfo()}
	d, root := newTestDownloader(t, ext, &fakeTranscoder{})

	var delivered Result
	err := d.Download(context.Background(), &models.DownloadRequest{URL: testURL}, func(_ context.Context, r *Result) error {
		data, err := os.ReadFile(r.Path)
		require.NoError(t, err)
		assert.Equal(t, "media:22", string(data))
		delivered = *r
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"22"}, ext.fetched)
	assert.Equal(t, "My_ Video.mp4", delivered.FileName)
	assert.Equal(t, "video/mp4", delivered.ContentType)
	assert.Equal(t, int64(len("media:22")), delivered.Size)
	assert.Equal(t, resolver.KindVideoAudio, delivered.Kind)

	_, err = os.Stat(delivered.Path)
	assert.True(t, os.IsNotExist(err))
	assertNoWorkspaces(t, root)
}

func TestDownloadExplicitFormat(t *testing.T) {
	ext := &fakeExtractor{info: sampleInfo()}
	tc := &fakeTranscoder{}
	d, root := newTestDownloader(t, ext, tc)

	err := d.Download(context.Background(), &models.DownloadRequest{URL: testURL, FormatID: "18"}, func(_ context.Context, r *Result) error {
		assert.Equal(t, "18", r.FormatID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"18"}, ext.fetched)
	assert.Empty(t, tc.muxed)
	assertNoWorkspaces(t, root)
}

func TestDownloadFormatNotFound(t *testing.T) {
	ext := &fakeExtractor{info: sampleInfo()}
	d, root := newTestDownloader(t, ext, &fakeTranscoder{})

	err := d.Download(context.Background(), &models.DownloadRequest{URL: testURL, FormatID: "nonexistent"}, noDeliver(t))
	ae := appErr(t, err)
	assert.Equal(t, utils.ErrorCodeFormatNotFound, ae.Code)
	assert.Equal(t, http.StatusNotFound, ae.StatusCode)
	assert.Empty(t, ext.fetched)
	assertNoWorkspaces(t, root)
}

func TestDownloadVideoOnlyIsMuxed(t *testing.T) {
	ext := &fakeExtractor{info: sampleInfo()}
	tc := &fakeTranscoder{}
	d, root := newTestDownloader(t, ext, tc)

	var delivered Result
	err := d.Download(context.Background(), &models.DownloadRequest{URL: testURL, FormatID: "137"}, func(_ context.Context, r *Result) error {
		delivered = *r
		return nil
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"137", "251"}, ext.fetched)
	require.Len(t, tc.muxed, 1)
	assert.Equal(t, [2]string{"stream-137.mp4", "stream-251.webm"}, tc.muxed[0])
	assert.Equal(t, resolver.KindVideoAudio, delivered.Kind)
	assert.Equal(t, "My_ Video.mp4", delivered.FileName)
	assertNoWorkspaces(t, root)
}

func TestDownloadVideoOnlyWithoutAudio(t *testing.T) {
	ext := &fakeExtractor{info: &extractor.MediaInfo{Descriptors: []resolver.Descriptor{
		desc("137", "mp4", 1080, true, false, 0),
	}}}
	d, root := newTestDownloader(t, ext, &fakeTranscoder{})

	err := d.Download(context.Background(), &models.DownloadRequest{URL: testURL}, noDeliver(t))
	assert.Equal(t, utils.ErrorCodeNoUsableFormat, appErr(t, err).Code)
	assert.Empty(t, ext.fetched)
	assertNoWorkspaces(t, root)
}

func TestDownloadAudioOnly(t *testing.T) {
	for _, req := range []*models.DownloadRequest{
		{URL: testURL, AudioOnly: true},
		{URL: testURL, FormatID: models.ConversionMP3},
		{URL: testURL, FormatID: "22", AudioOnly: true},
	} {
		t.Run(req.FormatID, func(t *testing.T) {
			ext := &fakeExtractor{info: sampleInfo()}
			tc := &fakeTranscoder{}
			d, root := newTestDownloader(t, ext, tc)

			var delivered Result
			err := d.Download(context.Background(), req, func(_ context.Context, r *Result) error {
				delivered = *r
				return nil
			})
			require.NoError(t, err)

			assert.Equal(t, []string{"251"}, ext.fetched)
			assert.Equal(t, []string{"stream-251.webm"}, tc.audio)
			assert.Equal(t, 320, tc.bitrate)
			assert.Equal(t, "My_ Video.mp3", delivered.FileName)
			assert.Equal(t, "audio/mpeg", delivered.ContentType)
			assert.Equal(t, resolver.KindAudioOnly, delivered.Kind)
			assertNoWorkspaces(t, root)
		})
	}
}

func TestDownloadCleansUpOnFailure(t *testing.T) {
	t.Run("fetch failure", func(t *testing.T) {
		ext := &fakeExtractor{info: sampleInfo(), fetchErrs: map[string]error{"251": extractor.ErrExtractionFailed}}
		d, root := newTestDownloader(t, ext, &fakeTranscoder{})

		err := d.Download(context.Background(), &models.DownloadRequest{URL: testURL, FormatID: "137"}, noDeliver(t))
		assert.Equal(t, utils.ErrorCodeExtractionFailed, appErr(t, err).Code)
		assertNoWorkspaces(t, root)
	})

	t.Run("transcode failure", func(t *testing.T) {
		ext := &fakeExtractor{info: sampleInfo()}
		tc := &fakeTranscoder{err: transcoder.ErrTranscodeFailed}
		d, root := newTestDownloader(t, ext, tc)

		err := d.Download(context.Background(), &models.DownloadRequest{URL: testURL, AudioOnly: true}, noDeliver(t))
		ae := appErr(t, err)
		assert.Equal(t, utils.ErrorCodeTranscodeFailed, ae.Code)
		assert.Equal(t, http.StatusBadGateway, ae.StatusCode)
		assert.True(t, errors.Is(err, transcoder.ErrTranscodeFailed))
		assertNoWorkspaces(t, root)
	})

	t.Run("deadline while fetching", func(t *testing.T) {
		ext := &fakeExtractor{info: sampleInfo(), blockFetch: true}
		d, root := newTestDownloader(t, ext, &fakeTranscoder{})

		ctx, cancel := context.WithTimeout(context.Background(), 0)
		defer cancel()

		err := d.Download(ctx, &models.DownloadRequest{URL: testURL, FormatID: "22"}, noDeliver(t))
		assert.Equal(t, utils.ErrorCodeExtractionFailed, appErr(t, err).Code)
		assertNoWorkspaces(t, root)
	})

	t.Run("delivery failure", func(t *testing.T) {
		ext := &fakeExtractor{info: sampleInfo()}
		d, root := newTestDownloader(t, ext, &fakeTranscoder{})
		deliverErr := utils.NewStorageError(errors.New("bucket gone"))

		err := d.Download(context.Background(), &models.DownloadRequest{URL: testURL}, func(context.Context, *Result) error {
			return deliverErr
		})
		assert.Equal(t, deliverErr, err)
		assertNoWorkspaces(t, root)
	})
}

func TestDownloadFileTooLarge(t *testing.T) {
	ext := &fakeExtractor{info: sampleInfo()}
	d, root := newTestDownloader(t, ext, &fakeTranscoder{})
	d.config.MaxFileSize = 4

	err := d.Download(context.Background(), &models.DownloadRequest{URL: testURL}, noDeliver(t))
	ae := appErr(t, err)
	assert.Equal(t, utils.ErrorCodeExtractionFailed, ae.Code)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
	assertNoWorkspaces(t, root)
}

func TestNewDownloaderRejectsUnknownPolicy(t *testing.T) {
	_, err := NewDownloader(&fakeExtractor{}, &fakeTranscoder{}, &config.Config{
		Download: config.DownloadConfig{AudioPairingPolicy: "loudest"},
	})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "loudest"))
}

func TestPlanFormatID(t *testing.T) {
	video := resolver.Format{ID: "137", Kind: resolver.KindVideoOnly}
	audio := resolver.Format{ID: "251", Kind: resolver.KindAudioOnly}

	assert.Equal(t, "137+251", (&plan{primary: video, audio: &audio}).formatID())
	assert.Equal(t, "251", (&plan{primary: audio, toMP3: true}).formatID())
}
