package extractor

import (
	"context"
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPlatform(t *testing.T) {
	testCases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ": "YouTube",
		"https://youtu.be/dQw4w9WgXcQ":                "YouTube",
		"https://www.instagram.com/reel/C1a2b3c4/":    "Instagram",
		"https://vm.tiktok.com/ZMabc/":                "TikTok",
		"https://fb.watch/abc123/":                    "Facebook",
		"https://x.com/user/status/1":                 "Twitter",
		"https://vimeo.com/123456":                    "Vimeo",
		"https://notyoutube.com/watch?v=dQw4w9WgXcQ":  "",
		"https://example.com/video.mp4":               "",
		"://bad":                                      "",
	}

	for rawURL, want := range testCases {
		assert.Equal(t, want, DetectPlatform(rawURL), rawURL)
	}
}

func TestIsYouTubeURL(t *testing.T) {
	assert.True(t, IsYouTubeURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.True(t, IsYouTubeURL("https://m.youtube.com/watch?feature=share&v=dQw4w9WgXcQ"))
	assert.True(t, IsYouTubeURL("https://youtube.com/shorts/abc123"))
	assert.True(t, IsYouTubeURL("https://youtu.be/dQw4w9WgXcQ"))
	assert.False(t, IsYouTubeURL("https://www.youtube.com/@channel"))
	assert.False(t, IsYouTubeURL("https://vimeo.com/123456"))
}

func TestNativeDescriptor(t *testing.T) {
	t.Run("progressive stream", func(t *testing.T) {
		d := nativeDescriptor(youtube.Format{
			ItagNo:        18,
			MimeType:      `video/mp4; codecs="avc1.42001E, mp4a.40.2"`,
			Height:        360,
			AudioChannels: 2,
			Bitrate:       503000,
		})

		assert.Equal(t, "18", d.ID)
		require.NotNil(t, d.Container)
		assert.Equal(t, "mp4", *d.Container)
		assert.True(t, *d.HasVideo)
		assert.True(t, *d.HasAudio)
		assert.Equal(t, "avc1.42001E", *d.VideoCodec)
		assert.Equal(t, "mp4a.40.2", *d.AudioCodec)
		assert.Equal(t, 360, *d.Height)
		assert.Nil(t, d.Filesize)
		assert.InDelta(t, 503.0, *d.Bitrate, 0.001)
	})

	t.Run("adaptive audio", func(t *testing.T) {
		d := nativeDescriptor(youtube.Format{
			ItagNo:         140,
			MimeType:       `audio/mp4; codecs="mp4a.40.2"`,
			ContentLength:  3444000,
			Bitrate:        130000,
			AverageBitrate: 129500,
			AudioChannels:  2,
		})

		assert.Equal(t, "m4a", *d.Container)
		assert.False(t, *d.HasVideo)
		assert.True(t, *d.HasAudio)
		assert.Nil(t, d.VideoCodec)
		assert.Equal(t, int64(3444000), *d.Filesize)
		assert.InDelta(t, 129.5, *d.Bitrate, 0.001)
	})

	t.Run("adaptive video", func(t *testing.T) {
		d := nativeDescriptor(youtube.Format{
			ItagNo:   248,
			MimeType: `video/webm; codecs="vp9"`,
			Height:   1080,
		})

		assert.Equal(t, "webm", *d.Container)
		assert.True(t, *d.HasVideo)
		assert.False(t, *d.HasAudio)
		assert.Nil(t, d.AudioCodec)
	})
}

type stubExtractor struct {
	name  string
	calls []string
}

func (s *stubExtractor) Probe(_ context.Context, url string) (*MediaInfo, error) {
	s.calls = append(s.calls, "probe "+url)
	return &MediaInfo{Platform: s.name}, nil
}

func (s *stubExtractor) Fetch(_ context.Context, url, formatID, _ string) (string, error) {
	s.calls = append(s.calls, "fetch "+formatID)
	return s.name + "/" + formatID, nil
}

func TestRouter(t *testing.T) {
	general := &stubExtractor{name: "general"}
	native := &stubExtractor{name: "native"}
	r := NewRouter(general, native)
	ctx := context.Background()

	info, err := r.Probe(ctx, "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "native", info.Platform)

	info, err = r.Probe(ctx, "https://vimeo.com/1")
	require.NoError(t, err)
	assert.Equal(t, "general", info.Platform)

	path, err := r.Fetch(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "140", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "native/140", path)

	t.Run("without native client", func(t *testing.T) {
		r := NewRouter(general, nil)
		info, err := r.Probe(ctx, "https://youtu.be/dQw4w9WgXcQ")
		require.NoError(t, err)
		assert.Equal(t, "general", info.Platform)
	})
}
