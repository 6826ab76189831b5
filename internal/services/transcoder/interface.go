package transcoder

import (
	"context"
	"errors"
)

// ErrTranscodeFailed is returned for any muxing or conversion failure
var ErrTranscodeFailed = errors.New("transcode failed")

// Transcoder combines and converts downloaded streams
type Transcoder interface {
	// Mux combines a video-only and an audio-only file into one playable file
	Mux(ctx context.Context, videoPath, audioPath string) (string, error)

	// ToAudio converts any media file into an MP3 at the given bitrate
	ToAudio(ctx context.Context, inputPath string, bitrateKbps int) (string, error)
}
