package transcoder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/denisAlshanov/vidgrab/internal/config"
)

const (
	DefaultTimeout     = 10 * time.Minute
	DefaultBitrateKbps = 320
)

// FFmpeg runs the ffmpeg executable
type FFmpeg struct {
	binary  string
	timeout time.Duration
}

func NewFFmpeg(cfg *config.TranscodeConfig) *FFmpeg {
	f := &FFmpeg{binary: cfg.FFmpegPath, timeout: cfg.Timeout}
	if f.binary == "" {
		f.binary = "ffmpeg"
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	return f
}

// Available reports whether the ffmpeg binary can be found
func (f *FFmpeg) Available() error {
	_, err := exec.LookPath(f.binary)
	return err
}

// Mux merges the two streams without re-encoding video. MP4 video keeps an
// MP4 container with the audio re-encoded to AAC; everything else goes to MKV.
func (f *FFmpeg) Mux(ctx context.Context, videoPath, audioPath string) (string, error) {
	outputPath, args := muxArgs(videoPath, audioPath)
	if err := f.run(ctx, args); err != nil {
		return "", err
	}
	return outputPath, nil
}

// ToAudio strips video and encodes the audio track as MP3
func (f *FFmpeg) ToAudio(ctx context.Context, inputPath string, bitrateKbps int) (string, error) {
	outputPath, args := audioArgs(inputPath, bitrateKbps)
	if err := f.run(ctx, args); err != nil {
		return "", err
	}
	return outputPath, nil
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	if err := f.Available(); err != nil {
		return fmt.Errorf("%w: ffmpeg not found: %v", ErrTranscodeFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: ffmpeg timed out after %s", ErrTranscodeFailed, f.timeout)
		}
		return fmt.Errorf("%w: %v, output: %s", ErrTranscodeFailed, err, tail(string(output), 512))
	}
	return nil
}

// Audio containers that already carry AAC and can go into mp4 as is
var aacAudio = map[string]bool{".m4a": true, ".aac": true, ".mp4": true}

func muxArgs(videoPath, audioPath string) (string, []string) {
	dir := filepath.Dir(videoPath)
	if strings.EqualFold(filepath.Ext(videoPath), ".mp4") {
		audioCodec := "aac"
		if aacAudio[strings.ToLower(filepath.Ext(audioPath))] {
			audioCodec = "copy"
		}
		outputPath := filepath.Join(dir, "muxed.mp4")
		return outputPath, []string{
			"-hide_banner", "-loglevel", "error",
			"-i", videoPath,
			"-i", audioPath,
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-c:v", "copy",
			"-c:a", audioCodec,
			"-movflags", "+faststart",
			"-y",
			outputPath,
		}
	}

	outputPath := filepath.Join(dir, "muxed.mkv")
	return outputPath, []string{
		"-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", "copy",
		"-y",
		outputPath,
	}
}

func audioArgs(inputPath string, bitrateKbps int) (string, []string) {
	if bitrateKbps <= 0 {
		bitrateKbps = DefaultBitrateKbps
	}
	outputPath := filepath.Join(filepath.Dir(inputPath), "audio.mp3")
	return outputPath, []string{
		"-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", strconv.Itoa(bitrateKbps) + "k",
		"-y",
		outputPath,
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
