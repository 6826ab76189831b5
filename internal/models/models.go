package models

import (
	"time"

	"github.com/denisAlshanov/vidgrab/internal/services/resolver"
)

// ConversionMP3 is the synthetic format id of the MP3 conversion. Requesting it
// is the same as setting audio_only.
const ConversionMP3 = "mp3_320"

type FormatsRequest struct {
	URL string `json:"url" binding:"required,url" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
}

type DownloadRequest struct {
	URL       string `json:"url" binding:"required,url" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
	FormatID  string `json:"format_id,omitempty" example:"22"`
	AudioOnly bool   `json:"audio_only,omitempty"`
}

// WantsAudio reports whether the request asks for the MP3 conversion
func (r *DownloadRequest) WantsAudio() bool {
	return r.AudioOnly || r.FormatID == ConversionMP3
}

type DownloadLinkRequest struct {
	DownloadRequest
	ExpiryMinutes int `json:"expiry_minutes,omitempty" binding:"omitempty,min=1,max=10080"`
}

type Conversion struct {
	FormatID  string `json:"format_id"`
	Label     string `json:"label"`
	Container string `json:"container"`
	Bitrate   int    `json:"bitrate"`
}

type FormatsResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Duration    float64           `json:"duration"`
	Thumbnail   string            `json:"thumbnail"`
	Uploader    string            `json:"uploader"`
	WebpageURL  string            `json:"webpage_url"`
	Platform    string            `json:"platform"`
	Formats     []resolver.Format `json:"formats"`
	Conversions []Conversion      `json:"conversions"`
}

type DownloadLinkResponse struct {
	URL         string    `json:"url"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ServiceInfoResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
	Platforms []string `json:"platforms"`
}
