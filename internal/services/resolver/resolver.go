// Package resolver turns the raw, platform-dependent format descriptors reported
// by an extractor into a deduplicated catalog with a deterministic total order,
// and picks formats out of that catalog.
package resolver

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

var (
	// ErrMalformedDescriptor means the extractor broke its contract: a
	// descriptor without an identifier or without any media-kind flag.
	ErrMalformedDescriptor = errors.New("malformed format descriptor")

	// ErrNoUsableFormat means there is nothing left to select from.
	ErrNoUsableFormat = errors.New("no usable format")
)

// Kind classifies a format by the media tracks it carries.
type Kind string

const (
	KindVideoAudio Kind = "video+audio"
	KindVideoOnly  Kind = "video-only"
	KindAudioOnly  Kind = "audio-only"
)

// priority orders kinds; lower sorts first.
func (k Kind) priority() int {
	switch k {
	case KindVideoAudio:
		return 0
	case KindVideoOnly:
		return 1
	default:
		return 2
	}
}

func (k Kind) HasVideo() bool {
	return k == KindVideoAudio || k == KindVideoOnly
}

const (
	DefaultVideoContainer = "mp4"
	DefaultAudioContainer = "mp3"
)

// Descriptor is a single raw stream as reported by an extractor. Nil pointers
// are fields the source platform did not report.
type Descriptor struct {
	ID         string
	Container  *string
	VideoCodec *string
	AudioCodec *string
	Height     *int
	Filesize   *int64
	Bitrate    *float64 // kbps
	HasVideo   *bool
	HasAudio   *bool
}

// Format is a normalized catalog entry.
type Format struct {
	ID         string `json:"format_id"`
	Label      string `json:"label"`
	Kind       Kind   `json:"kind"`
	Height     int    `json:"height"`
	Filesize   int64  `json:"filesize"`
	Container  string `json:"container"`
	Bitrate    int    `json:"bitrate"`
	VideoCodec string `json:"vcodec,omitempty"`
	AudioCodec string `json:"acodec,omitempty"`
}

// Normalize validates descriptors, drops the ones carrying neither video nor
// audio and fills every missing field with its default. Input order is kept.
func Normalize(descs []Descriptor) ([]Format, error) {
	formats := make([]Format, 0, len(descs))
	for i, d := range descs {
		if strings.TrimSpace(d.ID) == "" {
			return nil, fmt.Errorf("%w: descriptor %d has no identifier", ErrMalformedDescriptor, i)
		}
		if d.HasVideo == nil && d.HasAudio == nil {
			return nil, fmt.Errorf("%w: descriptor %d (%s) reports neither video nor audio presence", ErrMalformedDescriptor, i, d.ID)
		}

		hasVideo := boolValue(d.HasVideo)
		hasAudio := boolValue(d.HasAudio)
		if !hasVideo && !hasAudio {
			continue
		}

		f := Format{
			ID:         strings.TrimSpace(d.ID),
			Kind:       kindOf(hasVideo, hasAudio),
			Filesize:   max(int64Value(d.Filesize), 0),
			Bitrate:    bitrateValue(d.Bitrate),
			VideoCodec: codecValue(d.VideoCodec),
			AudioCodec: codecValue(d.AudioCodec),
		}
		if f.Kind.HasVideo() {
			f.Height = max(intValue(d.Height), 0)
		}
		f.Container = containerValue(d.Container, f.Kind)
		f.Label = label(f)

		formats = append(formats, f)
	}
	return formats, nil
}

// ListFormats builds the catalog: Normalize, then collapse entries sharing
// (height, kind, container) keeping the first seen, then sort by Compare.
func ListFormats(descs []Descriptor) ([]Format, error) {
	formats, err := Normalize(descs)
	if err != nil {
		return nil, err
	}

	type dedupKey struct {
		height    int
		kind      Kind
		container string
	}
	seen := make(map[dedupKey]struct{}, len(formats))
	catalog := make([]Format, 0, len(formats))
	for _, f := range formats {
		key := dedupKey{f.Height, f.Kind, f.Container}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		catalog = append(catalog, f)
	}

	slices.SortFunc(catalog, Compare)
	return catalog, nil
}

// Compare is the catalog total order: kind priority, height descending,
// filesize descending (unknown sizes last), then identifier ascending.
func Compare(a, b Format) int {
	if c := cmp.Compare(a.Kind.priority(), b.Kind.priority()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Height, a.Height); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Filesize, a.Filesize); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// PickBest returns the head of a catalog produced by ListFormats.
func PickBest(formats []Format) (Format, error) {
	if len(formats) == 0 {
		return Format{}, ErrNoUsableFormat
	}
	return formats[0], nil
}

// Find returns the catalog entry with the given identifier.
func Find(formats []Format, id string) (Format, bool) {
	for _, f := range formats {
		if f.ID == id {
			return f, true
		}
	}
	return Format{}, false
}

func kindOf(hasVideo, hasAudio bool) Kind {
	switch {
	case hasVideo && hasAudio:
		return KindVideoAudio
	case hasVideo:
		return KindVideoOnly
	default:
		return KindAudioOnly
	}
}

func label(f Format) string {
	if f.Kind.HasVideo() {
		return fmt.Sprintf("%dp %s", f.Height, strings.ToUpper(f.Container))
	}
	if f.Bitrate > 0 {
		return fmt.Sprintf("Audio %dkbps", f.Bitrate)
	}
	return "Audio"
}

func containerValue(c *string, kind Kind) string {
	if c != nil {
		if v := strings.ToLower(strings.TrimSpace(*c)); v != "" && v != "none" {
			return v
		}
	}
	if kind.HasVideo() {
		return DefaultVideoContainer
	}
	return DefaultAudioContainer
}

func codecValue(c *string) string {
	if c == nil {
		return ""
	}
	v := strings.TrimSpace(*c)
	if strings.EqualFold(v, "none") {
		return ""
	}
	return v
}

func bitrateValue(b *float64) int {
	if b == nil || math.IsNaN(*b) || math.IsInf(*b, 0) || *b <= 0 {
		return 0
	}
	return int(math.Round(*b))
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

func intValue(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func int64Value(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}
