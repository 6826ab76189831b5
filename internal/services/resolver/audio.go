package resolver

import (
	"cmp"
	"fmt"
	"slices"
)

// AudioPolicy decides which audio-only stream is paired with a video-only
// selection before muxing.
type AudioPolicy string

const (
	AudioPolicyHighestBitrate    AudioPolicy = "highest-bitrate"
	AudioPolicyMatchingContainer AudioPolicy = "matching-container"
)

func ParseAudioPolicy(s string) (AudioPolicy, error) {
	switch AudioPolicy(s) {
	case AudioPolicyHighestBitrate, AudioPolicyMatchingContainer:
		return AudioPolicy(s), nil
	case "":
		return AudioPolicyHighestBitrate, nil
	}
	return "", fmt.Errorf("unknown audio pairing policy %q", s)
}

// compatibleAudio lists the audio containers that mux into a video container
// without re-encoding.
var compatibleAudio = map[string][]string{
	"mp4":  {"m4a", "mp4", "aac"},
	"mov":  {"m4a", "mp4", "aac"},
	"webm": {"webm", "opus", "ogg"},
}

// PickAudio chooses the audio stream to pair with video. formats should be the
// output of Normalize so that deduplication cannot hide a better stream.
func PickAudio(formats []Format, video Format, policy AudioPolicy) (Format, error) {
	audio := audioOnly(formats)
	if len(audio) == 0 {
		return Format{}, fmt.Errorf("%w: no audio-only stream to pair with %s", ErrNoUsableFormat, video.ID)
	}

	if policy == AudioPolicyMatchingContainer {
		if matching := filterContainers(audio, compatibleAudio[video.Container]); len(matching) > 0 {
			audio = matching
		}
	}

	slices.SortFunc(audio, compareAudio)
	return audio[0], nil
}

// BestAudioSource chooses the stream an audio-only download is extracted
// from: the best pure audio stream, otherwise the best combined stream.
func BestAudioSource(formats []Format) (Format, error) {
	if audio := audioOnly(formats); len(audio) > 0 {
		slices.SortFunc(audio, compareAudio)
		return audio[0], nil
	}

	var combined []Format
	for _, f := range formats {
		if f.Kind == KindVideoAudio {
			combined = append(combined, f)
		}
	}
	if len(combined) == 0 {
		return Format{}, fmt.Errorf("%w: no stream carries audio", ErrNoUsableFormat)
	}
	slices.SortFunc(combined, Compare)
	return combined[0], nil
}

// compareAudio: bitrate descending, filesize descending, identifier ascending.
func compareAudio(a, b Format) int {
	if c := cmp.Compare(b.Bitrate, a.Bitrate); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Filesize, a.Filesize); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func audioOnly(formats []Format) []Format {
	var out []Format
	for _, f := range formats {
		if f.Kind == KindAudioOnly {
			out = append(out, f)
		}
	}
	return out
}

func filterContainers(formats []Format, containers []string) []Format {
	var out []Format
	for _, f := range formats {
		if slices.Contains(containers, f.Container) {
			out = append(out, f)
		}
	}
	return out
}
