package downloader

import (
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"

	"github.com/denisAlshanov/vidgrab/internal/services/resolver"
)

const maxFileNameLength = 200

var containerTypes = map[string]string{
	"mp4":  "video/mp4",
	"m4v":  "video/mp4",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"mov":  "video/quicktime",
	"flv":  "video/x-flv",
	"m4a":  "audio/mp4",
	"mp3":  "audio/mpeg",
	"aac":  "audio/aac",
	"opus": "audio/ogg",
	"ogg":  "audio/ogg",
	"wav":  "audio/wav",
	"flac": "audio/flac",
}

// contentType maps a container to its MIME type, sniffing the file for
// containers the table does not know.
func contentType(path, container string, kind resolver.Kind) string {
	if container == "webm" && kind == resolver.KindAudioOnly {
		return "audio/webm"
	}
	if ct, ok := containerTypes[container]; ok {
		return ct
	}
	if mt, err := mimetype.DetectFile(path); err == nil {
		return mt.String()
	}
	return "application/octet-stream"
}

// sanitizeFileName builds a download file name from a media title
func sanitizeFileName(title, ext string) string {
	invalidChars := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	sanitized := title
	for _, char := range invalidChars {
		sanitized = strings.ReplaceAll(sanitized, char, "_")
	}
	sanitized = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, sanitized)
	sanitized = strings.Trim(strings.TrimSpace(sanitized), ".")
	if sanitized == "" {
		sanitized = "download"
	}

	suffix := ""
	if ext != "" {
		suffix = "." + ext
	}

	// Limit by bytes without splitting a rune.
	if len(sanitized)+len(suffix) > maxFileNameLength {
		limit := maxFileNameLength - len(suffix)
		cut := 0
		for i := range sanitized {
			if i > limit {
				break
			}
			cut = i
		}
		sanitized = sanitized[:cut]
	}

	return sanitized + suffix
}
