// Package media holds the pure helpers used to present attachments and
// recordings: MIME classification and the size, duration, time and color
// formatters.
package media

import "strings"

type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryAudio Category = "audio"
	CategoryPDF   Category = "pdf"
	CategoryOther Category = "other"
)

// Classify maps a MIME type to its display category.
func Classify(mimeType string) Category {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return CategoryImage
	case strings.HasPrefix(mt, "video/"):
		return CategoryVideo
	case strings.HasPrefix(mt, "audio/"):
		return CategoryAudio
	case mt == "application/pdf":
		return CategoryPDF
	default:
		return CategoryOther
	}
}

// Icon is the glyph shown next to an attachment of the category.
func (c Category) Icon() string {
	switch c {
	case CategoryImage:
		return "🖼"
	case CategoryVideo:
		return "🎬"
	case CategoryAudio:
		return "🎵"
	case CategoryPDF:
		return "📄"
	default:
		return "📎"
	}
}
