package posetypes

import (
	"path/filepath"
	"strings"
)

// Kind is the classification of a library entry.
type Kind string

const (
	// KindDocument is a pose document eligible for browsing.
	KindDocument Kind = "document"
	// KindImage is a raster image usable as a preview.
	KindImage Kind = "image"
	// KindOther is anything else.
	KindOther Kind = "other"
)

// Format identifies which pose document variant a file holds.
type Format string

const (
	// FormatAnamnesis is the JSON ".pose" format, which may embed a preview image.
	FormatAnamnesis Format = "anamnesis"
	// FormatCMTool is the Concept Matrix ".cmp" format.
	FormatCMTool Format = "cmtool"
	// FormatUnknown is returned for non-document extensions.
	FormatUnknown Format = "unknown"
)

// DocumentExtensions maps lowercase document extensions to their format.
var DocumentExtensions = map[string]Format{
	".pose": FormatAnamnesis,
	".cmp":  FormatCMTool,
}

// ImageExtensions maps lowercase extensions to whether they are preview images.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Label returns the human readable name of a format.
func (f Format) Label() string {
	switch f {
	case FormatAnamnesis:
		return "Anamnesis pose"
	case FormatCMTool:
		return "Concept Matrix pose"
	default:
		return "Unknown file type"
	}
}

// Ext returns the lowercase extension of name including the leading dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// Classify returns the Kind of a file name or path.
func Classify(name string) Kind {
	ext := Ext(name)
	if _, ok := DocumentExtensions[ext]; ok {
		return KindDocument
	}
	if ImageExtensions[ext] {
		return KindImage
	}
	return KindOther
}

// FormatOf returns the document format of a file name or path.
func FormatOf(name string) Format {
	if f, ok := DocumentExtensions[Ext(name)]; ok {
		return f
	}
	return FormatUnknown
}

// IsDocument reports whether name is a pose document.
func IsDocument(name string) bool {
	return Classify(name) == KindDocument
}

// IsImage reports whether name is a preview image.
func IsImage(name string) bool {
	return Classify(name) == KindImage
}

// IsHidden reports whether a base name follows the dot-file convention.
func IsHidden(name string) bool {
	return strings.HasPrefix(filepath.Base(name), ".")
}

// DisplayName returns the file name without directory or extension.
func DisplayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
