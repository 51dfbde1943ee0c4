// Package posefile decodes the two pose document formats the browser indexes.
package posefile

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pose-browser/internal/filesystem"
	"pose-browser/internal/posetypes"
)

// EmbeddedImageMarker is the raw JSON key that precedes an embedded preview.
// Files without it are never fully parsed when looking for images.
const EmbeddedImageMarker = `"Base64Image"`

// ErrUnsupportedFormat is returned for files that are not pose documents.
var ErrUnsupportedFormat = errors.New("unsupported pose format")

// Common holds the metadata fields shared by every format.
type Common struct {
	Author      string
	Description string
	Version     string
	Tags        []string
}

// Document is a decoded pose file.
type Document interface {
	Format() posetypes.Format
	Common() Common
	// AutoTags derives search tags from the document's own fields.
	AutoTags() []string
}

// AnamnesisPose is the ".pose" JSON document.
type AnamnesisPose struct {
	Author      string   `json:"Author,omitempty"`
	Description string   `json:"Description,omitempty"`
	Version     string   `json:"Version,omitempty"`
	Base64Image string   `json:"Base64Image,omitempty"`
	Tags        []string `json:"Tags,omitempty"`
}

// Format implements Document.
func (p *AnamnesisPose) Format() posetypes.Format { return posetypes.FormatAnamnesis }

// Common implements Document.
func (p *AnamnesisPose) Common() Common {
	return Common{Author: p.Author, Description: p.Description, Version: p.Version, Tags: p.Tags}
}

// AutoTags implements Document.
func (p *AnamnesisPose) AutoTags() []string {
	return appendTag(nil, p.Author)
}

// CMToolPose is the Concept Matrix ".cmp" document.
type CMToolPose struct {
	Race string `json:"Race,omitempty"`
}

// Format implements Document.
func (p *CMToolPose) Format() posetypes.Format { return posetypes.FormatCMTool }

// Common implements Document.
func (p *CMToolPose) Common() Common { return Common{} }

// AutoTags implements Document.
func (p *CMToolPose) AutoTags() []string {
	return appendTag(nil, p.Race)
}

func appendTag(tags []string, tag string) []string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return tags
	}
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return tags
		}
	}
	return append(tags, tag)
}

// Tags returns explicit tags followed by auto tags, without duplicates.
func Tags(doc Document) []string {
	var tags []string
	for _, t := range doc.Common().Tags {
		tags = appendTag(tags, t)
	}
	for _, t := range doc.AutoTags() {
		tags = appendTag(tags, t)
	}
	return tags
}

// Decode parses data as the given format.
func Decode(format posetypes.Format, data []byte) (Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var doc Document
	switch format {
	case posetypes.FormatAnamnesis:
		doc = &AnamnesisPose{}
	case posetypes.FormatCMTool:
		doc = &CMToolPose{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", format, err)
	}
	return doc, nil
}

// Load reads and parses the pose document at path.
func Load(path string) (Document, error) {
	format := posetypes.FormatOf(path)
	if format == posetypes.FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("read pose document: %w", err)
	}
	return Decode(format, data)
}

// HasEmbeddedMarker is the cheap pre-check run before a full parse.
func HasEmbeddedMarker(data []byte) bool {
	return bytes.Contains(data, []byte(EmbeddedImageMarker))
}

// EmbeddedImage returns the decoded preview image stored inside the document
// at path. ok is false when the format cannot embed images, the marker is
// absent, or the payload is empty.
func EmbeddedImage(path string) (data []byte, ok bool, err error) {
	if posetypes.FormatOf(path) != posetypes.FormatAnamnesis {
		return nil, false, nil
	}

	raw, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, false, fmt.Errorf("read pose document: %w", err)
	}
	if !HasEmbeddedMarker(raw) {
		return nil, false, nil
	}

	doc, err := Decode(posetypes.FormatAnamnesis, raw)
	if err != nil {
		return nil, false, err
	}

	payload := strings.TrimSpace(doc.(*AnamnesisPose).Base64Image)
	if payload == "" {
		return nil, false, nil
	}

	// Some tools store a data URI instead of bare base64.
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, ","); i >= 0 {
			payload = payload[i+1:]
		}
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode embedded image: %w", err)
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}
