// Package media finds preview images for pose documents and renders their
// thumbnails.
//
// A Resolver lists the candidate images for a document: the image embedded in
// the document itself first, then loose images in the document's directory,
// falling back to its parent directory. Embedded payloads are decoded once
// and written under the cache directory so every candidate is a plain file
// path. A ThumbnailGenerator crops and scales those files into cached JPEGs.
package media
