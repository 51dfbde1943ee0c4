package handlers

import (
	"time"

	"pose-browser/internal/applier"
	"pose-browser/internal/library"
	"pose-browser/internal/media"
	"pose-browser/internal/preview"
	"pose-browser/internal/settings"
	"pose-browser/internal/viewer"
)

// Components bundles the collaborators the handlers serve.
type Components struct {
	Settings   *settings.Store
	Library    *library.Library
	Resolver   *media.Resolver
	Thumbnails *media.ThumbnailGenerator
	Preview    *preview.Controller
	Viewer     *viewer.Viewer
	Applier    *applier.Client
}

type Handlers struct {
	store     *settings.Store
	library   *library.Library
	resolver  *media.Resolver
	thumbGen  *media.ThumbnailGenerator
	preview   *preview.Controller
	viewer    *viewer.Viewer
	applier   *applier.Client
	startTime time.Time
}

func New(c Components) *Handlers {
	return &Handlers{
		store:     c.Settings,
		library:   c.Library,
		resolver:  c.Resolver,
		thumbGen:  c.Thumbnails,
		preview:   c.Preview,
		viewer:    c.Viewer,
		applier:   c.Applier,
		startTime: time.Now(),
	}
}
