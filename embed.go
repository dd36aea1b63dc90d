package pubwiki

import "embed"

// EmbeddedAssets contains static assets shipped with the framework:
// wiki.css
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
