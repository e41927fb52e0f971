package mdxpress

import "embed"

// EmbeddedAssets contains static assets shipped with mdxpress:
// editor.js (live preview and save) and mdx.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
