package web

import "embed"

// FS contains the embedded monitor page.
//
//go:embed index.html
var FS embed.FS
