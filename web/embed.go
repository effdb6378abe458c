// Package web holds the page template and the browser assets of kharcha.
package web

import "embed"

// Templates holds templates/*.html, parsed once when the server starts.
//
//go:embed templates/*.html
var Templates embed.FS

// Static holds the stylesheet and script served under /static/.
//
//go:embed static/*.css static/*.js
var Static embed.FS
