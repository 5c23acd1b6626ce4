// Package web holds the static site served by default.
package web

import (
	"embed"
	"io/fs"
)

//go:embed public
var content embed.FS

// Public returns the site root, index.html at its top level.
func Public() fs.FS {
	sub, err := fs.Sub(content, "public")
	if err != nil {
		panic(err)
	}
	return sub
}

// Index returns the embedded index page.
func Index() []byte {
	data, err := fs.ReadFile(content, "public/index.html")
	if err != nil {
		panic(err)
	}
	return data
}
